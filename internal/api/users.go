package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/auth"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

// UsersHandler handles user management endpoints.
type UsersHandler struct {
	DB         *db.DB
	BcryptCost int
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, apperr.Storage("listing users", err))
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Update handles PUT /api/users/{id}. Both email and password are replaced.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}
	if err := model.ValidateEmail(req.Email); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeError(w, r, apperr.Storage("hashing password", err))
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, req.Email, hash); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, apperr.Storage("getting user", err))
		return
	}

	Logger(r.Context()).Info("user updated", "target_user", id, "email", req.Email)
	jsonResponse(w, http.StatusOK, user)
}
