package api

import (
	"net/http"

	"github.com/erazemk/packtrack/internal/lifecycle"
	"github.com/erazemk/packtrack/internal/model"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Lifecycle *lifecycle.Coordinator
}

type passwordRequest struct {
	Password string `json:"password"`
}

type deleteItemResponse struct {
	PackID      string `json:"packId"`
	ItemsLeft   int    `json:"itemsLeft"`
	PackRemoved bool   `json:"packRemoved"`
	Warning     string `json:"warning,omitempty"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Lifecycle.ListItems(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles GET /api/items/search?q=.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.Lifecycle.SearchItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Delete handles DELETE /api/items/{id}. The body carries the password that
// authorises the deletion. Removing the last item also removes its pack.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Lifecycle.DeleteItemCascade(r.Context(), req.Password, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := deleteItemResponse{
		PackID:      res.PackID,
		ItemsLeft:   res.ItemsLeft,
		PackRemoved: res.PackRemoved,
	}
	if res.CascadeErr != nil {
		resp.Warning = "item deleted but the empty pack could not be removed"
	}
	jsonResponse(w, http.StatusOK, resp)
}
