package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/packtrack/internal/apperr"
	"github.com/erazemk/packtrack/internal/ident"
	"github.com/erazemk/packtrack/internal/imaging"
	"github.com/erazemk/packtrack/internal/lifecycle"
	"github.com/erazemk/packtrack/internal/model"
)

// DefaultMaxUploadBytes bounds a multipart request when none is configured.
const DefaultMaxUploadBytes = 32 << 20

// PacksHandler handles pack endpoints.
type PacksHandler struct {
	Lifecycle      *lifecycle.Coordinator
	Images         *imaging.Normalizer
	MaxUploadBytes int64
}

type updatePackRequest struct {
	Brand         string     `json:"brand"`
	Category      string     `json:"category"`
	Price         flexString `json:"price"`
	NumberOfItems int        `json:"numberOfItems"`
}

type markSoldRequest struct {
	Amount   flexString `json:"amount"`
	Password string     `json:"password"`
}

// Create handles POST /api/packs. The body is a multipart form with the
// fields brand, category, price and numberOfItems plus any number of
// "images" files.
func (h *PacksHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	count, err := strconv.Atoi(strings.TrimSpace(r.FormValue("numberOfItems")))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "numberOfItems must be an integer")
		return
	}

	images, err := h.readImages(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.Lifecycle.CreatePackWithItems(r.Context(), lifecycle.NewPack{
		Brand:     strings.TrimSpace(r.FormValue("brand")),
		Category:  strings.TrimSpace(r.FormValue("category")),
		Price:     r.FormValue("price"),
		ItemCount: count,
		Images:    images,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, view)
}

// List handles GET /api/packs.
func (h *PacksHandler) List(w http.ResponseWriter, r *http.Request) {
	packs, err := h.Lifecycle.ListPacks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if packs == nil {
		packs = []model.PackView{}
	}
	jsonResponse(w, http.StatusOK, packs)
}

// Update handles PUT /api/packs/{id}.
func (h *PacksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := packID(w, r)
	if !ok {
		return
	}

	var req updatePackRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pack, err := h.Lifecycle.ResizePack(r.Context(), id, lifecycle.PackUpdate{
		Brand:     strings.TrimSpace(req.Brand),
		Category:  strings.TrimSpace(req.Category),
		Price:     string(req.Price),
		ItemCount: req.NumberOfItems,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, pack)
}

// MarkSold handles POST /api/packs/{id}/sold.
func (h *PacksHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	id, ok := packID(w, r)
	if !ok {
		return
	}

	var req markSoldRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.Lifecycle.MarkSold(r.Context(), req.Password, id, string(req.Amount))
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, tx)
}

// AddImages handles POST /api/packs/{id}/images.
func (h *PacksHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	id, ok := packID(w, r)
	if !ok {
		return
	}

	if !h.parseMultipart(w, r) {
		return
	}

	images, err := h.readImages(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ids, err := h.Lifecycle.AddImagesToPack(r.Context(), id, images)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string][]int64{"ids": ids})
}

// Categories handles GET /api/categories.
func (h *PacksHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Lifecycle.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Count handles GET /api/packs/count.
func (h *PacksHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.Lifecycle.PackCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"count": n})
}

// Sold handles GET /api/packs/sold.
func (h *PacksHandler) Sold(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Lifecycle.SoldStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// packID reads the {id} path value, responding with 400 if it cannot be a
// generated pack identifier.
func packID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !ident.ValidPackID(id) {
		jsonError(w, http.StatusBadRequest, "invalid pack id")
		return "", false
	}
	return id, true
}

// parseMultipart bounds and parses a multipart body, responding with 400 on failure.
func (h *PacksHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return false
	}
	return true
}

// readImages reads and normalises every "images" file of a parsed form.
func (h *PacksHandler) readImages(r *http.Request) ([][]byte, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var payloads [][]byte
	for _, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			return nil, apperr.Storage("opening uploaded image", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperr.Validationf("reading uploaded image: %v", err)
		}
		payloads = append(payloads, data)
	}

	if len(payloads) == 0 {
		return nil, nil
	}
	return h.Images.NormalizeAll(payloads)
}
