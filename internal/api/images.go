package api

import (
	"net/http"

	"github.com/erazemk/packtrack/internal/lifecycle"
)

// ImagesHandler handles image endpoints.
type ImagesHandler struct {
	Lifecycle *lifecycle.Coordinator
}

type deleteImagesRequest struct {
	IDs []int64 `json:"ids"`
}

// Delete handles DELETE /api/images. Unknown ids are ignored.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteImagesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.Lifecycle.DeleteImagesByIDs(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int{"deleted": n})
}
