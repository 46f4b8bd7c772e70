package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/packtrack/internal/lifecycle"
	"github.com/erazemk/packtrack/internal/model"
)

// TransactionsHandler handles sale transaction endpoints.
type TransactionsHandler struct {
	Lifecycle *lifecycle.Coordinator
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Lifecycle.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// Delete handles DELETE /api/transactions/{id}. Reversing the last sale of a
// pack returns it to "Not Sold"; the updated pack is returned.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pack, err := h.Lifecycle.ReverseSale(r.Context(), req.Password, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, pack)
}

// Profits handles GET /api/transactions/profits.
func (h *TransactionsHandler) Profits(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Lifecycle.ProfitStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
