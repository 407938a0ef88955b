package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/events"
	"github.com/wallaby-factory/ec-site-sub001/internal/obs"
)

// AdminHandler serves the back-office order console.
type AdminHandler struct {
	Repo   *Repo
	Events *events.Bus
}

// List returns all orders, optionally filtered by ?status=.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repo not configured", nil)
		return
	}
	var statusFilter *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown status filter", nil)
			return
		}
		statusFilter = &status
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Repo.Count(r.Context(), statusFilter)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Repo.List(r.Context(), statusFilter, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// PatchStatus moves an order through its lifecycle. Illegal transitions are
// rejected; concurrent edits lose against the optimistic WHERE clause and
// surface as a conflict.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repo not configured", nil)
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	next, err := ParseStatus(payload.Status)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown status", nil)
		return
	}
	ord, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order lookup failed", nil)
		return
	}
	if !ord.Status.CanTransitionTo(next) {
		common.JSONError(w, http.StatusBadRequest, "INVALID_STATE",
			"transition not allowed", map[string]any{"from": ord.Status, "to": next})
		return
	}
	changed, err := h.Repo.UpdateStatus(r.Context(), ord.ID, ord.Status, next)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	if !changed {
		common.JSONError(w, http.StatusConflict, "CONFLICT", "order changed concurrently", nil)
		return
	}
	obs.RecordStatusChange(string(ord.Status), string(next))
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOrderStatusChanged, ord.ID, map[string]any{
			"orderId": ord.ID,
			"from":    ord.Status,
			"to":      next,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": next}})
}
