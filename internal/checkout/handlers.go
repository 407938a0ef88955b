package checkout

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/points"
)

// Handler wires checkout to HTTP.
type Handler struct {
	Svc    *Service
	Ledger *points.Ledger
}

// Checkout creates an order for the authenticated user.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	out, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		var appErr *common.AppError
		if common.AsAppError(err, &appErr) {
			common.RenderError(w, err)
			return
		}
		// storage failures must never leak a half-applied checkout
		common.JSONError(w, http.StatusInternalServerError, "CHECKOUT_FAILED", "checkout could not be completed", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// QuoteHandler previews the checkout arithmetic without side effects. It is
// safe for unauthenticated carts; the point portion only applies when a user
// is logged in.
func (h *Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Lines       []Line `json:"lines"`
		PointsToUse int64  `json:"pointsToUse"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	priced, subtotal, err := PriceLines(in.Lines)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	balance := points.Balance{}
	if userID, ok := common.UserID(r.Context()); ok && h.Ledger != nil {
		balance, err = h.Ledger.Balance(r.Context(), userID)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load point balance", nil)
			return
		}
	}
	summary := Quote(subtotal, balance, in.PointsToUse, time.Now())
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"lines":   priced,
			"summary": summary,
		},
	})
}
