package points

import (
	"net/http"
	"time"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
)

// Handler exposes the point balance to authenticated customers.
type Handler struct {
	Ledger *Ledger
	Now    func() time.Time
}

func (h *Handler) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Me returns the caller's stored balance alongside the effective (usable)
// balance and its expiry. Expired points display as zero without touching
// storage.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "point ledger not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load point balance", nil)
		return
	}
	now := h.now()
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"balance":          balance.Points,
			"effectiveBalance": balance.Effective(now),
			"lastPurchaseAt":   balance.LastPurchaseAt,
			"expiresAt":        balance.ExpiresAt(),
		},
	})
}
