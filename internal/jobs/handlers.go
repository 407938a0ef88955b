package jobs

import (
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
)

// AdminHandler lets staff trigger background tasks out of schedule.
type AdminHandler struct {
	Client *asynq.Client
}

// TriggerSweep enqueues an immediate points-expiry sweep.
func (h *AdminHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "task client not configured", nil)
		return
	}
	info, err := h.Client.EnqueueContext(r.Context(), NewSweepTask())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to enqueue sweep", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{
		"data": map[string]any{"taskId": info.ID, "queue": info.Queue},
	})
}
