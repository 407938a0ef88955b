package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/wallaby-factory/ec-site-sub001/internal/events"
	"github.com/wallaby-factory/ec-site-sub001/internal/lock"
	"github.com/wallaby-factory/ec-site-sub001/internal/obs"
)

// TaskPointsSweep zeroes point balances whose expiry window has passed.
const TaskPointsSweep = "points:sweep"

const sweepLockKey = "lock:points:sweep"

// NewSweepTask builds the sweep task payload. The task carries no arguments;
// the sweep SQL is idempotent and derives everything from the clock.
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TaskPointsSweep, nil)
}

// BalanceSweeper is the ledger surface the sweep needs.
type BalanceSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepHandler processes the periodic points-expiry sweep. A distributed
// lock keeps concurrent workers from double-running; the sweep itself is
// idempotent so a lost lock only costs a redundant UPDATE.
type SweepHandler struct {
	Ledger  BalanceSweeper
	Locker  lock.Locker
	LockTTL time.Duration
	Events  *events.Bus
	Logger  zerolog.Logger
	Now     func() time.Time
}

func (h *SweepHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ProcessTask implements asynq.Handler.
func (h *SweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	return h.Locker.WithLock(ctx, sweepLockKey, h.LockTTL, func(ctx context.Context) error {
		now := h.now()
		swept, err := h.Ledger.SweepExpired(ctx, now)
		if err != nil {
			h.Logger.Error().Err(err).Msg("points sweep failed")
			return err
		}
		obs.RecordPointsSwept(swept)
		h.Logger.Info().Int64("accounts", swept).Time("as_of", now).Msg("points sweep completed")
		if h.Events != nil && swept > 0 {
			_, _ = h.Events.Emit(ctx, events.TopicPointsSwept, "points-sweep", map[string]any{
				"accounts": swept,
				"asOf":     now,
			})
		}
		return nil
	})
}
