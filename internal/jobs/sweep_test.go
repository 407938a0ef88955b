package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wallaby-factory/ec-site-sub001/internal/lock"
)

type stubSweeper struct {
	swept int64
	err   error
	calls int
}

func (s *stubSweeper) SweepExpired(context.Context, time.Time) (int64, error) {
	s.calls++
	return s.swept, s.err
}

func newTestLocker(t *testing.T) lock.Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
}

func TestProcessTaskSweeps(t *testing.T) {
	sweeper := &stubSweeper{swept: 4}
	h := &SweepHandler{
		Ledger:  sweeper,
		Locker:  newTestLocker(t),
		LockTTL: time.Second,
		Logger:  zerolog.Nop(),
	}
	require.NoError(t, h.ProcessTask(context.Background(), NewSweepTask()))
	require.Equal(t, 1, sweeper.calls)
}

func TestProcessTaskPropagatesError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	h := &SweepHandler{
		Ledger:  sweeper,
		Locker:  newTestLocker(t),
		LockTTL: time.Second,
		Logger:  zerolog.Nop(),
	}
	err := h.ProcessTask(context.Background(), NewSweepTask())
	require.Error(t, err)
}

func TestProcessTaskRequiresRedis(t *testing.T) {
	h := &SweepHandler{
		Ledger: &stubSweeper{},
		Logger: zerolog.Nop(),
	}
	require.Error(t, h.ProcessTask(context.Background(), NewSweepTask()))
}
