package gallery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
)

type memStore struct {
	entries   []Entry
	listCalls int
}

func (m *memStore) Insert(_ context.Context, e Entry) (Entry, error) {
	e.ID = fmt.Sprintf("entry-%d", len(m.entries)+1)
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memStore) List(_ context.Context, limit, offset int32) ([]Entry, error) {
	m.listCalls++
	if int(offset) >= len(m.entries) {
		return nil, nil
	}
	end := int(offset + limit)
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.entries)), nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestPublishSnapshotsServerPrice(t *testing.T) {
	store := &memStore{}
	svc := &Service{Store: store, Cache: newTestCache(t)}

	entry, err := svc.Publish(context.Background(), "user-1", PublishInput{
		Title:  "picnic bag",
		Shape:  "square",
		Width:  30,
		Height: 40,
		Colors: []string{"navy"},
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(3800), entry.Price)
	require.Equal(t, pricing.ShapeSquare, entry.Shape)
	require.Equal(t, "anonymous", entry.AuthorName)
}

func TestPublishRejectsInvalidConfigurations(t *testing.T) {
	svc := &Service{Store: &memStore{}, Cache: newTestCache(t)}
	cases := []struct {
		name string
		in   PublishInput
	}{
		{"empty title", PublishInput{Shape: "SQUARE", Width: 10, Height: 10}},
		{"unknown shape", PublishInput{Title: "x", Shape: "SPHERE", Width: 10, Height: 10}},
		{"invalid dimensions", PublishInput{Title: "x", Shape: "CYLINDER", Diameter: 0, Height: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Publish(context.Background(), "user-1", tc.in)
			require.Error(t, err)
			var appErr *common.AppError
			require.True(t, common.AsAppError(err, &appErr))
			require.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestListServedFromCache(t *testing.T) {
	store := &memStore{}
	svc := &Service{Store: store, Cache: newTestCache(t)}
	_, err := svc.Publish(context.Background(), "user-1", PublishInput{
		Title: "one", Shape: "SQUARE", Width: 10, Height: 10,
	})
	require.NoError(t, err)

	first, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)

	second, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, first.Total, second.Total)
	require.Equal(t, 1, store.listCalls)
}

func TestPublishInvalidatesListCache(t *testing.T) {
	store := &memStore{}
	svc := &Service{Store: store, Cache: newTestCache(t)}

	_, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	_, err = svc.Publish(context.Background(), "user-1", PublishInput{
		Title: "fresh", Shape: "CUBE", Width: 10, Height: 10, Depth: 10,
	})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 2, store.listCalls)
	require.Len(t, result.Entries, 1)
}

func TestListWithoutCacheClient(t *testing.T) {
	store := &memStore{}
	svc := &Service{Store: store}
	_, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
}
