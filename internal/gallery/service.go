package gallery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/events"
	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
	"github.com/wallaby-factory/ec-site-sub001/internal/user"
)

const listKeyPrefix = "gallery:list:"

// Store is the persistence surface the service needs. *Repo satisfies it.
type Store interface {
	Insert(ctx context.Context, e Entry) (Entry, error)
	List(ctx context.Context, limit, offset int32) ([]Entry, error)
	Count(ctx context.Context) (int64, error)
}

// AuthorDirectory resolves the display name attached to published entries.
type AuthorDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// PublishInput is the customer-submitted configuration to publish.
type PublishInput struct {
	Title     string   `json:"title"`
	Comment   string   `json:"comment"`
	Shape     string   `json:"shape"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	Depth     float64  `json:"depth"`
	Diameter  float64  `json:"diameter"`
	Colors    []string `json:"colors"`
	CordCount int      `json:"cordCount"`
}

// Service publishes and lists gallery entries. The price on an entry is
// always derived server-side; a client-submitted price never survives.
type Service struct {
	Store  Store
	Users  AuthorDirectory
	Cache  *Cache
	Events *events.Bus
}

// ListResult is the cached page payload.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int64   `json:"total"`
}

// Publish validates the configuration, snapshots its price, and stores it.
func (s *Service) Publish(ctx context.Context, userID string, in PublishInput) (Entry, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Entry{}, common.NewAppError("VALIDATION_ERROR", "title is required", http.StatusBadRequest, nil)
	}
	shape, err := pricing.ParseShape(in.Shape)
	if err != nil {
		return Entry{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
	}
	dims := pricing.Dimensions{Width: in.Width, Height: in.Height, Depth: in.Depth, Diameter: in.Diameter}
	price, err := pricing.Quote(shape, dims)
	if err != nil {
		return Entry{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
	}
	if price == 0 {
		return Entry{}, common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("dimensions are invalid for shape %s", shape), http.StatusBadRequest, nil)
	}

	authorName := "anonymous"
	if s.Users != nil {
		if account, err := s.Users.GetByID(ctx, userID); err == nil {
			authorName = account.Name
		}
	}

	entry, err := s.Store.Insert(ctx, Entry{
		UserID:     userID,
		AuthorName: authorName,
		Title:      title,
		Comment:    strings.TrimSpace(in.Comment),
		Shape:      shape,
		Dimensions: dims,
		Colors:     in.Colors,
		CordCount:  in.CordCount,
		Price:      price,
	})
	if err != nil {
		return Entry{}, err
	}

	// Stale pages are acceptable for the cache TTL, not after a publish.
	_ = s.Cache.Invalidate(ctx, listKeyPrefix+"*")
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicGalleryPublished, entry.ID, map[string]any{
			"entryId": entry.ID,
			"userId":  userID,
			"shape":   entry.Shape,
			"price":   entry.Price,
		})
	}
	return entry, nil
}

// List returns a page of entries, newest first, read through the cache.
func (s *Service) List(ctx context.Context, page, perPage int) (ListResult, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	key := fmt.Sprintf("%sp%d:n%d", listKeyPrefix, page, perPage)

	var cached ListResult
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	total, err := s.Store.Count(ctx)
	if err != nil {
		return ListResult{}, err
	}
	entries, err := s.Store.List(ctx, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Entries: entries, Total: total}
	_ = s.Cache.SetJSON(ctx, key, result)
	return result, nil
}
