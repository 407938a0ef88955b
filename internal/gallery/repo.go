package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
)

// ErrNotFound indicates the gallery entry could not be located.
var ErrNotFound = errors.New("gallery entry not found")

// Entry is a published bag configuration. The price is a snapshot taken at
// publish time and never recomputed.
type Entry struct {
	ID         string             `json:"id"`
	UserID     string             `json:"-"`
	AuthorName string             `json:"authorName"`
	Title      string             `json:"title"`
	Comment    string             `json:"comment,omitempty"`
	Shape      pricing.Shape      `json:"shape"`
	Dimensions pricing.Dimensions `json:"dimensions"`
	Colors     []string           `json:"colors"`
	CordCount  int                `json:"cordCount"`
	Price      pricing.Money      `json:"price"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Repo persists gallery entries.
type Repo struct {
	Pool *pgxpool.Pool
}

// Insert stores a new entry and fills in the generated fields.
func (r *Repo) Insert(ctx context.Context, e Entry) (Entry, error) {
	const q = `
INSERT INTO gallery_entries (user_id, author_name, title, comment, shape, width, height, depth, diameter, colors, cord_count, price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text, created_at
`
	err := r.Pool.QueryRow(ctx, q,
		e.UserID, e.AuthorName, e.Title, e.Comment, string(e.Shape),
		e.Dimensions.Width, e.Dimensions.Height, e.Dimensions.Depth, e.Dimensions.Diameter,
		e.Colors, e.CordCount, e.Price,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

const entryColumns = `id::text, user_id::text, author_name, title, comment, shape, width, height, depth, diameter, colors, cord_count, price, created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e     Entry
		shape string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.AuthorName, &e.Title, &e.Comment, &shape,
		&e.Dimensions.Width, &e.Dimensions.Height, &e.Dimensions.Depth, &e.Dimensions.Diameter,
		&e.Colors, &e.CordCount, &e.Price, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Shape = pricing.Shape(shape)
	return e, nil
}

// List returns a page of entries, newest first.
func (r *Repo) List(ctx context.Context, limit, offset int32) ([]Entry, error) {
	const q = `SELECT ` + entryColumns + ` FROM gallery_entries ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of published entries.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM gallery_entries`).Scan(&total)
	return total, err
}

// Get loads one entry by id.
func (r *Repo) Get(ctx context.Context, id string) (Entry, error) {
	const q = `SELECT ` + entryColumns + ` FROM gallery_entries WHERE id::text = $1`
	e, err := scanEntry(r.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}
