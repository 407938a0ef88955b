package material

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the material could not be located.
var ErrNotFound = errors.New("material not found")

// Material kinds. Fabrics carry a color swatch, cords a length-based stock.
const (
	KindFabric = "fabric"
	KindCord   = "cord"
)

// Material is one inventory item offered to the bag configurator.
type Material struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	ColorCode string    `json:"colorCode,omitempty"`
	Stock     int       `json:"stock"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repo persists materials.
type Repo struct {
	Pool *pgxpool.Pool
}

const materialColumns = `id::text, kind, name, color_code, stock, active, created_at, updated_at`

func scanMaterial(row pgx.Row) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Kind, &m.Name, &m.ColorCode, &m.Stock, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Material{}, ErrNotFound
	}
	return m, err
}

// Insert creates a material.
func (r *Repo) Insert(ctx context.Context, m Material) (Material, error) {
	const q = `
INSERT INTO materials (kind, name, color_code, stock, active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + materialColumns
	return scanMaterial(r.Pool.QueryRow(ctx, q, m.Kind, m.Name, m.ColorCode, m.Stock, m.Active))
}

// Update replaces the mutable fields of a material.
func (r *Repo) Update(ctx context.Context, id string, m Material) (Material, error) {
	const q = `
UPDATE materials
SET kind = $2, name = $3, color_code = $4, stock = $5, active = $6, updated_at = now()
WHERE id::text = $1
RETURNING ` + materialColumns
	return scanMaterial(r.Pool.QueryRow(ctx, q, id, m.Kind, m.Name, m.ColorCode, m.Stock, m.Active))
}

// Get loads one material.
func (r *Repo) Get(ctx context.Context, id string) (Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM materials WHERE id::text = $1`
	return scanMaterial(r.Pool.QueryRow(ctx, q, id))
}

// List returns materials, optionally only active ones, ordered by name.
func (r *Repo) List(ctx context.Context, activeOnly bool) ([]Material, error) {
	const q = `
SELECT ` + materialColumns + `
FROM materials
WHERE ($1 = false OR active)
ORDER BY kind, name`
	rows, err := r.Pool.Query(ctx, q, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var materials []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// Delete removes a material. It reports whether a row was deleted.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM materials WHERE id::text = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
