package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user: not found")

// RoleAdmin marks back-office staff accounts.
const RoleAdmin = "admin"

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Repo persists accounts in Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

const userColumns = `id::text, name, email, password_hash, roles, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a new account. Unique-violation handling is left to the
// caller, which knows how to phrase the conflict.
func (r *Repo) Create(ctx context.Context, name, email, passwordHash string, roles []string) (User, error) {
	const q = `
INSERT INTO users (name, email, password_hash, roles)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	if roles == nil {
		roles = []string{}
	}
	return scanUser(r.Pool.QueryRow(ctx, q, name, email, passwordHash, roles))
}

// GetByEmail looks an account up by its normalized email.
func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.Pool.QueryRow(ctx, q, email))
}

// GetByID looks an account up by id.
func (r *Repo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id::text = $1`
	return scanUser(r.Pool.QueryRow(ctx, q, id))
}

// List returns accounts ordered by creation time, newest first.
func (r *Repo) List(ctx context.Context, limit, offset int32) ([]User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`
	rows, err := r.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the total number of accounts.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total)
	return total, err
}

// UpdateRoles replaces the role set of an account.
func (r *Repo) UpdateRoles(ctx context.Context, id string, roles []string) (User, error) {
	const q = `
UPDATE users
SET roles = $2, updated_at = now()
WHERE id::text = $1
RETURNING ` + userColumns
	if roles == nil {
		roles = []string{}
	}
	return scanUser(r.Pool.QueryRow(ctx, q, id, roles))
}
