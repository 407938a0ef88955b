package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
)

// ErrNotFound indicates the order could not be located.
var ErrNotFound = errors.New("order not found")

// Order is a persisted checkout result. Everything except the status and the
// point columns is immutable after creation.
type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Status          Status        `json:"status"`
	GoodsSubtotal   pricing.Money `json:"goodsSubtotal"`
	ShippingFee     pricing.Money `json:"shippingFee"`
	PointsUsed      pricing.Money `json:"pointsUsed"`
	PointsEarned    pricing.Money `json:"pointsEarned"`
	Total           pricing.Money `json:"total"`
	ShippingAddress string        `json:"shippingAddress"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Item is an immutable snapshot of one configured bag at purchase time.
type Item struct {
	ID         string             `json:"id"`
	OrderID    string             `json:"-"`
	Shape      pricing.Shape      `json:"shape"`
	Dimensions pricing.Dimensions `json:"dimensions"`
	Colors     []string           `json:"colors"`
	CordCount  int                `json:"cordCount"`
	Qty        int                `json:"qty"`
	UnitPrice  pricing.Money      `json:"unitPrice"`
	Subtotal   pricing.Money      `json:"subtotal"`
}

// Repo provides order persistence on top of pgx.
type Repo struct {
	Pool *pgxpool.Pool
}

// InsertTx creates the order row inside an existing transaction.
func (r *Repo) InsertTx(ctx context.Context, tx pgx.Tx, o Order) (Order, error) {
	const q = `
INSERT INTO orders (user_id, status, goods_subtotal, shipping_fee, points_used, points_earned, total, shipping_address)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text, created_at, updated_at
`
	err := tx.QueryRow(ctx, q,
		o.UserID, string(o.Status), o.GoodsSubtotal, o.ShippingFee,
		o.PointsUsed, o.PointsEarned, o.Total, o.ShippingAddress,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// InsertItemTx snapshots one line item inside an existing transaction.
func (r *Repo) InsertItemTx(ctx context.Context, tx pgx.Tx, it Item) error {
	const q = `
INSERT INTO order_items (order_id, shape, width, height, depth, diameter, colors, cord_count, qty, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := tx.Exec(ctx, q,
		it.OrderID, string(it.Shape),
		it.Dimensions.Width, it.Dimensions.Height, it.Dimensions.Depth, it.Dimensions.Diameter,
		it.Colors, it.CordCount, it.Qty, it.UnitPrice, it.Subtotal,
	)
	return err
}

const orderColumns = `id::text, user_id::text, status, goods_subtotal, shipping_fee, points_used, points_earned, total, shipping_address, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &status, &o.GoodsSubtotal, &o.ShippingFee,
		&o.PointsUsed, &o.PointsEarned, &o.Total, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}

// GetForUser loads an order scoped to its owner.
func (r *Repo) GetForUser(ctx context.Context, id, userID string) (Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	o, err := scanOrder(r.Pool.QueryRow(ctx, q, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// Get loads an order without owner scoping, for the admin console.
func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// ListForUser returns a page of the user's orders, newest first.
func (r *Repo) ListForUser(ctx context.Context, userID string, limit, offset int32) ([]Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.Pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// CountForUser returns the user's total order count.
func (r *Repo) CountForUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

// List returns a page of all orders, optionally narrowed by status.
func (r *Repo) List(ctx context.Context, status *Status, limit, offset int32) ([]Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.Pool.Query(ctx, q, statusParam(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// Count returns the total number of orders matching the optional status.
func (r *Repo) Count(ctx context.Context, status *Status) (int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE ($1::text IS NULL OR status = $1)`, statusParam(status)).Scan(&total)
	return total, err
}

// ListItems returns the immutable line snapshots of an order.
func (r *Repo) ListItems(ctx context.Context, orderID string) ([]Item, error) {
	const q = `
SELECT id::text, order_id::text, shape, width, height, depth, diameter, colors, cord_count, qty, unit_price, subtotal
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`
	rows, err := r.Pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Item, 0, 4)
	for rows.Next() {
		var (
			it    Item
			shape string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &shape,
			&it.Dimensions.Width, &it.Dimensions.Height, &it.Dimensions.Depth, &it.Dimensions.Diameter,
			&it.Colors, &it.CordCount, &it.Qty, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		it.Shape = pricing.Shape(shape)
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus moves an order from one lifecycle state to another. The WHERE
// clause pins the previous state so concurrent admin edits cannot skip a
// transition. It reports whether a row actually changed.
func (r *Repo) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	tag, err := r.Pool.Exec(ctx, `
UPDATE orders SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	orders := make([]Order, 0, 16)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func statusParam(status *Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}
