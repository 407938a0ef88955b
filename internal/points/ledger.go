package points

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry kinds recorded in the point ledger.
const (
	EntryRedeem = "REDEEM"
	EntryEarn   = "EARN"
)

// Ledger persists point balances and their mutation history.
type Ledger struct {
	Pool *pgxpool.Pool
}

// Balance loads a user's point state. Users without a row read as zero.
func (l *Ledger) Balance(ctx context.Context, userID string) (Balance, error) {
	if l == nil || l.Pool == nil {
		return Balance{}, errors.New("points: ledger not configured")
	}
	const q = `
SELECT balance, last_purchase_at
FROM point_balances
WHERE user_id = $1
`
	var b Balance
	err := l.Pool.QueryRow(ctx, q, userID).Scan(&b.Points, &b.LastPurchaseAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, nil
	}
	if err != nil {
		return Balance{}, err
	}
	return b, nil
}

// BalanceForUpdateTx locks the user's balance row inside the given
// transaction, creating it first if missing. Concurrent checkouts by the
// same user serialize on this lock so redemption validation cannot race.
func (l *Ledger) BalanceForUpdateTx(ctx context.Context, tx pgx.Tx, userID string) (Balance, error) {
	if _, err := tx.Exec(ctx, `
INSERT INTO point_balances (user_id) VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return Balance{}, err
	}
	const q = `
SELECT balance, last_purchase_at
FROM point_balances
WHERE user_id = $1
FOR UPDATE
`
	var b Balance
	if err := tx.QueryRow(ctx, q, userID).Scan(&b.Points, &b.LastPurchaseAt); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// ApplyOrderTx records the point movement for a committed order: the new
// balance is written from the effective (non-expired) balance, used points
// are debited, earned points credited, and lastPurchaseAt reset. Ledger
// entries are keyed by order id so a retry after a partial failure cannot
// double-apply.
func (l *Ledger) ApplyOrderTx(ctx context.Context, tx pgx.Tx, userID, orderID string, effective, used, earned int64, now time.Time) error {
	newBalance := effective - used + earned
	if newBalance < 0 {
		return errors.New("points: redemption exceeds effective balance")
	}
	if _, err := tx.Exec(ctx, `
UPDATE point_balances
SET balance = $2, last_purchase_at = $3, updated_at = now()
WHERE user_id = $1
`, userID, newBalance, now); err != nil {
		return err
	}
	if used > 0 {
		if err := insertEntry(ctx, tx, userID, orderID, EntryRedeem, -used); err != nil {
			return err
		}
	}
	if earned > 0 {
		if err := insertEntry(ctx, tx, userID, orderID, EntryEarn, earned); err != nil {
			return err
		}
	}
	return nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, userID, orderID, kind string, amount int64) error {
	_, err := tx.Exec(ctx, `
INSERT INTO point_entries (user_id, order_id, kind, amount)
VALUES ($1, $2, $3, $4)
ON CONFLICT (order_id, kind) DO NOTHING
`, userID, orderID, kind, amount)
	return err
}

// SweepExpired zeroes balances whose three calendar year window has lapsed
// and reports how many rows were cleared. The statement is idempotent, so
// overlapping runs are harmless.
func (l *Ledger) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	if l == nil || l.Pool == nil {
		return 0, errors.New("points: ledger not configured")
	}
	tag, err := l.Pool.Exec(ctx, `
UPDATE point_balances
SET balance = 0, updated_at = now()
WHERE balance > 0
  AND last_purchase_at IS NOT NULL
  AND last_purchase_at + interval '3 years' < $1
`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
