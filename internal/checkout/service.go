package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/events"
	"github.com/wallaby-factory/ec-site-sub001/internal/obs"
	"github.com/wallaby-factory/ec-site-sub001/internal/order"
	"github.com/wallaby-factory/ec-site-sub001/internal/points"
	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
)

const (
	// Orders at or above this goods subtotal ship for free.
	freeShippingThreshold pricing.Money = 10000
	shippingFee           pricing.Money = 350
)

// Line is one configured bag in the cart as submitted by the client. Any
// client-supplied price is ignored; the server re-derives every unit price.
type Line struct {
	Shape string `json:"shape"`
	pricing.Dimensions
	Colors    []string `json:"colors,omitempty"`
	CordCount int      `json:"cordCount"`
	Qty       int      `json:"qty"`
}

// PricedLine is a line with its authoritative server-side price attached.
type PricedLine struct {
	Line
	UnitPrice pricing.Money `json:"unitPrice"`
	Subtotal  pricing.Money `json:"subtotal"`
}

// Summary is the full checkout arithmetic for a cart and point request.
type Summary struct {
	GoodsSubtotal    pricing.Money `json:"goodsSubtotal"`
	ShippingFee      pricing.Money `json:"shippingFee"`
	GrandTotal       pricing.Money `json:"grandTotal"`
	EffectiveBalance pricing.Money `json:"effectiveBalance"`
	PointsUsed       pricing.Money `json:"pointsUsed"`
	FinalPayment     pricing.Money `json:"finalPayment"`
	EarnedPoints     pricing.Money `json:"earnedPoints"`
}

// PriceLines re-derives every unit price through the pricing engine and
// returns the priced lines with the goods subtotal. A zero quote means an
// invalid configuration and fails the whole cart.
func PriceLines(lines []Line) ([]PricedLine, pricing.Money, error) {
	if len(lines) == 0 {
		return nil, 0, common.NewAppError("VALIDATION_ERROR", "cart is empty", http.StatusBadRequest, nil)
	}
	priced := make([]PricedLine, 0, len(lines))
	var subtotal pricing.Money
	for i, line := range lines {
		if line.Qty <= 0 {
			return nil, 0, common.NewAppError("VALIDATION_ERROR",
				fmt.Sprintf("line %d: qty must be positive", i), http.StatusBadRequest, nil)
		}
		shape, err := pricing.ParseShape(line.Shape)
		if err != nil {
			return nil, 0, common.NewAppError("VALIDATION_ERROR",
				fmt.Sprintf("line %d: %v", i, err), http.StatusBadRequest, err)
		}
		unit, err := pricing.Quote(shape, line.Dimensions)
		if err != nil {
			return nil, 0, common.NewAppError("VALIDATION_ERROR",
				fmt.Sprintf("line %d: %v", i, err), http.StatusBadRequest, err)
		}
		if unit == 0 {
			return nil, 0, common.NewAppError("VALIDATION_ERROR",
				fmt.Sprintf("line %d: dimensions are invalid for shape %s", i, shape), http.StatusBadRequest, nil)
		}
		line.Shape = string(shape)
		priced = append(priced, PricedLine{
			Line:      line,
			UnitPrice: unit,
			Subtotal:  unit * pricing.Money(line.Qty),
		})
		subtotal += unit * pricing.Money(line.Qty)
	}
	return priced, subtotal, nil
}

// Quote derives the checkout summary from a goods subtotal, the user's point
// state, and an untrusted point-usage request. Pure: safe to call for
// previews and re-run at commit time.
func Quote(goodsSubtotal pricing.Money, balance points.Balance, requestedPoints int64, now time.Time) Summary {
	fee := shippingFee
	if goodsSubtotal >= freeShippingThreshold {
		fee = 0
	}
	grandTotal := goodsSubtotal + fee
	effective := balance.Effective(now)
	used := points.ClampRedemption(requestedPoints, effective, grandTotal)
	final := grandTotal - used
	if final < 0 {
		final = 0
	}
	return Summary{
		GoodsSubtotal:    goodsSubtotal,
		ShippingFee:      fee,
		GrandTotal:       grandTotal,
		EffectiveBalance: effective,
		PointsUsed:       used,
		FinalPayment:     final,
		EarnedPoints:     points.Earned(final),
	}
}

// Addr is the shipping destination submitted at checkout. It is flattened
// into a snapshot string on the order so later address edits never reach
// past orders.
type Addr struct {
	ReceiverName string `json:"receiverName"`
	Phone        string `json:"phone"`
	PostalCode   string `json:"postalCode"`
	Prefecture   string `json:"prefecture"`
	City         string `json:"city"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
}

// Snapshot renders the address as a single immutable string.
func (a Addr) Snapshot() string {
	parts := make([]string, 0, 7)
	for _, part := range []string{a.PostalCode, a.Prefecture, a.City, a.AddressLine1, a.AddressLine2, a.ReceiverName, a.Phone} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

func (a Addr) validate() error {
	if strings.TrimSpace(a.ReceiverName) == "" {
		return common.NewAppError("VALIDATION_ERROR", "receiverName is required", http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return common.NewAppError("VALIDATION_ERROR", "postalCode is required", http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(a.AddressLine1) == "" {
		return common.NewAppError("VALIDATION_ERROR", "addressLine1 is required", http.StatusBadRequest, nil)
	}
	return nil
}

// Input is the checkout request payload.
type Input struct {
	Lines       []Line `json:"lines"`
	PointsToUse int64  `json:"pointsToUse"`
	Address     Addr   `json:"address"`
}

// Output is returned after a successful checkout.
type Output struct {
	OrderID string       `json:"orderId"`
	Status  order.Status `json:"status"`
	Summary Summary      `json:"summary"`
	Lines   []PricedLine `json:"lines"`
}

// Service creates orders. Order rows, item snapshots, and the point ledger
// mutation commit in a single transaction; a failure anywhere rolls the
// whole checkout back.
type Service struct {
	Pool   *pgxpool.Pool
	Orders *order.Repo
	Ledger *points.Ledger
	Events *events.Bus
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates the cart, reprices it server-side, and commits the order
// together with the point movement.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.Orders == nil || s.Ledger == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Output{}, common.NewAppError("UNAUTHORIZED", "user is required for checkout", http.StatusUnauthorized, nil)
	}
	if err := in.Address.validate(); err != nil {
		return Output{}, err
	}
	priced, subtotal, err := PriceLines(in.Lines)
	if err != nil {
		return Output{}, err
	}

	now := s.now()
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Row lock: concurrent checkouts by the same user wait here, so the
	// redemption clamp below always sees the committed balance.
	balance, err := s.Ledger.BalanceForUpdateTx(ctx, tx, userID)
	if err != nil {
		return Output{}, err
	}
	summary := Quote(subtotal, balance, in.PointsToUse, now)

	created, err := s.Orders.InsertTx(ctx, tx, order.Order{
		UserID:          userID,
		Status:          order.StatusPending,
		GoodsSubtotal:   summary.GoodsSubtotal,
		ShippingFee:     summary.ShippingFee,
		PointsUsed:      summary.PointsUsed,
		PointsEarned:    summary.EarnedPoints,
		Total:           summary.FinalPayment,
		ShippingAddress: in.Address.Snapshot(),
	})
	if err != nil {
		return Output{}, err
	}
	for _, line := range priced {
		if err := s.Orders.InsertItemTx(ctx, tx, order.Item{
			OrderID:    created.ID,
			Shape:      pricing.Shape(line.Shape),
			Dimensions: line.Dimensions,
			Colors:     line.Colors,
			CordCount:  line.CordCount,
			Qty:        line.Qty,
			UnitPrice:  line.UnitPrice,
			Subtotal:   line.Subtotal,
		}); err != nil {
			return Output{}, err
		}
	}
	if err := s.Ledger.ApplyOrderTx(ctx, tx, userID, created.ID,
		summary.EffectiveBalance, summary.PointsUsed, summary.EarnedPoints, now); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	obs.RecordOrderCreated(summary.FinalPayment, summary.PointsUsed, summary.EarnedPoints)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, created.ID, map[string]any{
			"orderId":      created.ID,
			"userId":       userID,
			"total":        summary.FinalPayment,
			"pointsUsed":   summary.PointsUsed,
			"pointsEarned": summary.EarnedPoints,
		})
	}
	return Output{
		OrderID: created.ID,
		Status:  created.Status,
		Summary: summary,
		Lines:   priced,
	}, nil
}
