package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/points"
	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
)

var testNow = time.Date(2026, time.August, 29, 9, 0, 0, 0, time.UTC)

func TestShippingFeeThreshold(t *testing.T) {
	s := Quote(10000, points.Balance{}, 0, testNow)
	require.Equal(t, pricing.Money(0), s.ShippingFee)
	require.Equal(t, pricing.Money(10000), s.GrandTotal)

	s = Quote(9999, points.Balance{}, 0, testNow)
	require.Equal(t, pricing.Money(350), s.ShippingFee)
	require.Equal(t, pricing.Money(10349), s.GrandTotal)
}

func TestQuoteClampsOversizedRequest(t *testing.T) {
	// balance 500, grand total 300, requested 1000 -> used 300, pay 0, earn 0
	used := points.ClampRedemption(1000, 500, 300)
	require.Equal(t, int64(300), used)
	require.Equal(t, int64(0), 300-used)
	require.Equal(t, int64(0), points.Earned(300-used))

	s := Quote(2000, points.Balance{Points: 50000}, 99999, testNow)
	require.Equal(t, s.GrandTotal, s.PointsUsed)
	require.Equal(t, pricing.Money(0), s.FinalPayment)
	require.Equal(t, pricing.Money(0), s.EarnedPoints)
}

func TestQuoteNegativeRequestIsNoop(t *testing.T) {
	s := Quote(2000, points.Balance{Points: 500}, -10, testNow)
	require.Equal(t, pricing.Money(0), s.PointsUsed)
	require.Equal(t, s.GrandTotal, s.FinalPayment)
}

func TestQuoteExpiredBalanceUnusable(t *testing.T) {
	old := testNow.AddDate(-3, 0, -1)
	s := Quote(2000, points.Balance{Points: 9999, LastPurchaseAt: &old}, 500, testNow)
	require.Equal(t, pricing.Money(0), s.EffectiveBalance)
	require.Equal(t, pricing.Money(0), s.PointsUsed)
}

func TestQuoteEarnedOnPostDiscountAmount(t *testing.T) {
	// subtotal 12000 -> free shipping, grand 12000; use 2000 points
	s := Quote(12000, points.Balance{Points: 5000}, 2000, testNow)
	require.Equal(t, pricing.Money(2000), s.PointsUsed)
	require.Equal(t, pricing.Money(10000), s.FinalPayment)
	require.Equal(t, pricing.Money(500), s.EarnedPoints)
}

func TestPriceLinesRederivesPrices(t *testing.T) {
	lines := []Line{
		{Shape: "square", Dimensions: pricing.Dimensions{Width: 30, Height: 40}, Qty: 2},
		{Shape: "CUBE", Dimensions: pricing.Dimensions{Width: 10, Height: 10, Depth: 10}, Qty: 1},
	}
	priced, subtotal, err := PriceLines(lines)
	require.NoError(t, err)
	require.Len(t, priced, 2)
	require.Equal(t, pricing.Money(3800), priced[0].UnitPrice)
	require.Equal(t, pricing.Money(7600), priced[0].Subtotal)
	require.Equal(t, priced[0].Subtotal+priced[1].Subtotal, subtotal)
}

func TestPriceLinesRejectsInvalidConfigurations(t *testing.T) {
	cases := []struct {
		name  string
		lines []Line
	}{
		{"empty cart", nil},
		{"zero qty", []Line{{Shape: "SQUARE", Dimensions: pricing.Dimensions{Width: 10, Height: 10}, Qty: 0}}},
		{"unknown shape", []Line{{Shape: "SPHERE", Dimensions: pricing.Dimensions{Width: 10, Height: 10}, Qty: 1}}},
		{"invalid dimensions", []Line{{Shape: "CYLINDER", Dimensions: pricing.Dimensions{Diameter: 0, Height: 50}, Qty: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := PriceLines(tc.lines)
			require.Error(t, err)
			var appErr *common.AppError
			require.True(t, common.AsAppError(err, &appErr))
			require.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestAddrSnapshot(t *testing.T) {
	a := Addr{
		ReceiverName: "Hana Sato",
		Phone:        "090-1234-5678",
		PostalCode:   "150-0001",
		Prefecture:   "Tokyo",
		City:         "Shibuya",
		AddressLine1: "1-2-3 Jingumae",
	}
	snap := a.Snapshot()
	require.Contains(t, snap, "150-0001")
	require.Contains(t, snap, "Hana Sato")
	require.NotContains(t, snap, "  ")
}
