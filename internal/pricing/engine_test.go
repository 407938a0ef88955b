package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteSquareWorkedExample(t *testing.T) {
	// area = 30*40*2 = 2400; 200 + 2400*1.5 = 3800
	price, err := Quote(ShapeSquare, Dimensions{Width: 30, Height: 40})
	require.NoError(t, err)
	require.Equal(t, Money(3800), price)
}

func TestQuoteInvalidDimensionsReturnZero(t *testing.T) {
	cases := []struct {
		name  string
		shape Shape
		dims  Dimensions
	}{
		{"cylinder zero diameter", ShapeCylinder, Dimensions{Diameter: 0, Height: 50}},
		{"cylinder negative height", ShapeCylinder, Dimensions{Diameter: 10, Height: -1}},
		{"square zero width", ShapeSquare, Dimensions{Width: 0, Height: 10}},
		{"cube missing depth", ShapeCube, Dimensions{Width: 10, Height: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := Quote(tc.shape, tc.dims)
			require.NoError(t, err)
			require.Equal(t, Money(0), price)
		})
	}
}

func TestQuoteUnknownShape(t *testing.T) {
	_, err := Quote(Shape("SPHERE"), Dimensions{Width: 10, Height: 10})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownShape))
}

func TestQuoteIgnoresIrrelevantDimensions(t *testing.T) {
	with, err := Quote(ShapeSquare, Dimensions{Width: 30, Height: 40, Depth: -5, Diameter: -1})
	require.NoError(t, err)
	without, err := Quote(ShapeSquare, Dimensions{Width: 30, Height: 40})
	require.NoError(t, err)
	require.Equal(t, without, with)
}

func TestQuoteFloorAndRounding(t *testing.T) {
	// tiny square: area = 1*1*2 = 2; 200 + 3 = 203 -> 200 -> floored to 1100
	price, err := Quote(ShapeSquare, Dimensions{Width: 1, Height: 1})
	require.NoError(t, err)
	require.Equal(t, Money(1100), price)

	// cylinder result must still land on a 100 step
	price, err = Quote(ShapeCylinder, Dimensions{Diameter: 17.3, Height: 23.9})
	require.NoError(t, err)
	require.Zero(t, price%100)
	require.GreaterOrEqual(t, price, Money(1100))
}

func TestQuoteMonotonicInDimensions(t *testing.T) {
	prev := Money(0)
	for h := 10.0; h <= 100; h += 10 {
		price, err := Quote(ShapeCube, Dimensions{Width: 20, Height: h, Depth: 15})
		require.NoError(t, err)
		require.GreaterOrEqual(t, price, prev)
		prev = price
	}
}

func TestQuoteDeterministic(t *testing.T) {
	a, err := Quote(ShapeCylinder, Dimensions{Diameter: 12.5, Height: 33})
	require.NoError(t, err)
	b, err := Quote(ShapeCylinder, Dimensions{Diameter: 12.5, Height: 33})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestParseShape(t *testing.T) {
	shape, err := ParseShape(" cylinder ")
	require.NoError(t, err)
	require.Equal(t, ShapeCylinder, shape)

	_, err = ParseShape("pyramid")
	require.True(t, errors.Is(err, ErrUnknownShape))
}
