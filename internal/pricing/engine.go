package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Money represents a monetary value stored in whole currency units.
type Money = int64

// Shape identifies the bag silhouette and selects the area formula.
type Shape string

const (
	// ShapeSquare is a flat pouch priced on both faces.
	ShapeSquare Shape = "SQUARE"
	// ShapeCylinder is a round bag with one closed end.
	ShapeCylinder Shape = "CYLINDER"
	// ShapeCube is an open-top box.
	ShapeCube Shape = "CUBE"
)

// ErrUnknownShape is returned when the shape value is not recognised.
var ErrUnknownShape = errors.New("pricing: unknown shape")

// ParseShape normalises and validates a shape value.
func ParseShape(value string) (Shape, error) {
	switch Shape(strings.ToUpper(strings.TrimSpace(value))) {
	case ShapeSquare:
		return ShapeSquare, nil
	case ShapeCylinder:
		return ShapeCylinder, nil
	case ShapeCube:
		return ShapeCube, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShape, value)
	}
}

// Dimensions carries all dimension fields in centimeters. Fields that are
// irrelevant for the active shape are ignored, not errored.
type Dimensions struct {
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Depth    float64 `json:"depth,omitempty"`
	Diameter float64 `json:"diameter,omitempty"`
}

const (
	baseSquare   Money = 200
	baseCylinder Money = 300
	baseCube     Money = 400

	pricePerUnitArea       = 1.5
	roundStep        Money = 100
	minimumPrice     Money = 1100
)

// Quote computes the unit price for a bag configuration. A result of 0 means
// the dimensions are invalid for the shape and the configuration must be
// rejected, never sold for free. An unknown shape is an error, not a default.
func Quote(shape Shape, d Dimensions) (Money, error) {
	var (
		base Money
		area float64
	)
	switch shape {
	case ShapeSquare:
		if d.Width <= 0 || d.Height <= 0 {
			return 0, nil
		}
		base = baseSquare
		area = d.Width * d.Height * 2
	case ShapeCylinder:
		if d.Diameter <= 0 || d.Height <= 0 {
			return 0, nil
		}
		base = baseCylinder
		radius := d.Diameter / 2
		area = math.Pi*radius*radius + math.Pi*d.Diameter*d.Height
	case ShapeCube:
		if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
			return 0, nil
		}
		base = baseCube
		area = d.Width*d.Depth + 2*d.Width*d.Height + 2*d.Depth*d.Height
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
	}

	raw := float64(base) + area*pricePerUnitArea
	price := Money(math.Floor(raw/float64(roundStep))) * roundStep
	if price < minimumPrice {
		price = minimumPrice
	}
	return price, nil
}
