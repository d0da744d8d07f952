// Package aspect classifies projector sizes into canonical aspect ratios.
package aspect

import (
	"fmt"

	"projector-server/internal/models"
)

// Tolerance is the distance within which an observed ratio matches a canonical one.
const Tolerance = 0.05

// Default is assigned when no canonical ratio matches
var Default = models.AspectRatio{Numerator: 16, Denominator: 9}

// Canonical ratios in priority order. The first match wins.
var Canonical = []models.AspectRatio{
	{Numerator: 4, Denominator: 3},
	{Numerator: 16, Denominator: 9},
	{Numerator: 16, Denominator: 10},
	{Numerator: 30, Denominator: 9},
}

// Classify maps width/height to the first canonical ratio within Tolerance,
// or Default. Width and height must be positive; callers validate upstream
// and a violation panics.
func Classify(width, height float64) models.AspectRatio {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("aspect: invalid size %vx%v", width, height))
	}

	observed := width / height
	for _, ratio := range Canonical {
		value := float64(ratio.Numerator) / float64(ratio.Denominator)
		if value >= observed-Tolerance && value <= observed+Tolerance {
			return ratio
		}
	}
	return Default
}
