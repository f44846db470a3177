package money

import (
	"math"
	"math/rand/v2"
)

const (
	DefaultMinPrice = 9.99
	DefaultMaxPrice = 199.99
)

// RandomPrice draws uniformly from [min, max] and rounds to 2 decimal places.
func RandomPrice(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	value := rand.Float64()*(max-min) + min
	rounded := math.Round(value*100) / 100
	// rounding may push the value just outside the bounds
	return math.Min(math.Max(rounded, min), max)
}
