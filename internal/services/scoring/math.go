package scoring

import "math"

// Round1 rounds to one decimal place.
func Round1(value float64) float64 {
	return math.Round(value*10) / 10
}
