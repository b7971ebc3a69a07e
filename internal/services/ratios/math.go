package ratios

import "math"

// CAGR calculates Compound Annual Growth Rate
func CAGR(start, end float64, years float64) float64 {
	if start <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(end/start, 1/years) - 1
}
