package reporting

import (
	"math"

	"github.com/shopspring/decimal"
)

// round2 rounds half away from zero to 2 decimals. Non-finite values pass through.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// fixed formats v with exactly places decimals; NaN renders as "NaN".
func fixed(v float64, places int32) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "+Inf"
		}
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
