package reporting

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimal places used in the published document.
const (
	placesPrice     = 2
	placesLiquidity = 1
	placesScore     = 1
	placesIndicator = 4
)

// round rounds half away from zero in decimal. Non-finite values become 0.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// roundPtr rounds an optional value. Nil and non-finite values become nil.
func roundPtr(v *float64, places int32) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := round(*v, places)
	return &r
}

func optional(v float64, ok bool, places int32) *float64 {
	if !ok {
		return nil
	}
	return roundPtr(&v, places)
}

// formatNumber renders a rounded value without trailing zeros. Nil is empty.
func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).String()
}

// formatFixed renders a value with a fixed number of decimals.
func formatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
