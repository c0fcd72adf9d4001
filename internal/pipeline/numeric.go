package pipeline

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Float coerces a document value to float64. Nil, non-numeric and
// non-finite values report ok=false.
func Float(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64(), true
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int coerces a document value to int64, truncating fractions.
func Int(v any) (int64, bool) {
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Mean averages values. An empty input has no mean.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return 0, false
	}
	return mean, true
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
