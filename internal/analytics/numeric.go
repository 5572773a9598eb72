package analytics

import (
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces heterogeneous inputs into a finite float64. Numeric
// strings are parsed, non-finite values and anything unparsable become 0.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case *float64:
		if x == nil {
			return 0
		}
		return finite(*x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// SafeDiv divides numerator by denominator, returning 0 when the
// denominator is 0 or the result is not finite.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return finite(numerator / denominator)
}

// PercentageChange returns the relative change in percent between current
// and previous. A previous value of 0 yields +100 when current is positive,
// -100 when negative and 0 otherwise.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		switch {
		case current > 0:
			return 100
		case current < 0:
			return -100
		default:
			return 0
		}
	}
	return finite((current - previous) / math.Abs(previous) * 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimal places for presentation figures.
func Round2(v float64) float64 {
	return math.Round(finite(v)*100) / 100
}
