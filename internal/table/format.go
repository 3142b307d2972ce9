package table

import (
	"math"
	"strconv"
	"strings"
)

// formatNumber renders a numeric value the way the CSV consumers expect:
// shortest round-trip digits, positional notation for ordinary magnitudes,
// exponent notation for very large or very small ones, integers without a
// fractional part, and an empty field for a missing value.
func formatNumber(kind Kind, v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if kind == Int && v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}

	abs := math.Abs(v)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
