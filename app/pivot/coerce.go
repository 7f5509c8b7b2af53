package pivot

import (
	"fmt"
	"strconv"
	"strings"
)

// toNumber attempts numeric coercion of a raw field value. Strings are
// parsed after trimming whitespace; booleans and nil are not numbers.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// stringifyAny is the fallback string coercion for values outside the
// common scalar types.
func stringifyAny(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// formatNumber renders a float without trailing zeros ("3000", "2.5").
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
