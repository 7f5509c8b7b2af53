package dataset

import (
	"fmt"
	"sort"
)

// DefaultValueLimit caps FieldValues results when no limit is given.
const DefaultValueLimit = 100

// FieldValues returns the distinct non-null values of one field across
// the rows, sorted with numbers first in numeric order and everything
// else by string form. Intended for populating filter pickers, so the
// result is capped at limit entries.
func FieldValues(rows []DataRow, fieldID string, limit int) []any {
	if limit <= 0 {
		limit = DefaultValueLimit
	}

	seen := make(map[string]bool)
	var values []any

	for _, row := range rows {
		v, ok := row[fieldID]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprint(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}

	sort.Slice(values, func(i, j int) bool {
		ni, iNum := asNumber(values[i])
		nj, jNum := asNumber(values[j])
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum != jNum:
			return iNum
		default:
			return fmt.Sprint(values[i]) < fmt.Sprint(values[j])
		}
	})

	if len(values) > limit {
		values = values[:limit]
	}
	return values
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
