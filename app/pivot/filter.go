package pivot

import (
	"fmt"
	"log"
	"runtime"
	"strings"
)

// ApplyFilters returns the rows that satisfy every enabled filter.
// Filters compose by logical AND, so the order of the filter list never
// changes the result set. The input is not modified and row order is
// preserved.
//
// A filter with an unrecognized operator passes rows through with a
// warning rather than failing the computation. This is intentionally
// asymmetric with aggregation handling, where an unknown identifier is
// a hard failure.
func ApplyFilters(rows []DataRow, filters []Filter, logger Logger) []DataRow {
	return applyFilters(rows, filters, logger, DefaultBatchSize)
}

func applyFilters(rows []DataRow, filters []Filter, logger Logger, batchSize int) []DataRow {
	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if !f.Enabled {
			continue
		}
		if !knownOperator(f.Operator) {
			warnf(logger, "[FILTER_UNKNOWN_OP] Operator %q on field %q not recognized, rows pass through", f.Operator, f.Field.ID)
			continue
		}
		active = append(active, f)
	}
	if len(active) == 0 {
		return rows
	}

	out := make([]DataRow, 0, len(rows))
	for i, row := range rows {
		if batchSize > 0 && i > 0 && i%batchSize == 0 {
			runtime.Gosched()
		}
		if rowMatches(row, active) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row DataRow, filters []Filter) bool {
	for _, f := range filters {
		if !evaluateFilter(row[f.Field.ID], f.Operator, f.Value) {
			return false
		}
	}
	return true
}

func knownOperator(op FilterOperator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpIn, OpNotIn, OpBetween, OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// evaluateFilter applies one predicate to a single field value.
func evaluateFilter(v any, op FilterOperator, f any) bool {
	switch op {
	case OpEquals:
		return valuesIdentical(v, f)
	case OpNotEquals:
		return !valuesIdentical(v, f)
	case OpContains:
		return containsFold(v, f)
	case OpNotContains:
		return !containsFold(v, f)
	case OpGreaterThan:
		return compareNumeric(v, f, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumeric(v, f, func(a, b float64) bool { return a < b })
	case OpGreaterThanOrEqual:
		return compareNumeric(v, f, func(a, b float64) bool { return a >= b })
	case OpLessThanOrEqual:
		return compareNumeric(v, f, func(a, b float64) bool { return a <= b })
	case OpIn:
		list, ok := asList(f)
		if !ok {
			// Malformed filter value: the predicate degrades to a
			// no-op, matching the original's empty WHERE clause.
			return true
		}
		return listContains(list, v)
	case OpNotIn:
		list, ok := asList(f)
		if !ok {
			return true
		}
		return !listContains(list, v)
	case OpBetween:
		return betweenInclusive(v, f)
	case OpIsEmpty:
		return isEmptyValue(v)
	case OpIsNotEmpty:
		return !isEmptyValue(v)
	}
	return true
}

// valuesIdentical is the equals/notEquals comparison: identity with no
// coercion. Scalars of different dynamic types are never equal.
func valuesIdentical(v, f any) bool {
	if v == nil || f == nil {
		return v == nil && f == nil
	}
	// Interface equality panics on uncomparable values; everything the
	// data model allows is a comparable scalar, but filter values come
	// from arbitrary decoded JSON.
	if !comparableScalar(v) || !comparableScalar(f) {
		return false
	}
	return v == f
}

func comparableScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func containsFold(v, f any) bool {
	hay := strings.ToLower(stringifyGroupValue(v))
	needle := strings.ToLower(stringifyGroupValue(f))
	return strings.Contains(hay, needle)
}

func compareNumeric(v, f any, cmp func(a, b float64) bool) bool {
	a, okA := toNumber(v)
	b, okB := toNumber(f)
	if !okA || !okB {
		return false
	}
	return cmp(a, b)
}

func asList(f any) ([]any, bool) {
	switch t := f.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func listContains(list []any, v any) bool {
	target := stringifyGroupValue(v)
	for _, item := range list {
		if stringifyGroupValue(item) == target {
			return true
		}
	}
	return false
}

// betweenInclusive expects the filter value to be a {min, max} mapping
// and tests min <= v <= max after numeric coercion of all three.
func betweenInclusive(v, f any) bool {
	bounds, ok := f.(map[string]any)
	if !ok {
		return true
	}
	n, ok := toNumber(v)
	if !ok {
		return false
	}
	lo, okLo := toNumber(bounds["min"])
	hi, okHi := toNumber(bounds["max"])
	if !okLo || !okHi {
		return false
	}
	return n >= lo && n <= hi
}

// isEmptyValue is true iff the value is null/absent or an empty string.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func warnf(logger Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if logger != nil {
		logger.Log("warning", msg)
		return
	}
	log.Print(msg)
}
