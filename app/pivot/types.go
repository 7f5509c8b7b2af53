package pivot

import (
	"strconv"
	"strings"

	"pivotgrid/app/interfaces"
)

// Type aliases to the interfaces package to avoid duplication and
// circular dependencies between the engine and the cache.
type Logger = interfaces.Logger
type Field = interfaces.Field
type DataRow = interfaces.DataRow
type Aggregation = interfaces.Aggregation
type FilterOperator = interfaces.FilterOperator
type ValueSpec = interfaces.ValueSpec
type Filter = interfaces.Filter
type Configuration = interfaces.Configuration
type Options = interfaces.Options
type Header = interfaces.Header
type Cell = interfaces.Cell
type CellType = interfaces.CellType
type PivotStructure = interfaces.PivotStructure

// Re-exported enum values so engine code and callers that only import
// this package read naturally.
const (
	AggSum           = interfaces.AggSum
	AggAvg           = interfaces.AggAvg
	AggMin           = interfaces.AggMin
	AggMax           = interfaces.AggMax
	AggCount         = interfaces.AggCount
	AggCountDistinct = interfaces.AggCountDistinct

	OpEquals             = interfaces.OpEquals
	OpNotEquals          = interfaces.OpNotEquals
	OpContains           = interfaces.OpContains
	OpNotContains        = interfaces.OpNotContains
	OpGreaterThan        = interfaces.OpGreaterThan
	OpLessThan           = interfaces.OpLessThan
	OpGreaterThanOrEqual = interfaces.OpGreaterThanOrEqual
	OpLessThanOrEqual    = interfaces.OpLessThanOrEqual
	OpIn                 = interfaces.OpIn
	OpNotIn              = interfaces.OpNotIn
	OpBetween            = interfaces.OpBetween
	OpIsEmpty            = interfaces.OpIsEmpty
	OpIsNotEmpty         = interfaces.OpIsNotEmpty

	CellData       = interfaces.CellData
	CellSubtotal   = interfaces.CellSubtotal
	CellTotal      = interfaces.CellTotal
	CellGrandTotal = interfaces.CellGrandTotal
	CellEmpty      = interfaces.CellEmpty
)

const (
	// DefaultBatchSize is the number of rows processed between
	// cooperative yields during filtering and grouping.
	DefaultBatchSize = 10000

	// EmptyLabel is the display label for a missing or null
	// dimension value. The underlying path segment stays "".
	EmptyLabel = "(empty)"

	// fieldSampleSize bounds how many rows are probed when checking
	// that a configured field id actually occurs in the dataset.
	fieldSampleSize = 100
)

// tupleKey is a collision-free encoding of an ordered value tuple.
// Each component is quoted before joining, so a delimiter occurring in
// real data can never merge two distinct tuples.
type tupleKey string

func makeTupleKey(parts []string) tupleKey {
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = strconv.Quote(p)
	}
	return tupleKey(strings.Join(quoted, ","))
}

// groupKey identifies one bucket: the row tuple then the column tuple.
type groupKey struct {
	row tupleKey
	col tupleKey
}

// bucket holds one unique (row tuple, column tuple) combination with
// one running accumulator per value spec.
type bucket struct {
	rowTuple []string
	colTuple []string
	accs     []*accumulator
}

// Result pairs the renderable structure with the internal state needed
// for incremental updates. State survives only in-process; a Result
// decoded from elsewhere can still be rendered but not updated in place.
type Result struct {
	Structure *interfaces.PivotStructure

	state *pivotState
}

// pivotState is the retained computation state: the aggregated buckets
// keyed by group key, the configuration and expansion set that produced
// them, and the filtered row count.
type pivotState struct {
	cfg      Configuration
	expanded [][]string
	buckets map[groupKey]*bucket
	// filteredRows is how many rows survived filtering so far, across
	// the initial computation and any merged delta batches.
	filteredRows int
	sourceRows   int
}

// stringifyGroupValue converts a raw field value to its canonical
// grouping string. Missing and null values stringify to "".
func stringifyGroupValue(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	default:
		return stringifyAny(v)
	}
}

// displayLabel maps a path segment to its header label.
func displayLabel(segment string) string {
	if segment == "" {
		return EmptyLabel
	}
	return segment
}

// tupleValues extracts the ordered stringified dimension values of a row.
func tupleValues(row DataRow, fields []Field) []string {
	vals := make([]string, len(fields))
	for i, f := range fields {
		vals[i] = stringifyGroupValue(row[f.ID])
	}
	return vals
}

// pathSet answers membership queries over an expanded-paths list.
type pathSet map[tupleKey]struct{}

func newPathSet(paths [][]string) pathSet {
	s := make(pathSet, len(paths))
	for _, p := range paths {
		s[makeTupleKey(p)] = struct{}{}
	}
	return s
}

func (s pathSet) contains(path []string) bool {
	_, ok := s[makeTupleKey(path)]
	return ok
}

// visibleTuple truncates a dimension tuple at the first collapsed
// ancestor. A tuple is shown at full depth only when every proper
// prefix is a member of the expanded set.
func visibleTuple(t []string, expanded pathSet) []string {
	if len(t) == 0 {
		return t
	}
	depth := 1
	for depth < len(t) {
		if !expanded.contains(t[:depth]) {
			break
		}
		depth++
	}
	return t[:depth]
}

func tuplesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tupleHasPrefix(t, prefix []string) bool {
	if len(prefix) > len(t) {
		return false
	}
	for i := range prefix {
		if t[i] != prefix[i] {
			return false
		}
	}
	return true
}

// tupleLess orders tuples lexicographically, shorter prefixes first.
// All combination ordering in the output derives from this, which is
// what makes repeated computations structurally equal.
func tupleLess(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
