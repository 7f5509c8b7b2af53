package interfaces

import "time"

// Logger is the logging sink shared by the engine and the cache.
// Implementations receive a level ("debug", "info", "warning", "error")
// and a pre-formatted message.
type Logger interface {
	Log(level, message string)
}

// FieldType classifies the values a field can hold.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
)

// Field identifies a column in a dataset. Identity is ID; Name is
// display-only and never participates in grouping or lookups.
type Field struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	DataType FieldType `json:"dataType"`
}

// DataRow is an open record mapping field ids to scalar values.
// Values may be string, float64 (or other numeric types), bool, a
// date-like string, or nil/absent.
type DataRow = map[string]any

// Aggregation names a reduction applied to a value field within a bucket.
type Aggregation string

const (
	AggSum           Aggregation = "sum"
	AggAvg           Aggregation = "avg"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
	AggCount         Aggregation = "count"
	AggCountDistinct Aggregation = "countDistinct"
)

// FilterOperator names a predicate applied by the filter evaluator.
type FilterOperator string

const (
	OpEquals             FilterOperator = "equals"
	OpNotEquals          FilterOperator = "notEquals"
	OpContains           FilterOperator = "contains"
	OpNotContains        FilterOperator = "notContains"
	OpGreaterThan        FilterOperator = "greaterThan"
	OpLessThan           FilterOperator = "lessThan"
	OpGreaterThanOrEqual FilterOperator = "greaterThanOrEqual"
	OpLessThanOrEqual    FilterOperator = "lessThanOrEqual"
	OpIn                 FilterOperator = "in"
	OpNotIn              FilterOperator = "notIn"
	OpBetween            FilterOperator = "between"
	OpIsEmpty            FilterOperator = "isEmpty"
	OpIsNotEmpty         FilterOperator = "isNotEmpty"
)

// ValueSpec pairs a field with the aggregation applied to it.
type ValueSpec struct {
	Field       Field       `json:"field"`
	Aggregation Aggregation `json:"aggregation"`
	DisplayName string      `json:"displayName,omitempty"`
}

// Label returns the display name for this value spec, defaulting to the
// field name. Labels key the aggregated output, so duplicate labels
// across a configuration's values silently overwrite each other.
func (v ValueSpec) Label() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.Field.Name
}

// Filter is a single predicate over a field. Disabled filters are skipped.
type Filter struct {
	Field    Field          `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value"`
	Enabled  bool           `json:"enabled"`
}

// Options controls which synthetic rows/columns the matrix builder emits.
type Options struct {
	ShowGrandTotals bool `json:"showGrandTotals"`
	ShowSubtotals   bool `json:"showSubtotals"`
}

// Configuration describes one pivot computation: which fields form the
// row and column hierarchies, which (field, aggregation) pairs produce
// values, and which filters restrict the input.
//
// A meaningful configuration has non-empty Values and at least one of
// Rows or Columns non-empty; ValidateConfiguration reports violations.
type Configuration struct {
	Rows    []Field     `json:"rows"`
	Columns []Field     `json:"columns"`
	Values  []ValueSpec `json:"values"`
	Filters []Filter    `json:"filters,omitempty"`
	Options Options     `json:"options"`

	// MaxRows/MaxColumns cap the assembled matrix by truncation.
	// Zero means unlimited.
	MaxRows    int `json:"maxRows,omitempty"`
	MaxColumns int `json:"maxColumns,omitempty"`
}

// Header is one node in a hierarchical row or column header tree.
// Path is the ordered chain of dimension values from the root down to
// this node; it is the stable identity used for drill-down and
// expand/collapse state.
type Header struct {
	Label        string   `json:"label"`
	Level        int      `json:"level"`
	Span         int      `json:"span"`
	Path         []string `json:"path"`
	Field        *Field   `json:"field,omitempty"`
	IsExpandable bool     `json:"isExpandable"`
	IsExpanded   bool     `json:"isExpanded"`
}

// CellType classifies a matrix cell.
type CellType string

const (
	CellData       CellType = "data"
	CellSubtotal   CellType = "subtotal"
	CellTotal      CellType = "total"
	CellGrandTotal CellType = "grandTotal"
	CellEmpty      CellType = "empty"
)

// Cell is a single matrix entry. Path concatenates the owning row path,
// column path, and value-field id; the triple is the cell's unique key
// and is reproducible from the header trees alone.
type Cell struct {
	Value          any      `json:"value"`
	FormattedValue string   `json:"formattedValue"`
	Type           CellType `json:"type"`
	Path           []string `json:"path,omitempty"`
}

// Summary carries computation metadata alongside a structure.
type Summary struct {
	// TotalDataRows is the number of rows that survived filtering.
	TotalDataRows int `json:"totalDataRows"`
	// SourceRows is the size of the raw dataset before filtering.
	SourceRows      int           `json:"sourceRows"`
	ComputationTime time.Duration `json:"computationTime"`
	Cached          bool          `json:"cached"`
}

// PivotStructure is the engine's output: a 2D cell matrix plus the
// hierarchical header trees describing both axes.
//
// Invariants: len(Matrix) == RowCount, and len(Matrix[i]) == ColumnCount
// for every row whenever RowCount > 0.
type PivotStructure struct {
	Matrix        [][]Cell   `json:"matrix"`
	RowHeaders    [][]Header `json:"rowHeaders"`
	ColumnHeaders [][]Header `json:"columnHeaders"`
	RowCount      int        `json:"rowCount"`
	ColumnCount   int        `json:"columnCount"`
	Summary       Summary    `json:"summary"`
}
