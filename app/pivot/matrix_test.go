package pivot

import (
	"reflect"
	"testing"
)

func salesRows() []DataRow {
	return []DataRow{
		{"region": "North", "product": "Widgets", "sales": float64(800)},
		{"region": "North", "product": "Widgets", "sales": float64(1000)},
		{"region": "North", "product": "Gadgets", "sales": float64(1200)},
		{"region": "South", "product": "Widgets", "sales": float64(500)},
		{"region": "South", "product": "Gadgets", "sales": float64(700)},
	}
}

func salesConfig() *Configuration {
	return &Configuration{
		Rows: []Field{
			{ID: "region", Name: "Region", DataType: "string"},
			{ID: "product", Name: "Product", DataType: "string"},
		},
		Values: []ValueSpec{
			{Field: Field{ID: "sales", Name: "Sales", DataType: "number"}, Aggregation: AggSum},
		},
	}
}

func computeStructure(t *testing.T, rows []DataRow, cfg *Configuration, expanded [][]string) *PivotStructure {
	t.Helper()
	res, err := New(nil, 0, nil).ComputePivot(rows, cfg, expanded)
	if err != nil {
		t.Fatalf("ComputePivot failed: %v", err)
	}
	return res.Structure
}

// cellAt reads one cell by visible position.
func cellAt(s *PivotStructure, row, col int) Cell {
	return s.Matrix[row][col]
}

func TestMatrixCollapsedTopLevel(t *testing.T) {
	s := computeStructure(t, salesRows(), salesConfig(), nil)

	// Without expansion the two regions fold to one row each
	if s.RowCount != 2 || s.ColumnCount != 1 {
		t.Fatalf("matrix is %dx%d, want 2x1", s.RowCount, s.ColumnCount)
	}

	if got := cellAt(s, 0, 0).Value; got != float64(3000) {
		t.Errorf("North sum = %v, want 3000", got)
	}
	if got := cellAt(s, 1, 0).Value; got != float64(1200) {
		t.Errorf("South sum = %v, want 1200", got)
	}
	if got := cellAt(s, 0, 0).FormattedValue; got != "3000" {
		t.Errorf("formatted value = %q, want %q", got, "3000")
	}

	top := s.RowHeaders[0]
	if len(top) != 2 || top[0].Label != "North" || top[1].Label != "South" {
		t.Fatalf("unexpected top-level row headers: %+v", top)
	}
	if !top[0].IsExpandable || top[0].IsExpanded {
		t.Errorf("collapsed North header should be expandable and not expanded: %+v", top[0])
	}
}

func TestMatrixExpandedGroup(t *testing.T) {
	s := computeStructure(t, salesRows(), salesConfig(), [][]string{{"North"}})

	// North splits into its two products, South stays folded
	if s.RowCount != 3 {
		t.Fatalf("row count = %d, want 3", s.RowCount)
	}

	want := []struct {
		value float64
		path  []string
	}{
		{1200, []string{"North", "Gadgets", "sales"}},
		{1800, []string{"North", "Widgets", "sales"}},
		{1200, []string{"South", "sales"}},
	}
	for i, w := range want {
		c := cellAt(s, i, 0)
		if c.Value != w.value {
			t.Errorf("row %d value = %v, want %v", i, c.Value, w.value)
		}
		if !reflect.DeepEqual(c.Path, w.path) {
			t.Errorf("row %d path = %v, want %v", i, c.Path, w.path)
		}
	}

	if h := s.RowHeaders[0][0]; !h.IsExpanded {
		t.Errorf("North header should be marked expanded: %+v", h)
	}
	// Second-level header paths carry the full ancestor chain
	if h := s.RowHeaders[1][0]; !reflect.DeepEqual(h.Path, []string{"North", "Gadgets"}) {
		t.Errorf("second-level path = %v, want full chain", h.Path)
	}
}

func TestMatrixSubtotalsAndGrandTotals(t *testing.T) {
	cfg := salesConfig()
	cfg.Options.ShowSubtotals = true
	cfg.Options.ShowGrandTotals = true

	s := computeStructure(t, salesRows(), cfg, [][]string{{"North"}})

	// Gadgets, Widgets, North subtotal, South, grand total
	if s.RowCount != 5 {
		t.Fatalf("row count = %d, want 5", s.RowCount)
	}

	sub := cellAt(s, 2, 0)
	if sub.Type != CellSubtotal {
		t.Errorf("row 2 type = %q, want subtotal", sub.Type)
	}
	if sub.Value != float64(3000) {
		t.Errorf("North subtotal = %v, want 3000", sub.Value)
	}

	grand := cellAt(s, 4, 0)
	if grand.Type != CellGrandTotal {
		t.Errorf("row 4 type = %q, want grandTotal", grand.Type)
	}
	if grand.Value != float64(4200) {
		t.Errorf("grand total = %v, want 4200", grand.Value)
	}

	levels := s.RowHeaders
	if levels[1][len(levels[1])-1].Label != "" {
		// The grand entry has no level-1 label
		t.Errorf("grand total should not label level 1: %+v", levels[1])
	}
}

func TestMatrixTwoAxes(t *testing.T) {
	rows := []DataRow{
		{"region": "North", "year": float64(2023), "sales": float64(100)},
		{"region": "North", "year": float64(2024), "sales": float64(200)},
		{"region": "South", "year": float64(2023), "sales": float64(300)},
	}
	cfg := &Configuration{
		Rows:    []Field{{ID: "region", Name: "Region"}},
		Columns: []Field{{ID: "year", Name: "Year"}},
		Values: []ValueSpec{
			{Field: Field{ID: "sales", Name: "Sales"}, Aggregation: AggSum},
		},
	}

	s := computeStructure(t, rows, cfg, nil)

	if s.RowCount != 2 || s.ColumnCount != 2 {
		t.Fatalf("matrix is %dx%d, want 2x2", s.RowCount, s.ColumnCount)
	}

	if got := cellAt(s, 0, 1).Value; got != float64(200) {
		t.Errorf("North x 2024 = %v, want 200", got)
	}

	// No South rows in 2024: the intersection is an empty cell, not zero
	empty := cellAt(s, 1, 1)
	if empty.Type != CellEmpty || empty.Value != nil {
		t.Errorf("South x 2024 = %+v, want empty cell", empty)
	}

	// Terminal column header level is one value spec per column group
	terminal := s.ColumnHeaders[len(s.ColumnHeaders)-1]
	if len(terminal) != 2 || terminal[0].Label != "Sales" || terminal[1].Label != "Sales" {
		t.Errorf("unexpected terminal column headers: %+v", terminal)
	}
}

func TestMatrixMultipleValues(t *testing.T) {
	cfg := salesConfig()
	cfg.Values = append(cfg.Values, ValueSpec{
		Field:       Field{ID: "sales", Name: "Sales", DataType: "number"},
		Aggregation: AggAvg,
		DisplayName: "Average",
	})

	s := computeStructure(t, salesRows(), cfg, nil)

	// Physical columns interleave value specs within each column group
	if s.ColumnCount != 2 {
		t.Fatalf("column count = %d, want 2", s.ColumnCount)
	}
	if got := cellAt(s, 0, 0).Value; got != float64(3000) {
		t.Errorf("North sum = %v, want 3000", got)
	}
	if got := cellAt(s, 0, 1).Value; got != float64(1000) {
		t.Errorf("North avg = %v, want 1000", got)
	}
}

func TestMatrixNullGroupValue(t *testing.T) {
	rows := []DataRow{
		{"region": nil, "sales": float64(50)},
		{"region": "North", "sales": float64(100)},
		{"sales": float64(25)},
	}
	cfg := &Configuration{
		Rows: []Field{{ID: "region", Name: "Region"}},
		Values: []ValueSpec{
			{Field: Field{ID: "sales", Name: "Sales"}, Aggregation: AggSum},
		},
	}

	s := computeStructure(t, rows, cfg, nil)

	// nil and missing group to the same "" bucket, sorted before "North"
	if s.RowCount != 2 {
		t.Fatalf("row count = %d, want 2", s.RowCount)
	}
	if got := s.RowHeaders[0][0].Label; got != EmptyLabel {
		t.Errorf("empty group label = %q, want %q", got, EmptyLabel)
	}
	if got := cellAt(s, 0, 0).Value; got != float64(75) {
		t.Errorf("empty group sum = %v, want 75", got)
	}
}

func TestMatrixDelimiterCollision(t *testing.T) {
	// Values containing a separator must not merge into one group
	rows := []DataRow{
		{"a": "x|y", "b": "z", "sales": float64(1)},
		{"a": "x", "b": "y|z", "sales": float64(10)},
	}
	cfg := &Configuration{
		Rows: []Field{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Values: []ValueSpec{
			{Field: Field{ID: "sales", Name: "Sales"}, Aggregation: AggSum},
		},
	}

	s := computeStructure(t, rows, cfg, [][]string{{"x"}, {"x|y"}})
	if s.RowCount != 2 {
		t.Fatalf("distinct tuples collapsed: %dx%d", s.RowCount, s.ColumnCount)
	}
}

func TestMatrixMaxRowsTruncation(t *testing.T) {
	cfg := salesConfig()
	cfg.MaxRows = 1

	s := computeStructure(t, salesRows(), cfg, nil)
	if s.RowCount != 1 {
		t.Fatalf("row count = %d, want 1 after truncation", s.RowCount)
	}
	if got := s.RowHeaders[0][0].Label; got != "North" {
		t.Errorf("kept row = %q, want first sorted entry", got)
	}
}

func TestMatrixDeterministic(t *testing.T) {
	cfg := salesConfig()
	cfg.Options.ShowSubtotals = true
	cfg.Options.ShowGrandTotals = true
	expanded := [][]string{{"North"}, {"South"}}

	a := computeStructure(t, salesRows(), cfg, expanded)
	b := computeStructure(t, salesRows(), cfg, expanded)

	if !reflect.DeepEqual(a.Matrix, b.Matrix) {
		t.Error("matrices differ between identical computations")
	}
	if !reflect.DeepEqual(a.RowHeaders, b.RowHeaders) {
		t.Error("row headers differ between identical computations")
	}
	if !reflect.DeepEqual(a.ColumnHeaders, b.ColumnHeaders) {
		t.Error("column headers differ between identical computations")
	}
}

func TestMatrixShapeInvariant(t *testing.T) {
	cfg := salesConfig()
	cfg.Options.ShowSubtotals = true
	cfg.Options.ShowGrandTotals = true

	s := computeStructure(t, salesRows(), cfg, [][]string{{"North"}})

	if len(s.Matrix) != s.RowCount {
		t.Errorf("len(Matrix) = %d, RowCount = %d", len(s.Matrix), s.RowCount)
	}
	for i, row := range s.Matrix {
		if len(row) != s.ColumnCount {
			t.Errorf("row %d has %d cells, ColumnCount = %d", i, len(row), s.ColumnCount)
		}
	}
}

func TestMatrixGrandTotalReaggregates(t *testing.T) {
	// Unbalanced groups: the grand total must re-aggregate the source
	// rows, not combine the displayed per-group results.
	rows := []DataRow{
		{"region": "North", "sales": float64(100), "customer": "Acme"},
		{"region": "North", "sales": float64(200), "customer": "Acme"},
		{"region": "North", "sales": float64(300), "customer": "Bolt"},
		{"region": "South", "sales": float64(1000), "customer": "Bolt"},
	}
	cfg := &Configuration{
		Rows: []Field{{ID: "region", Name: "Region", DataType: "string"}},
		Values: []ValueSpec{
			{Field: Field{ID: "sales", Name: "Sales", DataType: "number"}, Aggregation: AggAvg},
			{Field: Field{ID: "customer", Name: "Customer", DataType: "string"}, Aggregation: AggCountDistinct},
		},
		Options: Options{ShowGrandTotals: true},
	}

	s := computeStructure(t, rows, cfg, nil)

	// North, South, Grand Total
	if s.RowCount != 3 || s.ColumnCount != 2 {
		t.Fatalf("matrix is %dx%d, want 3x2", s.RowCount, s.ColumnCount)
	}

	if got := cellAt(s, 0, 0).Value; got != float64(200) {
		t.Errorf("North avg = %v, want 200", got)
	}
	if got := cellAt(s, 1, 0).Value; got != float64(1000) {
		t.Errorf("South avg = %v, want 1000", got)
	}

	grandAvg := cellAt(s, 2, 0)
	if grandAvg.Type != CellGrandTotal {
		t.Errorf("grand avg cell type = %q, want %q", grandAvg.Type, CellGrandTotal)
	}
	// (100+200+300+1000)/4, not the mean of the group averages (600)
	if grandAvg.Value != float64(400) {
		t.Errorf("grand avg = %v, want 400", grandAvg.Value)
	}

	grandDistinct := cellAt(s, 2, 1)
	if grandDistinct.Type != CellGrandTotal {
		t.Errorf("grand countDistinct cell type = %q, want %q", grandDistinct.Type, CellGrandTotal)
	}
	// Bolt appears in both regions; the sum of group counts (3) would
	// double-count it
	if grandDistinct.Value != 2 {
		t.Errorf("grand countDistinct = %v, want 2", grandDistinct.Value)
	}
}
