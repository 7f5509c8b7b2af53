package pivot

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"pivotgrid/app/cache"
)

func testEngine() *Engine {
	return New(nil, 0, nil)
}

func cachedEngine() *Engine {
	return New(cache.NewCache(10*1024*1024, time.Minute), 0, nil)
}

func TestComputePivotRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Configuration
	}{
		{
			name: "no values",
			cfg: &Configuration{
				Rows: []Field{{ID: "region", Name: "Region"}},
			},
		},
		{
			name: "no dimensions",
			cfg: &Configuration{
				Values: []ValueSpec{{Field: Field{ID: "sales", Name: "Sales"}, Aggregation: AggSum}},
			},
		},
		{
			name: "unknown field",
			cfg: &Configuration{
				Rows:   []Field{{ID: "nonexistent", Name: "Missing"}},
				Values: []ValueSpec{{Field: Field{ID: "sales", Name: "Sales"}, Aggregation: AggSum}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testEngine().ComputePivot(salesRows(), tt.cfg, nil)
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if len(cerr.Problems) == 0 {
				t.Error("ConfigurationError carries no problems")
			}
			// The non-throwing channel reports the same problems
			if got := ValidateConfiguration(tt.cfg, salesRows()); !reflect.DeepEqual(got, cerr.Problems) {
				t.Errorf("validator problems %v != error problems %v", got, cerr.Problems)
			}
		})
	}
}

func TestComputePivotUnknownAggregationFailsOnEmptyData(t *testing.T) {
	cfg := salesConfig()
	cfg.Values[0].Aggregation = "median"

	_, err := testEngine().ComputePivot(nil, cfg, nil)
	var uerr *UnsupportedAggregationError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnsupportedAggregationError even with no rows, got %v", err)
	}
}

func TestComputePivotSummary(t *testing.T) {
	cfg := salesConfig()
	cfg.Filters = []Filter{
		{Field: regionField(), Operator: OpEquals, Value: "North", Enabled: true},
	}

	res, err := testEngine().ComputePivot(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("ComputePivot failed: %v", err)
	}

	sum := res.Structure.Summary
	if sum.SourceRows != 5 {
		t.Errorf("source rows = %d, want 5", sum.SourceRows)
	}
	if sum.TotalDataRows != 3 {
		t.Errorf("filtered rows = %d, want 3", sum.TotalDataRows)
	}
	if sum.Cached {
		t.Error("fresh computation marked cached")
	}
}

func TestComputeCachedHitMatchesFreshResult(t *testing.T) {
	engine := cachedEngine()
	cfg := salesConfig()

	first, err := engine.ComputeCached(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("first computation failed: %v", err)
	}
	if first.Structure.Summary.Cached {
		t.Error("first computation should be a miss")
	}

	second, err := engine.ComputeCached(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("second computation failed: %v", err)
	}
	if !second.Structure.Summary.Cached {
		t.Error("second computation should hit the cache")
	}
	if !reflect.DeepEqual(first.Structure.Matrix, second.Structure.Matrix) {
		t.Error("cached matrix differs from fresh matrix")
	}

	stats := engine.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestComputeCachedHitDoesNotAliasPriorResult(t *testing.T) {
	engine := cachedEngine()
	cfg := salesConfig()

	first, err := engine.ComputeCached(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("first computation failed: %v", err)
	}

	second, err := engine.ComputeCached(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("second computation failed: %v", err)
	}
	third, err := engine.ComputeCached(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("third computation failed: %v", err)
	}

	// The hit marks its own summary, not the structure earlier callers
	// still hold
	if first.Structure.Summary.Cached {
		t.Error("cache hit retroactively flagged the miss result as cached")
	}
	if first.Structure == second.Structure || second.Structure == third.Structure {
		t.Error("hit results share one structure pointer across callers")
	}
	if !second.Structure.Summary.Cached || !third.Structure.Summary.Cached {
		t.Error("hit results must be marked cached")
	}
}

func TestComputeCachedDistinguishesExpansionState(t *testing.T) {
	engine := cachedEngine()
	cfg := salesConfig()

	if _, err := engine.ComputeCached(salesRows(), cfg, nil); err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	res, err := engine.ComputeCached(salesRows(), cfg, [][]string{{"North"}})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if res.Structure.Summary.Cached {
		t.Error("different expansion state must not share a cache entry")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	rows := salesRows()
	cfg := salesConfig()
	base := Fingerprint(rows, cfg, nil)

	t.Run("config change", func(t *testing.T) {
		changed := salesConfig()
		changed.Values[0].Aggregation = AggAvg
		if Fingerprint(rows, changed, nil) == base {
			t.Error("aggregation change did not change the fingerprint")
		}
	})

	t.Run("row count change", func(t *testing.T) {
		if Fingerprint(rows[:4], cfg, nil) == base {
			t.Error("dataset length change did not change the fingerprint")
		}
	})

	t.Run("boundary row change", func(t *testing.T) {
		edited := append([]DataRow{}, rows...)
		edited[len(edited)-1] = DataRow{"region": "South", "product": "Gadgets", "sales": float64(999)}
		if Fingerprint(edited, cfg, nil) == base {
			t.Error("last-row change did not change the fingerprint")
		}
	})

	t.Run("stable", func(t *testing.T) {
		if Fingerprint(salesRows(), salesConfig(), nil) != base {
			t.Error("identical inputs produced different fingerprints")
		}
	})
}

func TestUpdateIncrementalMatchesRecompute(t *testing.T) {
	all := salesRows()
	initial, delta := all[:3], all[3:]
	cfg := salesConfig()
	cfg.Options.ShowSubtotals = true
	cfg.Options.ShowGrandTotals = true
	expanded := [][]string{{"North"}, {"South"}}

	engine := testEngine()
	prior, err := engine.ComputePivot(initial, cfg, expanded)
	if err != nil {
		t.Fatalf("initial computation failed: %v", err)
	}

	updated, err := UpdateIncremental(prior, delta, cfg, expanded)
	if err != nil {
		t.Fatalf("UpdateIncremental failed: %v", err)
	}

	full, err := engine.ComputePivot(all, cfg, expanded)
	if err != nil {
		t.Fatalf("full recompute failed: %v", err)
	}

	if !reflect.DeepEqual(updated.Structure.Matrix, full.Structure.Matrix) {
		t.Error("incremental matrix differs from full recompute")
	}
	if !reflect.DeepEqual(updated.Structure.RowHeaders, full.Structure.RowHeaders) {
		t.Error("incremental row headers differ from full recompute")
	}
	if updated.Structure.Summary.TotalDataRows != full.Structure.Summary.TotalDataRows {
		t.Errorf("incremental filtered count = %d, full = %d",
			updated.Structure.Summary.TotalDataRows, full.Structure.Summary.TotalDataRows)
	}

	// The prior result must survive the update untouched
	again, err := engine.ComputePivot(initial, cfg, expanded)
	if err != nil {
		t.Fatalf("recompute of initial failed: %v", err)
	}
	if !reflect.DeepEqual(prior.Structure.Matrix, again.Structure.Matrix) {
		t.Error("updating mutated the prior result")
	}
}

func TestUpdateIncrementalAvgAndDistinctStayExact(t *testing.T) {
	initial := []DataRow{
		{"region": "North", "sales": float64(800), "customer": "acme"},
		{"region": "North", "sales": float64(1000), "customer": "globex"},
	}
	delta := []DataRow{
		{"region": "North", "sales": float64(1200), "customer": "acme"},
	}
	cfg := &Configuration{
		Rows: []Field{{ID: "region", Name: "Region"}},
		Values: []ValueSpec{
			{Field: Field{ID: "sales", Name: "Sales"}, Aggregation: AggAvg},
			{Field: Field{ID: "customer", Name: "Customer"}, Aggregation: AggCountDistinct},
		},
	}

	prior, err := testEngine().ComputePivot(initial, cfg, nil)
	if err != nil {
		t.Fatalf("initial computation failed: %v", err)
	}
	updated, err := UpdateIncremental(prior, delta, cfg, nil)
	if err != nil {
		t.Fatalf("UpdateIncremental failed: %v", err)
	}

	if got := updated.Structure.Matrix[0][0].Value; got != float64(1000) {
		t.Errorf("avg after delta = %v, want exact 1000", got)
	}
	if got := updated.Structure.Matrix[0][1].Value; got != 2 {
		t.Errorf("countDistinct after delta = %v, want 2", got)
	}
}

func TestUpdateIncrementalRejectsShapeChange(t *testing.T) {
	prior, err := testEngine().ComputePivot(salesRows(), salesConfig(), nil)
	if err != nil {
		t.Fatalf("computation failed: %v", err)
	}

	changed := salesConfig()
	changed.Values[0].Aggregation = AggAvg

	_, err = UpdateIncremental(prior, nil, changed, nil)
	if !errors.Is(err, ErrNotIncremental) {
		t.Fatalf("expected ErrNotIncremental on aggregation change, got %v", err)
	}

	// Display-only changes stay incremental
	display := salesConfig()
	display.Options.ShowGrandTotals = true
	if _, err := UpdateIncremental(prior, nil, display, nil); err != nil {
		t.Errorf("display option change should stay incremental: %v", err)
	}
}

func TestEngineUpdateFallsBackToRecompute(t *testing.T) {
	engine := testEngine()
	all := salesRows()

	prior, err := engine.ComputePivot(all[:3], salesConfig(), nil)
	if err != nil {
		t.Fatalf("computation failed: %v", err)
	}

	changed := salesConfig()
	changed.Rows = changed.Rows[:1]

	res, err := engine.Update(prior, all, all[3:], changed, nil)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if res.Structure.Summary.SourceRows != len(all) {
		t.Errorf("fallback recompute saw %d rows, want %d", res.Structure.Summary.SourceRows, len(all))
	}
}

func TestDrillDown(t *testing.T) {
	engine := testEngine()
	cfg := salesConfig()

	tests := []struct {
		name    string
		rowPath []string
		colPath []string
		want    int
	}{
		{name: "top level group", rowPath: []string{"North"}, want: 3},
		{name: "leaf group", rowPath: []string{"North", "Widgets"}, want: 2},
		{name: "grand total wildcard", want: 5},
		{name: "no matching rows", rowPath: []string{"East"}, want: 0},
		{name: "path too deep", rowPath: []string{"North", "Widgets", "extra"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.DrillDown(salesRows(), cfg, tt.rowPath, tt.colPath)
			if len(got) != tt.want {
				t.Errorf("drill-down returned %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDrillDownRespectsFilters(t *testing.T) {
	cfg := salesConfig()
	cfg.Filters = []Filter{
		{Field: salesField(), Operator: OpGreaterThan, Value: float64(600), Enabled: true},
	}

	got := testEngine().DrillDown(salesRows(), cfg, []string{"South"}, nil)
	if len(got) != 1 {
		t.Fatalf("expected only filtered South rows, got %d", len(got))
	}
	if got[0]["sales"] != float64(700) {
		t.Errorf("wrong row: %v", got[0])
	}
}

func TestDrillDownSumMatchesCell(t *testing.T) {
	engine := testEngine()
	cfg := salesConfig()

	res, err := engine.ComputePivot(salesRows(), cfg, nil)
	if err != nil {
		t.Fatalf("computation failed: %v", err)
	}
	cell := res.Structure.Matrix[0][0] // North, collapsed

	rows := engine.DrillDown(salesRows(), cfg, []string{"North"}, nil)
	total := float64(0)
	for _, r := range rows {
		total += r["sales"].(float64)
	}
	if total != cell.Value {
		t.Errorf("drill-down sum %v != cell value %v", total, cell.Value)
	}
}
