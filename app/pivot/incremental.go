package pivot

import (
	"time"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// UpdateIncremental folds delta rows into a prior result without
// revisiting the rows that produced it. The prior result must carry its
// accumulator state and the configuration's grouping fields, value
// specs, and filters must be unchanged; otherwise ErrNotIncremental is
// returned and the caller should recompute from scratch. Display
// options, size caps and the expansion set may differ, since they only
// affect how the existing state is rendered. The prior result is left
// intact.
func UpdateIncremental(prior *Result, delta []DataRow, cfg *Configuration, expandedPaths [][]string) (*Result, error) {
	if prior == nil || prior.state == nil {
		return nil, ErrNotIncremental
	}
	if !shapeCompatible(prior.state.cfg, *cfg) {
		return nil, ErrNotIncremental
	}

	start := time.Now()
	state := prior.state.cloneForUpdate(*cfg)
	state.expanded = expandedPaths

	filtered := applyFilters(delta, cfg.Filters, nil, DefaultBatchSize)
	if err := groupRows(filtered, cfg, state.buckets, DefaultBatchSize); err != nil {
		return nil, err
	}
	state.filteredRows += len(filtered)
	state.sourceRows += len(delta)

	structure := buildStructure(state.buckets, cfg, state.expanded)
	structure.Summary.TotalDataRows = state.filteredRows
	structure.Summary.SourceRows = state.sourceRows
	structure.Summary.ComputationTime = time.Since(start)
	return &Result{Structure: structure, state: state}, nil
}

// shapeCompatible reports whether two configurations group and
// aggregate identically. Options, MaxRows and MaxColumns are excluded
// on purpose.
func shapeCompatible(a, b Configuration) bool {
	if !sameFields(a.Rows, b.Rows) || !sameFields(a.Columns, b.Columns) {
		return false
	}
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		av, bv := a.Values[i], b.Values[i]
		if av.Field.ID != bv.Field.ID || av.Aggregation != bv.Aggregation || av.Label() != bv.Label() {
			return false
		}
	}
	return sameFilters(a.Filters, b.Filters)
}

func sameFields(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func sameFilters(a, b []Filter) bool {
	ae, be := enabledFilters(a), enabledFilters(b)
	if len(ae) != len(be) {
		return false
	}
	opts := ojg.Options{Sort: true}
	for i := range ae {
		if ae[i].Field.ID != be[i].Field.ID || ae[i].Operator != be[i].Operator {
			return false
		}
		if oj.JSON(ae[i].Value, &opts) != oj.JSON(be[i].Value, &opts) {
			return false
		}
	}
	return true
}

func enabledFilters(filters []Filter) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// cloneForUpdate deep-copies the accumulator state so the prior result
// stays valid after the update, and adopts the new configuration's
// display options.
func (s *pivotState) cloneForUpdate(cfg Configuration) *pivotState {
	out := &pivotState{
		cfg:          cfg,
		expanded:     s.expanded,
		buckets:      make(map[groupKey]*bucket, len(s.buckets)),
		filteredRows: s.filteredRows,
		sourceRows:   s.sourceRows,
	}
	for k, b := range s.buckets {
		accs := make([]*accumulator, len(b.accs))
		for i, a := range b.accs {
			accs[i] = a.clone()
		}
		out.buckets[k] = &bucket{
			rowTuple: b.rowTuple,
			colTuple: b.colTuple,
			accs:     accs,
		}
	}
	return out
}
