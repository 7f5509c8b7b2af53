package pivot

// accumulator carries the running state of one aggregation over one
// bucket. The state is explicit rather than derived from the displayed
// value so that incremental merges stay exact: avg keeps its running
// sum and count, countDistinct keeps the distinct-value set.
type accumulator struct {
	agg Aggregation

	// rows counts every contributing row, valid value or not. This is
	// what the count aggregation reports.
	rows int

	// sum/valid cover the numerically coercible values only.
	sum   float64
	valid int

	min, max  float64
	hasMinMax bool

	distinct map[string]struct{}
}

// newAccumulator rejects unknown aggregation identifiers outright; the
// caller turns that into a failure of the whole computation.
func newAccumulator(agg Aggregation) (*accumulator, error) {
	switch agg {
	case AggSum, AggAvg, AggMin, AggMax, AggCount:
		return &accumulator{agg: agg}, nil
	case AggCountDistinct:
		return &accumulator{agg: agg, distinct: make(map[string]struct{})}, nil
	}
	return nil, &UnsupportedAggregationError{Aggregation: agg}
}

// add folds one row's field value into the accumulator. Non-numeric
// values are excluded from numeric aggregations rather than counted as
// zero; count counts the row regardless.
func (a *accumulator) add(v any) {
	a.rows++
	switch a.agg {
	case AggCount:
		// Row presence is all that matters.
	case AggCountDistinct:
		if v != nil {
			a.distinct[stringifyGroupValue(v)] = struct{}{}
		}
	default:
		n, ok := toNumber(v)
		if !ok {
			return
		}
		a.sum += n
		a.valid++
		if !a.hasMinMax {
			a.min, a.max = n, n
			a.hasMinMax = true
			return
		}
		if n < a.min {
			a.min = n
		}
		if n > a.max {
			a.max = n
		}
	}
}

// merge folds another accumulator of the same aggregation into this
// one. Merging is exact re-aggregation over the union of contributing
// rows, not arithmetic on displayed values.
func (a *accumulator) merge(b *accumulator) {
	a.rows += b.rows
	a.sum += b.sum
	a.valid += b.valid
	if b.hasMinMax {
		if !a.hasMinMax {
			a.min, a.max = b.min, b.max
			a.hasMinMax = true
		} else {
			if b.min < a.min {
				a.min = b.min
			}
			if b.max > a.max {
				a.max = b.max
			}
		}
	}
	for v := range b.distinct {
		a.distinct[v] = struct{}{}
	}
}

// clone copies the accumulator, including the distinct set, so merged
// aggregates never mutate the bucket state they were derived from.
func (a *accumulator) clone() *accumulator {
	c := &accumulator{
		agg:       a.agg,
		rows:      a.rows,
		sum:       a.sum,
		valid:     a.valid,
		min:       a.min,
		max:       a.max,
		hasMinMax: a.hasMinMax,
	}
	if a.distinct != nil {
		c.distinct = make(map[string]struct{}, len(a.distinct))
		for v := range a.distinct {
			c.distinct[v] = struct{}{}
		}
	}
	return c
}

// value returns the aggregated scalar, or nil when no valid values
// contributed (a sum over zero numeric inputs has no value, it is not
// zero).
func (a *accumulator) value() any {
	switch a.agg {
	case AggCount:
		return a.rows
	case AggCountDistinct:
		return len(a.distinct)
	case AggSum:
		if a.valid == 0 {
			return nil
		}
		return a.sum
	case AggAvg:
		if a.valid == 0 {
			return nil
		}
		return a.sum / float64(a.valid)
	case AggMin:
		if !a.hasMinMax {
			return nil
		}
		return a.min
	case AggMax:
		if !a.hasMinMax {
			return nil
		}
		return a.max
	}
	return nil
}

// newAccumulators builds one accumulator per value spec, failing fast
// on the first unsupported aggregation.
func newAccumulators(specs []ValueSpec) ([]*accumulator, error) {
	accs := make([]*accumulator, len(specs))
	for i, spec := range specs {
		acc, err := newAccumulator(spec.Aggregation)
		if err != nil {
			return nil, err
		}
		accs[i] = acc
	}
	return accs, nil
}

// AggregateBucketValues computes the per-spec outputs for a set of rows,
// keyed by display name. Duplicate display names across specs overwrite
// earlier entries; callers that need every spec should keep them unique.
func AggregateBucketValues(rows []DataRow, specs []ValueSpec) (map[string]any, error) {
	accs, err := newAccumulators(specs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for i, spec := range specs {
			accs[i].add(row[spec.Field.ID])
		}
	}
	out := make(map[string]any, len(specs))
	for i, spec := range specs {
		out[spec.Label()] = accs[i].value()
	}
	return out, nil
}

// formatCellValue renders an aggregated value for display.
func formatCellValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case int:
		return formatNumber(float64(t))
	case float64:
		return formatNumber(t)
	default:
		return stringifyAny(v)
	}
}
