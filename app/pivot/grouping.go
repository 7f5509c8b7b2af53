package pivot

import "runtime"

// groupRows partitions filtered rows into buckets keyed by the
// (row tuple, column tuple) pair in a single pass, folding each row
// into the bucket's accumulators as it lands. Bucket insertion order is
// irrelevant; the matrix builder derives all ordering from the tuples.
func groupRows(rows []DataRow, cfg *Configuration, buckets map[groupKey]*bucket, batchSize int) error {
	for i, row := range rows {
		if batchSize > 0 && i > 0 && i%batchSize == 0 {
			runtime.Gosched()
		}

		rowTuple := tupleValues(row, cfg.Rows)
		colTuple := tupleValues(row, cfg.Columns)
		key := groupKey{row: makeTupleKey(rowTuple), col: makeTupleKey(colTuple)}

		b, ok := buckets[key]
		if !ok {
			accs, err := newAccumulators(cfg.Values)
			if err != nil {
				return err
			}
			b = &bucket{rowTuple: rowTuple, colTuple: colTuple, accs: accs}
			buckets[key] = b
		}

		for s, spec := range cfg.Values {
			b.accs[s].add(row[spec.Field.ID])
		}
	}
	return nil
}

// GroupRows is the standalone grouping contract: it buckets rows by the
// configured dimensions and returns the buckets keyed by their encoded
// group key. Used directly by tests and diagnostic tooling; the engine
// pipeline calls the accumulating internal form.
func GroupRows(rows []DataRow, cfg *Configuration) (map[string][]DataRow, error) {
	if err := checkAggregations(cfg.Values); err != nil {
		return nil, err
	}
	out := make(map[string][]DataRow)
	for _, row := range rows {
		rowTuple := tupleValues(row, cfg.Rows)
		colTuple := tupleValues(row, cfg.Columns)
		key := string(makeTupleKey(append(append([]string{}, rowTuple...), colTuple...)))
		out[key] = append(out[key], row)
	}
	return out, nil
}

// checkAggregations validates every value spec's aggregation up front
// so an unsupported identifier fails the computation even when the
// filtered row set is empty.
func checkAggregations(specs []ValueSpec) error {
	for _, spec := range specs {
		if _, err := newAccumulator(spec.Aggregation); err != nil {
			return err
		}
	}
	return nil
}
