package pivot

import "sort"

// axisEntryKind distinguishes physical rows/column-groups in axis order.
type axisEntryKind int

const (
	entryData axisEntryKind = iota
	entrySubtotal
	entryGrand
)

// axisEntry is one physical unit along an axis: a matrix row, or a
// group of len(values) matrix columns. Subtotal entries carry the
// ancestor prefix they aggregate; the grand entry carries an empty tuple.
type axisEntry struct {
	tuple []string
	kind  axisEntryKind
}

// mergedBucket is a bucket after collapse folding: accumulators for
// one visible (row tuple, column tuple) combination.
type mergedBucket struct {
	rowTuple []string
	colTuple []string
	accs     []*accumulator
}

// buildStructure assembles the cell matrix and both header trees from
// aggregated buckets. Collapsed descendants are folded into their
// nearest visible ancestor before any ordering or totals are computed,
// so every visible aggregate is an exact re-aggregation of its subtree.
func buildStructure(buckets map[groupKey]*bucket, cfg *Configuration, expandedPaths [][]string) *PivotStructure {
	expanded := newPathSet(expandedPaths)
	merged, rowTuples, colTuples := foldToVisible(buckets, expanded)

	sort.Slice(rowTuples, func(i, j int) bool { return tupleLess(rowTuples[i], rowTuples[j]) })
	sort.Slice(colTuples, func(i, j int) bool { return tupleLess(colTuples[i], colTuples[j]) })

	showGrandRows := cfg.Options.ShowGrandTotals && len(cfg.Rows) > 0
	showGrandCols := cfg.Options.ShowGrandTotals && len(cfg.Columns) > 0

	rowEntries := buildAxisEntries(rowTuples, cfg.Options.ShowSubtotals, showGrandRows)
	colEntries := buildAxisEntries(colTuples, cfg.Options.ShowSubtotals, showGrandCols)

	if cfg.MaxRows > 0 && len(rowEntries) > cfg.MaxRows {
		rowEntries = rowEntries[:cfg.MaxRows]
	}
	if cfg.MaxColumns > 0 && len(colEntries) > cfg.MaxColumns {
		colEntries = colEntries[:cfg.MaxColumns]
	}

	nspecs := len(cfg.Values)
	ncols := len(colEntries) * nspecs

	matrix := make([][]Cell, len(rowEntries))
	for ri, re := range rowEntries {
		row := make([]Cell, ncols)
		for ci, ce := range colEntries {
			accs := cellAccumulators(merged, re, ce, nspecs)
			for si, spec := range cfg.Values {
				row[ci*nspecs+si] = makeCell(re, ce, spec, accs, si)
			}
		}
		matrix[ri] = row
	}

	return &PivotStructure{
		Matrix:        matrix,
		RowHeaders:    buildAxisHeaders(rowEntries, cfg.Rows, expanded, 1),
		ColumnHeaders: buildColumnHeaders(colEntries, cfg.Columns, cfg.Values, expanded),
		RowCount:      len(matrix),
		ColumnCount:   ncols,
	}
}

// foldToVisible merges buckets whose tuples share a visible ancestor
// and returns the distinct visible tuples per axis. Accumulators are
// cloned before merging so the retained bucket state stays intact for
// later incremental updates.
func foldToVisible(buckets map[groupKey]*bucket, expanded pathSet) (map[groupKey]*mergedBucket, [][]string, [][]string) {
	merged := make(map[groupKey]*mergedBucket, len(buckets))
	rowSeen := make(map[tupleKey][]string)
	colSeen := make(map[tupleKey][]string)

	for _, b := range buckets {
		vr := visibleTuple(b.rowTuple, expanded)
		vc := visibleTuple(b.colTuple, expanded)
		rk, ck := makeTupleKey(vr), makeTupleKey(vc)
		rowSeen[rk] = vr
		colSeen[ck] = vc

		key := groupKey{row: rk, col: ck}
		m, ok := merged[key]
		if !ok {
			accs := make([]*accumulator, len(b.accs))
			for i, a := range b.accs {
				accs[i] = a.clone()
			}
			merged[key] = &mergedBucket{
				rowTuple: vr,
				colTuple: vc,
				accs:     accs,
			}
			continue
		}
		for i, a := range b.accs {
			m.accs[i].merge(a)
		}
	}

	rowTuples := make([][]string, 0, len(rowSeen))
	for _, t := range rowSeen {
		rowTuples = append(rowTuples, t)
	}
	colTuples := make([][]string, 0, len(colSeen))
	for _, t := range colSeen {
		colTuples = append(colTuples, t)
	}
	return merged, rowTuples, colTuples
}

// buildAxisEntries lays out one axis: data entries in sorted tuple
// order, a subtotal entry after the last child of each non-leaf
// ancestor when enabled, and a trailing grand-total entry when enabled.
func buildAxisEntries(tuples [][]string, showSubtotals, showGrand bool) []axisEntry {
	var entries []axisEntry
	if len(tuples) == 1 && len(tuples[0]) == 0 {
		// Axis has no dimension fields: a single implicit combination.
		entries = []axisEntry{{tuple: tuples[0], kind: entryData}}
	} else if len(tuples) > 0 {
		entries = appendAxisEntries(nil, tuples, 0, showSubtotals)
	}
	if showGrand && len(entries) > 0 {
		entries = append(entries, axisEntry{kind: entryGrand})
	}
	return entries
}

func appendAxisEntries(entries []axisEntry, tuples [][]string, level int, showSubtotals bool) []axisEntry {
	i := 0
	for i < len(tuples) {
		v := tuples[i][level]
		j := i
		for j < len(tuples) && tuples[j][level] == v {
			j++
		}

		var leaves, deeper [][]string
		for _, t := range tuples[i:j] {
			if len(t) == level+1 {
				leaves = append(leaves, t)
			} else {
				deeper = append(deeper, t)
			}
		}
		for _, t := range leaves {
			entries = append(entries, axisEntry{tuple: t, kind: entryData})
		}
		if len(deeper) > 0 {
			entries = appendAxisEntries(entries, deeper, level+1, showSubtotals)
			if showSubtotals {
				entries = append(entries, axisEntry{tuple: deeper[0][:level+1], kind: entrySubtotal})
			}
		}
		i = j
	}
	return entries
}

// cellAccumulators resolves the aggregate state behind one (row entry,
// column entry) intersection. Data×data uses a direct bucket lookup;
// anything involving a subtotal or grand entry re-aggregates the
// matching buckets by merging accumulator clones.
func cellAccumulators(merged map[groupKey]*mergedBucket, re, ce axisEntry, nspecs int) []*accumulator {
	if re.kind == entryData && ce.kind == entryData {
		m, ok := merged[groupKey{row: makeTupleKey(re.tuple), col: makeTupleKey(ce.tuple)}]
		if !ok {
			return nil
		}
		return m.accs
	}

	var accs []*accumulator
	for _, m := range merged {
		if !entryMatches(re, m.rowTuple) || !entryMatches(ce, m.colTuple) {
			continue
		}
		if accs == nil {
			accs = make([]*accumulator, nspecs)
			for i, a := range m.accs {
				accs[i] = a.clone()
			}
			continue
		}
		for i, a := range m.accs {
			accs[i].merge(a)
		}
	}
	return accs
}

func entryMatches(e axisEntry, tuple []string) bool {
	switch e.kind {
	case entryGrand:
		return true
	case entrySubtotal:
		return tupleHasPrefix(tuple, e.tuple)
	default:
		return tuplesEqual(tuple, e.tuple)
	}
}

func makeCell(re, ce axisEntry, spec ValueSpec, accs []*accumulator, si int) Cell {
	path := make([]string, 0, len(re.tuple)+len(ce.tuple)+1)
	path = append(path, re.tuple...)
	path = append(path, ce.tuple...)
	path = append(path, spec.Field.ID)

	if accs == nil {
		return Cell{Type: CellEmpty, Path: path}
	}
	v := accs[si].value()
	return Cell{
		Value:          v,
		FormattedValue: formatCellValue(v),
		Type:           cellTypeFor(re.kind, ce.kind),
		Path:           path,
	}
}

// cellTypeFor classifies an intersection: plain data, a subtotal along
// one axis, a total where subtotal and grand axes cross, and grandTotal
// where a grand axis crosses data or another grand axis.
func cellTypeFor(rk, ck axisEntryKind) CellType {
	switch {
	case rk == entryGrand && ck == entryGrand:
		return CellGrandTotal
	case rk == entryGrand && ck == entrySubtotal,
		rk == entrySubtotal && ck == entryGrand,
		rk == entrySubtotal && ck == entrySubtotal:
		return CellTotal
	case rk == entryGrand || ck == entryGrand:
		return CellGrandTotal
	case rk == entrySubtotal || ck == entrySubtotal:
		return CellSubtotal
	default:
		return CellData
	}
}

// buildAxisHeaders produces one header list per hierarchy level, spans
// measured in physical units (1 for rows, len(values) for column
// groups). Adjacent entries sharing a value prefix coalesce into one
// spanning header; subtotal entries surface as a "Total" node at the
// level below their ancestor, and the grand entry as a single
// "Grand Total" root.
func buildAxisHeaders(entries []axisEntry, fields []Field, expanded pathSet, unit int) [][]Header {
	depth := len(fields)
	levels := make([][]Header, 0, depth)
	for l := 0; l < depth; l++ {
		var hs []Header
		for _, e := range entries {
			h := headerAt(e, l, depth, fields, expanded)
			h.Span = unit
			if n := len(hs); n > 0 && hs[n-1].Label == h.Label && tuplesEqual(hs[n-1].Path, h.Path) {
				hs[n-1].Span += unit
				continue
			}
			hs = append(hs, h)
		}
		levels = append(levels, hs)
	}
	return levels
}

func headerAt(e axisEntry, level, depth int, fields []Field, expanded pathSet) Header {
	h := Header{Level: level}
	switch e.kind {
	case entryGrand:
		if level == 0 {
			h.Label = "Grand Total"
		}
		h.Path = []string{}
	case entrySubtotal:
		if level < len(e.tuple) {
			h.Label = displayLabel(e.tuple[level])
			h.Path = e.tuple[:level+1]
			h.Field = &fields[level]
		} else {
			if level == len(e.tuple) {
				h.Label = "Total"
			}
			h.Path = e.tuple
		}
	default:
		if level < len(e.tuple) {
			h.Label = displayLabel(e.tuple[level])
			h.Path = e.tuple[:level+1]
			h.Field = &fields[level]
			h.IsExpandable = level < depth-1
			h.IsExpanded = expanded.contains(h.Path)
		} else {
			// Filler below a collapsed node.
			h.Path = e.tuple
		}
	}
	return h
}

// buildColumnHeaders adds the terminal value-spec level below the
// dimension levels. The terminal level determines the physical column
// offset: colIndex = columnGroupIndex*len(values) + valueIndex.
func buildColumnHeaders(entries []axisEntry, fields []Field, specs []ValueSpec, expanded pathSet) [][]Header {
	levels := buildAxisHeaders(entries, fields, expanded, len(specs))

	terminal := make([]Header, 0, len(entries)*len(specs))
	for _, e := range entries {
		for si := range specs {
			path := make([]string, 0, len(e.tuple)+1)
			path = append(path, e.tuple...)
			path = append(path, specs[si].Field.ID)
			terminal = append(terminal, Header{
				Label: specs[si].Label(),
				Level: len(fields),
				Span:  1,
				Path:  path,
				Field: &specs[si].Field,
			})
		}
	}
	return append(levels, terminal)
}
