package pivot

// DrillDown returns the exact filtered rows contributing to the cell or
// header identified by the given row and column paths, in original
// relative order. Each path segment matches one dimension value at the
// corresponding depth; an empty path acts as a wildcard for its axis.
// A path longer than the configured dimension count matches nothing.
func DrillDown(rows []DataRow, cfg *Configuration, rowPath, colPath []string, logger Logger) []DataRow {
	if len(rowPath) > len(cfg.Rows) || len(colPath) > len(cfg.Columns) {
		return nil
	}

	filtered := ApplyFilters(rows, cfg.Filters, logger)
	if len(rowPath) == 0 && len(colPath) == 0 {
		return filtered
	}

	var out []DataRow
	for _, row := range filtered {
		if pathMatches(row, cfg.Rows, rowPath) && pathMatches(row, cfg.Columns, colPath) {
			out = append(out, row)
		}
	}
	return out
}

func pathMatches(row DataRow, fields []Field, path []string) bool {
	for i, segment := range path {
		if stringifyGroupValue(row[fields[i].ID]) != segment {
			return false
		}
	}
	return true
}
