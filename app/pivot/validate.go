package pivot

import "fmt"

// ValidateConfiguration checks a configuration against a dataset and
// returns human-readable problems; an empty list means valid. It never
// fails: this is the non-throwing channel intended for pre-submission
// UI feedback. ComputePivot runs the same checks and refuses to start
// when any problem is present.
func ValidateConfiguration(cfg *Configuration, rows []DataRow) []string {
	var problems []string
	if cfg == nil {
		return []string{"configuration is missing"}
	}

	if len(cfg.Values) == 0 {
		problems = append(problems, "configuration has no value fields")
	}
	if len(cfg.Rows) == 0 && len(cfg.Columns) == 0 {
		problems = append(problems, "configuration needs at least one row or column field")
	}

	sample := rows
	if len(sample) > fieldSampleSize {
		sample = sample[:fieldSampleSize]
	}
	if len(sample) > 0 {
		for _, f := range cfg.Rows {
			if !fieldPresent(sample, f.ID) {
				problems = append(problems, fmt.Sprintf("row field %q not present in dataset", f.ID))
			}
		}
		for _, f := range cfg.Columns {
			if !fieldPresent(sample, f.ID) {
				problems = append(problems, fmt.Sprintf("column field %q not present in dataset", f.ID))
			}
		}
		for _, v := range cfg.Values {
			if !fieldPresent(sample, v.Field.ID) {
				problems = append(problems, fmt.Sprintf("value field %q not present in dataset", v.Field.ID))
			}
		}
		for _, flt := range cfg.Filters {
			if flt.Enabled && !fieldPresent(sample, flt.Field.ID) {
				problems = append(problems, fmt.Sprintf("filter field %q not present in dataset", flt.Field.ID))
			}
		}
	}

	return problems
}

// fieldPresent probes a bounded sample for a field id. A field counts
// as present when any sampled row carries the key, even with a nil
// value.
func fieldPresent(sample []DataRow, fieldID string) bool {
	for _, row := range sample {
		if _, ok := row[fieldID]; ok {
			return true
		}
	}
	return false
}
