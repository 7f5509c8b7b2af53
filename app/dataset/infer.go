package dataset

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"pivotgrid/app/interfaces"
)

// inferSampleSize caps how many rows type inference examines per column.
const inferSampleSize = 100

// dateLayouts are tried in order when classifying date columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// inferFields classifies each column by sampling its values. Columns
// where every non-empty sample parses as a number become number fields,
// and likewise for booleans and dates; anything mixed stays a string.
func inferFields(header []string, records [][]string) []Field {
	fields := make([]Field, len(header))
	for i, id := range header {
		samples := columnSamples(records, i)
		fields[i] = Field{
			ID:       id,
			Name:     displayName(id),
			DataType: classifyColumn(samples),
		}
	}
	return fields
}

func columnSamples(records [][]string, col int) []string {
	var samples []string
	for _, rec := range records {
		if len(samples) >= inferSampleSize {
			break
		}
		if col >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[col]); v != "" {
			samples = append(samples, v)
		}
	}
	return samples
}

func classifyColumn(samples []string) interfaces.FieldType {
	if len(samples) == 0 {
		return interfaces.FieldString
	}

	allNumber, allBool, allDate := true, true, true
	for _, s := range samples {
		if allNumber {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allNumber = false
			}
		}
		if allBool && !isBoolLiteral(s) {
			allBool = false
		}
		if allDate && !isDateLiteral(s) {
			allDate = false
		}
		if !allNumber && !allBool && !allDate {
			return interfaces.FieldString
		}
	}

	// Booleans before numbers: "true"/"false" never parse as floats, but
	// keep the order explicit for when both somehow hold.
	switch {
	case allBool:
		return interfaces.FieldBoolean
	case allNumber:
		return interfaces.FieldNumber
	case allDate:
		return interfaces.FieldDate
	default:
		return interfaces.FieldString
	}
}

func isBoolLiteral(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

func isDateLiteral(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// convertCell turns a raw cell into the typed value for its field.
// Empty cells become nil. Date values stay as their source strings so
// grouping keys remain stable.
func convertCell(raw string, t interfaces.FieldType) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}

	switch t {
	case interfaces.FieldNumber:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return nil
	case interfaces.FieldBoolean:
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
		return nil
	default:
		return v
	}
}

// fieldsFromRows infers field metadata for already-typed rows. Parsed
// objects carry no column order, so fields are sorted by identifier.
func fieldsFromRows(rows []DataRow) []Field {
	var order []string
	types := make(map[string]interfaces.FieldType)
	seen := make(map[string]bool)

	limit := len(rows)
	if limit > inferSampleSize {
		limit = inferSampleSize
	}

	for _, row := range rows[:limit] {
		for key, value := range row {
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
			t, known := types[key]
			vt := valueType(value)
			if vt == "" {
				continue
			}
			if !known {
				types[key] = vt
			} else if t != vt {
				types[key] = interfaces.FieldString
			}
		}
	}

	sort.Strings(order)

	fields := make([]Field, 0, len(order))
	for _, id := range order {
		t, ok := types[id]
		if !ok {
			t = interfaces.FieldString
		}
		fields = append(fields, Field{ID: id, Name: displayName(id), DataType: t})
	}
	return fields
}

func valueType(v any) interfaces.FieldType {
	switch tv := v.(type) {
	case nil:
		return ""
	case bool:
		return interfaces.FieldBoolean
	case float64, int64, int:
		return interfaces.FieldNumber
	case string:
		if isDateLiteral(tv) {
			return interfaces.FieldDate
		}
		return interfaces.FieldString
	default:
		return interfaces.FieldString
	}
}

// displayName makes a readable label from a field identifier:
// "unit_price" becomes "Unit Price".
func displayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return id
	}
	return strings.Join(words, " ")
}
