package dataset

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

// Magic byte signatures for compression detection
var (
	// Gzip magic bytes: 1f 8b
	gzipMagic = []byte{0x1f, 0x8b}
	// Bzip2 magic bytes: 42 5a 68 ("BZh")
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	// XZ magic bytes: fd 37 7a 58 5a 00
	xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// Load reads one dataset file into memory. Compression is detected by
// magic bytes, the data format by file extension after stripping any
// compression suffix. Cell values are typed according to the inferred
// field types.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader, err := decompressingReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var fields []Field
	var rows []DataRow

	switch format := dataFormat(path); format {
	case "csv":
		fields, rows, err = loadCSV(reader)
	case "json":
		fields, rows, err = loadJSON(reader)
	case "xlsx":
		fields, rows, err = loadXLSX(reader)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	id := datasetID(path)
	return &Dataset{
		ID:     id,
		Name:   displayName(id),
		Path:   path,
		Fields: fields,
		Rows:   rows,
	}, nil
}

// decompressingReader sniffs magic bytes and wraps the stream in the
// matching decompressor, or returns the stream as-is.
func decompressingReader(f *os.File) (io.Reader, error) {
	br := bufio.NewReader(f)

	// XZ has the longest magic (6 bytes)
	magic, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		return gzip.NewReader(br)
	case bytes.HasPrefix(magic, bzip2Magic):
		return bzip2.NewReader(br), nil
	case bytes.HasPrefix(magic, xzMagic):
		return xz.NewReader(br)
	default:
		return br, nil
	}
}

// dataFormat returns the extension that identifies the data format,
// looking past compression suffixes.
func dataFormat(path string) string {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".bz2", ".xz":
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// datasetID derives a stable identifier from the file name.
func datasetID(path string) string {
	name := filepath.Base(path)
	for {
		ext := filepath.Ext(name)
		if ext == "" {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}

func loadCSV(r io.Reader) ([]Field, []DataRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty file")
	}

	return tableToRows(records[0], records[1:])
}

func loadXLSX(r io.Reader) ([]Field, []DataRow, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	// First sheet only
	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := records[0]
	body := records[1:]

	// GetRows trims trailing empty cells; pad short rows to the header width
	for i, rec := range body {
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			body[i] = padded
		}
	}

	return tableToRows(header, body)
}

func loadJSON(r io.Reader) ([]Field, []DataRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	list, ok := parsed.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("expected a top-level array of objects")
	}

	rows := make([]DataRow, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("element %d is not an object", i)
		}
		rows = append(rows, DataRow(obj))
	}

	return fieldsFromRows(rows), rows, nil
}

// tableToRows infers field types from the string table and converts
// cells to typed values.
func tableToRows(header []string, records [][]string) ([]Field, []DataRow, error) {
	fields := inferFields(header, records)

	rows := make([]DataRow, 0, len(records))
	for _, rec := range records {
		row := make(DataRow, len(fields))
		for i, field := range fields {
			if i >= len(rec) {
				row[field.ID] = nil
				continue
			}
			row[field.ID] = convertCell(rec[i], field.DataType)
		}
		rows = append(rows, row)
	}

	return fields, rows, nil
}
