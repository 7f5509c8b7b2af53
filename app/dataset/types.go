package dataset

import "pivotgrid/app/interfaces"

// Type aliases for convenience
type (
	Field   = interfaces.Field
	DataRow = interfaces.DataRow
	Logger  = interfaces.Logger
)

// Dataset is a fully loaded source table with typed rows and inferred
// field metadata.
type Dataset struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Path   string    `json:"path"`
	Fields []Field   `json:"fields"`
	Rows   []DataRow `json:"rows"`
}

// Info describes a discovered dataset file without loading its rows.
type Info struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"sizeBytes"`
}
