// Package output provides formatters for writing query results to various
// output formats.
//
// Currently supported formats:
//   - JSON Lines: One JSON object per line
//   - CSV: Comma-separated values with header row
//   - Table: Aligned plain-text table
//
// Example usage:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(columns, rows); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"fmt"
	"io"
)

// Formatter defines the interface for output formatters. Rows arrive with
// an explicit column order, since projections and renames decide what the
// caller sees; a formatter must never reorder columns on its own.
type Formatter interface {
	// Format writes rows in the formatter's specific format
	Format(columns []string, rows []map[string]any) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns the formatter registered under the given name: "json", "csv"
// or "table".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
