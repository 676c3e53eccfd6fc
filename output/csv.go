package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/healiseu/hypermorph"
)

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes a header record followed by one record per row, cells in
// the given column order. Missing values render as empty fields.
func (c *CSVFormatter) Format(columns []string, rows []map[string]any) error {
	csvWriter := csv.NewWriter(c.writer)

	if err := csvWriter.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = cellValue(row[col])
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// cellValue converts a value to its text cell representation.
func cellValue(v any) string {
	if v == nil {
		return ""
	}
	return hypermorph.TextValue(v)
}
