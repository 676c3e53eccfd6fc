package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func TestCSVFormatter_Format(t *testing.T) {
	tests := []struct {
		name      string
		columns   []string
		rows      []map[string]any
		wantLines int
	}{
		{
			name:      "empty rows",
			columns:   []string{"id", "name"},
			rows:      []map[string]any{},
			wantLines: 1, // header only
		},
		{
			name:    "single row",
			columns: []string{"id", "name", "age"},
			rows: []map[string]any{
				{"id": int64(1), "name": "alice", "age": int32(30)},
			},
			wantLines: 2, // header + 1 data row
		},
		{
			name:    "multiple rows",
			columns: []string{"id", "name", "age"},
			rows: []map[string]any{
				{"id": int64(1), "name": "alice", "age": int32(30)},
				{"id": int64(2), "name": "bob", "age": int32(25)},
			},
			wantLines: 3, // header + 2 data rows
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := NewCSVFormatter(&buf)

			if err := formatter.Format(tt.columns, tt.rows); err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			reader := csv.NewReader(strings.NewReader(buf.String()))
			records, err := reader.ReadAll()
			if err != nil {
				t.Fatalf("Format() produced invalid CSV: %v", err)
			}
			if len(records) != tt.wantLines {
				t.Errorf("Format() produced %d lines, want %d", len(records), tt.wantLines)
			}
		})
	}
}

func TestCSVFormatter_ColumnOrder(t *testing.T) {
	// The caller's column order must survive, renames included.
	rows := []map[string]any{
		{"Q": int64(5), "C": "NY"},
	}

	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format([]string{"C", "Q"}, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "C,Q" {
		t.Errorf("header = %q, want C,Q", lines[0])
	}
	if lines[1] != "NY,5" {
		t.Errorf("row = %q, want NY,5", lines[1])
	}
}

func TestCSVFormatter_NullCells(t *testing.T) {
	rows := []map[string]any{
		{"name": "alpha", "size": nil},
	}

	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format([]string{"name", "size"}, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[1] != "alpha," {
		t.Errorf("row = %q, want empty second cell", lines[1])
	}
}
