// Package output provides formatters for writing query results to various
// output formats.
//
// This package defines the Formatter interface and provides implementations
// for common output formats. All formatters work with rows represented as
// []map[string]any plus an explicit column order, which preserves
// projections and renames in the text formats.
//
// # Supported Formats
//
//   - JSON Lines: One JSON object per line (suitable for streaming)
//   - CSV: Comma-separated values with header row
//   - Table: Aligned plain-text table
//
// # Basic Usage
//
// Using the JSON formatter:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(columns, rows); err != nil {
//	    log.Fatal(err)
//	}
//
// Selecting a formatter by name:
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change output destination dynamically:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//
//	file, err := os.Create("result.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	formatter.SetOutput(file)
//	if err := formatter.Format(columns, rows); err != nil {
//	    log.Fatal(err)
//	}
//
// # State Dictionaries
//
// Beyond row output, RenderStates prints a column's state dictionary, the
// per-value statistics an associative filter maintains.
//
// # Type Handling
//
// Values are canonical typed values; the text formats render them through
// one shared conversion and write missing values as empty cells, while the
// JSON formatter emits them as null.
package output
