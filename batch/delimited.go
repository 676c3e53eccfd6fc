package batch

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/healiseu/hypermorph"
)

// DelimitedOptions controls flat-file ingestion.
type DelimitedOptions struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// Nulls lists the strings that denote a missing value, e.g. `\N` or "".
	Nulls []string
	// Skip is the number of leading records to discard, typically a header.
	Skip int
}

// FromDelimited ingests a delimited text stream into a batch. Each record
// must carry one field per attribute, in attribute order; fields are typed
// from the attribute metadata and null strings become missing values.
func FromDelimited(r io.Reader, entity hypermorph.Entity, attrs []hypermorph.Attribute, opts DelimitedOptions) (*Batch, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: batch %s has no attributes", hypermorph.ErrTypeMismatch, entity.Key())
	}

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = len(attrs)

	nulls := make(map[string]struct{}, len(opts.Nulls))
	for _, n := range opts.Nulls {
		nulls[n] = struct{}{}
	}

	cols := make([][]any, len(attrs))
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delimited record: %w", err)
		}
		line++
		if line <= opts.Skip {
			continue
		}
		for i, field := range record {
			if _, isNull := nulls[field]; isNull {
				cols[i] = append(cols[i], nil)
				continue
			}
			cols[i] = append(cols[i], field)
		}
	}

	return New(entity, attrs, cols)
}
