// Package batch models the materialized, dictionary-unencoded data of one
// associative row set and its persistence. A batch is column-major, one
// column of canonical typed values per attribute, nil marking missing
// values. Persistence keeps exactly this raw form in one parquet-layout file
// per entity under an ASETS directory; dictionary encoding and state
// dictionaries are always re-derived after load, never persisted.
package batch

import (
	"fmt"

	"github.com/healiseu/hypermorph"
)

// Batch is the materialized data of one entity.
type Batch struct {
	Entity hypermorph.Entity
	Attrs  []hypermorph.Attribute
	Cols   [][]any
}

// New validates and assembles a batch. Raw values are canonicalized to each
// attribute's declared type; malformed values or disagreeing column lengths
// abort construction.
func New(entity hypermorph.Entity, attrs []hypermorph.Attribute, cols [][]any) (*Batch, error) {
	if len(attrs) == 0 || len(attrs) != len(cols) {
		return nil, fmt.Errorf("%w: batch %s needs one column per attribute, got %d/%d",
			hypermorph.ErrTypeMismatch, entity.Key(), len(attrs), len(cols))
	}
	rows := len(cols[0])
	for i, attr := range attrs {
		if len(cols[i]) != rows {
			return nil, fmt.Errorf("%w: column %s has %d rows, batch has %d",
				hypermorph.ErrTypeMismatch, attr.Name, len(cols[i]), rows)
		}
		for j, raw := range cols[i] {
			v, err := hypermorph.CastValue(attr.VType, raw)
			if err != nil {
				return nil, fmt.Errorf("batch %s column %s row %d: %w", entity.Key(), attr.Name, j, err)
			}
			cols[i][j] = v
		}
	}
	return &Batch{Entity: entity, Attrs: attrs, Cols: cols}, nil
}

// NumRows returns the batch row count.
func (b *Batch) NumRows() int {
	if len(b.Cols) == 0 {
		return 0
	}
	return len(b.Cols[0])
}

// Column returns the column of the attribute with the given dim2.
func (b *Batch) Column(dim2 uint32) ([]any, error) {
	for i, attr := range b.Attrs {
		if attr.Dim2 == dim2 {
			return b.Cols[i], nil
		}
	}
	return nil, fmt.Errorf("%w: $%d in batch %s", hypermorph.ErrInvalidProjection, dim2, b.Entity.Key())
}
