// Package haset implements the associative row set: a collection of
// dictionary-encoded columns sharing one row dimension, a row-level boolean
// mask accumulated by conjunctive restrictions, and the associative
// filtering mode in which restricting one column updates the observable
// statistics of every sibling column.
package haset

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/batch"
	"github.com/healiseu/hypermorph/condition"
	"github.com/healiseu/hypermorph/hacol"
	"github.com/healiseu/hypermorph/mask"
)

// Set is one associative row set bound to a single entity.
type Set struct {
	entity  hypermorph.Entity
	session uuid.UUID

	cols   map[uint32]*hacol.Collection
	byName map[string]uint32
	order  []uint32

	msk      mask.Mask
	numRows  int
	hbonds   int
	filtered bool
}

// New constructs a Set from a materialized batch: one dictionary-encoded
// column per attribute, an all-true row mask, and all counters at their
// unfiltered values. Construction fails on an empty attribute list or on
// columns whose lengths disagree.
func New(entity hypermorph.Entity, attrs []hypermorph.Attribute, columns [][]any) (*Set, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: row set %s has no attributes", hypermorph.ErrTypeMismatch, entity.Key())
	}
	if len(attrs) != len(columns) {
		return nil, fmt.Errorf("%w: %d attributes but %d columns", hypermorph.ErrTypeMismatch, len(attrs), len(columns))
	}

	s := &Set{
		entity:  entity,
		session: uuid.New(),
		cols:    make(map[uint32]*hacol.Collection, len(attrs)),
		byName:  make(map[string]uint32, 2*len(attrs)),
		numRows: len(columns[0]),
	}
	for i, attr := range attrs {
		if len(columns[i]) != s.numRows {
			return nil, fmt.Errorf("%w: column %s has %d rows, row set has %d",
				hypermorph.ErrTypeMismatch, attr.Name, len(columns[i]), s.numRows)
		}
		col, err := hacol.New(attr, columns[i])
		if err != nil {
			return nil, fmt.Errorf("row set %s: %w", entity.Key(), err)
		}
		s.cols[attr.Dim2] = col
		s.order = append(s.order, attr.Dim2)
		s.byName[attr.Name] = attr.Dim2
		if attr.Alias != "" {
			s.byName[attr.Alias] = attr.Dim2
		}
	}
	s.msk = mask.All(s.numRows)
	s.hbonds = s.numRows
	return s, nil
}

// NewFromBatch constructs a Set from a loaded batch.
func NewFromBatch(b *batch.Batch) (*Set, error) {
	return New(b.Entity, b.Attrs, b.Cols)
}

// Entity returns the entity this set is bound to.
func (s *Set) Entity() hypermorph.Entity { return s.entity }

// Session returns the load-session identifier of this set instance.
func (s *Set) Session() uuid.UUID { return s.session }

// NumRows returns the total row count.
func (s *Set) NumRows() int { return s.numRows }

// Rows returns the rows included under the current filter, or the total row
// count when no filter is active.
func (s *Set) Rows() int {
	if s.filtered {
		return s.hbonds
	}
	return s.numRows
}

// Filtered reports whether a row filter is active.
func (s *Set) Filtered() bool { return s.filtered }

// Mask returns the accumulated row mask. The slice is shared; callers must
// not modify it.
func (s *Set) Mask() mask.Mask { return s.msk }

// Attributes returns the set's attributes in column order.
func (s *Set) Attributes() []hypermorph.Attribute {
	out := make([]hypermorph.Attribute, 0, len(s.order))
	for _, dim2 := range s.order {
		out = append(out, s.cols[dim2].Attribute())
	}
	return out
}

// Col resolves a column by attribute name or alias.
func (s *Set) Col(name string) (*hacol.Collection, error) {
	dim2, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in row set %s", hypermorph.ErrInvalidProjection, name, s.entity.Key())
	}
	return s.cols[dim2], nil
}

// ColByDim2 resolves a column by its dimensional identifier.
func (s *Set) ColByDim2(dim2 uint32) (*hacol.Collection, error) {
	col, ok := s.cols[dim2]
	if !ok {
		return nil, fmt.Errorf("%w: $%d in row set %s", hypermorph.ErrInvalidProjection, dim2, s.entity.Key())
	}
	return col, nil
}

// resolve returns the column a parsed condition refers to.
func (s *Set) resolve(c condition.Condition) (*hacol.Collection, error) {
	if c.HasDim2 {
		return s.ColByDim2(c.Dim2)
	}
	return s.Col(c.Attr)
}

// Restrict evaluates a condition against its column and folds the resulting
// row mask into the set's mask with logical AND; conjunction is the only
// combinator chained conditions compose with. A condition naming just an
// attribute restricts nothing. The predicate column is returned so the
// associative filtering step knows which selection to record.
func (s *Set) Restrict(c condition.Condition) (*hacol.Collection, error) {
	col, err := s.resolve(c)
	if err != nil {
		return nil, err
	}
	if c.Op == condition.OpNone {
		return col, nil
	}
	m, err := col.Evaluate(c)
	if err != nil {
		return nil, err
	}
	if s.msk, err = s.msk.And(m); err != nil {
		return nil, err
	}
	return col, nil
}

// Filter applies the accumulated mask: rows included becomes the popcount of
// the mask and the set enters the filtered state. In associative mode the
// caller follows with PropagateSelection.
func (s *Set) Filter() {
	s.hbonds = s.msk.Count()
	s.filtered = true
}

// PropagateSelection performs the cross-column propagation that defines
// associative filtering: the column that supplied the most recent predicate
// records which dictionary positions remain selected, and every column of
// the set recomputes its cnt/inc statistics from its portion of the
// surviving rows. After this, each column's state dictionary answers "what
// remains possible here" under the set-wide filter.
func (s *Set) PropagateSelection(selected *hacol.Collection) error {
	if selected != nil {
		if err := selected.ApplyRowMask(s.msk); err != nil {
			return err
		}
		if err := selected.UpdateSelectState(selected.DistinctPositions()); err != nil {
			return err
		}
	}
	for _, dim2 := range s.order {
		col := s.cols[dim2]
		if err := col.ApplyRowMask(s.msk); err != nil {
			return err
		}
		if err := col.UpdateFrequencyIncludeState(col.FilteredIndex()); err != nil {
			return err
		}
	}
	return nil
}

// UpdateColumnsFilteredState pushes the set's mask down to every column's
// cached filtered view without touching state dictionaries. Column-level
// exports (ordered values, hyperlinks) require this before they reflect the
// set-wide filter.
func (s *Set) UpdateColumnsFilteredState() error {
	for _, dim2 := range s.order {
		if err := s.cols[dim2].ApplyRowMask(s.msk); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the unfiltered state: mask all-true, row counters back to
// the full row count, every column reset. With columnsOnly, only the
// per-column state dictionaries are reset and the row mask and filtered
// flag stay as they are. Continuing to filter after a columns-only reset is
// order-dependent: the next Filter composes with the retained mask, and
// column statistics no longer reflect it until the next propagation. Callers
// who want a clean slate must use the full reset.
func (s *Set) Reset(columnsOnly bool) {
	if !columnsOnly {
		s.msk = mask.All(s.numRows)
		s.filtered = false
		s.hbonds = s.numRows
		for _, col := range s.cols {
			col.Reset()
		}
		return
	}
	for _, col := range s.cols {
		col.StateDict().Reset()
	}
}

// MemoryUsage returns an estimate of the bytes held by column data and by
// state dictionaries across the set.
func (s *Set) MemoryUsage() (data, states int) {
	for _, col := range s.cols {
		d, st := col.MemoryUsage()
		data += d
		states += st
	}
	return data, states
}
