// Package hacol implements the dictionary-encoded column at the heart of the
// associative set engine: a HyperAtom collection. Each column owns a
// dictionary of unique values, an index array mapping every row to a
// dictionary position (or null), a StateDictionary of per-value statistics,
// and a cached filtered view. The dictionary and index array are immutable
// after construction; only the StateDictionary and the filtered view change,
// and only through the operations below.
package hacol

import (
	"fmt"
	"strings"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/condition"
	"github.com/healiseu/hypermorph/mask"
)

// NullPos marks a missing value in an index array.
const NullPos int32 = -1

// Collection is one attribute's dictionary-encoded data.
type Collection struct {
	attr  hypermorph.Attribute
	dict  []any
	index []int32
	sdict StateDictionary

	unique  int
	missing int
	length  int
	valid   int

	// Filtered view. rowMask is nil in the unfiltered state; flt is the
	// index array restricted by rowMask.
	rowMask  mask.Mask
	flt      []int32
	atoms    int // distinct non-null positions in flt
	values   int // len(flt)
	filtered bool

	// predicated is set once a predicate has been evaluated and cleared by
	// Reset; Restrict refuses to run without it.
	predicated bool
}

// New builds a Collection from a materialized column by value counting.
// Values are canonicalized to the attribute's declared type; nulls are
// excluded from the dictionary but counted as missing. The resulting
// StateDictionary is seeded with cnt equal to freq, sel false and inc true.
func New(attr hypermorph.Attribute, column []any) (*Collection, error) {
	c := &Collection{
		attr:   attr,
		index:  make([]int32, len(column)),
		length: len(column),
	}
	positions := make(map[any]int32, len(column)/2)
	for i, raw := range column {
		v, err := hypermorph.CastValue(attr.VType, raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %s row %d: %w", attr.Name, i, err)
		}
		if v == nil {
			c.index[i] = NullPos
			c.missing++
			continue
		}
		pos, ok := positions[v]
		if !ok {
			pos = int32(len(c.dict))
			positions[v] = pos
			c.dict = append(c.dict, v)
			c.sdict = append(c.sdict, State{HA1: pos, Val: v, Inc: true})
		}
		c.index[i] = pos
		c.sdict[pos].Freq++
	}
	for i := range c.sdict {
		c.sdict[i].Cnt = c.sdict[i].Freq
	}
	c.unique = len(c.dict)
	c.valid = c.length - c.missing
	c.flt = c.index
	c.atoms = c.unique
	c.values = c.length
	return c, nil
}

// Attribute returns the column's metadata.
func (c *Collection) Attribute() hypermorph.Attribute { return c.attr }

// StateDict returns the column's state dictionary.
func (c *Collection) StateDict() StateDictionary { return c.sdict }

// Unique returns the number of values in the dictionary.
func (c *Collection) Unique() int { return c.unique }

// Missing returns the number of null rows.
func (c *Collection) Missing() int { return c.missing }

// Length returns the total row count, valid plus missing.
func (c *Collection) Length() int { return c.length }

// Valid returns the number of non-null rows.
func (c *Collection) Valid() int { return c.valid }

// Filtered reports whether a row filter is active on the column.
func (c *Collection) Filtered() bool { return c.filtered }

// AtomsIncluded returns the number of distinct values in the filtered view.
func (c *Collection) AtomsIncluded() int { return c.atoms }

// ValuesIncluded returns the number of rows in the filtered view.
func (c *Collection) ValuesIncluded() int { return c.values }

// FilteredIndex returns the cached filtered index array. The slice is shared;
// callers must not modify it.
func (c *Collection) FilteredIndex() []int32 { return c.flt }

// Index returns the full index array, one dictionary position per row with
// NullPos marking missing values. The slice is shared; callers must not
// modify it.
func (c *Collection) Index() []int32 { return c.index }

// Value returns the dictionary value at the given position.
func (c *Collection) Value(pos int32) (any, error) {
	if pos < 0 || int(pos) >= c.unique {
		return nil, fmt.Errorf("%w: dictionary position %d of %d", hypermorph.ErrBounds, pos, c.unique)
	}
	return c.dict[pos], nil
}

// Count returns the included unique values and included rows: in the
// unfiltered state the dictionary size and the valid row count, in the
// filtered state the distinct and total entries of the filtered view.
func (c *Collection) Count() (atoms, values int) {
	if !c.filtered {
		return c.unique, c.valid
	}
	return distinct(c.flt), len(c.flt)
}

// Evaluate applies a parsed predicate to the column and returns a full-length
// row mask: true for rows of the current filtered view whose value satisfies
// the predicate, false for null rows and rows already excluded. An OpNone
// condition selects every row of the current view without recording a
// predicate.
func (c *Collection) Evaluate(cond condition.Condition) (mask.Mask, error) {
	if cond.Op == condition.OpNone {
		if c.rowMask == nil {
			return mask.All(c.length), nil
		}
		return c.rowMask.Clone(), nil
	}

	// Compare once per dictionary position, not once per row.
	match := make([]bool, c.unique)
	switch cond.Op {
	case condition.OpLike:
		if c.attr.VType != hypermorph.TypeString {
			return nil, fmt.Errorf("%w: like on %s column %s", hypermorph.ErrTypeMismatch, c.attr.VType, c.attr.Name)
		}
		for pos, v := range c.dict {
			match[pos] = strings.Contains(v.(string), cond.Operand)
		}
	default:
		for pos, v := range c.dict {
			f, ok := scalarValue(v)
			if !ok {
				return nil, fmt.Errorf("%w: %s comparison on %s column %s", hypermorph.ErrTypeMismatch, cond.Op, c.attr.VType, c.attr.Name)
			}
			m, err := compareScalar(f, cond.Op, cond.Number)
			if err != nil {
				return nil, err
			}
			match[pos] = m
		}
	}

	out := mask.None(c.length)
	for i, pos := range c.index {
		if pos == NullPos {
			continue
		}
		if c.rowMask != nil && !c.rowMask[i] {
			continue
		}
		out[i] = match[pos]
	}
	c.predicated = true
	return out, nil
}

// Restrict intersects the column's filtered view with a row mask produced by
// a preceding Evaluate. Calling it before any predicate has been evaluated
// is an ErrSequence.
func (c *Collection) Restrict(m mask.Mask) error {
	if !c.predicated {
		return fmt.Errorf("%w: restrict on %s before any predicate", hypermorph.ErrSequence, c.attr.Name)
	}
	if c.rowMask != nil {
		var err error
		if m, err = c.rowMask.And(m); err != nil {
			return err
		}
	}
	return c.ApplyRowMask(m)
}

// ApplyRowMask replaces the column's filtered view with the rows selected by
// m, which must cover the full row dimension. The row set uses this to push
// its accumulated mask down to each column.
func (c *Collection) ApplyRowMask(m mask.Mask) error {
	if len(m) != c.length {
		return fmt.Errorf("%w: mask length %d != rows %d", hypermorph.ErrBounds, len(m), c.length)
	}
	c.rowMask = m.Clone()
	c.flt = make([]int32, 0, m.Count())
	for i, keep := range m {
		if keep {
			c.flt = append(c.flt, c.index[i])
		}
	}
	c.atoms = distinct(c.flt)
	c.values = len(c.flt)
	c.filtered = c.values < c.length
	return nil
}

// UpdateSelectState records the dictionary positions the most recent
// predicate selected.
func (c *Collection) UpdateSelectState(positions []int32) error {
	return c.sdict.UpdateSelect(positions)
}

// UpdateFrequencyIncludeState recomputes cnt and inc for all positions from
// a filtered index array. This is how filtering one column propagates its
// effect to the observable statistics of every sibling column.
func (c *Collection) UpdateFrequencyIncludeState(index []int32) error {
	return c.sdict.UpdateFrequencyInclude(index)
}

// DistinctPositions returns the distinct non-null dictionary positions in
// the filtered view, in first-seen order.
func (c *Collection) DistinctPositions() []int32 {
	seen := make(map[int32]struct{}, c.atoms)
	out := make([]int32, 0, c.atoms)
	for _, pos := range c.flt {
		if pos == NullPos {
			continue
		}
		if _, ok := seen[pos]; !ok {
			seen[pos] = struct{}{}
			out = append(out, pos)
		}
	}
	return out
}

// Reset restores the unfiltered state: the filtered view covers the full
// column again and every StateDictionary record returns to cnt=freq,
// sel=false, inc=false.
func (c *Collection) Reset() {
	c.rowMask = nil
	c.flt = c.index
	c.atoms = c.unique
	c.values = c.length
	c.filtered = false
	c.predicated = false
	c.sdict.Reset()
}

// MemoryUsage returns an estimate of the bytes held by the column data and
// by its state dictionary.
func (c *Collection) MemoryUsage() (data, states int) {
	data = len(c.index) * 4
	for _, v := range c.dict {
		data += valueBytes(v)
	}
	for i := range c.sdict {
		states += 32 + valueBytes(c.sdict[i].Val)
	}
	return data, states
}

func valueBytes(v any) int {
	switch x := v.(type) {
	case string:
		return len(x)
	case bool, int8:
		return 1
	case int16:
		return 2
	case int32, float32:
		return 4
	default:
		return 8
	}
}

// distinct counts distinct non-null positions in an index array.
func distinct(index []int32) int {
	seen := make(map[int32]struct{})
	for _, pos := range index {
		if pos != NullPos {
			seen[pos] = struct{}{}
		}
	}
	return len(seen)
}

// scalarValue converts a dictionary value to its numeric ordering key.
// Booleans order false before true.
func scalarValue(v any) (float64, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return hypermorph.NumericValue(v)
}

// compareScalar applies a comparison operator to two float64 scalars.
func compareScalar(left float64, op condition.Operator, right float64) (bool, error) {
	switch op {
	case condition.OpEqual:
		return left == right, nil
	case condition.OpNotEqual:
		return left != right, nil
	case condition.OpLess:
		return left < right, nil
	case condition.OpLessEqual:
		return left <= right, nil
	case condition.OpGreater:
		return left > right, nil
	case condition.OpGreaterEqual:
		return left >= right, nil
	default:
		return false, fmt.Errorf("%w: operator %v", hypermorph.ErrUnsupportedPredicate, op)
	}
}
