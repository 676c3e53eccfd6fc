// Package mask implements the boolean row-mask algebra shared by column and
// row-set filtering. A Mask has one entry per row of the owning collection;
// filters only ever narrow a mask, combining restrictions with logical AND.
package mask

import (
	"fmt"

	"github.com/healiseu/hypermorph"
)

// Mask is a boolean selection over the rows of a collection.
type Mask []bool

// All returns a mask of n rows with every row selected.
func All(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// None returns a mask of n rows with no row selected.
func None(n int) Mask {
	return make(Mask, n)
}

// And returns the conjunction of two masks of equal length. Conjunction is
// the only combinator chained restrictions compose with.
func (m Mask) And(other Mask) (Mask, error) {
	if len(m) != len(other) {
		return nil, fmt.Errorf("%w: mask length %d != %d", hypermorph.ErrBounds, len(m), len(other))
	}
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] && other[i]
	}
	return out, nil
}

// Count returns the number of selected rows.
func (m Mask) Count() int {
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the mask.
func (m Mask) Clone() Mask {
	out := make(Mask, len(m))
	copy(out, m)
	return out
}
