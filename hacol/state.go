package hacol

import (
	"fmt"

	"github.com/healiseu/hypermorph"
)

// State is the record a column keeps for one dictionary position: the
// position itself (ha1), the value, its row frequency in the unfiltered
// table (freq), its row frequency under the current filter (cnt), whether
// the most recent predicate on this column selected it (sel), and whether
// at least one row carrying it survives the current filter (inc).
type State struct {
	HA1  int32
	Freq int
	Val  any
	Cnt  int
	Sel  bool
	Inc  bool
}

// StateDictionary is the secondary index of a column: one State per
// dictionary position, in dictionary order. Two sums are invariant:
// SumFreq() always equals the column's valid row count, and after any
// filter SumCnt() equals the rows remaining for the column.
type StateDictionary []State

// Reset restores every record to its unfiltered form: cnt back to freq,
// selection and inclusion flags cleared.
func (sd StateDictionary) Reset() {
	for i := range sd {
		sd[i].Cnt = sd[i].Freq
		sd[i].Sel = false
		sd[i].Inc = false
	}
}

// UpdateSelect marks the given dictionary positions as selected by the most
// recently evaluated predicate.
func (sd StateDictionary) UpdateSelect(positions []int32) error {
	for _, p := range positions {
		if p < 0 || int(p) >= len(sd) {
			return fmt.Errorf("%w: dictionary position %d of %d", hypermorph.ErrBounds, p, len(sd))
		}
		sd[p].Sel = true
	}
	return nil
}

// UpdateFrequencyInclude recomputes cnt and inc for all positions from a
// filtered index array, typically this column's portion of the row set's
// surviving rows. Positions absent from the index end with cnt 0 and inc
// false.
func (sd StateDictionary) UpdateFrequencyInclude(index []int32) error {
	for i := range sd {
		sd[i].Cnt = 0
		sd[i].Inc = false
	}
	for _, p := range index {
		if p == NullPos {
			continue
		}
		if p < 0 || int(p) >= len(sd) {
			return fmt.Errorf("%w: dictionary position %d of %d", hypermorph.ErrBounds, p, len(sd))
		}
		sd[p].Cnt++
		sd[p].Inc = true
	}
	return nil
}

// SumFreq returns the total unfiltered row frequency.
func (sd StateDictionary) SumFreq() int {
	n := 0
	for i := range sd {
		n += sd[i].Freq
	}
	return n
}

// SumCnt returns the total filtered row frequency.
func (sd StateDictionary) SumCnt() int {
	n := 0
	for i := range sd {
		n += sd[i].Cnt
	}
	return n
}

// IncludedCount returns the number of values still present after filtering.
func (sd StateDictionary) IncludedCount() int {
	n := 0
	for i := range sd {
		if sd[i].Inc {
			n++
		}
	}
	return n
}
