package hacol

import (
	"math"
	"sort"

	"github.com/healiseu/hypermorph"
)

// Order selects the sort direction of an export.
type Order int

const (
	Unordered Order = iota
	Ascending
	Descending
)

// Hyperlink connects one synthetic row identifier (a hyperbond) to the
// dictionary position of the value it carries (a hyperatom). The
// visualization consumer turns these pairs into graph edges.
type Hyperlink struct {
	HB2 uint32 // row-dimension offset chosen by the caller
	HB1 int64  // synthetic row id within the filtered view
	HA2 uint32 // the column's dim2
	HA1 int32  // dictionary position
}

// widenToFloat converts each integer width to the float64 output type. The
// widening exists because integer columns cannot represent missing values
// without a wider floating type; Numeric emits NaN for nulls. int64 values
// beyond 2^53 lose precision in the widening, as float64 has a 53-bit
// mantissa.
var widenToFloat = map[hypermorph.ValueType]func(any) float64{
	hypermorph.TypeInt8:      func(v any) float64 { return float64(v.(int8)) },
	hypermorph.TypeInt16:     func(v any) float64 { return float64(v.(int16)) },
	hypermorph.TypeInt32:     func(v any) float64 { return float64(v.(int32)) },
	hypermorph.TypeInt64:     func(v any) float64 { return float64(v.(int64)) },
	hypermorph.TypeDate:      func(v any) float64 { return float64(v.(int64)) },
	hypermorph.TypeTimestamp: func(v any) float64 { return float64(v.(int64)) },
	hypermorph.TypeFloat32:   func(v any) float64 { return float64(v.(float32)) },
	hypermorph.TypeFloat64:   func(v any) float64 { return v.(float64) },
}

// OrderedValues materializes the non-null values of the filtered view,
// optionally deduplicated (first-seen order) and sorted. An empty filtered
// view yields an empty slice, never an error.
func (c *Collection) OrderedValues(order Order, unique bool) []any {
	out := make([]any, 0, len(c.flt))
	if unique {
		for _, pos := range c.DistinctPositions() {
			out = append(out, c.dict[pos])
		}
	} else {
		for _, pos := range c.flt {
			if pos != NullPos {
				out = append(out, c.dict[pos])
			}
		}
	}
	switch order {
	case Ascending:
		sortValues(out, false)
	case Descending:
		sortValues(out, true)
	}
	return out
}

// Numeric materializes the filtered view as float64, widening integer values
// per width and emitting NaN for nulls. Non-numeric columns yield an empty
// slice. Sorting places NaN entries last.
func (c *Collection) Numeric(order Order) []float64 {
	widen, ok := widenToFloat[c.attr.VType]
	if !ok {
		return []float64{}
	}
	out := make([]float64, 0, len(c.flt))
	for _, pos := range c.flt {
		if pos == NullPos {
			out = append(out, math.NaN())
			continue
		}
		out = append(out, widen(c.dict[pos]))
	}
	switch order {
	case Ascending:
		sort.Slice(out, func(i, j int) bool { return numLess(out[i], out[j]) })
	case Descending:
		sort.Slice(out, func(i, j int) bool { return numLess(out[j], out[i]) })
	}
	return out
}

// Text materializes the non-null values of the filtered view as strings.
func (c *Collection) Text() []string {
	out := make([]string, 0, len(c.flt))
	for _, pos := range c.flt {
		if pos != NullPos {
			out = append(out, hypermorph.TextValue(c.dict[pos]))
		}
	}
	return out
}

// Hyperlinks emits one pair per valid row of the filtered view, linking a
// synthetic row id to the dictionary position it carries. Synthetic row ids
// number the filtered view from offset, so they differ from the unfiltered
// ids once a filter is active.
func (c *Collection) Hyperlinks(hb2 uint32, offset int64) []Hyperlink {
	out := make([]Hyperlink, 0, len(c.flt))
	for i, pos := range c.flt {
		if pos == NullPos {
			continue
		}
		out = append(out, Hyperlink{HB2: hb2, HB1: offset + int64(i), HA2: c.attr.Dim2, HA1: pos})
	}
	return out
}

// numLess orders float64 ascending with NaN last.
func numLess(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// sortValues orders canonical typed values in place. Within one column all
// values share a type, so mixed comparisons cannot arise.
func sortValues(vals []any, desc bool) {
	less := func(i, j int) bool { return valueLess(vals[i], vals[j]) }
	if desc {
		less = func(i, j int) bool { return valueLess(vals[j], vals[i]) }
	}
	sort.SliceStable(vals, less)
}

func valueLess(a, b any) bool {
	if s, ok := a.(string); ok {
		return s < b.(string)
	}
	fa, _ := scalarValue(a)
	fb, _ := scalarValue(b)
	return fa < fb
}
