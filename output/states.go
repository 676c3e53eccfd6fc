package output

import (
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/hacol"
)

// RenderStates writes a column's state dictionary as a table: one row per
// dictionary value with its frequency, post-filter count, selection and
// inclusion flags. Rows order by cnt descending, then selected first, then
// value; offset skips leading rows and limit > 0 keeps only the following
// ones. This is the view that shows what remains possible in a column after
// an associative filter.
func RenderStates(w io.Writer, col *hacol.Collection, limit, offset int) error {
	states := append(hacol.StateDictionary(nil), col.StateDict()...)
	sort.SliceStable(states, func(i, j int) bool {
		if states[i].Cnt != states[j].Cnt {
			return states[i].Cnt > states[j].Cnt
		}
		if states[i].Sel != states[j].Sel {
			return states[i].Sel
		}
		return stateValueLess(states[i].Val, states[j].Val)
	})
	if offset > 0 {
		if offset > len(states) {
			offset = len(states)
		}
		states = states[offset:]
	}
	if limit > 0 && limit < len(states) {
		states = states[:limit]
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ha1", "val", "freq", "cnt", "sel", "inc"})
	table.SetAutoFormatHeaders(false)
	for _, st := range states {
		table.Append([]string{
			strconv.FormatInt(int64(st.HA1), 10),
			hypermorph.TextValue(st.Val),
			strconv.Itoa(st.Freq),
			strconv.Itoa(st.Cnt),
			strconv.FormatBool(st.Sel),
			strconv.FormatBool(st.Inc),
		})
	}
	table.Render()
	return nil
}

// stateValueLess gives dictionary values a stable ordering for display:
// numeric when both values are numeric, textual otherwise.
func stateValueLess(a, b any) bool {
	fa, aok := hypermorph.NumericValue(a)
	fb, bok := hypermorph.NumericValue(b)
	if aok && bok {
		return fa < fb
	}
	return hypermorph.TextValue(a) < hypermorph.TextValue(b)
}
