package haset

import (
	"fmt"
	"sort"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/condition"
	"github.com/healiseu/hypermorph/hacol"
)

type operation int

const (
	opNone operation = iota
	opCounting
	opSelection
	opRestriction
	opFiltering
	opProjection
	opSlicing
	opTransformation
)

var opLabels = map[operation]string{
	opNone:           "start",
	opCounting:       "count",
	opSelection:      "select",
	opRestriction:    "restriction",
	opFiltering:      "filter",
	opProjection:     "projection",
	opSlicing:        "slice",
	opTransformation: "transformation",
}

type filterMode int

const (
	// modeNormal restricts only the row mask.
	modeNormal filterMode = iota
	// modeAssociative additionally updates sel/cnt/inc on every column's
	// state dictionary when the filter is applied.
	modeAssociative
)

// Pipe is a chainable query pipeline over a Set. Like the column pipeline,
// every step returns a new snapshot by value; the filtering mode lives on
// the pipeline invocation, not on the set.
type Pipe struct {
	set   *Set
	fetch any
	op    operation
	mode  filterMode

	// lastCol supplied the most recent predicate; associative filtering
	// records its selection.
	lastCol *hacol.Collection

	projDim2  []uint32
	projNames []string

	orderName string
	orderDesc bool

	err error
}

// Pipe returns a fresh pipeline over the set.
func (s *Set) Pipe() Pipe {
	return Pipe{set: s}
}

// Q returns a started pipeline in normal filtering mode.
func (s *Set) Q() Pipe {
	return s.Pipe().Start()
}

// Select returns a started pipeline in associative filtering mode, in which
// filtering updates the selection and inclusion statistics of every column.
func (s *Set) Select() Pipe {
	p := s.Pipe().Start()
	p.mode = modeAssociative
	p.op = opSelection
	return p
}

// Start sets the pipeline payload to the set's current row count.
func (p Pipe) Start() Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.set.Rows()
	return p
}

// Count loads the number of rows included under the current filter.
func (p Pipe) Count() Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.set.Rows()
	p.op = opCounting
	return p
}

// Where evaluates a condition against the column it names and folds the
// resulting mask into the set's row mask with logical AND.
func (p Pipe) Where(cond string) Pipe {
	return p.restrict(cond)
}

// And chains a further condition; composition is always conjunctive.
func (p Pipe) And(cond string) Pipe {
	return p.restrict(cond)
}

func (p Pipe) restrict(cond string) Pipe {
	if p.err != nil {
		return p
	}
	parsed, err := condition.Parse(cond)
	if err != nil {
		p.err = err
		return p
	}
	col, err := p.set.Restrict(parsed)
	if err != nil {
		p.err = err
		return p
	}
	p.lastCol = col
	p.fetch = p.set.Mask()
	p.op = opRestriction
	return p
}

// Filter applies the accumulated row mask. In associative mode it then
// propagates the filter to every column: the predicate column records its
// selected dictionary positions, and all columns recompute cnt/inc from
// their surviving rows. Filtering without a preceding restriction is an
// ErrSequence.
func (p Pipe) Filter() Pipe {
	if p.err != nil {
		return p
	}
	if p.op != opRestriction {
		p.err = fmt.Errorf("%w: filter after %s", hypermorph.ErrSequence, opLabels[p.op])
		return p
	}
	p.set.Filter()
	if p.mode == modeAssociative {
		if err := p.set.PropagateSelection(p.lastCol); err != nil {
			p.err = err
			return p
		}
	}
	p.fetch = p.set.Rows()
	p.op = opFiltering
	return p
}

// Over projects the row set onto the named columns, optionally renaming
// them. Unknown names fail with ErrInvalidProjection.
func (p Pipe) Over(names []string, as []string) Pipe {
	if p.err != nil {
		return p
	}
	if len(as) > 0 && len(as) != len(names) {
		p.err = fmt.Errorf("%w: %d rename targets for %d columns", hypermorph.ErrInvalidProjection, len(as), len(names))
		return p
	}
	p.projDim2 = make([]uint32, 0, len(names))
	p.projNames = make([]string, 0, len(names))
	for i, name := range names {
		col, err := p.set.Col(name)
		if err != nil {
			p.err = err
			return p
		}
		p.projDim2 = append(p.projDim2, col.Attribute().Dim2)
		if len(as) > 0 {
			p.projNames = append(p.projNames, as[i])
		} else {
			p.projNames = append(p.projNames, name)
		}
	}
	p.op = opProjection
	return p
}

// Columns returns the output column names: the projection if one is set,
// otherwise every attribute name in column order.
func (p Pipe) Columns() []string {
	if len(p.projNames) > 0 {
		return p.projNames
	}
	names := make([]string, 0, len(p.set.order))
	for _, dim2 := range p.set.order {
		names = append(names, p.set.cols[dim2].Attribute().Name)
	}
	return names
}

// projection returns the dim2 identifiers the pipeline operates over.
func (p Pipe) projection() []uint32 {
	if len(p.projDim2) > 0 {
		return p.projDim2
	}
	return p.set.order
}

// OrderBy sorts the rows ToRows materializes by the named output column,
// so it must name a projected (and possibly renamed) column. Missing values
// order last regardless of direction.
func (p Pipe) OrderBy(name string, desc bool) Pipe {
	if p.err != nil {
		return p
	}
	for _, col := range p.Columns() {
		if col == name {
			p.orderName = name
			p.orderDesc = desc
			return p
		}
	}
	p.err = fmt.Errorf("%w: order by %q", hypermorph.ErrInvalidProjection, name)
	return p
}

// ToRows materializes the current filtered view as one map per surviving
// row, decoded through each column's dictionary and restricted to the
// projection. Missing values appear as nil entries; rows keep their source
// order unless OrderBy asked for one.
func (p Pipe) ToRows() Pipe {
	if p.err != nil {
		return p
	}
	dims := p.projection()
	names := p.Columns()

	rows := make([]map[string]any, 0, p.set.Rows())
	for i := 0; i < p.set.numRows; i++ {
		if !p.set.msk[i] {
			continue
		}
		row := make(map[string]any, len(dims))
		for j, dim2 := range dims {
			col := p.set.cols[dim2]
			pos := col.Index()[i]
			if pos == hacol.NullPos {
				row[names[j]] = nil
				continue
			}
			v, err := col.Value(pos)
			if err != nil {
				p.err = err
				return p
			}
			row[names[j]] = v
		}
		rows = append(rows, row)
	}
	if p.orderName != "" {
		name, desc := p.orderName, p.orderDesc
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i][name], rows[j][name]
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			if desc {
				return cellLess(b, a)
			}
			return cellLess(a, b)
		})
	}
	p.fetch = rows
	p.op = opTransformation
	return p
}

// cellLess orders two non-nil row cells: numerically when both are numeric,
// textually otherwise.
func cellLess(a, b any) bool {
	fa, aok := hypermorph.NumericValue(a)
	fb, bok := hypermorph.NumericValue(b)
	if aok && bok {
		return fa < fb
	}
	return hypermorph.TextValue(a) < hypermorph.TextValue(b)
}

// ToValues folds each projected column's ordered values into one slice,
// optionally deduplicated across columns in first-seen order. The caller
// must have propagated the set's filter to the columns first (a filter in
// associative mode, or UpdateColumnsFilteredState); otherwise the columns
// still expose their previous views.
func (p Pipe) ToValues(unique bool) Pipe {
	if p.err != nil {
		return p
	}
	var values []any
	for _, dim2 := range p.projection() {
		values = append(values, p.set.cols[dim2].OrderedValues(hacol.Unordered, unique)...)
	}
	if unique {
		seen := make(map[any]struct{}, len(values))
		deduped := values[:0]
		for _, v := range values {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			deduped = append(deduped, v)
		}
		values = deduped
	}
	p.fetch = values
	p.op = opTransformation
	return p
}

// ToHyperlinks folds each projected column's row-to-value pairs. The same
// propagation requirement as ToValues applies.
func (p Pipe) ToHyperlinks(hb2 uint32) Pipe {
	if p.err != nil {
		return p
	}
	var links []hacol.Hyperlink
	for _, dim2 := range p.projection() {
		links = append(links, p.set.cols[dim2].Hyperlinks(hb2, 0)...)
	}
	p.fetch = links
	p.op = opTransformation
	return p
}

// Reset rewinds the set (fully, or columns-only per Set.Reset) and clears
// the pipeline's recorded operation and mode, so the chain can start over.
func (p Pipe) Reset(columnsOnly bool) Pipe {
	if p.err != nil {
		return p
	}
	p.set.Reset(columnsOnly)
	p.fetch = p.set.Rows()
	p.op = opNone
	p.mode = modeNormal
	p.lastCol = nil
	return p
}

// Slice keeps at most limit entries of a materialized payload starting at
// offset. A limit of zero keeps everything after the offset.
func (p Pipe) Slice(limit, offset int) Pipe {
	if p.err != nil {
		return p
	}
	switch v := p.fetch.(type) {
	case []map[string]any:
		p.fetch = slicePayload(v, limit, offset)
	case []any:
		p.fetch = slicePayload(v, limit, offset)
	case []hacol.Hyperlink:
		p.fetch = slicePayload(v, limit, offset)
	default:
		p.err = fmt.Errorf("%w: slice after %s", hypermorph.ErrSequence, opLabels[p.op])
		return p
	}
	if p.op == opNone || p.op == opFiltering {
		p.op = opSlicing
	}
	return p
}

// Out returns the pipeline payload, failing with the first error recorded
// along the chain or with ErrSequence when the preceding steps do not form
// a completed operation.
func (p Pipe) Out() (any, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.op {
	case opCounting, opRestriction, opFiltering, opSlicing, opTransformation:
		return p.fetch, nil
	default:
		return nil, fmt.Errorf("%w: collect after %s", hypermorph.ErrSequence, opLabels[p.op])
	}
}

func slicePayload[T any](s []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s) {
		offset = len(s)
	}
	end := len(s)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return s[offset:end]
}
