package hacol

import (
	"fmt"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/condition"
	"github.com/healiseu/hypermorph/mask"
)

// operation tracks the kind of step a pipeline last performed; Out only
// returns a payload after a step that produces one.
type operation int

const (
	opNone operation = iota
	opCounting
	opRestriction
	opFiltering
	opSlicing
	opTransformation
)

var opLabels = map[operation]string{
	opNone:           "start",
	opCounting:       "count",
	opRestriction:    "restriction",
	opFiltering:      "filter",
	opSlicing:        "slice",
	opTransformation: "transformation",
}

// Counts is the payload of a Count step.
type Counts struct {
	Atoms  int
	Values int
}

// Pipe is a chainable query pipeline over one Collection. Every step returns
// a new snapshot by value, so two pipelines derived from the same prefix are
// independent:
//
//	base := col.Q()
//	a := base.Where("price<20")
//	b := base.Where("price>=20")
//
// Errors stick to the snapshot that produced them and surface at Out.
type Pipe struct {
	col   *Collection
	fetch any
	msk   mask.Mask
	op    operation
	err   error
}

// Pipe returns a fresh pipeline over the collection.
func (c *Collection) Pipe() Pipe {
	return Pipe{col: c}
}

// Q returns a started pipeline, the usual entry point for chaining.
func (c *Collection) Q() Pipe {
	return c.Pipe().Start()
}

// Start sets the pipeline payload to the current filtered view.
func (p Pipe) Start() Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.col.FilteredIndex()
	return p
}

// Count loads the included-atoms and included-rows counters as the payload.
func (p Pipe) Count() Pipe {
	if p.err != nil {
		return p
	}
	atoms, values := p.col.Count()
	p.fetch = Counts{Atoms: atoms, Values: values}
	p.op = opCounting
	return p
}

// Where evaluates a condition string against the column and holds the
// resulting row mask. The attribute part of the condition is ignored; the
// pipeline is already bound to its column.
func (p Pipe) Where(cond string) Pipe {
	if p.err != nil {
		return p
	}
	parsed, err := condition.Parse(cond)
	if err != nil {
		p.err = err
		return p
	}
	return p.evaluate(parsed)
}

// Like evaluates a substring predicate against the column.
func (p Pipe) Like(pattern string) Pipe {
	if p.err != nil {
		return p
	}
	return p.evaluate(condition.Condition{Op: condition.OpLike, Operand: pattern})
}

// Evaluate applies an already-parsed condition; the row set pipeline path.
func (p Pipe) Evaluate(parsed condition.Condition) Pipe {
	if p.err != nil {
		return p
	}
	return p.evaluate(parsed)
}

func (p Pipe) evaluate(parsed condition.Condition) Pipe {
	m, err := p.col.Evaluate(parsed)
	if err != nil {
		p.err = err
		return p
	}
	p.msk = m
	p.fetch = m
	p.op = opRestriction
	return p
}

// Filter restricts the column's cached view by the mask of the preceding
// restriction step. Chaining Filter without a restriction is an ErrSequence.
// Filter establishes state but produces no terminal payload; follow it with
// Count, Slice or an export step.
func (p Pipe) Filter() Pipe {
	if p.err != nil {
		return p
	}
	if p.op != opRestriction {
		p.err = fmt.Errorf("%w: filter after %s", hypermorph.ErrSequence, opLabels[p.op])
		return p
	}
	if err := p.col.Restrict(p.msk); err != nil {
		p.err = err
		return p
	}
	p.fetch = p.col.FilteredIndex()
	p.op = opFiltering
	return p
}

// Slice keeps at most limit entries of the payload starting at offset. A
// limit of zero keeps everything after the offset.
func (p Pipe) Slice(limit, offset int) Pipe {
	if p.err != nil {
		return p
	}
	switch v := p.fetch.(type) {
	case []int32:
		p.fetch = slicePayload(v, limit, offset)
	case []any:
		p.fetch = slicePayload(v, limit, offset)
	case []float64:
		p.fetch = slicePayload(v, limit, offset)
	case []string:
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

// ToValues materializes the filtered view as values, optionally unique and
// ordered.
func (p Pipe) ToValues(order Order, unique bool) Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.col.OrderedValues(order, unique)
	p.op = opTransformation
	return p
}

// ToNumeric materializes the filtered view as float64 with nulls as NaN.
func (p Pipe) ToNumeric(order Order) Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.col.Numeric(order)
	p.op = opTransformation
	return p
}

// ToText materializes the non-null filtered values as strings.
func (p Pipe) ToText() Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.col.Text()
	p.op = opTransformation
	return p
}

// ToHyperlinks materializes the filtered view as row-to-value pairs, with
// synthetic row ids starting at offset.
func (p Pipe) ToHyperlinks(hb2 uint32, offset int64) Pipe {
	if p.err != nil {
		return p
	}
	p.fetch = p.col.Hyperlinks(hb2, offset)
	p.op = opTransformation
	return p
}

// Reset rewinds the column to its unfiltered state and clears any recorded
// operation, so the chain can start over on the same snapshot.
func (p Pipe) Reset() Pipe {
	if p.err != nil {
		return p
	}
	p.col.Reset()
	p.fetch = nil
	p.msk = nil
	p.op = opNone
	return p
}

// Out returns the pipeline payload. It fails with the first error recorded
// along the chain, or with ErrSequence when the preceding steps do not form
// a completed operation.
func (p Pipe) Out() (any, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.op {
	case opCounting, opRestriction, opSlicing, opTransformation:
		return p.fetch, nil
	default:
		return nil, fmt.Errorf("%w: collect after %s", hypermorph.ErrSequence, opLabels[p.op])
	}
}

// Mask returns the row mask of a restriction step, the payload the row set
// folds into its own mask.
func (p Pipe) Mask() (mask.Mask, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.op != opRestriction {
		return nil, fmt.Errorf("%w: no restriction mask after %s", hypermorph.ErrSequence, opLabels[p.op])
	}
	return p.msk, nil
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
