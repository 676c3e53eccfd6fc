package hypermorph

import "errors"

// Every failure the engine can raise wraps one of these sentinels, so callers
// classify with errors.Is regardless of which subsystem produced the error.
// All of them are unrecoverable at the point of occurrence: the engine never
// retries and never degrades to partial results. The one permissive case is
// an empty filtered result, which is not an error at all: exports on an
// empty state return empty, correctly-typed values.
var (
	// ErrTypeMismatch reports an operation given an object of the wrong kind,
	// such as a batch column whose values cannot be cast to the attribute's
	// declared value type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSequence reports a pipeline operation invoked out of its required
	// order, such as filter before any predicate or collect after a step that
	// produces no terminal value.
	ErrSequence = errors.New("invalid operation sequence")

	// ErrInvalidProjection reports a requested attribute name or identifier
	// that does not exist in the row set.
	ErrInvalidProjection = errors.New("unknown attribute")

	// ErrUnsupportedPredicate reports a condition string that cannot be
	// parsed into a known operator.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")

	// ErrBounds reports an index or dictionary position out of range.
	ErrBounds = errors.New("index out of range")
)
