// Package reifyerr defines the typed error kinds the core distinguishes
// (spec.md §7), so that callers at every layer — transaction manager,
// catalog, executor — can branch on kind (retriable vs fatal) without
// string-matching error messages.
package reifyerr

import "fmt"

// Kind discriminates the error families spec.md §7 enumerates.
type Kind int

const (
	// KindStorage comes from the primitive backend; not retried
	// automatically.
	KindStorage Kind = iota
	// KindConflict is raised by the transaction manager at commit;
	// retriable by the caller.
	KindConflict
	// KindSchema covers type mismatch, unknown column, unresolved
	// source, duplicate name.
	KindSchema
	// KindCast covers UnsupportedCast, InvalidTemporal, InvalidUuid,
	// InvalidNumber.
	KindCast
	// KindOverflow is raised when a column's saturation policy is Error
	// and an arithmetic op overflows.
	KindOverflow
	// KindSequenceExhaustion fires when a per-kind ID sequence hits its
	// numeric type's max.
	KindSequenceExhaustion
	// KindInternal covers invariant violations that aren't any of the
	// above.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindStorage:
		return "Storage"
	case KindConflict:
		return "Conflict"
	case KindSchema:
		return "Schema"
	case KindCast:
		return "Cast"
	case KindOverflow:
		return "Overflow"
	case KindSequenceExhaustion:
		return "SequenceExhaustion"
	case KindInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the common error type for every core failure. Fields beyond
// Kind/Message are populated selectively depending on Kind.
type Error struct {
	Kind    Kind
	Message string

	// Keys carries the offending key-set for a Conflict error.
	Keys [][]byte

	// SourceFragment carries the offending RQL source text for Schema,
	// Cast, and Overflow errors, re-anchored to the original statement
	// rather than the parsed literal.
	SourceFragment string

	// CastFrom/CastTo identify the source and target type names for Cast
	// errors.
	CastFrom, CastTo string

	Err error // wrapped underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers can
// write `errors.Is(err, reifyerr.Conflict(""))`-style checks without
// comparing messages.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Storage wraps an underlying storage-layer error.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage error", Err: err}
}

// Conflict builds a retriable commit conflict carrying the offending keys.
func Conflict(keys [][]byte) *Error {
	return &Error{Kind: KindConflict, Message: "write-write conflict", Keys: keys}
}

// Schema builds a schema error anchored to a source fragment.
func Schema(message, sourceFragment string) *Error {
	return &Error{Kind: KindSchema, Message: message, SourceFragment: sourceFragment}
}

// Cast builds a cast error identifying the source text and the types
// involved.
func Cast(message, sourceFragment, from, to string) *Error {
	return &Error{Kind: KindCast, Message: message, SourceFragment: sourceFragment, CastFrom: from, CastTo: to}
}

// CastWrap builds a cast error wrapping the underlying parse/convert cause.
func CastWrap(message, sourceFragment, from, to string, err error) *Error {
	return &Error{Kind: KindCast, Message: message, SourceFragment: sourceFragment, CastFrom: from, CastTo: to, Err: err}
}

// Overflow builds a ColumnSaturation diagnostic for a saturation policy of
// Error.
func Overflow(sourceFragment string) *Error {
	return &Error{Kind: KindOverflow, Message: "column saturation overflow", SourceFragment: sourceFragment}
}

// SequenceExhausted builds a fatal sequence-exhaustion error for the given
// entity kind.
func SequenceExhausted(kind string) *Error {
	return &Error{Kind: KindSequenceExhaustion, Message: fmt.Sprintf("%s sequence exhausted", kind)}
}

// Internal builds an internal invariant-violation error.
func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// InternalWrap builds an internal error wrapping an underlying cause.
func InternalWrap(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// IsConflict reports whether err is a retriable commit conflict.
func IsConflict(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindConflict
}
