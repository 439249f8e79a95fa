package selector

import (
	"errors"
	"fmt"
)

// Kind classifies selector and mapping failures. Malformed or misused input
// is always reported through one of these kinds; an empty match at read time
// is not an error and never surfaces here.
type Kind int

const (
	// KindSyntax marks selector text that cannot be tokenized or parsed.
	KindSyntax Kind = iota + 1
	// KindStructural marks well-formed selectors used in a structurally
	// invalid way: zip cardinality mismatch, inconsistent identifier depth,
	// ambiguous matchers at materialization time, unknown identifiers.
	KindStructural
	// KindDuplicate marks non-unique identifiers at table construction.
	KindDuplicate
	// KindLength marks mismatched value/position lengths in mapper
	// construction or writes.
	KindLength
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindStructural:
		return "structural mismatch"
	case KindDuplicate:
		return "duplicate key"
	case KindLength:
		return "length mismatch"
	}
	return "unknown error"
}

// Error is the single error type emitted by the selector compiler and its
// consumers (port tables, port mappers).
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// NewError builds an Error of the given kind. Exported so that the port
// mapping layer can report length and duplicate failures through the same
// taxonomy.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a selector Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
