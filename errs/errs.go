/*
Package errs is a simple universal error type for epyc, categorized so
that callers can switch on the kind of failure without parsing message
text.

An errs.Error separates the category, a value you can switch on and
which is expected to be reassigned as the error propagates, from the
message, the human-readable text intended for a person. Additional
Details may be attached for logging, but handling logic should branch
on Category alone.

errs.Error is designed to be serialized and unserialized without loss,
so that it survives a round trip through a notebook file or across a
worker-farm boundary: as JSON it appears as

	{"category":"pending_result", "msg":"full text goes here"}
*/
package errs

import "fmt"

var _ error = &Error{}

// Kind enumerates the categories of error epyc components report.
type Kind string

const (
	// Cancelled marks a pending result whose experiment was cancelled
	// before it completed.
	Cancelled Kind = "cancelled"

	// ResultSetLocked is returned when a mutation is attempted against
	// a result set that has been locked.
	ResultSetLocked Kind = "result_set_locked"

	// NotebookLocked is returned when a mutation is attempted against
	// a notebook that has been locked by Finish.
	NotebookLocked Kind = "notebook_locked"

	// PendingResult is returned for operations that are only valid on
	// pending records (or that are invalid because a record is still
	// pending) when that precondition does not hold.
	PendingResult Kind = "pending_result"

	// ResultsStructure is returned when a result record's shape is
	// incompatible with the result set's inferred schema, and the
	// incompatibility cannot be resolved by promotion.
	ResultsStructure Kind = "results_structure"

	// NotebookVersion is returned when a persisted notebook uses a file
	// format newer than this implementation understands.
	NotebookVersion Kind = "notebook_version"

	// Design is returned for malformed experimental designs, such as a
	// Pointwise design whose parameter ranges disagree in length.
	Design Kind = "design"

	// Dispatch is returned when a lab fails to submit, retrieve, or
	// reconcile work with its underlying worker farm.
	Dispatch Kind = "dispatch"
)

// Error is epyc's categorized error type.
type Error struct {
	Category Kind        `json:"category"`
	Msg      string      `json:"msg"`
	Details  interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Msg
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Category: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap categorizes an existing error, keeping its message as Details.
func Wrap(kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Category: kind, Msg: cause.Error(), Details: cause}
}

// Recategorize returns a copy of err with its Category replaced,
// preserving message and details. Non-Error causes are wrapped fresh.
func Recategorize(err error, kind Kind) error {
	switch e := err.(type) {
	case *Error:
		return &Error{Category: kind, Msg: e.Msg, Details: e.Details}
	default:
		return &Error{Category: kind, Msg: e.Error()}
	}
}

// Category returns the Kind of err, the zero Kind if err is nil, or
// "unknown" if err is not an *errs.Error.
func Category(err error) Kind {
	if err == nil {
		return ""
	}
	e, ok := err.(*Error)
	if !ok {
		return "unknown"
	}
	return e.Category
}

// Is reports whether err is an *errs.Error of the given kind.
func Is(err error, kind Kind) bool {
	return Category(err) == kind
}
