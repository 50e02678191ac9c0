package spanz

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParent matches any *UnknownParentError.
	ErrUnknownParent = errors.New("unknown parent span")

	// ErrSpanEnded is returned when ending a span that has already ended.
	ErrSpanEnded = errors.New("span already ended")

	// ErrNilSpan is returned when a nil span handle is passed to the Tracer.
	ErrNilSpan = errors.New("nil span")
)

// UnknownParentError reports a StartSpan call naming a parent span ID that
// is not registered with the Tracer.
type UnknownParentError struct {
	ParentSpanID string
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("spanz: parent span %q is not registered", e.ParentSpanID)
}

// Is reports whether target is ErrUnknownParent.
func (*UnknownParentError) Is(target error) bool {
	return target == ErrUnknownParent
}

// EntropyError is the panic value raised when the random source cannot
// supply bytes for an identifier.
type EntropyError struct {
	Err error
}

func (e *EntropyError) Error() string {
	return "spanz: random source failed: " + e.Err.Error()
}

func (e *EntropyError) Unwrap() error { return e.Err }

// ExportError wraps a failure to encode or deliver an export.
type ExportError struct {
	Op  string // "encode" or "write"
	Err error
}

func (e *ExportError) Error() string {
	return "spanz: export " + e.Op + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error { return e.Err }
