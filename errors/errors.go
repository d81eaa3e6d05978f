package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which heap operation produced the error
type Phase string

const (
	PhaseAlloc    Phase = "alloc"    // block allocation
	PhaseDeref    Phase = "deref"    // reference dereference or mutation
	PhaseDowncast Phase = "downcast" // erased to typed conversion
	PhaseRoot     Phase = "root"     // root registration
	PhaseCollect  Phase = "collect"  // mark and sweep
	PhaseHost     Phase = "host"     // host module boundary
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch Kind = "type_mismatch"
	KindDangling     Kind = "dangling"
	KindAllocation   Kind = "allocation"
	KindReentrant    Kind = "reentrant"
	KindUnsupported  Kind = "unsupported"
	KindNotFound     Kind = "not_found"
	KindClosed       Kind = "closed"
	KindInvalidInput Kind = "invalid_input"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Want   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.GoType != "" || e.Want != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Want != "" {
			b.WriteString("stored ")
			b.WriteString(e.GoType)
			b.WriteString(", want ")
			b.WriteString(e.Want)
		} else if e.GoType != "" {
			b.WriteString("type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("want ")
			b.WriteString(e.Want)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Want != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// GoType sets the stored Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Want sets the requested Go type name
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, stored, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		GoType: stored,
		Want:   want,
	}
}

// Dangling creates an error for a reference whose block has been swept
func Dangling(phase Phase, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDangling,
		Detail: fmt.Sprintf("handle %#x refers to a swept block", handle),
		Value:  handle,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(live, limit int) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("heap exhausted: %d live blocks (limit %d)", live, limit),
		Value:  live,
	}
}

// Reentrant creates an error for heap mutation during a running collection
func Reentrant(phase Phase, state string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReentrant,
		Detail: fmt.Sprintf("heap is %s", state),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, goType, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		GoType: goType,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, id uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %d not found", what, id),
		Value:  id,
	}
}

// Closed creates an error for operations on a closed heap
func Closed(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: "heap closed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
