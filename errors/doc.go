// Package errors provides structured error types for the gcheap library.
//
// Errors are categorized by Phase (which heap operation failed) and Kind
// (error category). The Error type carries the stored and requested Go type
// names, the offending value or handle, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDowncast, errors.KindTypeMismatch).
//		GoType("heap.Array").
//		Want("heap.String").
//		Detail("handle %d", h).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseDowncast, "heap.Array", "heap.String")
//	err := errors.Dangling(errors.PhaseDeref, handle)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on Kind alone, regardless of phase.
package errors
