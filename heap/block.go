package heap

import "reflect"

// Header is the per-block collector metadata.
// The mark flag is false outside a collection's marking phase.
type Header struct {
	mark bool
}

// Marked reports the mark flag.
func (h *Header) Marked() bool {
	return h.mark
}

// Block pairs a Header with a payload. Blocks are allocated once and never
// moved; the Heap's table owns them.
type Block[T Allocation] struct {
	Header
	Data T
}

// object is the type-erased view of a *Block[T] stored in the table.
type object interface {
	header() *Header
	payload() Allocation
	typeName() string
}

func (b *Block[T]) header() *Header {
	return &b.Header
}

func (b *Block[T]) payload() Allocation {
	return b.Data
}

func (b *Block[T]) typeName() string {
	return typeName[T]()
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
