package gcheap

import "github.com/wippyai/gcheap/heap"

// Version is the library version.
const Version = "0.1.0"

// Allocation is any payload a heap can store.
type Allocation = heap.Allocation

// Tracer is implemented by payloads that reference other blocks.
type Tracer = heap.Tracer

// Equaler lets a payload define structural equality for Ref.Equal.
type Equaler = heap.Equaler

// Dropper is implemented by payloads that release resources when swept.
type Dropper = heap.Dropper

// NewHeap creates a heap with default options.
func NewHeap() *heap.Heap {
	return heap.NewWithDefaults()
}
