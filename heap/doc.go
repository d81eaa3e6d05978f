// Package heap implements an embeddable mark-and-sweep heap.
//
// A Heap owns a table of Blocks. Each Block pairs a Header (the mark flag)
// with a payload of some concrete type implementing Allocation. Callers hold
// non-owning references into the table:
//
//	Ref[T]        typed reference, dereferences to *T
//	ManagedValue  type-erased reference, recovered with Downcast
//	Value         closed view over Number, String and Array references
//
// # Allocation and Collection
//
//	h := heap.NewWithDefaults()
//	defer h.Close()
//
//	s := h.NewString("a")
//	id, _ := h.AddRoot(s.Erase())
//	h.Collect()        // s survives, it is rooted
//	h.RemoveRoot(id)
//	h.Collect()        // s is swept
//
// Collection traces from the registered roots only. Composite payloads
// expose their outgoing edges through Tracer; Array is the built-in one.
// Marking uses an explicit work stack and checks the mark flag before
// pushing, so cyclic graphs terminate.
//
// # Stale References
//
// Blocks never move. References are table handles made of a slot index and
// the slot's generation. Sweeping a block bumps the generation of its slot,
// so every reference minted before the sweep reports a dangling error on
// Get instead of reading a reused slot:
//
//	n := h.NewNumber(1)
//	h.Collect()            // n was not rooted
//	_, err := n.Get()      // errors.KindDangling
//
// # Downcasting
//
// Downcast succeeds only when the stored payload's concrete type is exactly
// T. A failed downcast leaves the ManagedValue untouched:
//
//	m := h.NewArray().Erase()
//	if _, ok := heap.Downcast[heap.String](m); !ok {
//	    arr, _ := heap.Downcast[heap.Array](m) // still usable
//	}
//
// # Thread Safety
//
// Heap is NOT safe for concurrent use. Allocation, root registration,
// mutation and collection must be serialized by the caller. Allocating or
// registering roots from inside a running collection (for example from a
// Tracer) panics or fails with errors.KindReentrant.
package heap
