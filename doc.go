// Package gcheap provides an embeddable garbage-collected heap for Go
// programs and WebAssembly guests.
//
// Values live in a heap arena and are reached through typed references.
// Memory is reclaimed by an explicit, stop-the-world mark-and-sweep
// collection that starts from a caller-managed root set. Objects may form
// arbitrary graphs, cycles included.
//
// # Architecture Overview
//
//	gcheap/            Root package with the core Allocation interfaces
//	├── heap/          Arena, typed references, roots and the collector
//	├── hostmod/       wazero host module exposing a heap to wasm guests
//	├── errors/        Structured error types for debugging
//	└── cmd/gcheap/    Command-line driver and interactive TUI
//
// # Quick Start
//
//	h := heap.NewWithDefaults()
//	defer h.Close()
//
//	greeting := h.NewString("Hello")
//	list := h.NewArray(h.NewNumber(1).Erase(), h.NewNumber(2).Erase())
//
//	id, err := h.AddRoot(list.Erase())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats := h.Collect()       // greeting is swept, list survives
//	fmt.Println(greeting.Valid(), list.Valid(), stats.Swept) // false true 1
//
//	h.RemoveRoot(id)
//
// # Typed and Erased References
//
// Allocate returns a Ref[T]. Erase turns it into a ManagedValue, which can
// be stored in arrays and roots regardless of payload type. Downcast
// recovers the typed view when the stored payload type is exactly T:
//
//	m := h.NewNumber(4).Erase()
//	if n, ok := heap.Downcast[heap.Number](m); ok {
//	    fmt.Println(*n.MustGet()) // 4
//	}
//
// References never keep a block alive. A reference whose block was swept
// is detected on use and reports a dangling error, even after the slot is
// reused by a later allocation.
//
// # Custom Payloads
//
// Any type implementing Allocation can be stored. Payloads that hold
// references to other blocks implement Tracer so the collector follows
// them; payloads that own external resources implement Dropper.
//
// # Debugging
//
// Enable logging by configuring a zap logger:
//
//	logger, _ := zap.NewDevelopment()
//	heap.SetLogger(logger)
//	hostmod.SetLogger(logger)
//
// Errors carry a phase and kind for programmatic inspection:
//
//	if errors.IsKind(err, errors.KindDangling) {
//	    // the referenced block was collected
//	}
package gcheap
