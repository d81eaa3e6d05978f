// Package hostmod exposes a heap.Heap to WebAssembly guests as a wazero
// host module.
//
// Guests import functions from the "gcheap" module:
//
//	(import "gcheap" "alloc-number" (func (param f64) (result i64)))
//	(import "gcheap" "alloc-string" (func (param i32 i32) (result i64)))
//	(import "gcheap" "add-root"     (func (param i64) (result i64)))
//	(import "gcheap" "collect"      (func (result i32)))
//
// Signatures are declared as WIT types and flattened to core types; see
// Module.Signatures for the full list. Blocks cross the boundary as u64
// heap handles, so a handle kept by a guest across a collection is
// detected as stale rather than aliasing a reused slot.
//
//	h := heap.NewWithDefaults()
//	mod := hostmod.NewWithDefaults(h)
//	if _, err := mod.Instantiate(ctx, runtime); err != nil {
//	    return err
//	}
//	guest, err := runtime.Instantiate(ctx, wasmBytes)
package hostmod
