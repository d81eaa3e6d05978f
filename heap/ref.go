package heap

import (
	"fmt"
	"reflect"

	"github.com/wippyai/gcheap/errors"
)

// Ref is a typed, non-owning reference to a Block[T]. Refs are cheap to
// copy and may alias. A Ref stays dereferenceable until its block is swept;
// after that every access reports errors.KindDangling.
type Ref[T Allocation] struct {
	heap *Heap
	h    Handle
}

func (r Ref[T]) block(phase errors.Phase) (*Block[T], error) {
	if r.heap == nil {
		return nil, errors.InvalidInput(phase, "zero reference")
	}
	obj, err := r.heap.resolve(phase, r.h)
	if err != nil {
		return nil, err
	}
	b, ok := obj.(*Block[T])
	if !ok {
		// Unreachable unless a handle was forged across heaps.
		return nil, errors.TypeMismatch(phase, obj.typeName(), typeName[T]())
	}
	return b, nil
}

// Get returns a pointer to the payload. The pointer is valid while the
// block is live; writes through it mutate the block in place.
func (r Ref[T]) Get() (*T, error) {
	b, err := r.block(errors.PhaseDeref)
	if err != nil {
		return nil, err
	}
	return &b.Data, nil
}

// MustGet is Get for references known to be live. It panics otherwise.
func (r Ref[T]) MustGet() *T {
	p, err := r.Get()
	if err != nil {
		panic(err)
	}
	return p
}

// Set replaces the payload. It fails during a collection.
func (r Ref[T]) Set(v T) error {
	b, err := r.block(errors.PhaseDeref)
	if err != nil {
		return err
	}
	if r.heap.state != StateIdle {
		return errors.Reentrant(errors.PhaseDeref, r.heap.state.String())
	}
	b.Data = v
	return nil
}

// Erase returns the type-erased form of r. Both address the same block.
func (r Ref[T]) Erase() ManagedValue {
	return ManagedValue{heap: r.heap, h: r.h}
}

// Equal compares the referenced payloads, not the references. A reference
// that cannot be dereferenced is equal to nothing.
func (r Ref[T]) Equal(o Ref[T]) bool {
	a, err := r.Get()
	if err != nil {
		return false
	}
	b, err := o.Get()
	if err != nil {
		return false
	}
	return payloadEqual(*a, *b)
}

// Valid reports whether the block is still live.
func (r Ref[T]) Valid() bool {
	_, err := r.block(errors.PhaseDeref)
	return err == nil
}

// Handle returns the block handle.
func (r Ref[T]) Handle() Handle {
	return r.h
}

// Heap returns the owning heap, nil for the zero Ref.
func (r Ref[T]) Heap() *Heap {
	return r.heap
}

// IsZero reports whether r is the zero Ref.
func (r Ref[T]) IsZero() bool {
	return r.heap == nil
}

func (r Ref[T]) String() string {
	return r.Erase().String()
}

// ManagedValue is a type-erased reference. It knows only that the target
// implements Allocation; use Downcast to recover a Ref[T].
type ManagedValue struct {
	heap *Heap
	h    Handle
}

func (m ManagedValue) object(phase errors.Phase) (object, error) {
	if m.heap == nil {
		return nil, errors.InvalidInput(phase, "zero reference")
	}
	return m.heap.resolve(phase, m.h)
}

// Get returns the payload as an Allocation.
func (m ManagedValue) Get() (Allocation, error) {
	obj, err := m.object(errors.PhaseDeref)
	if err != nil {
		return nil, err
	}
	return obj.payload(), nil
}

// TypeName returns the stored payload's Go type name.
func (m ManagedValue) TypeName() (string, error) {
	obj, err := m.object(errors.PhaseDeref)
	if err != nil {
		return "", err
	}
	return obj.typeName(), nil
}

// Valid reports whether the block is still live.
func (m ManagedValue) Valid() bool {
	_, err := m.object(errors.PhaseDeref)
	return err == nil
}

// Handle returns the block handle.
func (m ManagedValue) Handle() Handle {
	return m.h
}

// Heap returns the owning heap, nil for the zero value.
func (m ManagedValue) Heap() *Heap {
	return m.heap
}

// IsZero reports whether m is the zero ManagedValue.
func (m ManagedValue) IsZero() bool {
	return m.heap == nil
}

func (m ManagedValue) String() string {
	p, err := m.Get()
	if err != nil {
		return fmt.Sprintf("<dangling %#x>", uint64(m.h))
	}
	return p.String()
}

// Downcast recovers a Ref[T] when the stored payload type is exactly T.
// On failure m is unchanged and still usable.
func Downcast[T Allocation](m ManagedValue) (Ref[T], bool) {
	r, err := DowncastErr[T](m)
	return r, err == nil
}

// DowncastErr is Downcast reporting why it failed: errors.KindTypeMismatch
// for a different stored type, errors.KindDangling for a swept block.
func DowncastErr[T Allocation](m ManagedValue) (Ref[T], error) {
	obj, err := m.object(errors.PhaseDowncast)
	if err != nil {
		return Ref[T]{}, err
	}
	if _, ok := obj.(*Block[T]); !ok {
		return Ref[T]{}, errors.New(errors.PhaseDowncast, errors.KindTypeMismatch).
			GoType(obj.typeName()).
			Want(typeName[T]()).
			Value(uint64(m.h)).
			Build()
	}
	return Ref[T]{heap: m.heap, h: m.h}, nil
}

func payloadEqual(a, b Allocation) bool {
	if eq, ok := a.(Equaler); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}
