package heap

import (
	"fmt"
	"strconv"
	"strings"
)

// Allocation is the capability every heap-storable type satisfies.
// The concrete Go type identifies the payload at runtime, String gives
// its debug representation.
type Allocation interface {
	fmt.Stringer
}

// Tracer is implemented by payloads holding references to other blocks.
// Trace calls visit for every outgoing reference until visit returns false.
type Tracer interface {
	Trace(visit func(ManagedValue) bool)
}

// Equaler is optionally implemented by payloads with value equality.
type Equaler interface {
	Equal(other Allocation) bool
}

// Dropper is optionally implemented by payloads that need cleanup when
// their block is swept or the heap is closed.
type Dropper interface {
	Drop()
}

// Number is a float64 payload.
type Number float64

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// Equal compares numerically; NaN is never equal.
func (n Number) Equal(other Allocation) bool {
	o, ok := other.(Number)
	return ok && n == o
}

// String is a text payload.
type String string

func (s String) String() string {
	return strconv.Quote(string(s))
}

// Equal compares the text.
func (s String) Equal(other Allocation) bool {
	o, ok := other.(String)
	return ok && s == o
}

// Array is an ordered sequence of erased references.
type Array []ManagedValue

// Trace visits every element.
func (a Array) Trace(visit func(ManagedValue) bool) {
	for _, v := range a {
		if !visit(v) {
			return
		}
	}
}

// Equal reports whether both arrays reference the same blocks in the same
// order. Elements are compared by identity, which keeps comparison of
// cyclic arrays finite.
func (a Array) Equal(other Allocation) bool {
	o, ok := other.(Array)
	if !ok || len(a) != len(o) {
		return false
	}
	for i := range a {
		if a[i] != o[i] {
			return false
		}
	}
	return true
}

// Push appends references to the array.
func (a *Array) Push(vs ...ManagedValue) {
	*a = append(*a, vs...)
}

// Len returns the number of elements.
func (a Array) Len() int {
	return len(a)
}

// String renders scalar elements in full and nested arrays as [...],
// so cycles print finitely.
func (a Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			b.WriteString(", ")
		}
		p, err := v.Get()
		switch {
		case err != nil:
			b.WriteString("<dangling>")
		case isArray(p):
			b.WriteString("[...]")
		default:
			b.WriteString(p.String())
		}
	}
	b.WriteByte(']')
	return b.String()
}

func isArray(p Allocation) bool {
	_, ok := p.(Array)
	return ok
}
