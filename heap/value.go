package heap

import (
	"github.com/wippyai/gcheap/errors"
)

// Kind identifies the payload kind held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNumber
	KindString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a closed view over the three built-in payload kinds. Exactly one
// of its references is set, selected by Kind.
type Value struct {
	number Ref[Number]
	str    Ref[String]
	array  Ref[Array]
	kind   Kind
}

func NumberValue(r Ref[Number]) Value { return Value{kind: KindNumber, number: r} }
func StringValue(r Ref[String]) Value { return Value{kind: KindString, str: r} }
func ArrayValue(r Ref[Array]) Value   { return Value{kind: KindArray, array: r} }

// ValueOf classifies m. Payloads other than Number, String and Array fail
// with errors.KindUnsupported.
func ValueOf(m ManagedValue) (Value, error) {
	obj, err := m.object(errors.PhaseDowncast)
	if err != nil {
		return Value{}, err
	}
	switch obj.(type) {
	case *Block[Number]:
		return NumberValue(Ref[Number]{heap: m.heap, h: m.h}), nil
	case *Block[String]:
		return StringValue(Ref[String]{heap: m.heap, h: m.h}), nil
	case *Block[Array]:
		return ArrayValue(Ref[Array]{heap: m.heap, h: m.h}), nil
	default:
		return Value{}, errors.Unsupported(errors.PhaseDowncast, obj.typeName(), "not a number, string or array")
	}
}

// Kind returns the payload kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Number returns the Number reference if v holds one.
func (v Value) Number() (Ref[Number], bool) {
	return v.number, v.kind == KindNumber
}

// StringRef returns the String reference if v holds one.
func (v Value) StringRef() (Ref[String], bool) {
	return v.str, v.kind == KindString
}

// Array returns the Array reference if v holds one.
func (v Value) Array() (Ref[Array], bool) {
	return v.array, v.kind == KindArray
}

// Erase returns the held reference in type-erased form.
func (v Value) Erase() ManagedValue {
	switch v.kind {
	case KindNumber:
		return v.number.Erase()
	case KindString:
		return v.str.Erase()
	case KindArray:
		return v.array.Erase()
	default:
		return ManagedValue{}
	}
}

func (v Value) String() string {
	if v.kind == KindInvalid {
		return "<invalid>"
	}
	return v.kind.String() + "(" + v.Erase().String() + ")"
}
