package heap

import (
	"testing"

	"github.com/wippyai/gcheap/errors"
)

func TestValueOf(t *testing.T) {
	h := NewWithDefaults()
	n := h.NewNumber(4)
	s := h.NewString("four")
	a := h.NewArray(n.Erase())

	tests := []struct {
		name string
		m    ManagedValue
		kind Kind
		str  string
	}{
		{"number", n.Erase(), KindNumber, "number(4)"},
		{"string", s.Erase(), KindString, `string("four")`},
		{"array", a.Erase(), KindArray, "array([4])"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValueOf(tt.m)
			if err != nil {
				t.Fatalf("ValueOf failed: %v", err)
			}
			if v.Kind() != tt.kind {
				t.Fatalf("Kind() = %v, want %v", v.Kind(), tt.kind)
			}
			if v.Erase() != tt.m {
				t.Fatal("Erase must return the classified reference")
			}
			if v.String() != tt.str {
				t.Fatalf("String() = %s, want %s", v.String(), tt.str)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	h := NewWithDefaults()
	n := h.NewNumber(1)

	v := NumberValue(n)
	if r, ok := v.Number(); !ok || r != n {
		t.Fatal("Number() mismatch")
	}
	if _, ok := v.StringRef(); ok {
		t.Fatal("number value must not expose a String")
	}
	if _, ok := v.Array(); ok {
		t.Fatal("number value must not expose an Array")
	}

	sv := StringValue(h.NewString("s"))
	if _, ok := sv.StringRef(); !ok {
		t.Fatal("StringRef() must succeed on string value")
	}
	av := ArrayValue(h.NewArray())
	if _, ok := av.Array(); !ok {
		t.Fatal("Array() must succeed on array value")
	}

	var zero Value
	if zero.Kind() != KindInvalid || !zero.Erase().IsZero() || zero.String() != "<invalid>" {
		t.Fatal("zero Value must be invalid")
	}
}

func TestValueOf_Errors(t *testing.T) {
	h := NewWithDefaults()
	p := Allocate(h, point{1, 1})

	if _, err := ValueOf(p.Erase()); !errors.IsKind(err, errors.KindUnsupported) {
		t.Fatalf("custom payload err = %v, want unsupported", err)
	}

	n := h.NewNumber(1)
	h.Collect()
	if _, err := ValueOf(n.Erase()); !errors.IsKind(err, errors.KindDangling) {
		t.Fatalf("swept payload err = %v, want dangling", err)
	}
}

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{
		KindInvalid: "invalid",
		KindNumber:  "number",
		KindString:  "string",
		KindArray:   "array",
	} {
		if k.String() != want {
			t.Errorf("%d.String() = %s, want %s", k, k.String(), want)
		}
	}
}
