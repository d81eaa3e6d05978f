package hostmod

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/gcheap/errors"
	"github.com/wippyai/gcheap/heap"
)

// Guests see blocks as u64 handles and roots as u64 ids. Zero means
// failure for both; an invalid handle never traps.

func (m *Module) exports() []hostFunc {
	u32, u64, f64, str, boolean := wit.U32{}, wit.U64{}, wit.F64{}, wit.String{}, wit.Bool{}

	sig := func(name string, params, results []wit.Type, fn api.GoModuleFunc) hostFunc {
		return hostFunc{fn: fn, Signature: Signature{Name: name, Params: params, Results: results}}
	}
	types := func(ts ...wit.Type) []wit.Type { return ts }

	return []hostFunc{
		sig("alloc-number", types(f64), types(u64), m.allocNumber),
		sig("alloc-string", types(str), types(u64), m.allocString),
		sig("alloc-array", nil, types(u64), m.allocArray),
		sig("array-push", types(u64, u64), types(boolean), m.arrayPush),
		sig("array-len", types(u64), types(u32), m.arrayLen),
		sig("array-get", types(u64, u32), types(u64), m.arrayGet),
		sig("number-value", types(u64), types(f64), m.numberValue),
		sig("string-len", types(u64), types(u32), m.stringLen),
		sig("string-read", types(u64, u32, u32), types(u32), m.stringRead),
		sig("add-root", types(u64), types(u64), m.addRoot),
		sig("remove-root", types(u64), nil, m.removeRoot),
		sig("collect", nil, types(u32), m.collect),
		sig("is-live", types(u64), types(boolean), m.isLive),
	}
}

func (m *Module) allocNumber(_ context.Context, _ api.Module, stack []uint64) {
	r := m.heap.NewNumber(api.DecodeF64(stack[0]))
	stack[0] = uint64(r.Handle())
}

func (m *Module) allocString(_ context.Context, mod api.Module, stack []uint64) {
	ptr, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	stack[0] = 0

	mem := mod.Memory()
	if mem == nil {
		Logger().Debug("alloc-string: caller has no memory")
		return
	}
	data, ok := mem.Read(ptr, n)
	if !ok {
		Logger().Debug("alloc-string: out of bounds", zap.Uint32("ptr", ptr), zap.Uint32("len", n))
		return
	}
	r := m.heap.NewString(string(data))
	stack[0] = uint64(r.Handle())
}

func (m *Module) allocArray(_ context.Context, _ api.Module, stack []uint64) {
	r := m.heap.NewArray()
	stack[0] = uint64(r.Handle())
}

func (m *Module) arrayPush(_ context.Context, _ api.Module, stack []uint64) {
	arr, ok := lookup[heap.Array](m, stack[0], "array-push")
	if !ok {
		stack[0] = 0
		return
	}
	elem, err := m.heap.Lookup(heap.Handle(stack[1]))
	if err != nil {
		Logger().Debug("array-push: invalid element", zap.Error(err))
		stack[0] = 0
		return
	}
	arr.MustGet().Push(elem)
	stack[0] = 1
}

func (m *Module) arrayLen(_ context.Context, _ api.Module, stack []uint64) {
	arr, ok := lookup[heap.Array](m, stack[0], "array-len")
	if !ok {
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeU32(uint32(arr.MustGet().Len()))
}

func (m *Module) arrayGet(_ context.Context, _ api.Module, stack []uint64) {
	arr, ok := lookup[heap.Array](m, stack[0], "array-get")
	idx := api.DecodeU32(stack[1])
	stack[0] = 0
	if !ok {
		return
	}
	elems := *arr.MustGet()
	if int(idx) >= len(elems) {
		Logger().Debug("array-get: index out of range", zap.Uint32("index", idx), zap.Int("len", len(elems)))
		return
	}
	stack[0] = uint64(elems[idx].Handle())
}

func (m *Module) numberValue(_ context.Context, _ api.Module, stack []uint64) {
	n, ok := lookup[heap.Number](m, stack[0], "number-value")
	if !ok {
		stack[0] = api.EncodeF64(math.NaN())
		return
	}
	stack[0] = api.EncodeF64(float64(*n.MustGet()))
}

func (m *Module) stringLen(_ context.Context, _ api.Module, stack []uint64) {
	s, ok := lookup[heap.String](m, stack[0], "string-len")
	if !ok {
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeU32(uint32(len(*s.MustGet())))
}

// stringRead copies up to cap bytes of the string into caller memory at
// ptr and returns the number of bytes written.
func (m *Module) stringRead(_ context.Context, mod api.Module, stack []uint64) {
	ptr, capacity := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
	s, ok := lookup[heap.String](m, stack[0], "string-read")
	stack[0] = 0
	if !ok {
		return
	}
	mem := mod.Memory()
	if mem == nil {
		return
	}
	data := []byte(*s.MustGet())
	if uint32(len(data)) > capacity {
		data = data[:capacity]
	}
	if !mem.Write(ptr, data) {
		Logger().Debug("string-read: out of bounds", zap.Uint32("ptr", ptr), zap.Int("len", len(data)))
		return
	}
	stack[0] = api.EncodeU32(uint32(len(data)))
}

func (m *Module) addRoot(_ context.Context, _ api.Module, stack []uint64) {
	v, err := m.heap.Lookup(heap.Handle(stack[0]))
	if err != nil {
		Logger().Debug("add-root: invalid handle", zap.Error(err))
		stack[0] = 0
		return
	}
	id, err := m.heap.AddRoot(v)
	if err != nil {
		Logger().Debug("add-root failed", zap.Error(err))
		stack[0] = 0
		return
	}
	stack[0] = uint64(id)
}

func (m *Module) removeRoot(_ context.Context, _ api.Module, stack []uint64) {
	id := heap.RootID(stack[0])
	if !m.heap.IsRooted(id) {
		Logger().Debug("remove-root ignored", zap.Error(errors.NotFound(errors.PhaseRoot, "root", uint64(id))))
		return
	}
	m.heap.RemoveRoot(id)
}

func (m *Module) collect(_ context.Context, _ api.Module, stack []uint64) {
	st := m.heap.Collect()
	stack[0] = api.EncodeU32(uint32(st.Swept))
}

func (m *Module) isLive(_ context.Context, _ api.Module, stack []uint64) {
	if m.heap.Contains(heap.Handle(stack[0])) {
		stack[0] = 1
	} else {
		stack[0] = 0
	}
}

func lookup[T heap.Allocation](m *Module, raw uint64, fn string) (heap.Ref[T], bool) {
	v, err := m.heap.Lookup(heap.Handle(raw))
	if err != nil {
		Logger().Debug(fn+": invalid handle", zap.Uint64("handle", raw), zap.Error(err))
		return heap.Ref[T]{}, false
	}
	r, err := heap.DowncastErr[T](v)
	if err != nil {
		Logger().Debug(fn+": wrong type", zap.Error(err))
		return heap.Ref[T]{}, false
	}
	return r, true
}
