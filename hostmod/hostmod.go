package hostmod

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/gcheap/errors"
	"github.com/wippyai/gcheap/heap"
)

// DefaultModuleName is the import module name guests use.
const DefaultModuleName = "gcheap"

// Options configures a Module.
type Options struct {
	// ModuleName is the import module name guests use.
	ModuleName string
}

// DefaultOptions returns default host module configuration.
func DefaultOptions() Options {
	return Options{
		ModuleName: DefaultModuleName,
	}
}

// Signature describes one exported host function in WIT terms.
type Signature struct {
	Name    string
	Params  []wit.Type
	Results []wit.Type
}

// Module exposes a heap.Heap to WebAssembly guests. Guest calls are
// serialized on the module; the heap must not be used concurrently from
// Go while guests run.
type Module struct {
	heap  *heap.Heap
	name  string
	funcs []hostFunc
	mu    sync.Mutex
}

type hostFunc struct {
	fn api.GoModuleFunc
	Signature
}

// New creates a host module over h with the given options.
func New(h *heap.Heap, opts Options) *Module {
	if opts.ModuleName == "" {
		opts.ModuleName = DefaultModuleName
	}
	m := &Module{
		heap: h,
		name: opts.ModuleName,
	}
	m.funcs = m.exports()
	return m
}

// NewWithDefaults creates a host module over h with default options.
func NewWithDefaults(h *heap.Heap) *Module {
	return New(h, DefaultOptions())
}

// Name returns the import module name.
func (m *Module) Name() string {
	return m.name
}

// Heap returns the heap guests allocate into.
func (m *Module) Heap() *heap.Heap {
	return m.heap
}

// Signatures lists the exported functions.
func (m *Module) Signatures() []Signature {
	out := make([]Signature, len(m.funcs))
	for i, f := range m.funcs {
		out[i] = f.Signature
	}
	return out
}

// Instantiate registers the host module in r.
func (m *Module) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(m.name)

	for _, f := range m.funcs {
		params, err := flatten(f.Params)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseHost, errors.KindUnsupported, err, f.Name)
		}
		results, err := flatten(f.Results)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseHost, errors.KindUnsupported, err, f.Name)
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(m.serialize(f.fn), params, results).
			Export(f.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate host module "+m.name)
	}
	Logger().Debug("host module instantiated", zap.String("module", m.name), zap.Int("functions", len(m.funcs)))
	return mod, nil
}

func (m *Module) serialize(fn api.GoModuleFunc) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		m.mu.Lock()
		defer m.mu.Unlock()
		fn(ctx, mod, stack)
	}
}

// flatten lowers WIT types to core wasm value types.
func flatten(types []wit.Type) ([]api.ValueType, error) {
	var out []api.ValueType
	for _, t := range types {
		switch t.(type) {
		case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
			out = append(out, api.ValueTypeI32)
		case wit.U64, wit.S64:
			out = append(out, api.ValueTypeI64)
		case wit.F32:
			out = append(out, api.ValueTypeF32)
		case wit.F64:
			out = append(out, api.ValueTypeF64)
		case wit.String:
			out = append(out, api.ValueTypeI32, api.ValueTypeI32)
		default:
			return nil, fmt.Errorf("cannot flatten WIT type %T", t)
		}
	}
	return out, nil
}
