package heap

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/gcheap/errors"
)

// State is the collector state of a Heap.
type State uint8

const (
	StateIdle State = iota
	StateMarking
	StateSweeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMarking:
		return "marking"
	case StateSweeping:
		return "sweeping"
	default:
		return "unknown"
	}
}

// Stats holds cumulative heap counters.
type Stats struct {
	Allocated   uint64
	Freed       uint64
	Collections uint64
	Live        int
	Slots       int
}

// Options configures heap behavior.
type Options struct {
	// Logger defaults to Logger().
	Logger *zap.Logger
	// Observers are subscribed from construction on.
	Observers []Observer
	// InitialCapacity presizes the block table.
	InitialCapacity int
	// MaxBlocks bounds the number of live blocks. Allocating past the
	// bound panics with errors.KindAllocation. Zero means unbounded.
	MaxBlocks int
}

// DefaultOptions returns default heap configuration.
func DefaultOptions() Options {
	return Options{
		InitialCapacity: 64,
	}
}

// Heap owns every allocated Block and the root set.
type Heap struct {
	table     *table
	roots     map[RootID]ManagedValue
	logger    *zap.Logger
	observers []Observer
	stats     Stats
	nextRoot  RootID
	maxBlocks int
	state     State
	closed    bool
}

// New creates an empty heap with the given options.
func New(opts Options) *Heap {
	logger := opts.Logger
	if logger == nil {
		logger = Logger()
	}

	return &Heap{
		table:     newTable(opts.InitialCapacity),
		roots:     make(map[RootID]ManagedValue),
		logger:    logger,
		observers: append([]Observer(nil), opts.Observers...),
		maxBlocks: opts.MaxBlocks,
	}
}

// NewWithDefaults creates an empty heap with default options.
func NewWithDefaults() *Heap {
	return New(DefaultOptions())
}

// Allocate stores v in a fresh block and returns a typed reference to it.
// T must be a concrete type; the stored type is what Downcast matches.
//
// Allocate panics if the heap is closed, a collection is running, or
// Options.MaxBlocks is exceeded.
func Allocate[T Allocation](h *Heap, v T) Ref[T] {
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		panic(errors.Unsupported(errors.PhaseAlloc, typeName[T](), "payload type must be concrete"))
	}
	h.checkAllocatable()

	b := &Block[T]{Data: v}
	handle := h.table.insert(b)
	h.stats.Allocated++

	if ce := h.logger.Check(zap.DebugLevel, "allocate"); ce != nil {
		ce.Write(zap.Uint64("handle", uint64(handle)), zap.String("type", b.typeName()))
	}
	if len(h.observers) > 0 {
		h.notify(Event{Type: EventAllocated, Handle: handle, TypeName: b.typeName()})
	}

	return Ref[T]{heap: h, h: handle}
}

func (h *Heap) checkAllocatable() {
	if h.closed {
		panic(errors.Closed(errors.PhaseAlloc))
	}
	if h.state != StateIdle {
		panic(errors.Reentrant(errors.PhaseAlloc, h.state.String()))
	}
	if h.maxBlocks > 0 && h.table.len() >= h.maxBlocks {
		err := errors.AllocationFailed(h.table.len(), h.maxBlocks)
		h.logger.Error("heap exhausted", zap.Error(err))
		panic(err)
	}
}

// NewNumber allocates a Number.
func (h *Heap) NewNumber(f float64) Ref[Number] {
	return Allocate(h, Number(f))
}

// NewString allocates a String.
func (h *Heap) NewString(s string) Ref[String] {
	return Allocate(h, String(s))
}

// NewArray allocates an Array holding elems. The slice is copied.
func (h *Heap) NewArray(elems ...ManagedValue) Ref[Array] {
	return Allocate(h, Array(append([]ManagedValue(nil), elems...)))
}

// Lookup rebuilds a ManagedValue from a handle received across a host
// boundary.
func (h *Heap) Lookup(handle Handle) (ManagedValue, error) {
	if _, err := h.resolve(errors.PhaseDeref, handle); err != nil {
		return ManagedValue{}, err
	}
	return ManagedValue{heap: h, h: handle}, nil
}

// Contains reports whether handle refers to a live block of this heap.
func (h *Heap) Contains(handle Handle) bool {
	_, ok := h.table.get(handle)
	return ok
}

// Len returns the number of live blocks.
func (h *Heap) Len() int {
	return h.table.len()
}

// Each calls fn for every live block in slot order until fn returns false.
func (h *Heap) Each(fn func(ManagedValue) bool) {
	h.table.each(func(handle Handle, _ object) bool {
		return fn(ManagedValue{heap: h, h: handle})
	})
}

// State returns the collector state.
func (h *Heap) State() State {
	return h.state
}

// Stats returns cumulative counters.
func (h *Heap) Stats() Stats {
	s := h.stats
	s.Live = h.table.len()
	s.Slots = h.table.cap()
	return s
}

// Close releases every block and the root set. Blocks whose payload
// implements Dropper are dropped. References into the heap report
// errors.KindClosed afterwards.
func (h *Heap) Close() {
	if h.closed {
		return
	}
	if h.state != StateIdle {
		panic(errors.Reentrant(errors.PhaseCollect, h.state.String()))
	}

	h.table.each(func(_ Handle, obj object) bool {
		if d, ok := obj.payload().(Dropper); ok {
			d.Drop()
		}
		return true
	})
	h.logger.Debug("heap closed", zap.Int("live", h.table.len()), zap.Int("roots", len(h.roots)))

	h.closed = true
	h.table = newTable(1)
	h.roots = nil
}

// resolve maps a handle to its block, reporting closed and stale handles.
func (h *Heap) resolve(phase errors.Phase, handle Handle) (object, error) {
	if h.closed {
		return nil, errors.Closed(phase)
	}
	obj, ok := h.table.get(handle)
	if !ok {
		return nil, errors.Dangling(phase, uint64(handle))
	}
	return obj, nil
}
