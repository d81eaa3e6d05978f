package heap

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/gcheap/errors"
)

// RootID identifies a registered root. IDs are never reused.
type RootID uint64

// AddRoot registers m as a liveness root. The same block may be rooted
// more than once; each registration is removed separately.
func (h *Heap) AddRoot(m ManagedValue) (RootID, error) {
	if h.closed {
		return 0, errors.Closed(errors.PhaseRoot)
	}
	if h.state != StateIdle {
		return 0, errors.Reentrant(errors.PhaseRoot, h.state.String())
	}
	if m.heap != h {
		return 0, errors.InvalidInput(errors.PhaseRoot, "value belongs to a different heap")
	}
	if _, err := h.resolve(errors.PhaseRoot, m.h); err != nil {
		return 0, err
	}

	h.nextRoot++
	id := h.nextRoot
	h.roots[id] = m

	h.logger.Debug("root added", zap.Uint64("root", uint64(id)), zap.Uint64("handle", uint64(m.h)))
	if len(h.observers) > 0 {
		h.notify(Event{Type: EventRooted, Root: id, Handle: m.h})
	}
	return id, nil
}

// RemoveRoot unregisters a root. Removing an unknown or already removed
// root is a no-op.
func (h *Heap) RemoveRoot(id RootID) {
	m, ok := h.roots[id]
	if !ok {
		return
	}
	if h.state != StateIdle {
		panic(errors.Reentrant(errors.PhaseRoot, h.state.String()))
	}
	delete(h.roots, id)

	h.logger.Debug("root removed", zap.Uint64("root", uint64(id)))
	if len(h.observers) > 0 {
		h.notify(Event{Type: EventUnrooted, Root: id, Handle: m.h})
	}
}

// Roots returns the registered roots ordered by registration.
func (h *Heap) Roots() []ManagedValue {
	ids := make([]RootID, 0, len(h.roots))
	for id := range h.roots {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]ManagedValue, len(ids))
	for i, id := range ids {
		out[i] = h.roots[id]
	}
	return out
}

// NumRoots returns the number of registered roots.
func (h *Heap) NumRoots() int {
	return len(h.roots)
}

// IsRooted reports whether id is still registered.
func (h *Heap) IsRooted(id RootID) bool {
	_, ok := h.roots[id]
	return ok
}
