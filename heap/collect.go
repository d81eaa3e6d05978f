package heap

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/gcheap/errors"
)

// CollectStats describes one collection cycle.
type CollectStats struct {
	Duration time.Duration
	Roots    int
	Marked   int
	Edges    int
	Swept    int
	Live     int
}

// Collect runs one full mark-and-sweep cycle. Afterwards the heap holds
// exactly the blocks reachable from the root set when Collect was called,
// and every mark flag is clear. References to swept blocks become dangling.
//
// Collect on a closed heap does nothing. Calling it from inside a running
// collection panics.
func (h *Heap) Collect() CollectStats {
	if h.closed {
		h.logger.Warn("collect on closed heap")
		return CollectStats{}
	}
	if h.state != StateIdle {
		panic(errors.Reentrant(errors.PhaseCollect, h.state.String()))
	}

	start := time.Now()
	stats := CollectStats{Roots: len(h.roots)}

	h.state = StateMarking
	stats.Marked, stats.Edges = h.mark()

	h.state = StateSweeping
	stats.Swept = h.sweep()

	h.state = StateIdle
	stats.Live = h.table.len()
	stats.Duration = time.Since(start)
	h.stats.Collections++
	h.stats.Freed += uint64(stats.Swept)

	h.logger.Debug("collect",
		zap.Int("roots", stats.Roots),
		zap.Int("marked", stats.Marked),
		zap.Int("edges", stats.Edges),
		zap.Int("swept", stats.Swept),
		zap.Int("live", stats.Live),
		zap.Duration("duration", stats.Duration),
	)
	if len(h.observers) > 0 {
		h.notify(Event{Type: EventCollected, Stats: &stats})
	}
	return stats
}

// mark sets the mark flag on every block reachable from the roots.
// A block is pushed on the work stack only when its flag flips, so each
// block is traced at most once and cycles terminate.
func (h *Heap) mark() (marked, edges int) {
	stack := make([]object, 0, len(h.roots))

	shade := func(m ManagedValue) {
		if m.heap != h {
			if !m.IsZero() {
				h.logger.Debug("skipping reference into another heap", zap.Uint64("handle", uint64(m.h)))
			}
			return
		}
		obj, ok := h.table.get(m.h)
		if !ok {
			h.logger.Debug("skipping dangling reference", zap.Uint64("handle", uint64(m.h)))
			return
		}
		hdr := obj.header()
		if hdr.mark {
			return
		}
		hdr.mark = true
		marked++
		stack = append(stack, obj)
	}

	for _, root := range h.roots {
		shade(root)
	}

	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tr, ok := obj.payload().(Tracer)
		if !ok {
			continue
		}
		tr.Trace(func(m ManagedValue) bool {
			edges++
			shade(m)
			return true
		})
	}
	return marked, edges
}

// sweep frees every unmarked block and clears the flag on survivors.
func (h *Heap) sweep() int {
	swept := 0
	for i := range h.table.entries {
		e := &h.table.entries[i]
		if !e.live {
			continue
		}
		hdr := e.obj.header()
		if hdr.mark {
			hdr.mark = false
			continue
		}

		handle := makeHandle(uint32(i+1), e.gen)
		obj := h.table.free(uint32(i + 1))
		swept++

		if d, ok := obj.payload().(Dropper); ok {
			d.Drop()
		}
		if len(h.observers) > 0 {
			h.notify(Event{Type: EventSwept, Handle: handle, TypeName: obj.typeName()})
		}
	}
	return swept
}
