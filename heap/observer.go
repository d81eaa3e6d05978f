package heap

// EventType identifies a heap lifecycle event.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventSwept
	EventRooted
	EventUnrooted
	EventCollected
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventSwept:
		return "swept"
	case EventRooted:
		return "rooted"
	case EventUnrooted:
		return "unrooted"
	case EventCollected:
		return "collected"
	default:
		return "unknown"
	}
}

// Event describes a heap lifecycle event. Handle and TypeName are set for
// block events, Root for root events, Stats for EventCollected.
type Event struct {
	Stats    *CollectStats
	TypeName string
	Handle   Handle
	Root     RootID
	Type     EventType
}

// Observer receives notifications about heap lifecycle events.
// Observers must not mutate the heap.
type Observer interface {
	OnHeapEvent(Event)
}

// Subscribe adds an observer for lifecycle events.
func (h *Heap) Subscribe(o Observer) {
	h.observers = append(h.observers, o)
}

// Unsubscribe removes an observer.
func (h *Heap) Unsubscribe(o Observer) {
	for i, obs := range h.observers {
		if obs == o {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return
		}
	}
}

func (h *Heap) notify(e Event) {
	for _, o := range h.observers {
		o.OnHeapEvent(e)
	}
}
