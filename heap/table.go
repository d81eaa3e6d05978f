package heap

// Handle identifies a block: the low 32 bits are the slot, the high 32 bits
// the slot generation at allocation time. Handle 0 is always invalid.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

func (h Handle) slot() uint32 {
	return uint32(h)
}

func (h Handle) gen() uint32 {
	return uint32(h >> 32)
}

// table stores blocks by slot with a free list. Slot numbers start at 1.
// Freeing a slot bumps its generation so handles to the old block no
// longer resolve, even after the slot is reused.
type table struct {
	entries  []entry
	freeList []uint32
	live     int
}

type entry struct {
	obj  object
	gen  uint32
	live bool
}

func newTable(capacity int) *table {
	if capacity <= 0 {
		capacity = 64
	}
	return &table{
		entries:  make([]entry, 0, capacity),
		freeList: make([]uint32, 0, 16),
	}
}

func (t *table) insert(obj object) Handle {
	t.live++

	if len(t.freeList) > 0 {
		slot := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		e := &t.entries[slot-1]
		e.obj = obj
		e.live = true
		return makeHandle(slot, e.gen)
	}

	t.entries = append(t.entries, entry{obj: obj, gen: 1, live: true})
	return makeHandle(uint32(len(t.entries)), 1)
}

func (t *table) get(h Handle) (object, bool) {
	slot := h.slot()
	if slot == 0 || int(slot) > len(t.entries) {
		return nil, false
	}
	e := &t.entries[slot-1]
	if !e.live || e.gen != h.gen() {
		return nil, false
	}
	return e.obj, true
}

// free releases a live slot and returns its block.
func (t *table) free(slot uint32) object {
	e := &t.entries[slot-1]
	obj := e.obj
	e.obj = nil
	e.live = false
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	t.freeList = append(t.freeList, slot)
	t.live--
	return obj
}

// each iterates live blocks in slot order until fn returns false.
func (t *table) each(fn func(Handle, object) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.live {
			continue
		}
		if !fn(makeHandle(uint32(i+1), e.gen), e.obj) {
			return
		}
	}
}

func (t *table) len() int {
	return t.live
}

func (t *table) cap() int {
	return len(t.entries)
}
