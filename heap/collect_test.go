package heap

import (
	"testing"

	"github.com/wippyai/gcheap/errors"
)

func TestCollect_RootedStringSurvives(t *testing.T) {
	h := NewWithDefaults()
	s := h.NewString("a")

	id, err := h.AddRoot(s.Erase())
	if err != nil {
		t.Fatalf("AddRoot failed: %v", err)
	}

	h.Collect()
	got, err := s.Get()
	if err != nil {
		t.Fatalf("rooted string swept: %v", err)
	}
	if *got != "a" {
		t.Fatalf("got %q, want a", *got)
	}

	h.RemoveRoot(id)
	h.Collect()
	if h.Contains(s.Handle()) {
		t.Fatal("unrooted string must be swept")
	}
	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}
}

func TestCollect_ArrayKeepsElementsAlive(t *testing.T) {
	h := NewWithDefaults()
	one := h.NewNumber(1.0)
	two := h.NewNumber(2.0)
	arr := h.NewArray(one.Erase(), two.Erase())

	id, err := h.AddRoot(arr.Erase())
	if err != nil {
		t.Fatal(err)
	}

	st := h.Collect()
	if st.Marked != 3 || st.Swept != 0 || st.Edges != 2 || st.Live != 3 {
		t.Fatalf("stats = %+v", st)
	}
	if *one.MustGet() != 1.0 || *two.MustGet() != 2.0 {
		t.Fatal("numbers reachable through the array must survive")
	}

	h.RemoveRoot(id)
	st = h.Collect()
	if st.Swept != 3 || h.Len() != 0 {
		t.Fatalf("stats = %+v, Len = %d", st, h.Len())
	}
	for _, m := range []ManagedValue{one.Erase(), two.Erase(), arr.Erase()} {
		if m.Valid() {
			t.Fatalf("%v survived without a root", m)
		}
	}
}

func TestCollect_SelfCycle(t *testing.T) {
	h := NewWithDefaults()
	a := h.NewArray()
	a.MustGet().Push(a.Erase())

	if _, err := h.AddRoot(a.Erase()); err != nil {
		t.Fatal(err)
	}
	h.NewNumber(9)

	st := h.Collect()
	if st.Live != 1 || st.Marked != 1 || st.Edges != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if !a.Valid() {
		t.Fatal("self-referencing root must survive")
	}
}

func TestCollect_UnrootedCycleReclaimed(t *testing.T) {
	h := NewWithDefaults()
	a := h.NewArray()
	b := h.NewArray(a.Erase())
	a.MustGet().Push(b.Erase())

	id, err := h.AddRoot(a.Erase())
	if err != nil {
		t.Fatal(err)
	}
	if st := h.Collect(); st.Live != 2 {
		t.Fatalf("rooted cycle: Live = %d, want 2", st.Live)
	}

	h.RemoveRoot(id)
	if st := h.Collect(); st.Swept != 2 || st.Live != 0 {
		t.Fatalf("unrooted cycle: %+v", st)
	}
}

func TestCollect_DeepChain(t *testing.T) {
	h := NewWithDefaults()
	head := h.NewArray()
	cur := head
	for i := 0; i < 100000; i++ {
		next := h.NewArray()
		cur.MustGet().Push(next.Erase())
		cur = next
	}
	if _, err := h.AddRoot(head.Erase()); err != nil {
		t.Fatal(err)
	}

	if st := h.Collect(); st.Live != 100001 {
		t.Fatalf("Live = %d, want 100001", st.Live)
	}
}

func TestCollect_Idempotent(t *testing.T) {
	h := NewWithDefaults()
	keep := h.NewArray(h.NewNumber(1).Erase(), h.NewString("s").Erase())
	h.NewString("garbage")
	if _, err := h.AddRoot(keep.Erase()); err != nil {
		t.Fatal(err)
	}

	h.Collect()
	first := liveHandles(h)
	st := h.Collect()
	second := liveHandles(h)

	if st.Swept != 0 {
		t.Fatalf("second collect swept %d blocks", st.Swept)
	}
	if len(first) != len(second) {
		t.Fatalf("retained sets differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("retained sets differ: %v vs %v", first, second)
		}
	}
}

func TestCollect_ClearsMarks(t *testing.T) {
	h := NewWithDefaults()
	r := h.NewString("x")
	if _, err := h.AddRoot(r.Erase()); err != nil {
		t.Fatal(err)
	}
	h.Collect()

	h.table.each(func(_ Handle, obj object) bool {
		if obj.header().Marked() {
			t.Errorf("block %s still marked after collect", obj.typeName())
		}
		return true
	})
	if h.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", h.State())
	}
}

func TestCollect_StaleReferenceAfterSlotReuse(t *testing.T) {
	h := NewWithDefaults()
	old := h.NewString("old")
	h.Collect()

	fresh := h.NewString("fresh")
	if old.Handle().slot() != fresh.Handle().slot() {
		t.Fatalf("expected slot reuse, old=%#x fresh=%#x", old.Handle(), fresh.Handle())
	}

	_, err := old.Get()
	if !errors.IsKind(err, errors.KindDangling) {
		t.Fatalf("stale Get err = %v, want dangling", err)
	}
	if got := *fresh.MustGet(); got != "fresh" {
		t.Fatalf("fresh = %q", got)
	}
	if _, ok := Downcast[String](old.Erase()); ok {
		t.Fatal("stale reference must not downcast")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustGet on stale reference must panic")
		}
	}()
	old.MustGet()
}

func TestCollect_DanglingElementIgnored(t *testing.T) {
	h := NewWithDefaults()
	tmp := h.NewNumber(1)
	h.Collect() // tmp swept

	arr := h.NewArray(tmp.Erase())
	if _, err := h.AddRoot(arr.Erase()); err != nil {
		t.Fatal(err)
	}
	st := h.Collect()
	if st.Live != 1 || st.Edges != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if got := arr.MustGet().String(); got != "[<dangling>]" {
		t.Fatalf("String() = %s", got)
	}
}

func TestCollect_ForeignReferenceNotTraced(t *testing.T) {
	h1 := NewWithDefaults()
	h2 := NewWithDefaults()

	foreign := h2.NewNumber(7)
	arr := h1.NewArray(foreign.Erase())
	if _, err := h1.AddRoot(arr.Erase()); err != nil {
		t.Fatal(err)
	}

	h1.Collect()
	h2.Collect()
	if foreign.Valid() {
		t.Fatal("only roots of h2 keep h2 blocks alive")
	}

	if _, err := h1.AddRoot(h2.NewNumber(1).Erase()); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("AddRoot of foreign value err = %v", err)
	}
}

func TestCollect_CustomTracer(t *testing.T) {
	h := NewWithDefaults()
	leaf := h.NewString("leaf")
	n := Allocate(h, &node{next: leaf.Erase()})
	if _, err := h.AddRoot(n.Erase()); err != nil {
		t.Fatal(err)
	}

	h.Collect()
	if !leaf.Valid() {
		t.Fatal("custom Tracer edges must be followed")
	}
}

func TestCollect_ReentrancyGuards(t *testing.T) {
	h := NewWithDefaults()
	tr := &reentrantTracer{heap: h}
	r := Allocate(h, tr)
	if _, err := h.AddRoot(r.Erase()); err != nil {
		t.Fatal(err)
	}

	h.Collect()

	if tr.allocPanic == nil {
		t.Fatal("Allocate during marking must panic")
	}
	if e, ok := tr.allocPanic.(*errors.Error); !ok || e.Kind != errors.KindReentrant {
		t.Fatalf("allocPanic = %v", tr.allocPanic)
	}
	if !errors.IsKind(tr.rootErr, errors.KindReentrant) {
		t.Fatalf("rootErr = %v", tr.rootErr)
	}
	if !errors.IsKind(tr.setErr, errors.KindReentrant) {
		t.Fatalf("setErr = %v", tr.setErr)
	}
	if tr.state != StateMarking {
		t.Fatalf("state during trace = %v", tr.state)
	}
	if h.State() != StateIdle {
		t.Fatalf("State() = %v after collect", h.State())
	}
}

func TestCollect_DropsSweptPayloads(t *testing.T) {
	h := NewWithDefaults()
	var drops int
	Allocate(h, &resource{drops: &drops})
	kept := Allocate(h, &resource{drops: &drops})
	if _, err := h.AddRoot(kept.Erase()); err != nil {
		t.Fatal(err)
	}

	h.Collect()
	if drops != 1 {
		t.Fatalf("drops = %d, want 1", drops)
	}
}

func TestRemoveRoot_Idempotent(t *testing.T) {
	h := NewWithDefaults()
	s := h.NewString("a")
	id1, _ := h.AddRoot(s.Erase())
	id2, _ := h.AddRoot(s.Erase())
	if id1 == id2 {
		t.Fatal("root ids must be unique")
	}

	h.RemoveRoot(id1)
	h.RemoveRoot(id1)
	h.RemoveRoot(RootID(999))

	h.Collect()
	if !s.Valid() {
		t.Fatal("second registration must keep the block alive")
	}
	if h.IsRooted(id1) || !h.IsRooted(id2) {
		t.Fatal("IsRooted mismatch")
	}
	roots := h.Roots()
	if len(roots) != 1 || roots[0] != s.Erase() {
		t.Fatalf("Roots() = %v", roots)
	}

	h.RemoveRoot(id2)
	h.Collect()
	if s.Valid() {
		t.Fatal("block must be swept once every root is removed")
	}
}

func TestAddRoot_Dangling(t *testing.T) {
	h := NewWithDefaults()
	s := h.NewString("a")
	h.Collect()

	if _, err := h.AddRoot(s.Erase()); !errors.IsKind(err, errors.KindDangling) {
		t.Fatalf("AddRoot of swept value err = %v", err)
	}
	if h.NumRoots() != 0 {
		t.Fatal("failed AddRoot must not register")
	}
}

func liveHandles(h *Heap) []Handle {
	var out []Handle
	h.Each(func(m ManagedValue) bool {
		out = append(out, m.Handle())
		return true
	})
	return out
}

type node struct {
	next ManagedValue
}

func (n *node) String() string { return "node" }

func (n *node) Trace(visit func(ManagedValue) bool) {
	visit(n.next)
}

type reentrantTracer struct {
	heap       *Heap
	allocPanic any
	rootErr    error
	setErr     error
	state      State
}

func (r *reentrantTracer) String() string { return "reentrant" }

func (r *reentrantTracer) Trace(visit func(ManagedValue) bool) {
	r.state = r.heap.State()
	func() {
		defer func() { r.allocPanic = recover() }()
		r.heap.NewNumber(1)
	}()

	self := r.heap.Roots()[0]
	_, r.rootErr = r.heap.AddRoot(self)

	ref, _ := Downcast[*reentrantTracer](self)
	r.setErr = ref.Set(r)
}
