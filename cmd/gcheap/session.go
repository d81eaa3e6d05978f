package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/wippyai/gcheap/heap"
	"github.com/wippyai/gcheap/hostmod"
)

// session names heap values $1, $2, ... and executes text commands
// against the heap. Both the script mode and the TUI drive it.
type session struct {
	heap  *heap.Heap
	vars  []heap.ManagedValue
	roots map[int]heap.RootID
}

func newSession(h *heap.Heap) *session {
	return &session{
		heap:  h,
		roots: make(map[int]heap.RootID),
	}
}

type command struct {
	name  string
	args  string
	help  string
	run   func(s *session, args []string) (string, error)
	nargs int // minimum argument count
}

var commands = []command{
	{name: "num", args: "<f64>", help: "allocate a number", nargs: 1, run: (*session).cmdNum},
	{name: "str", args: "<text>", help: "allocate a string", nargs: 1, run: (*session).cmdStr},
	{name: "arr", args: "[$n...]", help: "allocate an array", run: (*session).cmdArr},
	{name: "push", args: "$arr $n", help: "append to an array", nargs: 2, run: (*session).cmdPush},
	{name: "root", args: "$n", help: "register a root", nargs: 1, run: (*session).cmdRoot},
	{name: "unroot", args: "$n", help: "remove a root", nargs: 1, run: (*session).cmdUnroot},
	{name: "collect", help: "run mark and sweep", run: (*session).cmdCollect},
	{name: "show", args: "$n", help: "print a value", nargs: 1, run: (*session).cmdShow},
	{name: "stats", help: "print heap counters", run: (*session).cmdStats},
	{name: "host", help: "list wasm host functions", run: (*session).cmdHost},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// exec runs one command line. Arguments are split shell-style, so quoted
// text keeps its spaces and # starts a comment.
func (s *session) exec(line string) (string, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", line, err)
	}
	if len(fields) == 0 {
		return "", nil
	}
	if fields[0] == "help" {
		return usage(), nil
	}
	c, ok := lookupCommand(fields[0])
	if !ok {
		return "", fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	args := fields[1:]
	if len(args) < c.nargs {
		return "", fmt.Errorf("usage: %s %s", c.name, c.args)
	}
	return c.run(s, args)
}

func usage() string {
	var b strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-8s %-10s %s\n", c.name, c.args, c.help)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (s *session) bind(m heap.ManagedValue) string {
	s.vars = append(s.vars, m)
	return fmt.Sprintf("$%d = %s", len(s.vars), m)
}

func (s *session) resolve(arg string) (int, heap.ManagedValue, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "$"))
	if err != nil || n < 1 || n > len(s.vars) {
		return 0, heap.ManagedValue{}, fmt.Errorf("unknown value %s", arg)
	}
	return n, s.vars[n-1], nil
}

func (s *session) cmdNum(args []string) (string, error) {
	f, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "", fmt.Errorf("parse number: %w", err)
	}
	return s.bind(s.heap.NewNumber(f).Erase()), nil
}

// cmdStr joins its arguments with single spaces; quote to keep spacing.
func (s *session) cmdStr(args []string) (string, error) {
	return s.bind(s.heap.NewString(strings.Join(args, " ")).Erase()), nil
}

func (s *session) cmdArr(args []string) (string, error) {
	elems := make([]heap.ManagedValue, 0, len(args))
	for _, a := range args {
		_, m, err := s.resolve(a)
		if err != nil {
			return "", err
		}
		elems = append(elems, m)
	}
	return s.bind(s.heap.NewArray(elems...).Erase()), nil
}

func (s *session) cmdPush(args []string) (string, error) {
	_, target, err := s.resolve(args[0])
	if err != nil {
		return "", err
	}
	arr, err := heap.DowncastErr[heap.Array](target)
	if err != nil {
		return "", err
	}
	for _, a := range args[1:] {
		_, m, err := s.resolve(a)
		if err != nil {
			return "", err
		}
		arr.MustGet().Push(m)
	}
	return fmt.Sprintf("%s = %s", args[0], target), nil
}

func (s *session) cmdRoot(args []string) (string, error) {
	n, m, err := s.resolve(args[0])
	if err != nil {
		return "", err
	}
	if _, ok := s.roots[n]; ok {
		return fmt.Sprintf("$%d already rooted", n), nil
	}
	id, err := s.heap.AddRoot(m)
	if err != nil {
		return "", err
	}
	s.roots[n] = id
	return fmt.Sprintf("rooted $%d (root %d)", n, id), nil
}

func (s *session) cmdUnroot(args []string) (string, error) {
	n, _, err := s.resolve(args[0])
	if err != nil {
		return "", err
	}
	id, ok := s.roots[n]
	if !ok {
		return fmt.Sprintf("$%d is not rooted", n), nil
	}
	s.heap.RemoveRoot(id)
	delete(s.roots, n)
	return fmt.Sprintf("unrooted $%d", n), nil
}

func (s *session) cmdCollect([]string) (string, error) {
	st := s.heap.Collect()
	return fmt.Sprintf("collect: roots=%d marked=%d edges=%d swept=%d live=%d (%s)",
		st.Roots, st.Marked, st.Edges, st.Swept, st.Live, st.Duration), nil
}

func (s *session) cmdShow(args []string) (string, error) {
	_, m, err := s.resolve(args[0])
	if err != nil {
		return "", err
	}
	if !m.Valid() {
		return fmt.Sprintf("%s = %s", args[0], m), nil
	}
	v, err := heap.ValueOf(m)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", args[0], v), nil
}

func (s *session) cmdStats([]string) (string, error) {
	st := s.heap.Stats()
	return fmt.Sprintf("allocated=%d freed=%d collections=%d live=%d slots=%d roots=%d",
		st.Allocated, st.Freed, st.Collections, st.Live, st.Slots, s.heap.NumRoots()), nil
}

func (s *session) cmdHost([]string) (string, error) {
	var b strings.Builder
	listHostFunctions(&b, hostmod.NewWithDefaults(s.heap))
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// entry is one row of the variable listing.
type entry struct {
	name   string
	value  string
	kind   string
	rooted bool
	live   bool
}

func (s *session) entries() []entry {
	out := make([]entry, len(s.vars))
	for i, m := range s.vars {
		e := entry{name: fmt.Sprintf("$%d", i+1), value: m.String(), live: m.Valid()}
		if v, err := heap.ValueOf(m); err == nil {
			e.kind = v.Kind().String()
		}
		_, e.rooted = s.roots[i+1]
		out[i] = e
	}
	return out
}
