package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/term"

	"github.com/wippyai/gcheap/heap"
	"github.com/wippyai/gcheap/hostmod"
)

// demoScript runs when no other mode is selected.
var demoScript = []string{
	`str "Hello"`,
	"show $1",
	"num 1",
	"num 2",
	"num 3",
	"arr $2 $3 $4",
	"root $5",
	"collect",
	"show $5",
	"show $1",
	"unroot $5",
	"collect",
	"stats",
}

func main() {
	var (
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		scriptFile  = flag.String("script", "", "File of heap commands to run (- for stdin)")
		wasmFile    = flag.String("wasm", "", "Core wasm module importing the gcheap host module")
		funcName    = flag.String("func", "run", "Guest function to call with -wasm")
		argList     = flag.String("args", "", "Guest arguments (comma-separated)")
		list        = flag.Bool("list", false, "List host functions and exit")
		maxBlocks   = flag.Int("max-blocks", 0, "Live block limit (0 for unlimited)")
		configFile  = flag.String("config", "", "YAML config file")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *maxBlocks > 0 {
		cfg.MaxBlocks = *maxBlocks
	}

	l, err := cfg.logger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if l != nil {
		defer l.Sync() //nolint:errcheck
		heap.SetLogger(l)
		hostmod.SetLogger(l)
	}

	h := heap.New(cfg.heapOptions())
	defer h.Close()

	switch {
	case *list:
		listHostFunctions(os.Stdout, hostmod.New(h, cfg.hostOptions()))
	case *wasmFile != "":
		err = runGuest(h, cfg.hostOptions(), *wasmFile, *funcName, *argList)
	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			err = fmt.Errorf("interactive mode needs a terminal")
			break
		}
		err = runInteractive(h)
	case *scriptFile != "":
		err = runScriptFile(h, *scriptFile)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		err = runScript(os.Stdout, newSession(h), os.Stdin)
	default:
		err = runScript(os.Stdout, newSession(h), strings.NewReader(strings.Join(demoScript, "\n")))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runScriptFile(h *heap.Heap, path string) error {
	if path == "-" {
		return runScript(os.Stdout, newSession(h), os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return runScript(os.Stdout, newSession(h), f)
}

// runScript echoes and executes each line. The first failing command
// stops the script.
func runScript(w io.Writer, s *session, r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" {
			return nil
		}
		fmt.Fprintf(w, "> %s\n", line)
		out, err := s.exec(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if out != "" {
			fmt.Fprintln(w, out)
		}
	}
	return sc.Err()
}

func listHostFunctions(w io.Writer, mod *hostmod.Module) {
	fmt.Fprintf(w, "Host module %q:\n", mod.Name())
	for _, sig := range mod.Signatures() {
		fmt.Fprintf(w, "  %s\n", formatSignature(sig))
	}
}

func formatSignature(sig hostmod.Signature) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = witTypeStr(p)
	}
	result := ""
	if len(sig.Results) > 0 {
		result = " -> " + witTypeStr(sig.Results[0])
	}
	return sig.Name + "(" + strings.Join(params, ", ") + ")" + result
}

func runGuest(h *heap.Heap, hostOpts hostmod.Options, wasmFile, funcName, argList string) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := hostmod.New(h, hostOpts).Instantiate(ctx, rt); err != nil {
		return fmt.Errorf("instantiate host module: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	fmt.Printf("Module: %s\n", wasmFile)
	fmt.Printf("Imports: %d\n", len(compiled.ImportedFunctions()))
	fmt.Printf("Exports: %d\n", len(compiled.ExportedFunctions()))

	guest, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer guest.Close(ctx)

	fn := guest.ExportedFunction(funcName)
	if fn == nil {
		return fmt.Errorf("function %q not exported", funcName)
	}
	params, err := encodeArgs(fn.Definition().ParamTypes(), argList)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s...\n", funcName)
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	for i, t := range fn.Definition().ResultTypes() {
		fmt.Printf("Result %d: %s\n", i, decodeResult(h, t, results[i]))
	}

	st := h.Stats()
	fmt.Printf("\nHeap: live=%d allocated=%d freed=%d collections=%d roots=%d\n",
		st.Live, st.Allocated, st.Freed, st.Collections, h.NumRoots())
	return nil
}

func encodeArgs(types []api.ValueType, argList string) ([]uint64, error) {
	var args []string
	if argList != "" {
		args = strings.Split(argList, ",")
	}
	if len(args) != len(types) {
		return nil, fmt.Errorf("function takes %d arguments, got %d", len(types), len(args))
	}
	out := make([]uint64, len(types))
	for i, t := range types {
		s := strings.TrimSpace(args[i])
		switch t {
		case api.ValueTypeI32:
			v, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			out[i] = api.EncodeI32(int32(v))
		case api.ValueTypeI64:
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			out[i] = api.EncodeI64(v)
		case api.ValueTypeF32:
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			out[i] = api.EncodeF32(float32(v))
		case api.ValueTypeF64:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			out[i] = api.EncodeF64(v)
		default:
			return nil, fmt.Errorf("arg %d: unsupported type %s", i, api.ValueTypeName(t))
		}
	}
	return out, nil
}

// decodeResult prints i64 results that name a live block as the block.
func decodeResult(h *heap.Heap, t api.ValueType, raw uint64) string {
	switch t {
	case api.ValueTypeI64:
		if m, err := h.Lookup(heap.Handle(raw)); err == nil {
			return fmt.Sprintf("%d (%s)", raw, m)
		}
		return strconv.FormatInt(int64(raw), 10)
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(raw)), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(raw)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(raw), 'g', -1, 64)
	default:
		return fmt.Sprintf("%#x", raw)
	}
}
