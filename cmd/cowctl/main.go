// cowctl is a simple CLI for poking at copy-on-write buffers.
//
// Usage:
//
//	cowctl [--alloc heap|mmap]
//
// It keeps a set of named handles over one logical element sequence.
// Cloning a handle is O(1); the clones share storage until one of them
// is mutated, at which point the mutated handle forks off its own copy.
// The 'handles' command shows which handles still share.
//
// Commands (in REPL):
//
//	push <value>...          Append values
//	pop                      Remove and print the last value
//	get <i>                  Print the value at index i
//	set <i> <value>          Overwrite the value at index i
//	ins <pos> <value>        Insert at pos, shifting the tail right
//	rm <pos>                 Remove at pos, shifting the tail left
//	find <value> [from]      First index holding value, or -1
//	rfind <value> [from]     Last index holding value (negative from counts from the end)
//	count <value>            Number of elements equal to value
//	resize <n>               Grow (zero-filled) or shrink to n elements
//	len                      Element count
//	ls                       Print all elements
//	clone <name>             New handle sharing the current handle's storage
//	use <name>               Switch the current handle
//	drop <name>              Release a handle
//	handles                  List handles and storage sharing
//	bench <count>            Benchmark append + fork performance
//	help                     Show this help
//	exit / quit / q          Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
	"github.com/calvinalkan/cowdata/pkg/vector"
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	allocName := flag.StringP("alloc", "a", "heap", "allocator for element storage: heap or mmap")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cowctl [--alloc heap|mmap]\n\n")
		fmt.Fprintf(os.Stderr, "Interactive copy-on-write buffer shell.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	alloc, err := allocatorByName(*allocName)
	if err != nil {
		flag.Usage()

		return err
	}

	repl := &REPL{
		alloc:   alloc,
		current: "main",
		handles: map[string]*vector.Vector[string]{},
	}

	root := vector.NewIn[string](alloc)
	repl.handles["main"] = &root

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	alloc   cowdata.Allocator
	current string
	handles map[string]*vector.Vector[string]
	liner   *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".cowctl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("cowctl - copy-on-write buffer shell")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt(r.current + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()
			r.releaseAll()

			return nil

		case "help", "?":
			r.printHelp()

		case "push":
			r.cmdPush(args)

		case "pop":
			r.cmdPop()

		case "get":
			r.cmdGet(args)

		case "set":
			r.cmdSet(args)

		case "ins", "insert":
			r.cmdInsert(args)

		case "rm", "remove":
			r.cmdRemove(args)

		case "find":
			r.cmdFind(args)

		case "rfind":
			r.cmdRFind(args)

		case "count":
			r.cmdCount(args)

		case "resize":
			r.cmdResize(args)

		case "len":
			fmt.Println(r.vec().Len())

		case "ls", "list":
			r.cmdList()

		case "clone":
			r.cmdClone(args)

		case "use":
			r.cmdUse(args)

		case "drop":
			r.cmdDrop(args)

		case "handles":
			r.cmdHandles()

		case "bench":
			r.cmdBench(args)

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	r.releaseAll()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"push", "pop", "get", "set",
		"ins", "insert", "rm", "remove",
		"find", "rfind", "count", "resize",
		"len", "ls", "list",
		"clone", "use", "drop", "handles",
		"bench", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  push <value>...          Append values")
	fmt.Println("  pop                      Remove and print the last value")
	fmt.Println("  get <i>                  Print the value at index i")
	fmt.Println("  set <i> <value>          Overwrite the value at index i")
	fmt.Println("  ins <pos> <value>        Insert at pos")
	fmt.Println("  rm <pos>                 Remove at pos")
	fmt.Println("  find <value> [from]      First index holding value")
	fmt.Println("  rfind <value> [from]     Last index holding value")
	fmt.Println("  count <value>            Number of equal elements")
	fmt.Println("  resize <n>               Grow (zero-filled) or shrink")
	fmt.Println("  len                      Element count")
	fmt.Println("  ls                       Print all elements")
	fmt.Println("  clone <name>             New handle sharing current storage")
	fmt.Println("  use <name>               Switch the current handle")
	fmt.Println("  drop <name>              Release a handle")
	fmt.Println("  handles                  List handles and storage sharing")
	fmt.Println("  bench <count>            Benchmark append + fork performance")
	fmt.Println("  help                     Show this help")
	fmt.Println("  exit / quit / q          Exit")
	fmt.Println()
	fmt.Println("Mutating a handle that shares storage forks it; the other")
	fmt.Println("handles keep the old contents ('handles' shows the split).")
}

// vec returns the current handle.
func (r *REPL) vec() *vector.Vector[string] {
	return r.handles[r.current]
}

func (r *REPL) cmdPush(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: push <value>...")

		return
	}

	v := r.vec()
	for _, arg := range args {
		if err := v.Append(arg); err != nil {
			fmt.Printf("push: %v\n", err)

			return
		}
	}

	fmt.Printf("len=%d\n", v.Len())
}

func (r *REPL) cmdPop() {
	got, err := r.vec().Pop()
	if err != nil {
		fmt.Printf("pop: %v\n", err)

		return
	}

	fmt.Println(got)
}

func (r *REPL) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: get <i>")

		return
	}

	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("get: bad index %q\n", args[0])

		return
	}

	v := r.vec()
	if i < 0 || i >= v.Len() {
		fmt.Printf("get: index %d out of range [0, %d)\n", i, v.Len())

		return
	}

	fmt.Println(v.At(i))
}

func (r *REPL) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: set <i> <value>")

		return
	}

	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("set: bad index %q\n", args[0])

		return
	}

	if err := r.vec().Set(i, args[1]); err != nil {
		fmt.Printf("set: %v\n", err)
	}
}

func (r *REPL) cmdInsert(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: ins <pos> <value>")

		return
	}

	pos, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("ins: bad position %q\n", args[0])

		return
	}

	if err := r.vec().Insert(pos, args[1]); err != nil {
		fmt.Printf("ins: %v\n", err)
	}
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: rm <pos>")

		return
	}

	pos, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("rm: bad position %q\n", args[0])

		return
	}

	if err := r.vec().RemoveAt(pos); err != nil {
		fmt.Printf("rm: %v\n", err)
	}
}

func (r *REPL) cmdFind(args []string) {
	value, from, ok := parseSearchArgs(args, "find", 0)
	if !ok {
		return
	}

	fmt.Println(r.vec().Find(value, from))
}

func (r *REPL) cmdRFind(args []string) {
	value, from, ok := parseSearchArgs(args, "rfind", -1)
	if !ok {
		return
	}

	fmt.Println(r.vec().RFind(value, from))
}

func parseSearchArgs(args []string, name string, defaultFrom int) (string, int, bool) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Printf("Usage: %s <value> [from]\n", name)

		return "", 0, false
	}

	from := defaultFrom

	if len(args) == 2 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("%s: bad offset %q\n", name, args[1])

			return "", 0, false
		}

		from = parsed
	}

	return args[0], from, true
}

func (r *REPL) cmdCount(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: count <value>")

		return
	}

	fmt.Println(r.vec().Count(args[0]))
}

func (r *REPL) cmdResize(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: resize <n>")

		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("resize: bad size %q\n", args[0])

		return
	}

	if err := r.vec().Resize(n); err != nil {
		fmt.Printf("resize: %v\n", err)

		return
	}

	fmt.Printf("len=%d\n", r.vec().Len())
}

func (r *REPL) cmdList() {
	view := r.vec().Slice()
	if len(view) == 0 {
		fmt.Println("(empty)")

		return
	}

	for i, e := range view {
		fmt.Printf("%4d  %q\n", i, e)
	}
}

func (r *REPL) cmdClone(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: clone <name>")

		return
	}

	name := args[0]
	if _, exists := r.handles[name]; exists {
		fmt.Printf("clone: handle %q already exists\n", name)

		return
	}

	c := r.vec().Copy()
	r.handles[name] = &c

	fmt.Printf("%q shares storage with %q until either is mutated\n", name, r.current)
}

func (r *REPL) cmdUse(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: use <name>")

		return
	}

	if _, exists := r.handles[args[0]]; !exists {
		fmt.Printf("use: no handle %q\n", args[0])

		return
	}

	r.current = args[0]
}

func (r *REPL) cmdDrop(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: drop <name>")

		return
	}

	name := args[0]

	v, exists := r.handles[name]
	if !exists {
		fmt.Printf("drop: no handle %q\n", name)

		return
	}

	if len(r.handles) == 1 {
		fmt.Println("drop: cannot drop the last handle")

		return
	}

	v.Release()
	delete(r.handles, name)

	if r.current == name {
		for other := range r.handles {
			r.current = other

			break
		}

		fmt.Printf("switched to %q\n", r.current)
	}
}

func (r *REPL) cmdHandles() {
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		v := r.handles[name]

		marker := " "
		if name == r.current {
			marker = "*"
		}

		fmt.Printf("%s %-12s len=%-6d %s\n", marker, name, v.Len(), r.sharingNote(name))
	}
}

// sharingNote reports which other handles alias the same storage, by
// comparing the address of the first element.
func (r *REPL) sharingNote(name string) string {
	base := storageAddr(r.handles[name])
	if base == 0 {
		return "(no storage)"
	}

	var sharing []string

	for other, v := range r.handles {
		if other != name && storageAddr(v) == base {
			sharing = append(sharing, other)
		}
	}

	if len(sharing) == 0 {
		return "(exclusive)"
	}

	sort.Strings(sharing)

	return "shares with " + strings.Join(sharing, ", ")
}

func storageAddr(v *vector.Vector[string]) uintptr {
	view := v.Slice()
	if len(view) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(view)))
}

func (r *REPL) cmdBench(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: bench <count>")

		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		fmt.Printf("bench: bad count %q\n", args[0])

		return
	}

	bench := vector.NewIn[string](r.alloc)
	defer bench.Release()

	start := time.Now()

	for i := 0; i < n; i++ {
		if err := bench.Append(strconv.Itoa(i)); err != nil {
			fmt.Printf("bench: append %d: %v\n", i, err)

			return
		}
	}

	appendDur := time.Since(start)

	clone := bench.Copy()
	defer clone.Release()

	start = time.Now()

	// First mutation pays for the full fork.
	if err := clone.Set(0, "forked"); err != nil {
		fmt.Printf("bench: fork: %v\n", err)

		return
	}

	forkDur := time.Since(start)

	fmt.Printf("append: %d elements in %v (%.0f ops/sec)\n",
		n, appendDur, float64(n)/appendDur.Seconds())
	fmt.Printf("fork:   %d elements copied in %v\n", n, forkDur)
}

// releaseAll drops every handle before exit.
func (r *REPL) releaseAll() {
	for _, v := range r.handles {
		v.Release()
	}
}

func allocatorByName(name string) (cowdata.Allocator, error) {
	switch strings.ToLower(name) {
	case "heap":
		return cowdata.Heap{}, nil
	case "mmap":
		return mmapAllocator()
	default:
		return nil, fmt.Errorf("unknown allocator %q (want heap or mmap)", name)
	}
}
