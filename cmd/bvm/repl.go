package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cpp20120/BVM/bytecode"
	"github.com/cpp20120/BVM/internal/config"
	"github.com/cpp20120/BVM/vm"
)

// replSession bundles the persistent machine with the symbol table
// that keeps its local slots addressable by name across chunks — the
// machine alone only persists slot *values*, not the name-to-slot
// mapping a freshly compiled chunk needs to reach them.
type replSession struct {
	machine *vm.Machine
	syms    *bytecode.SymbolTable
}

func runREPL(cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "bvm> ",
		HistoryFile:            cfg.REPL.HistoryFile,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("BVM REPL — :help for commands, :quit to exit.")
	fmt.Println("Multi-line blocks supported (if/while/for/repeat ... end/wend/next/until).")
	fmt.Println("Paste mode: type :paste, then end with '.' or :endpaste")

	host := vm.NewStdHost()
	session := &replSession{
		machine: vm.New([]byte{byte(bytecode.HALT)}, host, cfg.VM.MaxStackDepth),
		syms:    bytecode.NewSymbolTable(),
	}

	var buf strings.Builder
	depth := 0

	pasteMode := false
	var pasteBuf strings.Builder

	for {
		if pasteMode {
			rl.SetPrompt("paste> ")
		} else {
			rl.SetPrompt(replPrompt(depth))
		}

		line, err := rl.Readline()

		if err == readline.ErrInterrupt {
			if pasteMode {
				pasteMode = false
				pasteBuf.Reset()
				fmt.Println("^C (paste cancelled)")
				continue
			}
			if buf.Len() > 0 || depth > 0 {
				buf.Reset()
				depth = 0
				fmt.Println("^C (buffer cleared)")
			}
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		trim := strings.TrimSpace(line)

		if pasteMode {
			if trim == "." || trim == ":endpaste" {
				src := pasteBuf.String()
				pasteBuf.Reset()
				pasteMode = false
				if strings.TrimSpace(src) == "" {
					fmt.Println("(paste buffer empty)")
					continue
				}
				if err := compileAndRunWith(session.machine, session.syms, src); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
				continue
			}
			if trim == ":cancel" {
				pasteBuf.Reset()
				pasteMode = false
				fmt.Println("(paste cancelled)")
				continue
			}
			pasteBuf.WriteString(line)
			pasteBuf.WriteString("\n")
			continue
		}

		if depth == 0 && buf.Len() == 0 && strings.HasPrefix(trim, ":") {
			handled, cmdErr := handleREPLCommand(trim, &buf, &depth, &pasteMode, &pasteBuf, session)
			if handled {
				if cmdErr != nil {
					fmt.Fprintln(os.Stderr, cmdErr.Error())
				}
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		depth = updateDepth(depth, trim)
		if depth > 0 {
			continue
		}

		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}
		if err := compileAndRunWith(session.machine, session.syms, src); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func replPrompt(depth int) string {
	if depth > 0 {
		return "...> "
	}
	return "bvm> "
}

func handleREPLCommand(
	cmd string,
	buf *strings.Builder,
	depth *int,
	pasteMode *bool,
	pasteBuf *strings.Builder,
	session *replSession,
) (bool, error) {
	switch {
	case cmd == ":q" || cmd == ":quit" || cmd == ":exit":
		os.Exit(0)
		return true, nil

	case cmd == ":h" || cmd == ":help":
		fmt.Println("Commands:")
		fmt.Println("  :help              Show this help")
		fmt.Println("  :quit              Exit the REPL")
		fmt.Println("  :reset             Clear buffered multi-line input")
		fmt.Println("  :paste             Start paste mode (end with '.' or :endpaste)")
		fmt.Println("  :stack             Show the data stack, top to bottom")
		fmt.Println("  :globals           Show global slot values")
		fmt.Println("  :trace             Toggle per-opcode tracing")
		fmt.Println()
		fmt.Println("Notes:")
		fmt.Println("  - Multi-line blocks: if/while/for/repeat ... end/wend/next/until")
		fmt.Println("  - Locals and array handles persist across chunks in this session.")
		return true, nil

	case cmd == ":reset":
		buf.Reset()
		*depth = 0
		fmt.Println("(buffer cleared)")
		return true, nil

	case cmd == ":paste":
		buf.Reset()
		*depth = 0
		pasteBuf.Reset()
		*pasteMode = true
		fmt.Println("(paste mode: end with '.' or :endpaste, cancel with :cancel)")
		return true, nil

	case cmd == ":trace":
		session.machine.Trace = !session.machine.Trace
		fmt.Printf("(trace %s)\n", onOff(session.machine.Trace))
		return true, nil

	case cmd == ":stack":
		s := session.machine.Stack()
		if len(s) == 0 {
			fmt.Println("(empty)")
			return true, nil
		}
		for _, v := range s {
			fmt.Println(v.String(session.machine))
		}
		return true, nil

	case cmd == ":globals":
		g := session.machine.Globals()
		if len(g) == 0 {
			fmt.Println("(no globals)")
			return true, nil
		}
		slots := make([]int32, 0, len(g))
		for s := range g {
			slots = append(slots, s)
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
		for _, s := range slots {
			fmt.Printf("%d = %s\n", s, g[s].String(session.machine))
		}
		return true, nil

	default:
		fmt.Println("Unknown command. Try :help")
		return true, nil
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func updateDepth(depth int, trimmed string) int {
	if trimmed == "" {
		return depth
	}
	low := strings.ToLower(trimmed)
	if strings.HasPrefix(low, "'") {
		return depth
	}
	if isBlockOpener(low) {
		return depth + 1
	}
	if low == "wend" || low == "next" || strings.HasPrefix(low, "next ") || strings.HasPrefix(low, "until") {
		if depth > 0 {
			return depth - 1
		}
		return 0
	}
	if low == "end if" || low == "end" {
		if depth > 0 {
			return depth - 1
		}
		return 0
	}
	if low == "else" {
		return depth
	}
	return depth
}

func isBlockOpener(low string) bool {
	return strings.HasPrefix(low, "if ") ||
		strings.HasPrefix(low, "while ") ||
		strings.HasPrefix(low, "for ") ||
		low == "repeat"
}
