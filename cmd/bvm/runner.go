package main

import (
	bvm "github.com/cpp20120/BVM"
	"github.com/cpp20120/BVM/bytecode"
	"github.com/cpp20120/BVM/internal/config"
	"github.com/cpp20120/BVM/vm"
)

// runFile compiles and runs one source file top to bottom with a
// fresh machine, the CLI's equivalent of the REPL's per-chunk compile
// against a persistent one.
func runFile(cfg *config.Config, filename, src string, trace bool) error {
	code, err := bvm.Compile(src)
	if err != nil {
		return err
	}
	host := vm.NewStdHost()
	m := vm.New(code, host, cfg.VM.MaxStackDepth)
	m.Trace = trace
	return m.Run()
}

// compileAndRunWith compiles a chunk of source against syms and runs
// it against an existing machine, so REPL chunks share state: syms
// keeps a variable's slot stable across chunks, and the machine's
// locals/array table already persists across RunChunk calls, so
// together a variable set in one chunk is still readable by name in
// the next, the same statefulness the teacher's REPL gave its
// interpreter's globals across chunks.
func compileAndRunWith(m *vm.Machine, syms *bytecode.SymbolTable, src string) error {
	code, err := bvm.CompileWithSymbols(src, syms)
	if err != nil {
		return err
	}
	return m.RunChunk(code)
}
