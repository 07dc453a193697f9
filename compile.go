// Package bvm ties the lexer, parser, IR lowerer and bytecode emitter
// into a single Compile entry point.
package bvm

import (
	"github.com/cpp20120/BVM/bytecode"
	"github.com/cpp20120/BVM/ir"
	"github.com/cpp20120/BVM/lexer"
	"github.com/cpp20120/BVM/parser"
)

// Compile runs a source string through every stage up to and
// including bytecode emission: tokenize, parse, lower, emit.
func Compile(source string) ([]byte, error) {
	return CompileWithSymbols(source, nil)
}

// CompileWithSymbols is Compile against a caller-supplied symbol
// table, so a sequence of independently compiled chunks can share
// local-slot assignment. The REPL uses this to give a variable set in
// one chunk the same slot a later chunk resolves it to by name.
func CompileWithSymbols(source string, syms *bytecode.SymbolTable) ([]byte, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	prog, err := parser.ParseProgram(toks)
	if err != nil {
		return nil, err
	}
	nodes, err := ir.Lower(prog)
	if err != nil {
		return nil, err
	}
	return bytecode.EmitWithSymbols(nodes, syms)
}
