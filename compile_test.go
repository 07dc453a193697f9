package bvm

import (
	"testing"

	"github.com/cpp20120/BVM/bytecode"
)

func TestCompileProducesRunnableBytecode(t *testing.T) {
	code, err := Compile("LET X = 2 + 3 * 4\nPRINT X\n")
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	if len(code) == 0 {
		t.Fatal("Compile returned empty bytecode")
	}
	if code[len(code)-1] != 0x52 { // bytecode.HALT
		t.Errorf("last byte = 0x%02x, want HALT (0x52)", code[len(code)-1])
	}
}

func TestCompileTokenizeFailurePropagates(t *testing.T) {
	_, err := Compile("LET X = @\n")
	if err == nil {
		t.Fatal("expected a tokenization error for '@'")
	}
}

func TestCompileParseFailurePropagates(t *testing.T) {
	_, err := Compile("IF X > 3\nEND IF\n")
	if err == nil {
		t.Fatal("expected a parse error for a missing THEN")
	}
}

func TestCompileEmissionFailurePropagates(t *testing.T) {
	_, err := Compile("PRINT UNDEFINED\n")
	if err == nil {
		t.Fatal("expected an emission error for an undefined variable")
	}
}

func TestCompileWithSymbolsSharesSlotsAcrossChunks(t *testing.T) {
	syms := bytecode.NewSymbolTable()
	if _, err := CompileWithSymbols("LET X = 1\n", syms); err != nil {
		t.Fatalf("chunk 1: unexpected error: %v", err)
	}
	if _, err := CompileWithSymbols("PRINT X\n", syms); err != nil {
		t.Fatalf("chunk 2: unexpected error: %v", err)
	}
}
