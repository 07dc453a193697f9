package vm

import (
	"encoding/binary"
	"testing"

	bvm "github.com/cpp20120/BVM"
	"github.com/cpp20120/BVM/bytecode"
)

func runSrc(t *testing.T, src string, input []string) (*BufferHost, error) {
	t.Helper()
	code, err := bvm.Compile(src)
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	host := NewBufferHost(input)
	m := New(code, host, 0)
	return host, m.Run()
}

func TestRunArithmeticPrecedence(t *testing.T) {
	host, err := runSrc(t, "LET X = 2 + 3 * 4\nPRINT X\n", nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	want := []string{"14"}
	assertLines(t, host.Lines, want)
}

func TestRunWhileLoop(t *testing.T) {
	host, err := runSrc(t, "LET I = 0\nWHILE I < 3\nPRINT I\nLET I = I + 1\nWEND\n", nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"0", "1", "2"})
}

func TestRunForLoop(t *testing.T) {
	host, err := runSrc(t, "FOR I = 1 TO 3\nPRINT I\nNEXT I\n", nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"1", "2", "3"})
}

func TestRunArraySumAndReferenceSemantics(t *testing.T) {
	src := `LET A = ARRAY(3)
LET A[0] = 10
LET A[1] = 20
LET A[2] = 30
LET S = 0
LET I = 0
WHILE I < 3
LET S = S + A[I]
LET I = I + 1
WEND
PRINT S
`
	host, err := runSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"60"})
}

func TestRunIfElseTrueBranch(t *testing.T) {
	src := "LET X = 5\nIF X > 3 THEN\nPRINT \"big\"\nELSE\nPRINT \"small\"\nEND IF\n"
	host, err := runSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"big"})
}

func TestRunRepeatUntil(t *testing.T) {
	src := "REPEAT\nPRINT \"x\"\nLET Z = 1\nUNTIL Z\n"
	host, err := runSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"x"})
}

func TestRunLessEqualBoundary(t *testing.T) {
	src := "LET A = 3\nLET B = 3\nIF A <= B THEN\nPRINT \"le\"\nELSE\nPRINT \"gt\"\nEND IF\n"
	host, err := runSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"le"})
}

func TestRunGreaterEqualBoundary(t *testing.T) {
	src := "LET A = 4\nLET B = 3\nIF A >= B THEN\nPRINT \"ge\"\nELSE\nPRINT \"lt\"\nEND IF\n"
	host, err := runSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"ge"})
}

func TestRunLessEqualFalseCase(t *testing.T) {
	src := "LET A = 5\nLET B = 3\nIF A <= B THEN\nPRINT \"le\"\nELSE\nPRINT \"gt\"\nEND IF\n"
	host, err := runSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"gt"})
}

func TestRunInputParsesIntegers(t *testing.T) {
	host, err := runSrc(t, "INPUT N\nPRINT N\n", []string{"42"})
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"? ", "42"})
}

func TestRunInputFallsBackToString(t *testing.T) {
	host, err := runSrc(t, "INPUT N\nPRINT N\n", []string{"hello"})
	if err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"? ", "hello"})
}

func TestRunDivisionByZeroIsArithmeticFault(t *testing.T) {
	_, err := runSrc(t, "LET X = 1 / 0\nPRINT X\n", nil)
	if err == nil {
		t.Fatal("expected an ArithmeticFault")
	}
	if _, ok := err.(*ArithmeticFault); !ok {
		t.Fatalf("err = %T, want *ArithmeticFault", err)
	}
}

func TestRunTypeMismatchInArithIsTypeFault(t *testing.T) {
	code, err := bvm.Compile("LET X = 1 + \"a\"\nPRINT X\n")
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	m := New(code, NewBufferHost(nil), 0)
	err = m.Run()
	if err == nil {
		t.Fatal("expected a TypeFault")
	}
	if _, ok := err.(*TypeFault); !ok {
		t.Fatalf("err = %T, want *TypeFault", err)
	}
}

func TestRunArrayIndexOutOfRangeIsMemoryFault(t *testing.T) {
	_, err := runSrc(t, "LET A = ARRAY(2)\nPRINT A[5]\n", nil)
	if err == nil {
		t.Fatal("expected a MemoryFault")
	}
	if _, ok := err.(*MemoryFault); !ok {
		t.Fatalf("err = %T, want *MemoryFault", err)
	}
}

func TestRunChunkPreservesLocalsAcrossChunks(t *testing.T) {
	syms := bytecode.NewSymbolTable()
	code1, err := bvm.CompileWithSymbols("LET X = 5\n", syms)
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	host := NewBufferHost(nil)
	m := New(code1, host, 0)
	if err := m.Run(); err != nil {
		t.Fatalf("Run (chunk 1): unexpected error: %v", err)
	}

	// A REPL session shares one SymbolTable across chunks: chunk 2
	// resolves X to the same slot chunk 1 stored it in, without
	// re-declaring it.
	code2, err := bvm.CompileWithSymbols("PRINT X\n", syms)
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	if err := m.RunChunk(code2); err != nil {
		t.Fatalf("RunChunk (chunk 2): unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"5"})
}

func TestRunChunkWithoutSharedSymbolsForgetsLocals(t *testing.T) {
	// Without a shared SymbolTable, each Compile starts from an empty
	// table: chunk 2's PRINT X refers to a name that chunk 2's own
	// table never saw, an undefined-variable emission fault even
	// though chunk 1 already stored a value in that slot.
	code1, err := bvm.Compile("LET X = 5\n")
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	host := NewBufferHost(nil)
	m := New(code1, host, 0)
	if err := m.Run(); err != nil {
		t.Fatalf("Run (chunk 1): unexpected error: %v", err)
	}
	if _, err := bvm.Compile("PRINT X\n"); err == nil {
		t.Fatal("expected an undefined-variable fault without a shared symbol table")
	}
}

func TestRunChunkPreservesArrayHandlesAcrossChunks(t *testing.T) {
	syms := bytecode.NewSymbolTable()
	code1, err := bvm.CompileWithSymbols("LET A = ARRAY(2)\nLET A[0] = 9\n", syms)
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	host := NewBufferHost(nil)
	m := New(code1, host, 0)
	if err := m.Run(); err != nil {
		t.Fatalf("Run (chunk 1): unexpected error: %v", err)
	}

	code2, err := bvm.CompileWithSymbols("PRINT A[0]\n", syms)
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	if err := m.RunChunk(code2); err != nil {
		t.Fatalf("RunChunk (chunk 2): unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"9"})
}

func TestRetWithNoCallingFrameIsFrameFault(t *testing.T) {
	m := New([]byte{}, NewBufferHost(nil), 0)
	if err := m.ret(); err == nil {
		t.Fatal("expected a FrameFault")
	} else if _, ok := err.(*FrameFault); !ok {
		t.Fatalf("err = %T, want *FrameFault", err)
	}
}

// No parser-emitted bytecode reaches CALL, so this test hand-assembles
// a chunk that pushes two arguments, calls a function, and prints
// local 0 to confirm the last-pushed argument (not the first) lands
// there.
func TestCallMapsLastPushedArgumentToLocalZero(t *testing.T) {
	var code []byte
	appendOp := func(op bytecode.Op) { code = append(code, byte(op)) }
	appendI32 := func(v int32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		code = append(code, b[:]...)
	}

	appendOp(bytecode.PUSH)
	appendI32(10) // first-pushed argument
	appendOp(bytecode.PUSH)
	appendI32(20) // last-pushed argument
	appendOp(bytecode.PUSH)
	appendI32(2) // argc
	appendOp(bytecode.CALL)
	targetPos := len(code)
	appendI32(0) // patched once funcAddr is known
	appendOp(bytecode.HALT)

	funcAddr := len(code)
	appendOp(bytecode.LOAD)
	appendI32(0)
	appendOp(bytecode.PRINT)
	appendOp(bytecode.RET)

	binary.LittleEndian.PutUint32(code[targetPos:targetPos+4], uint32(funcAddr))

	host := NewBufferHost(nil)
	m := New(code, host, 0)
	if err := m.Run(); err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
	assertLines(t, host.Lines, []string{"20"})
}

func TestBadOpcodeFault(t *testing.T) {
	m := New([]byte{0xFF}, NewBufferHost(nil), 0)
	err := m.Run()
	if err == nil {
		t.Fatal("expected a BadOpcodeFault")
	}
	if _, ok := err.(*BadOpcodeFault); !ok {
		t.Fatalf("err = %T, want *BadOpcodeFault", err)
	}
}

func TestStackDepthCap(t *testing.T) {
	m := New([]byte{}, NewBufferHost(nil), 2)
	if err := m.push(IntVal(1)); err != nil {
		t.Fatalf("push 1: unexpected error: %v", err)
	}
	if err := m.push(IntVal(2)); err != nil {
		t.Fatalf("push 2: unexpected error: %v", err)
	}
	if err := m.push(IntVal(3)); err == nil {
		t.Fatal("expected a StackFault at depth cap")
	} else if _, ok := err.(*StackFault); !ok {
		t.Fatalf("err = %T, want *StackFault", err)
	}
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("line[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
