package bytecode

import (
	"testing"

	"github.com/cpp20120/BVM/ir"
)

func TestEmitConstIntAndHalt(t *testing.T) {
	code, err := Emit([]ir.Node{&ir.Print{Value: &ir.Const{Value: int64(42), Type: ir.TInt}}})
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	if Op(code[0]) != PUSH {
		t.Fatalf("code[0] = %s, want PUSH", Op(code[0]))
	}
	if code[len(code)-1] != byte(HALT) {
		t.Fatalf("last byte = 0x%02x, want HALT", code[len(code)-1])
	}
}

func TestEmitFloatConstIsNotImplemented(t *testing.T) {
	_, err := Emit([]ir.Node{&ir.Print{Value: &ir.Const{Value: 3.5, Type: ir.TFloat}}})
	if err == nil {
		t.Fatal("expected a Fault: no PUSH-equivalent opcode encodes FLOAT")
	}
}

func TestEmitExponentOperatorIsNotImplemented(t *testing.T) {
	bin := &ir.Binary{
		Op:    "^",
		Left:  &ir.Const{Value: int64(2), Type: ir.TInt},
		Right: &ir.Const{Value: int64(3), Type: ir.TInt},
	}
	_, err := Emit([]ir.Node{&ir.Print{Value: bin}})
	if err == nil {
		t.Fatal("expected a Fault: no exponent opcode in the bytecode format")
	}
}

func TestEmitUndefinedVariableIsFault(t *testing.T) {
	_, err := Emit([]ir.Node{&ir.Print{Value: &ir.Var{Name: "undefined"}}})
	if err == nil {
		t.Fatal("expected a Fault for an undefined variable read")
	}
}

func TestEmitLetAssignsMonotonicSlots(t *testing.T) {
	prog := []ir.Node{
		&ir.Let{Name: "a", Value: &ir.Const{Value: int64(1), Type: ir.TInt}},
		&ir.Let{Name: "b", Value: &ir.Const{Value: int64(2), Type: ir.TInt}},
		&ir.Let{Name: "a", Value: &ir.Const{Value: int64(3), Type: ir.TInt}},
	}
	e := newEmitter(nil)
	for _, n := range prog {
		if err := e.emitStmt(n); err != nil {
			t.Fatalf("emitStmt: unexpected error: %v", err)
		}
	}
	if e.syms.locals["a"] != 0 {
		t.Errorf("slot(a) = %d, want 0", e.syms.locals["a"])
	}
	if e.syms.locals["b"] != 1 {
		t.Errorf("slot(b) = %d, want 1 (re-using LET a must not allocate a new slot)", e.syms.locals["b"])
	}
	if e.syms.nextSlot != 2 {
		t.Errorf("nextSlot = %d, want 2", e.syms.nextSlot)
	}
}

func TestEmitIfProducesResolvedJump(t *testing.T) {
	ifNode := &ir.If{
		Cond: &ir.Const{Value: int64(1), Type: ir.TInt},
		Then: []ir.Node{&ir.Print{Value: &ir.Const{Value: int64(1), Type: ir.TInt}}},
		Else: []ir.Node{&ir.Print{Value: &ir.Const{Value: int64(2), Type: ir.TInt}}},
	}
	code, err := Emit([]ir.Node{ifNode})
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	disasm, err := Disassemble(code)
	if err != nil {
		t.Fatalf("Disassemble: unexpected error: %v", err)
	}
	if disasm == "" {
		t.Fatal("Disassemble returned empty output")
	}
}

func TestEmitWhileLoopsBack(t *testing.T) {
	whileNode := &ir.While{
		Cond: &ir.Const{Value: int64(1), Type: ir.TInt},
		Body: []ir.Node{&ir.Print{Value: &ir.Const{Value: int64(1), Type: ir.TInt}}},
	}
	code, err := Emit([]ir.Node{whileNode})
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	var sawJmp bool
	for _, b := range code {
		if Op(b) == JMP {
			sawJmp = true
		}
	}
	if !sawJmp {
		t.Fatal("expected a JMP back to the loop head")
	}
}

func TestEmitLessThanUsesCmpExpansion(t *testing.T) {
	bin := &ir.Binary{Op: "<", Left: &ir.Const{Value: int64(1), Type: ir.TInt}, Right: &ir.Const{Value: int64(2), Type: ir.TInt}}
	code, err := Emit([]ir.Node{&ir.Print{Value: bin}})
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	if !containsOp(code, CMP) || !containsOp(code, EQ) {
		t.Fatalf("expected CMP and EQ in the '<' expansion")
	}
}

func TestEmitLessEqualUsesDupSwapExpansion(t *testing.T) {
	bin := &ir.Binary{Op: "<=", Left: &ir.Const{Value: int64(1), Type: ir.TInt}, Right: &ir.Const{Value: int64(2), Type: ir.TInt}}
	code, err := Emit([]ir.Node{&ir.Print{Value: bin}})
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	for _, want := range []Op{CMP, DUP, SWAP, OR} {
		if !containsOp(code, want) {
			t.Errorf("expected %s in the '<=' expansion", want)
		}
	}
}

func TestEmitWithSymbolsSharesSlotsAcrossCalls(t *testing.T) {
	syms := NewSymbolTable()
	_, err := EmitWithSymbols([]ir.Node{
		&ir.Let{Name: "x", Value: &ir.Const{Value: int64(5), Type: ir.TInt}},
	}, syms)
	if err != nil {
		t.Fatalf("Emit chunk 1: unexpected error: %v", err)
	}
	// A second, independently emitted chunk resolves x by name
	// against the same table rather than raising "undefined variable".
	_, err = EmitWithSymbols([]ir.Node{
		&ir.Print{Value: &ir.Var{Name: "x"}},
	}, syms)
	if err != nil {
		t.Fatalf("Emit chunk 2: unexpected error: %v", err)
	}
}

func TestEmitWithoutSharedSymbolsForgetsVariables(t *testing.T) {
	_, err := Emit([]ir.Node{&ir.Let{Name: "x", Value: &ir.Const{Value: int64(5), Type: ir.TInt}}})
	if err != nil {
		t.Fatalf("Emit chunk 1: unexpected error: %v", err)
	}
	_, err = Emit([]ir.Node{&ir.Print{Value: &ir.Var{Name: "x"}}})
	if err == nil {
		t.Fatal("expected an undefined-variable Fault: Emit starts a fresh table each call")
	}
}

func TestEmitUnresolvedLabelIsFault(t *testing.T) {
	e := newEmitter(nil)
	e.op(JMP)
	e.placeholder16("nowhere")
	e.op(HALT)
	if err := e.resolve(); err == nil {
		t.Fatal("expected a Fault for an unresolved label")
	}
}

func TestDisassembleRoundTripsPushAndPushs(t *testing.T) {
	prog := []ir.Node{
		&ir.Print{Value: &ir.Const{Value: int64(7), Type: ir.TInt}},
		&ir.Print{Value: &ir.Const{Value: "hi", Type: ir.TString}},
	}
	code, err := Emit(prog)
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	out, err := Disassemble(code)
	if err != nil {
		t.Fatalf("Disassemble: unexpected error: %v", err)
	}
	if !containsSubstr(out, "PUSH 7") {
		t.Errorf("disassembly missing PUSH 7: %s", out)
	}
	if !containsSubstr(out, `PUSHS "hi"`) {
		t.Errorf("disassembly missing PUSHS %q: %s", "hi", out)
	}
}

func TestEmitNewArrayHasNoOperandBytes(t *testing.T) {
	prog := []ir.Node{
		&ir.Let{
			Name: "a",
			Value: &ir.NewArray{
				Size:        &ir.Const{Value: int64(3), Type: ir.TInt},
				ElementType: "any",
			},
		},
	}
	code, err := Emit(prog)
	if err != nil {
		t.Fatalf("Emit: unexpected error: %v", err)
	}
	// NEWARRAY (size on the stack -> array) is followed directly by
	// the next instruction, with no length-prefixed operand in between;
	// here that is the Let's STORE into a's slot.
	for i, b := range code {
		if Op(b) == NEWARRAY {
			if i+1 >= len(code) {
				t.Fatalf("NEWARRAY is the last byte, expected STORE to follow")
			}
			if Op(code[i+1]) != STORE {
				t.Fatalf("byte after NEWARRAY = 0x%02x, want STORE immediately after (no operand)", code[i+1])
			}
		}
	}
}

func containsOp(code []byte, want Op) bool {
	for _, b := range code {
		if Op(b) == want {
			return true
		}
	}
	return false
}

func containsSubstr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
