package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/cpp20120/BVM/ir"
)

type fixup struct {
	pos   int // position of the 2-byte placeholder
	label string
}

// SymbolTable maps local variable names to slot indices. A fresh
// compile normally starts with an empty one, but a REPL session
// shares a single SymbolTable across every chunk it compiles, so a
// variable LET in one chunk resolves to the same slot the machine
// already holds it in when a later chunk reads it back.
type SymbolTable struct {
	locals   map[string]int32
	nextSlot int32
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{locals: map[string]int32{}}
}

func (s *SymbolTable) slotFor(name string) int32 {
	if slot, ok := s.locals[name]; ok {
		return slot
	}
	slot := s.nextSlot
	s.locals[name] = slot
	s.nextSlot++
	return slot
}

func (s *SymbolTable) slotOf(name string) (int32, bool) {
	slot, ok := s.locals[name]
	return slot, ok
}

// emitter is the per-compilation builder object: label table and
// fixup list live here; slot assignment lives on the SymbolTable so
// it can be shared or fresh depending on the caller.
type emitter struct {
	buf      []byte
	syms     *SymbolTable
	labelPos map[string]int
	fixups   []fixup
	seq      int
}

func newEmitter(syms *SymbolTable) *emitter {
	if syms == nil {
		syms = NewSymbolTable()
	}
	return &emitter{
		syms:     syms,
		labelPos: map[string]int{},
	}
}

// Emit lowers a flat IR program into a linear byte array with every
// jump/label resolved, using a fresh, throwaway symbol table. It
// always terminates the buffer with HALT.
func Emit(prog []ir.Node) ([]byte, error) {
	return EmitWithSymbols(prog, nil)
}

// EmitWithSymbols is Emit against a caller-supplied symbol table,
// letting a sequence of independently compiled chunks share local
// slot assignment the way a REPL session's chunks do.
func EmitWithSymbols(prog []ir.Node, syms *SymbolTable) ([]byte, error) {
	e := newEmitter(syms)
	for _, n := range prog {
		if err := e.emitStmt(n); err != nil {
			return nil, err
		}
	}
	e.byte(byte(HALT))
	if err := e.resolve(); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (e *emitter) byte(b byte)   { e.buf = append(e.buf, b) }
func (e *emitter) op(o Op)       { e.byte(byte(o)) }
func (e *emitter) pos() int      { return len(e.buf) }

func (e *emitter) int32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	e.buf = append(e.buf, b[:]...)
}

func (e *emitter) placeholder16(label string) {
	e.fixups = append(e.fixups, fixup{pos: e.pos(), label: label})
	e.buf = append(e.buf, 0, 0)
}

func (e *emitter) newLabel(prefix string) string {
	e.seq++
	return fmt.Sprintf("%s_%d", prefix, e.seq)
}

func (e *emitter) markLabel(name string) {
	e.labelPos[name] = e.pos()
}

func (e *emitter) resolve() error {
	for _, f := range e.fixups {
		target, ok := e.labelPos[f.label]
		if !ok {
			return &Fault{Msg: "unresolved label " + f.label}
		}
		rel := int32(target - (f.pos + 2))
		binary.LittleEndian.PutUint16(e.buf[f.pos:f.pos+2], uint16(int16(rel)))
	}
	return nil
}

func (e *emitter) slotFor(name string) int32 {
	return e.syms.slotFor(name)
}

func (e *emitter) slotOf(name string) (int32, error) {
	s, ok := e.syms.slotOf(name)
	if !ok {
		return 0, &Fault{Msg: "undefined variable " + name}
	}
	return s, nil
}

func (e *emitter) emitStmt(n ir.Node) error {
	switch s := n.(type) {
	case *ir.Let:
		if err := e.emitExpr(s.Value); err != nil {
			return err
		}
		slot := e.slotFor(s.Name)
		e.op(STORE)
		e.int32(slot)
		return nil

	case *ir.Print:
		if err := e.emitExpr(s.Value); err != nil {
			return err
		}
		e.op(PRINT)
		return nil

	case *ir.StoreIndex:
		if err := e.emitExpr(s.Target); err != nil {
			return err
		}
		if err := e.emitExpr(s.Index); err != nil {
			return err
		}
		if err := e.emitExpr(s.Value); err != nil {
			return err
		}
		e.op(SETINDEX)
		return nil

	case *ir.If:
		return e.emitIf(s)

	case *ir.While:
		return e.emitWhile(s)

	case *ir.Repeat:
		return e.emitRepeat(s)

	case *ir.For:
		return e.emitFor(s)

	case *ir.Input:
		for _, name := range s.Names {
			e.op(INPUT)
			slot := e.slotFor(name)
			e.op(STORE)
			e.int32(slot)
		}
		return nil

	case *ir.Goto:
		return &Fault{Msg: "unresolved control marker " + s.Label + " is reserved, not implemented"}

	default:
		return &Fault{Msg: "unsupported IR statement node"}
	}
}

func (e *emitter) emitBlock(stmts []ir.Node) error {
	for _, s := range stmts {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// IF cond THEN A ELSE B: cond; JZ else; A; JMP end; label else; B; label end.
func (e *emitter) emitIf(s *ir.If) error {
	if err := e.emitExpr(s.Cond); err != nil {
		return err
	}
	elseLabel := e.newLabel("else")
	endLabel := e.newLabel("endif")
	e.op(JZ)
	e.placeholder16(elseLabel)
	if err := e.emitBlock(s.Then); err != nil {
		return err
	}
	e.op(JMP)
	e.placeholder16(endLabel)
	e.markLabel(elseLabel)
	if err := e.emitBlock(s.Else); err != nil {
		return err
	}
	e.markLabel(endLabel)
	return nil
}

// WHILE cond DO A: label start; cond; JZ end; A; JMP start; label end.
func (e *emitter) emitWhile(s *ir.While) error {
	startLabel := e.newLabel("while")
	endLabel := e.newLabel("endwhile")
	e.markLabel(startLabel)
	if err := e.emitExpr(s.Cond); err != nil {
		return err
	}
	e.op(JZ)
	e.placeholder16(endLabel)
	if err := e.emitBlock(s.Body); err != nil {
		return err
	}
	e.op(JMP)
	e.placeholder16(startLabel)
	e.markLabel(endLabel)
	return nil
}

// REPEAT A UNTIL cond: label start; A; cond; JZ start.
func (e *emitter) emitRepeat(s *ir.Repeat) error {
	startLabel := e.newLabel("repeat")
	e.markLabel(startLabel)
	if err := e.emitBlock(s.Body); err != nil {
		return err
	}
	if err := e.emitExpr(s.Cond); err != nil {
		return err
	}
	e.op(JZ)
	e.placeholder16(startLabel)
	return nil
}

// FOR v = from TO to [STEP s] DO A: store from in v; label start; load v;
// emit to; emit step; ADD; CMP; JZ end; A; load v; emit step; ADD;
// store v; JMP start; label end. The loop exits once v equals to+step,
// so the body runs for `to` itself. Termination fires only on exact
// equality: a step that overshoots to+step never terminates.
func (e *emitter) emitFor(s *ir.For) error {
	if err := e.emitExpr(s.From); err != nil {
		return err
	}
	slot := e.slotFor(s.Var)
	e.op(STORE)
	e.int32(slot)

	startLabel := e.newLabel("for")
	endLabel := e.newLabel("endfor")
	e.markLabel(startLabel)

	e.op(LOAD)
	e.int32(slot)
	if err := e.emitExpr(s.To); err != nil {
		return err
	}
	if err := e.emitExpr(s.Step); err != nil {
		return err
	}
	e.op(ADD)
	e.op(CMP)
	e.op(JZ)
	e.placeholder16(endLabel)

	if err := e.emitBlock(s.Body); err != nil {
		return err
	}

	e.op(LOAD)
	e.int32(slot)
	if err := e.emitExpr(s.Step); err != nil {
		return err
	}
	e.op(ADD)
	e.op(STORE)
	e.int32(slot)
	e.op(JMP)
	e.placeholder16(startLabel)
	e.markLabel(endLabel)
	return nil
}

func (e *emitter) emitExpr(n ir.Node) error {
	switch x := n.(type) {
	case *ir.Const:
		return e.emitConst(x)

	case *ir.Var:
		slot, err := e.slotOf(x.Name)
		if err != nil {
			return err
		}
		e.op(LOAD)
		e.int32(slot)
		return nil

	case *ir.Binary:
		return e.emitBinary(x)

	case *ir.Unary:
		if err := e.emitExpr(x.Operand); err != nil {
			return err
		}
		switch x.Op {
		case "-":
			e.op(NEG)
		case "NOT":
			e.op(NOT)
		default:
			return &Fault{Msg: "unsupported unary operator " + x.Op}
		}
		return nil

	case *ir.Call:
		return &Fault{Msg: "builtin call " + x.Name + " not implemented"}

	case *ir.Index:
		if err := e.emitExpr(x.Target); err != nil {
			return err
		}
		if err := e.emitExpr(x.Index); err != nil {
			return err
		}
		e.op(GETINDEX)
		return nil

	case *ir.NewArray:
		if err := e.emitExpr(x.Size); err != nil {
			return err
		}
		e.op(NEWARRAY)
		return nil

	default:
		return &Fault{Msg: "unsupported IR expression node"}
	}
}

func (e *emitter) emitConst(c *ir.Const) error {
	switch c.Type {
	case ir.TInt:
		v, ok := c.Value.(int64)
		if !ok {
			return &Fault{Msg: "malformed int constant"}
		}
		e.op(PUSH)
		e.int32(int32(v))
		return nil
	case ir.TString:
		v, ok := c.Value.(string)
		if !ok {
			return &Fault{Msg: "malformed string constant"}
		}
		e.op(PUSHS)
		e.int32(int32(len(v)))
		e.buf = append(e.buf, v...)
		return nil
	case ir.TFloat:
		return &Fault{Msg: "float literal emission not implemented: no PUSH-equivalent opcode encodes FLOAT"}
	case ir.TBool:
		v, _ := c.Value.(bool)
		iv := int32(0)
		if v {
			iv = 1
		}
		e.op(PUSH)
		e.int32(iv)
		return nil
	default:
		return &Fault{Msg: "unsupported constant type " + string(c.Type)}
	}
}

// emitBinary implements the direct-mapped operators plus the
// CMP-based expansion for the four relational operators the VM has no
// dedicated opcode for.
func (e *emitter) emitBinary(b *ir.Binary) error {
	if err := e.emitExpr(b.Left); err != nil {
		return err
	}
	if err := e.emitExpr(b.Right); err != nil {
		return err
	}
	switch b.Op {
	case "+":
		e.op(ADD)
	case "-":
		e.op(SUB)
	case "*":
		e.op(MUL)
	case "/":
		e.op(DIV)
	case "%":
		e.op(MOD)
	case "==":
		e.op(EQ)
	case "!=":
		e.op(NEQ)
	case "AND":
		e.op(AND)
	case "OR":
		e.op(OR)
	case "<":
		e.op(CMP)
		e.op(PUSH)
		e.int32(-1)
		e.op(EQ)
	case ">":
		e.op(CMP)
		e.op(PUSH)
		e.int32(1)
		e.op(EQ)
	case "<=":
		e.op(CMP)
		e.op(DUP)
		e.op(PUSH)
		e.int32(-1)
		e.op(EQ)
		e.op(SWAP)
		e.op(PUSH)
		e.int32(0)
		e.op(EQ)
		e.op(OR)
	case ">=":
		e.op(CMP)
		e.op(DUP)
		e.op(PUSH)
		e.int32(1)
		e.op(EQ)
		e.op(SWAP)
		e.op(PUSH)
		e.int32(0)
		e.op(EQ)
		e.op(OR)
	case "^":
		return &Fault{Msg: "operator ^ not implemented: no exponent opcode in the bytecode format"}
	default:
		return &Fault{Msg: "unsupported binary operator " + b.Op}
	}
	return nil
}
