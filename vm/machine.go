package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/cpp20120/BVM/bytecode"
)

const defaultStackDepth = 1024

type frame struct {
	returnAddr int
	locals     map[int32]Value
}

func newFrame(returnAddr int) *frame {
	return &frame{returnAddr: returnAddr, locals: map[int32]Value{}}
}

// arrayObj is the array side-table entry an ARRAY Value's Handle
// indexes into. ElemType is a declared element-type tag on the
// runtime value; NEWARRAY's bytecode encoding has no operand to
// supply one, so it is always "any".
type arrayObj struct {
	Elems    []Value
	ElemType string
}

// Machine is the stack-based interpreter. It is not safe for
// concurrent use from multiple goroutines: the dispatcher and every
// instruction handler mutate the same data stack, frame stack and
// array table with no synchronization.
type Machine struct {
	code  []byte
	ip    int
	stack []Value
	frames []*frame
	arrays []*arrayObj

	host     Host
	maxDepth int
	Trace    bool
}

// New builds a machine ready to run code against host, with the data
// stack capped at maxDepth (0 selects the default of 1024, per the
// data model's "may cap depth" allowance).
func New(code []byte, host Host, maxDepth int) *Machine {
	if maxDepth <= 0 {
		maxDepth = defaultStackDepth
	}
	m := &Machine{
		code:     code,
		host:     host,
		maxDepth: maxDepth,
	}
	m.frames = []*frame{newFrame(-1)}
	return m
}

func (m *Machine) curFrame() *frame { return m.frames[len(m.frames)-1] }

func (m *Machine) push(v Value) error {
	if len(m.stack) >= m.maxDepth {
		return &StackFault{IP: m.ip, Msg: "stack depth exceeded"}
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *Machine) pop() (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, &StackFault{IP: m.ip, Msg: "pop from empty stack"}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// Stack returns the data stack top-to-bottom, for REPL introspection.
func (m *Machine) Stack() []Value {
	out := make([]Value, len(m.stack))
	for i := range m.stack {
		out[i] = m.stack[len(m.stack)-1-i]
	}
	return out
}

// Globals returns frame-0's locals, keyed by slot index, for REPL
// introspection. Only meaningful when there is exactly one frame.
func (m *Machine) Globals() map[int32]Value {
	if len(m.frames) == 0 {
		return nil
	}
	root := m.frames[0]
	out := make(map[int32]Value, len(root.locals))
	for k, v := range root.locals {
		out[k] = v
	}
	return out
}

func (m *Machine) readByte() (byte, error) {
	if m.ip >= len(m.code) {
		return 0, &MemoryFault{IP: m.ip, Address: m.ip, Msg: "read past end of bytecode"}
	}
	b := m.code[m.ip]
	m.ip++
	return b, nil
}

func (m *Machine) readInt32() (int32, error) {
	if m.ip+4 > len(m.code) {
		return 0, &MemoryFault{IP: m.ip, Address: m.ip, Msg: "truncated int32 operand"}
	}
	v := int32(binary.LittleEndian.Uint32(m.code[m.ip : m.ip+4]))
	m.ip += 4
	return v, nil
}

func (m *Machine) readInt16() (int16, error) {
	if m.ip+2 > len(m.code) {
		return 0, &MemoryFault{IP: m.ip, Address: m.ip, Msg: "truncated int16 operand"}
	}
	v := int16(binary.LittleEndian.Uint16(m.code[m.ip : m.ip+2]))
	m.ip += 2
	return v, nil
}

func (m *Machine) readBytes(n int) ([]byte, error) {
	if m.ip+n > len(m.code) {
		return nil, &MemoryFault{IP: m.ip, Address: m.ip, Msg: "truncated string operand"}
	}
	b := m.code[m.ip : m.ip+n]
	m.ip += n
	return b, nil
}

// RunChunk swaps in a newly compiled chunk of bytecode and runs it to
// completion, keeping the data stack, frame stack and array table
// from any prior chunk. This is what gives a REPL session state
// across chunks: locals and array handles persist between calls.
func (m *Machine) RunChunk(code []byte) error {
	m.code = code
	m.ip = 0
	return m.Run()
}

// Run executes fetch/decode/dispatch until HALT or a fault. A HALT
// signal is normal termination and returns nil.
func (m *Machine) Run() error {
	for {
		halted, err := m.step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

func (m *Machine) step() (halted bool, err error) {
	startIP := m.ip
	opByte, err := m.readByte()
	if err != nil {
		return false, err
	}
	op := bytecode.Op(opByte)

	if m.Trace {
		fmt.Printf("trace ip=%d op=%s depth=%d\n", startIP, op, len(m.stack))
	}

	switch op {
	case bytecode.PUSH:
		v, err := m.readInt32()
		if err != nil {
			return false, err
		}
		return false, m.push(IntVal(int64(v)))

	case bytecode.PUSHS:
		n, err := m.readInt32()
		if err != nil {
			return false, err
		}
		raw, err := m.readBytes(int(n))
		if err != nil {
			return false, err
		}
		return false, m.push(StringVal(string(raw)))

	case bytecode.POP:
		_, err := m.pop()
		return false, err

	case bytecode.DUP:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		if err := m.push(v); err != nil {
			return false, err
		}
		return false, m.push(v)

	case bytecode.SWAP:
		b, err := m.pop()
		if err != nil {
			return false, err
		}
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		if err := m.push(b); err != nil {
			return false, err
		}
		return false, m.push(a)

	case bytecode.OVER:
		b, err := m.pop()
		if err != nil {
			return false, err
		}
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		if err := m.push(a); err != nil {
			return false, err
		}
		if err := m.push(b); err != nil {
			return false, err
		}
		return false, m.push(a)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV:
		return false, m.arith(op)

	case bytecode.MOD:
		return false, m.mod()

	case bytecode.NEG:
		return false, m.neg()

	case bytecode.AND, bytecode.OR:
		return false, m.boolBinary(op)

	case bytecode.NOT:
		return false, m.not()

	case bytecode.CMP:
		return false, m.cmp()

	case bytecode.EQ, bytecode.NEQ:
		return false, m.eqNeq(op)

	case bytecode.STORE:
		slot, err := m.readInt32()
		if err != nil {
			return false, err
		}
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.curFrame().locals[slot] = v
		return false, nil

	case bytecode.LOAD:
		slot, err := m.readInt32()
		if err != nil {
			return false, err
		}
		v, ok := m.curFrame().locals[slot]
		if !ok {
			return false, &MemoryFault{IP: startIP, Address: int(slot), Msg: "local slot not defined"}
		}
		return false, m.push(v)

	case bytecode.JMP:
		rel, err := m.readInt16()
		if err != nil {
			return false, err
		}
		m.ip += int(rel)
		return false, nil

	case bytecode.JZ, bytecode.JNZ:
		return false, m.branch(op)

	case bytecode.CALL:
		return false, m.call()

	case bytecode.RET:
		return false, m.ret()

	case bytecode.PRINT:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.host.Print(v.String(m))
		return false, nil

	case bytecode.INPUT:
		return false, m.input()

	case bytecode.HALT:
		return true, nil

	case bytecode.NEWARRAY:
		return false, m.newArray()

	case bytecode.GETINDEX:
		return false, m.getIndex()

	case bytecode.SETINDEX:
		return false, m.setIndex()

	default:
		return false, &BadOpcodeFault{IP: startIP, Op: opByte}
	}
}
