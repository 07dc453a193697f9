package vm

import (
	"strconv"
	"strings"

	"github.com/cpp20120/BVM/bytecode"
)

// arith implements ADD/SUB/MUL/DIV with strict same-tag coercion:
// INT op INT produces INT, FLOAT op FLOAT produces FLOAT, any mixed
// or other combination is a type fault.
func (m *Machine) arith(op bytecode.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if a.Tag != b.Tag || (a.Tag != INT && a.Tag != FLOAT) {
		return &TypeFault{IP: m.ip, Expected: "INT or FLOAT (matching)", Actual: b.Tag}
	}
	if a.Tag == INT {
		var r int64
		switch op {
		case bytecode.ADD:
			r = a.Int + b.Int
		case bytecode.SUB:
			r = a.Int - b.Int
		case bytecode.MUL:
			r = a.Int * b.Int
		case bytecode.DIV:
			if b.Int == 0 {
				return &ArithmeticFault{IP: m.ip, Msg: "integer division by zero"}
			}
			r = a.Int / b.Int
		}
		return m.push(IntVal(r))
	}
	var r float64
	switch op {
	case bytecode.ADD:
		r = a.Float + b.Float
	case bytecode.SUB:
		r = a.Float - b.Float
	case bytecode.MUL:
		r = a.Float * b.Float
	case bytecode.DIV:
		r = a.Float / b.Float
	}
	return m.push(FloatVal(r))
}

// mod requires integer operands.
func (m *Machine) mod() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if a.Tag != INT || b.Tag != INT {
		return &TypeFault{IP: m.ip, Expected: "INT", Actual: b.Tag}
	}
	if b.Int == 0 {
		return &ArithmeticFault{IP: m.ip, Msg: "modulo by zero"}
	}
	return m.push(IntVal(a.Int % b.Int))
}

// neg requires a numeric operand.
func (m *Machine) neg() error {
	a, err := m.pop()
	if err != nil {
		return err
	}
	switch a.Tag {
	case INT:
		return m.push(IntVal(-a.Int))
	case FLOAT:
		return m.push(FloatVal(-a.Float))
	default:
		return &TypeFault{IP: m.ip, Expected: "INT or FLOAT", Actual: a.Tag}
	}
}

// boolBinary implements AND/OR, both of which strictly require BOOL.
func (m *Machine) boolBinary(op bytecode.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if a.Tag != BOOL {
		return &TypeFault{IP: m.ip, Expected: "BOOL", Actual: a.Tag}
	}
	if b.Tag != BOOL {
		return &TypeFault{IP: m.ip, Expected: "BOOL", Actual: b.Tag}
	}
	if op == bytecode.AND {
		return m.push(BoolVal(a.Bool && b.Bool))
	}
	return m.push(BoolVal(a.Bool || b.Bool))
}

// not strictly requires BOOL.
func (m *Machine) not() error {
	a, err := m.pop()
	if err != nil {
		return err
	}
	if a.Tag != BOOL {
		return &TypeFault{IP: m.ip, Expected: "BOOL", Actual: a.Tag}
	}
	return m.push(BoolVal(!a.Bool))
}

// cmp supports INT, FLOAT and STRING (lexicographic, byte-ordinal),
// pushing -1/0/1.
func (m *Machine) cmp() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if a.Tag != b.Tag {
		return &TypeFault{IP: m.ip, Expected: string(a.Tag), Actual: b.Tag}
	}
	var r int64
	switch a.Tag {
	case INT:
		r = int64(sign(a.Int - b.Int))
	case FLOAT:
		switch {
		case a.Float < b.Float:
			r = -1
		case a.Float > b.Float:
			r = 1
		}
	case STRING:
		r = int64(strings.Compare(a.Str, b.Str))
		r = int64(sign(r))
	default:
		return &TypeFault{IP: m.ip, Expected: "INT, FLOAT or STRING", Actual: a.Tag}
	}
	return m.push(IntVal(r))
}

func sign(v int64) int64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// eqNeq compares by structural value equality of the underlying
// payload regardless of tag.
func (m *Machine) eqNeq(op bytecode.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	eq := Equal(a, b)
	if op == bytecode.NEQ {
		eq = !eq
	}
	return m.push(BoolVal(eq))
}

// branch implements JZ/JNZ: JZ jumps if the popped condition is zero
// (INT 0 or BOOL false), JNZ the complement. Any other tag is a type
// fault.
func (m *Machine) branch(op bytecode.Op) error {
	rel, err := m.readInt16()
	if err != nil {
		return err
	}
	cond, err := m.pop()
	if err != nil {
		return err
	}
	truthy, ok := cond.Truthy()
	if !ok {
		return &TypeFault{IP: m.ip, Expected: "INT or BOOL", Actual: cond.Tag}
	}
	take := !truthy
	if op == bytecode.JNZ {
		take = truthy
	}
	if take {
		m.ip += int(rel)
	}
	return nil
}

// call reads a 32-bit absolute target, pops the argument count n,
// pops n arguments (last-pushed becomes local 0 via reverse fill),
// pushes a new frame with return_address = current IP, and jumps.
func (m *Machine) call() error {
	target, err := m.readInt32()
	if err != nil {
		return err
	}
	if int(target) < 0 || int(target) > len(m.code) {
		return &FrameFault{IP: m.ip, Msg: "call target out of range"}
	}
	argcVal, err := m.pop()
	if err != nil {
		return err
	}
	if argcVal.Tag != INT {
		return &TypeFault{IP: m.ip, Expected: "INT", Actual: argcVal.Tag}
	}
	n := int(argcVal.Int)
	f := newFrame(m.ip)
	for i := 0; i < n; i++ {
		v, err := m.pop()
		if err != nil {
			return err
		}
		f.locals[int32(i)] = v
	}
	m.frames = append(m.frames, f)
	m.ip = int(target)
	return nil
}

// ret pops the current frame and restores IP = frame.returnAddr.
// Returning with an empty frame stack is a fault.
func (m *Machine) ret() error {
	if len(m.frames) <= 1 {
		return &FrameFault{IP: m.ip, Msg: "return with no calling frame"}
	}
	f := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.ip = f.returnAddr
	return nil
}

// input prints a prompt, reads a line from the host; if parseable as
// an integer, pushes an INT, otherwise pushes the raw STRING.
func (m *Machine) input() error {
	m.host.Print("? ")
	line, err := m.host.ReadLine()
	if err != nil {
		return &MemoryFault{IP: m.ip, Msg: "input source exhausted: " + err.Error()}
	}
	if iv, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64); err == nil {
		return m.push(IntVal(iv))
	}
	return m.push(StringVal(line))
}

// newArray always tags the allocated array "any": NEWARRAY has no
// operand bytes in the bytecode format (size -> array only), so there
// is no element-type encoding to read one from.
func (m *Machine) newArray() error {
	sizeVal, err := m.pop()
	if err != nil {
		return err
	}
	if sizeVal.Tag != INT {
		return &TypeFault{IP: m.ip, Expected: "INT", Actual: sizeVal.Tag}
	}
	if sizeVal.Int < 0 {
		return &MemoryFault{IP: m.ip, Address: int(sizeVal.Int), Msg: "negative array size"}
	}
	elems := make([]Value, sizeVal.Int)
	for i := range elems {
		elems[i] = NullVal()
	}
	handle := len(m.arrays)
	m.arrays = append(m.arrays, &arrayObj{Elems: elems, ElemType: "any"})
	return m.push(ArrayVal(handle))
}

// getIndex expects [array, index] with index on top.
func (m *Machine) getIndex() error {
	idxVal, err := m.pop()
	if err != nil {
		return err
	}
	arrVal, err := m.pop()
	if err != nil {
		return err
	}
	if arrVal.Tag != ARRAY {
		return &TypeFault{IP: m.ip, Expected: "ARRAY", Actual: arrVal.Tag}
	}
	if idxVal.Tag != INT {
		return &TypeFault{IP: m.ip, Expected: "INT", Actual: idxVal.Tag}
	}
	elems := m.arrays[arrVal.Handle].Elems
	if idxVal.Int < 0 || int(idxVal.Int) >= len(elems) {
		return &MemoryFault{IP: m.ip, Address: int(idxVal.Int), Msg: "array index out of range"}
	}
	return m.push(elems[idxVal.Int])
}

// setIndex expects [array, index, value] with value on top. It does
// not re-push the array: mutation propagates through the shared
// reference in the side table.
func (m *Machine) setIndex() error {
	val, err := m.pop()
	if err != nil {
		return err
	}
	idxVal, err := m.pop()
	if err != nil {
		return err
	}
	arrVal, err := m.pop()
	if err != nil {
		return err
	}
	if arrVal.Tag != ARRAY {
		return &TypeFault{IP: m.ip, Expected: "ARRAY", Actual: arrVal.Tag}
	}
	if idxVal.Tag != INT {
		return &TypeFault{IP: m.ip, Expected: "INT", Actual: idxVal.Tag}
	}
	elems := m.arrays[arrVal.Handle].Elems
	if idxVal.Int < 0 || int(idxVal.Int) >= len(elems) {
		return &MemoryFault{IP: m.ip, Address: int(idxVal.Int), Msg: "array index out of range"}
	}
	elems[idxVal.Int] = val
	return nil
}
