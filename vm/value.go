// Package vm implements the stack-based interpreter that executes
// bytecode emitted by the bytecode package.
package vm

import (
	"fmt"
	"strings"
)

type Tag string

const (
	INT    Tag = "INT"
	FLOAT  Tag = "FLOAT"
	STRING Tag = "STRING"
	BOOL   Tag = "BOOL"
	ARRAY  Tag = "ARRAY"
	NULL   Tag = "NULL"
)

// Value is the tagged runtime union. Array is a reference type: it
// carries a handle into the machine's array side table rather than
// its elements, so copying a Value copies only the handle.
type Value struct {
	Tag    Tag
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Handle int
}

func IntVal(v int64) Value      { return Value{Tag: INT, Int: v} }
func FloatVal(v float64) Value  { return Value{Tag: FLOAT, Float: v} }
func StringVal(v string) Value  { return Value{Tag: STRING, Str: v} }
func BoolVal(v bool) Value      { return Value{Tag: BOOL, Bool: v} }
func NullVal() Value            { return Value{Tag: NULL} }
func ArrayVal(handle int) Value { return Value{Tag: ARRAY, Handle: handle} }

// Truthy implements the JZ/JNZ branch test: zero INT or false BOOL is
// falsy; any other tag is a type fault for the caller to raise.
func (v Value) Truthy() (bool, bool) {
	switch v.Tag {
	case INT:
		return v.Int != 0, true
	case BOOL:
		return v.Bool, true
	default:
		return false, false
	}
}

// String renders the canonical textual form PRINT writes to the host
// sink. Arrays render as "[e0, e1, ...]"; the machine reference is
// needed to look elements up in the side table.
func (v Value) String(m *Machine) string {
	switch v.Tag {
	case INT:
		return fmt.Sprintf("%d", v.Int)
	case FLOAT:
		return fmt.Sprintf("%g", v.Float)
	case STRING:
		return v.Str
	case BOOL:
		if v.Bool {
			return "true"
		}
		return "false"
	case NULL:
		return "null"
	case ARRAY:
		if m == nil {
			return "[array]"
		}
		elems := m.arrays[v.Handle].Elems
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String(m)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

// Equal implements EQ/NEQ's structural comparison of the underlying
// payload, regardless of tag: an INT 1 and a FLOAT 1.0 are not equal
// (different payload types), matching a strict structural comparison.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case INT:
		return a.Int == b.Int
	case FLOAT:
		return a.Float == b.Float
	case STRING:
		return a.Str == b.Str
	case BOOL:
		return a.Bool == b.Bool
	case ARRAY:
		return a.Handle == b.Handle
	case NULL:
		return true
	default:
		return false
	}
}
