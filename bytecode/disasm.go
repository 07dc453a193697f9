package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble walks an emitted program and renders one line per
// instruction as "<offset>: <mnemonic> <operand>", resolving relative
// jump targets back to absolute byte offsets.
func Disassemble(code []byte) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(code) {
		off := i
		op := Op(code[i])
		i++
		switch op {
		case PUSH, STORE, LOAD, CALL:
			if i+4 > len(code) {
				return "", &Fault{Msg: fmt.Sprintf("truncated operand at offset %d", off)}
			}
			v := int32(binary.LittleEndian.Uint32(code[i : i+4]))
			fmt.Fprintf(&out, "%4d: %s %d\n", off, op, v)
			i += 4

		case JMP, JZ, JNZ:
			if i+2 > len(code) {
				return "", &Fault{Msg: fmt.Sprintf("truncated operand at offset %d", off)}
			}
			rel := int16(binary.LittleEndian.Uint16(code[i : i+2]))
			target := i + 2 + int(rel)
			fmt.Fprintf(&out, "%4d: %s %d (-> %d)\n", off, op, rel, target)
			i += 2

		case PUSHS:
			if i+4 > len(code) {
				return "", &Fault{Msg: fmt.Sprintf("truncated operand at offset %d", off)}
			}
			n := int(binary.LittleEndian.Uint32(code[i : i+4]))
			i += 4
			if i+n > len(code) {
				return "", &Fault{Msg: fmt.Sprintf("truncated string operand at offset %d", off)}
			}
			s := string(code[i : i+n])
			fmt.Fprintf(&out, "%4d: %s %q\n", off, op, s)
			i += n

		default:
			fmt.Fprintf(&out, "%4d: %s\n", off, op)
		}
	}
	return out.String(), nil
}
