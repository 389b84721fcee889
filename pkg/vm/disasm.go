package vm

import (
	"fmt"
	"strings"

	"classvm/pkg/classfile"
)

// Disassemble walks method's code array one instruction at a time and
// returns a human-readable listing, one line per instruction, each
// prefixed with its byte offset. It never executes anything and
// advances by the same operandWidth table the dispatch loop uses to
// accept or reject an opcode.
func Disassemble(method *classfile.Method) string {
	var b strings.Builder
	code := method.Code
	for pc := uint32(0); pc < uint32(len(code)); {
		op := Opcode(code[pc])
		width, ok := operandWidth[op]
		if !ok {
			fmt.Fprintf(&b, "  %4d: unknown 0x%02x\n", pc, byte(op))
			pc++
			continue
		}

		fmt.Fprintf(&b, "  %4d: %s%s\n", pc, Mnemonic(op), operandText(op, code, pc, width))
		pc += uint32(width) + 1
	}
	return b.String()
}

// operandText formats the immediate operand of op, if any, the way a
// disassembly reader expects: signed branch targets resolved to an
// absolute address, signed byte/short immediates printed as decimal,
// everything else as a bare index.
func operandText(op Opcode, code []byte, opAt uint32, width int) string {
	if width == 0 {
		return ""
	}
	switch op {
	case OpBipush:
		return fmt.Sprintf(" %d", readS8(code, opAt+1))
	case OpSipush:
		return fmt.Sprintf(" %d", readS16(code, opAt+1))
	case OpLdc:
		return fmt.Sprintf(" #%d", readU8(code, opAt+1))
	case OpIinc:
		return fmt.Sprintf(" %d, %d", readU8(code, opAt+1), readS8(code, opAt+2))
	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
		OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple, OpGoto:
		target := branchPC(opAt, readS16(code, opAt+1), true)
		return fmt.Sprintf(" %d", target)
	case OpGetstatic, OpInvokevirtual, OpInvokestatic:
		return fmt.Sprintf(" #%d", readU16(code, opAt+1))
	case OpNewarray:
		return fmt.Sprintf(" %d", readU8(code, opAt+1))
	default:
		return fmt.Sprintf(" %d", readU8(code, opAt+1))
	}
}
