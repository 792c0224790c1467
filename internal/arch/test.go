package arch

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/value"
)

// testLength/testEncode implement TEST reg,reg and TEST reg,imm (spec
// §6's createEmptyInsn for "test"): opcode 0x85 for the reg-reg form,
// 0xF7 /0 for the immediate form — TEST's own Group-3 opcodes, distinct
// from the Group-1 ALU table aluDef builds.
func testLength(ops []Operand) (int, error) {
	if ops[0].isReg() && ops[1].isReg() {
		return len(encodeRegReg(0x85, *ops[0].Reg, *ops[1].Reg)), nil
	}
	return aluImmLength(*ops[0].Reg), nil
}

func testEncode(ops []Operand, sink bytecode.OutputSink) error {
	if ops[0].isReg() && ops[1].isReg() {
		return sink.WriteBytes(encodeRegReg(0x85, *ops[0].Reg, *ops[1].Reg))
	}
	dst := *ops[0].Reg
	var out []byte
	out = append(out, widthPrefix(dst.size)...)
	if rex, any := rexPrefix(widthRex(dst.size), false, false, dst.needsRex()); any {
		out = append(out, rex)
	}
	opcode := byte(0xF7)
	if dst.size == 8 {
		opcode = 0xF6
	}
	out = append(out, opcode, modRM(0, dst.encoding))
	if err := sink.WriteBytes(out); err != nil {
		return err
	}
	size := dst.size
	if size != 8 && size != 16 {
		size = 32
	}
	return sink.WriteValue(value.FromExpression(ops[1].Imm, size, 0))
}
