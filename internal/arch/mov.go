package arch

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/value"
)

// movLength/movEncode implement MOV in its four operand shapes (spec
// §6's createEmptyInsn for the "mov" mnemonic). Grounded on mov.go's
// Out.MovRegToReg/MovImmToReg split, generalized with the reg/mem forms
// mov.go's Flap-specific backend never needed.
func movLength(ops []Operand) (int, error) {
	switch {
	case ops[0].isReg() && ops[1].isReg():
		return len(encodeRegReg(0x89, *ops[0].Reg, *ops[1].Reg)), nil
	case ops[0].isReg() && ops[1].isImm():
		return movImmLength(*ops[0].Reg), nil
	case ops[0].isReg() && ops[1].isMem():
		return eaLength(*ops[0].Reg, *ops[1].Mem)
	case ops[0].isMem() && ops[1].isReg():
		return eaLength(*ops[1].Reg, *ops[0].Mem)
	}
	return 0, Errorf("unsupported mov operand combination")
}

func movImmLength(dst Register) int {
	n := 1 // opcode B8+r (or C6/C7 /0 — this encoder always uses B8+r/imm-full)
	if widthRex(dst.size) || dst.needsRex() {
		n++
	}
	n += len(widthPrefix(dst.size))
	switch dst.size {
	case 8:
		return n + 1
	case 16:
		return n + 2
	case 64:
		return n + 8
	default:
		return n + 4
	}
}

func movEncode(ops []Operand, sink bytecode.OutputSink) error {
	switch {
	case ops[0].isReg() && ops[1].isReg():
		// MOV r/m, r (0x89): ModR/M reg=src, rm=dst.
		return sink.WriteBytes(encodeRegReg(0x89, *ops[0].Reg, *ops[1].Reg))
	case ops[0].isReg() && ops[1].isImm():
		return movImmEncode(*ops[0].Reg, ops[1].Imm, sink)
	case ops[0].isReg() && ops[1].isMem():
		disp, err := dispForEA(*ops[1].Mem)
		if err != nil {
			return err
		}
		return sink.WriteBytes(encodeRegMem(0x8B, *ops[0].Reg, *ops[1].Mem, disp))
	case ops[0].isMem() && ops[1].isReg():
		disp, err := dispForEA(*ops[0].Mem)
		if err != nil {
			return err
		}
		return sink.WriteBytes(encodeRegMem(0x89, *ops[1].Reg, *ops[0].Mem, disp))
	}
	return Errorf("unsupported mov operand combination")
}

// movImmEncode emits B8+reg (MOV r64/r32/r16, imm) for every width
// except 8-bit, which uses B0+reg.
func movImmEncode(dst Register, imm *expr.Expression, sink bytecode.OutputSink) error {
	var out []byte
	out = append(out, widthPrefix(dst.size)...)
	if rex, any := rexPrefix(widthRex(dst.size), false, false, dst.needsRex()); any {
		out = append(out, rex)
	}
	opcode := byte(0xB8)
	if dst.size == 8 {
		opcode = 0xB0
	}
	out = append(out, opcode+(dst.encoding&7))
	if err := sink.WriteBytes(out); err != nil {
		return err
	}
	return sink.WriteValue(value.FromExpression(imm, dst.size, 0))
}
