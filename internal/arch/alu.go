package arch

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/value"
)

// aluDef builds the insnDef for one Group-1 ALU mnemonic (add/or/and/
// sub/xor/cmp): base is its reg-reg opcode (spec §6's per-mnemonic
// table; Intel's Gv,Ev / Ev,Gv opcode pairs are base+3/base+1), digit
// is its /digit ModR/M extension for the immediate form. Grounded on
// cmp.go's cmpX86RegToReg/cmpX86RegToImm, generalized from one hard-
// coded mnemonic to a table shared by all six.
func aluDef(base byte, digit uint8) insnDef {
	return insnDef{
		checkOperands: checkAnyOf(checkTwoReg, checkRegImm, checkRegMem, checkMemReg),
		length:        func(ops []Operand) (int, error) { return aluLength(base, digit, ops) },
		encode:        func(ops []Operand, sink bytecode.OutputSink) error { return aluEncode(base, digit, ops, sink) },
	}
}

func aluLength(base byte, digit uint8, ops []Operand) (int, error) {
	switch {
	case ops[0].isReg() && ops[1].isReg():
		return len(encodeRegReg(base+1, *ops[0].Reg, *ops[1].Reg)), nil
	case ops[0].isReg() && ops[1].isImm():
		return aluImmLength(*ops[0].Reg), nil
	case ops[0].isReg() && ops[1].isMem():
		return eaLength(*ops[0].Reg, *ops[1].Mem)
	case ops[0].isMem() && ops[1].isReg():
		return eaLength(*ops[1].Reg, *ops[0].Mem)
	}
	return 0, Errorf("unsupported operand combination")
}

func aluImmLength(dst Register) int {
	n := 1 // opcode
	if _, any := rexPrefix(widthRex(dst.size), false, false, dst.needsRex()); any {
		n++
	}
	n += len(widthPrefix(dst.size))
	n++ // ModR/M
	if dst.size == 8 {
		return n + 1
	}
	if dst.size == 16 {
		return n + 2
	}
	return n + 4 // 32- and 64-bit both take a 32-bit immediate, sign-extended
}

func aluEncode(base byte, digit uint8, ops []Operand, sink bytecode.OutputSink) error {
	switch {
	case ops[0].isReg() && ops[1].isReg():
		return sink.WriteBytes(encodeRegReg(base+1, *ops[0].Reg, *ops[1].Reg))
	case ops[0].isReg() && ops[1].isImm():
		return aluImmEncode(digit, *ops[0].Reg, ops[1].Imm, sink)
	case ops[0].isReg() && ops[1].isMem():
		disp, err := dispForEA(*ops[1].Mem)
		if err != nil {
			return err
		}
		return sink.WriteBytes(encodeRegMem(base+3, *ops[0].Reg, *ops[1].Mem, disp))
	case ops[0].isMem() && ops[1].isReg():
		disp, err := dispForEA(*ops[0].Mem)
		if err != nil {
			return err
		}
		return sink.WriteBytes(encodeRegMem(base+1, *ops[1].Reg, *ops[0].Mem, disp))
	}
	return Errorf("unsupported operand combination")
}

// aluImmEncode emits the Group-1 immediate form: 0x80 /digit ib for an
// 8-bit destination, 0x81 /digit iw/id otherwise (this encoder always
// uses the full-width immediate for 16/32/64-bit destinations rather
// than the 0x83 /digit ib sign-extended-imm8 shortcut cmp.go's
// cmpX86RegToImm picks when the immediate happens to fit — see Insn's
// doc comment on why only branch displacement sizing is value-
// dependent here).
func aluImmEncode(digit uint8, dst Register, imm *expr.Expression, sink bytecode.OutputSink) error {
	var out []byte
	out = append(out, widthPrefix(dst.size)...)
	if rex, any := rexPrefix(widthRex(dst.size), false, false, dst.needsRex()); any {
		out = append(out, rex)
	}
	opcode := byte(0x81)
	if dst.size == 8 {
		opcode = 0x80
	}
	out = append(out, opcode, modRM(digit, dst.encoding))
	if err := sink.WriteBytes(out); err != nil {
		return err
	}
	size := dst.size
	if size != 8 && size != 16 {
		size = 32
	}
	return sink.WriteValue(value.FromExpression(imm, size, 0))
}
