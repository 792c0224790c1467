package arch

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/value"
)

// shiftDef builds the insnDef for SHL/SHR/SAR: digit is the ModR/M
// extension (4/5/7 respectively). Covers the D3 /digit CL form and the
// C1 /digit ib immediate form; a count of 1 also uses C1, not D1.
func shiftDef(digit uint8) insnDef {
	return insnDef{
		checkOperands: checkShift,
		length:        func(ops []Operand) (int, error) { return shiftLength(digit, ops) },
		encode:        func(ops []Operand, sink bytecode.OutputSink) error { return shiftEncode(digit, ops, sink) },
	}
}

func shiftLength(digit uint8, ops []Operand) (int, error) {
	dst := *ops[0].Reg
	n := 1 // ModR/M
	if _, any := rexPrefix(widthRex(dst.size), false, false, dst.needsRex()); any {
		n++
	}
	n += len(widthPrefix(dst.size))
	n++ // opcode
	if ops[1].isImm() {
		n++ // imm8 count
	}
	return n, nil
}

func shiftEncode(digit uint8, ops []Operand, sink bytecode.OutputSink) error {
	dst := *ops[0].Reg
	var out []byte
	out = append(out, widthPrefix(dst.size)...)
	if rex, any := rexPrefix(widthRex(dst.size), false, false, dst.needsRex()); any {
		out = append(out, rex)
	}
	if ops[1].isReg() { // shift by CL: D3 /digit
		out = append(out, 0xD3, modRM(digit, dst.encoding))
		return sink.WriteBytes(out)
	}
	// shift by immediate count: C1 /digit ib
	out = append(out, 0xC1, modRM(digit, dst.encoding))
	if err := sink.WriteBytes(out); err != nil {
		return err
	}
	return sink.WriteValue(value.FromExpression(ops[1].Imm, 8, 0))
}
