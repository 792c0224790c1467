package arch

import "github.com/yasm/yasm-go/internal/bytecode"

// insnDef is one non-branch mnemonic's shape check, length function,
// and encoder (spec §6's createEmptyInsn dispatch table). Branch
// mnemonics (jmp/jcc/call) aren't in this table; Insn.CalcLen/Encode
// special-case them via branch.go instead, since they need the owning
// Bytecode to compute a PC-relative distance.
type insnDef struct {
	checkOperands func(ops []Operand) error
	length        func(ops []Operand) (int, error)
	encode        func(ops []Operand, sink bytecode.OutputSink) error
}

var insnTable = map[string]insnDef{
	"mov": {checkOperands: checkAnyOf(checkTwoReg, checkRegImm, checkRegMem, checkMemReg), length: movLength, encode: movEncode},
	"lea": {checkOperands: checkRegMem, length: leaLength, encode: leaEncode},

	"add": aluDef(0x00, 0),
	"or":  aluDef(0x08, 1),
	"and": aluDef(0x20, 4),
	"sub": aluDef(0x28, 5),
	"xor": aluDef(0x30, 6),
	"cmp": aluDef(0x38, 7),

	"test": {checkOperands: checkAnyOf(checkTwoReg, checkRegImm), length: testLength, encode: testEncode},

	"shl": shiftDef(4),
	"shr": shiftDef(5),
	"sar": shiftDef(7),

	"push": {checkOperands: checkOneReg, length: fixedLength(1, pushPopRexLen), encode: pushEncode},
	"pop":  {checkOperands: checkOneReg, length: fixedLength(1, pushPopRexLen), encode: popEncode},

	"nop":     {checkOperands: checkNone, length: constLength(1), encode: constEncode([]byte{0x90})},
	"ret":     {checkOperands: checkNone, length: constLength(1), encode: constEncode([]byte{0xC3})},
	"int3":    {checkOperands: checkNone, length: constLength(1), encode: constEncode([]byte{0xCC})},
	"syscall": {checkOperands: checkNone, length: constLength(2), encode: constEncode([]byte{0x0F, 0x05})},
	"cdq":     {checkOperands: checkNone, length: constLength(1), encode: constEncode([]byte{0x99})},
	"cqo":     {checkOperands: checkNone, length: constLength(2), encode: constEncode([]byte{0x48, 0x99})},
}

func checkAnyOf(checks ...func([]Operand) error) func([]Operand) error {
	return func(ops []Operand) error {
		var firstErr error
		for _, c := range checks {
			if err := c(ops); err == nil {
				return nil
			} else if firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}

func constLength(n int) func([]Operand) (int, error) {
	return func([]Operand) (int, error) { return n, nil }
}

func constEncode(bs []byte) func([]Operand, bytecode.OutputSink) error {
	return func(_ []Operand, sink bytecode.OutputSink) error { return sink.WriteBytes(bs) }
}

func fixedLength(base int, rexLen func(ops []Operand) int) func([]Operand) (int, error) {
	return func(ops []Operand) (int, error) { return base + rexLen(ops), nil }
}

func pushPopRexLen(ops []Operand) int {
	if ops[0].Reg.needsRex() {
		return 1
	}
	return 0
}
