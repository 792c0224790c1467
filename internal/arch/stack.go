package arch

import "github.com/yasm/yasm-go/internal/bytecode"

// pushEncode/popEncode implement PUSH/POP reg: 50+r / 58+r, REX.B only
// (these are always 64-bit operand size by default in long mode, so no
// REX.W is ever needed — grounded on mov.go's REX.B-only extension
// pattern for opcode+reg forms).
func pushEncode(ops []Operand, sink bytecode.OutputSink) error {
	return sink.WriteBytes(opcodePlusReg(0x50, *ops[0].Reg))
}

func popEncode(ops []Operand, sink bytecode.OutputSink) error {
	return sink.WriteBytes(opcodePlusReg(0x58, *ops[0].Reg))
}

func opcodePlusReg(base byte, r Register) []byte {
	var out []byte
	if r.needsRex() {
		out = append(out, 0x41) // REX.B
	}
	out = append(out, base+(r.encoding&7))
	return out
}
