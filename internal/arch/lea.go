package arch

import "github.com/yasm/yasm-go/internal/bytecode"

// leaLength/leaEncode implement LEA reg, mem (opcode 0x8D): load the
// computed effective address itself rather than the memory it names,
// grounded on x86_64_codegen.go's RIP-relative addressing use (LEA is
// the standard way to materialize a label's address into a register).
func leaLength(ops []Operand) (int, error) {
	return eaLength(*ops[0].Reg, *ops[1].Mem)
}

func leaEncode(ops []Operand, sink bytecode.OutputSink) error {
	disp, err := dispForEA(*ops[1].Mem)
	if err != nil {
		return err
	}
	return sink.WriteBytes(encodeRegMem(0x8D, *ops[0].Reg, *ops[1].Mem, disp))
}
