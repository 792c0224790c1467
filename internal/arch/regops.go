package arch

// checkTwoReg/checkRegImm/checkRegMem/checkMemReg/checkOneReg/checkNone
// validate an instruction's operand shape against its mnemonic (spec
// §6's per-operand parse_check_ea/parse_check_reg_tmod feeding
// createEmptyInsn); every insnTable entry picks the one its class needs.
func checkTwoReg(ops []Operand) error {
	if len(ops) == 2 && ops[0].isReg() && ops[1].isReg() {
		return nil
	}
	return Errorf("expected two register operands, got %d", len(ops))
}

func checkRegImm(ops []Operand) error {
	if len(ops) == 2 && ops[0].isReg() && ops[1].isImm() {
		return nil
	}
	return Errorf("expected register, immediate operands")
}

func checkRegMem(ops []Operand) error {
	if len(ops) == 2 && ops[0].isReg() && ops[1].isMem() {
		return nil
	}
	return Errorf("expected register, memory operands")
}

func checkMemReg(ops []Operand) error {
	if len(ops) == 2 && ops[0].isMem() && ops[1].isReg() {
		return nil
	}
	return Errorf("expected memory, register operands")
}

func checkOneReg(ops []Operand) error {
	if len(ops) == 1 && ops[0].isReg() {
		return nil
	}
	return Errorf("expected one register operand, got %d", len(ops))
}

func checkNone(ops []Operand) error {
	if len(ops) == 0 {
		return nil
	}
	return Errorf("expected no operands, got %d", len(ops))
}

// checkShift accepts reg,imm8 or reg,cl (the two SHL/SHR/SAR forms
// shl.go's ShlClReg models; this package additionally supports an
// immediate count since CL is only one of the two NASM shift forms).
func checkShift(ops []Operand) error {
	if len(ops) != 2 || !ops[0].isReg() {
		return Errorf("expected register destination for shift")
	}
	if ops[1].isImm() {
		return nil
	}
	if ops[1].isReg() && ops[1].Reg.name == "cl" {
		return nil
	}
	return Errorf("shift count must be an immediate or cl")
}

func operandSize(ops []Operand) int {
	if len(ops) > 0 && ops[0].isReg() {
		return ops[0].Reg.size
	}
	return 64
}

// widthRex reports whether size needs REX.W (the 64-bit operand-size
// bit); widthPrefix reports the legacy 0x66 operand-size prefix an
// operand needs when its width doesn't match the current mode's default
// operand size (16-bit in 16-bit mode, 32-bit otherwise) — the same
// package-level-state idiom Verbose uses in insn.go, since the encoder
// closures in insnTable are built once and have no per-call Arch handle
// to thread a mode through. 8-bit operands never need it; 64-bit uses
// REX.W instead.
func widthRex(size int) bool { return size == 64 }

func widthPrefix(size int) []byte {
	switch {
	case size == 16 && modeBits != 16:
		return []byte{0x66}
	case size == 32 && modeBits == 16:
		return []byte{0x66}
	default:
		return nil
	}
}

// encodeRegReg emits a two-register ALU/mov form: opcode ModRM(mod=11,
// reg=srcField, rm=dstField), with REX computed from both registers'
// widths/extensions (grounded on mov.go's movX86RegToReg and cmp.go's
// cmpX86RegToReg).
func encodeRegReg(opcode byte, dst, src Register) []byte {
	out := append([]byte{}, widthPrefix(dst.size)...)
	if rex, any := rexPrefix(widthRex(dst.size), src.needsRex(), false, dst.needsRex()); any {
		out = append(out, rex)
	}
	out = append(out, opcode)
	out = append(out, modRM(src.encoding, dst.encoding))
	return out
}

// encodeRegMem emits a register<->memory ALU/mov/lea form: opcode
// ModRM+SIB+disp addressing ea, with reg as the ModR/M reg field.
func encodeRegMem(opcode byte, reg Register, ea EffectiveAddress, disp []byte) []byte {
	out := append([]byte{}, widthPrefix(reg.size)...)
	x, b := eaExtensions(ea)
	if rex, any := rexPrefix(widthRex(reg.size), reg.needsRex(), x, b); any {
		out = append(out, rex)
	}
	out = append(out, opcode)
	out = append(out, encodeEA(reg.encoding, ea, disp)...)
	return out
}

// dispForEA resolves ea's displacement to its final bytes. Effective
// addresses built from a parsed `[reg+N]` operand carry a constant
// expression for N, already known at parse time, so (unlike a branch
// target) this is never span-dependent.
func dispForEA(ea EffectiveAddress) ([]byte, error) {
	if ea.Disp == nil {
		if ea.Base == nil {
			return make([]byte, 4), nil
		}
		if ea.Base.encoding&7 == 5 {
			// rbp/r13 can't use mod=00 as "no displacement"; force an
			// explicit disp8=0 (spec-neutral x86-64 encoding quirk).
			return []byte{0}, nil
		}
		return nil, nil
	}
	n := ea.Disp.Abs.Simplify().GetIntNum()
	if n == nil {
		return nil, Errorf("effective-address displacement must be constant")
	}
	if ea.Base == nil || ea.RIPRelative {
		return immBytes(n, 4), nil
	}
	if n.IsZero() && ea.Base.encoding&7 != 5 {
		return nil, nil
	}
	v := n.Int64()
	if v >= -128 && v <= 127 {
		return immBytes(n, 1), nil
	}
	return immBytes(n, 4), nil
}

// eaLength returns the byte length of a register<->memory form without
// emitting it, for CalcLen.
func eaLength(reg Register, ea EffectiveAddress) (int, error) {
	disp, err := dispForEA(ea)
	if err != nil {
		return 0, err
	}
	n := 2 + len(disp) // opcode + ModR/M
	if needsSIB(ea) {
		n++
	}
	x, b := eaExtensions(ea)
	if _, any := rexPrefix(widthRex(reg.size), reg.needsRex(), x, b); any {
		n++
	}
	n += len(widthPrefix(reg.size))
	return n, nil
}

func needsSIB(ea EffectiveAddress) bool {
	return !ea.RIPRelative && (ea.Base == nil || ea.Index != nil || ea.Base.encoding&7 == 4)
}
