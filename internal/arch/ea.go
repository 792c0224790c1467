package arch

import "github.com/yasm/yasm-go/internal/value"

// EffectiveAddress is a memory operand: [base + index*scale + disp]
// (spec §6's eaCreate). Grounded on mov.go's operand parsing, which
// itself only ever builds register-direct operands; the [base+disp]
// addressing forms here generalize that to what a real assembler's
// instruction table needs for `mov rax, [rbx+8]`-style operands.
type EffectiveAddress struct {
	Base  *Register // nil: no base register (disp32 absolute / RIP-relative)
	Index *Register // nil: no scaled index
	Scale uint8     // 1, 2, 4, or 8; meaningless if Index == nil
	Disp  *value.Value
	// RIPRelative marks a [rel ...] operand: disp is relative to the
	// next instruction's address rather than an absolute/base-relative
	// offset. x86_64_codegen.go's RIP-relative loads are the grounding
	// for this mode; computing the exact displacement is the encoder's
	// job (see modrm.go), not this constructor's.
	RIPRelative bool
}

// EACreate builds an EffectiveAddress from a base/index/scale/disp
// description (spec §6 "eaCreate"). scale must be 0 (no index), 1, 2, 4,
// or 8.
func EACreate(base, index *Register, scale uint8, disp *value.Value) (EffectiveAddress, error) {
	if index != nil {
		switch scale {
		case 1, 2, 4, 8:
		default:
			return EffectiveAddress{}, Errorf("effective address scale must be 1, 2, 4, or 8, got %d", scale)
		}
	}
	return EffectiveAddress{Base: base, Index: index, Scale: scale, Disp: disp}, nil
}
