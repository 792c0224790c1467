package arch

import "github.com/yasm/yasm-go/internal/intnum"

// rexPrefix composes a REX byte from the four independent extension
// bits x86-64 needs (W: 64-bit operand size, R: reg field extension, X:
// SIB index extension, B: r/m or SIB base or opcode-reg extension).
// Grounded on mov.go/cmp.go's inline `rex := uint8(0x40); rex |= ...`
// pattern, generalized into one helper so every encoder in this package
// builds its REX byte the same way instead of repeating the bit
// arithmetic per mnemonic.
func rexPrefix(w, r, x, b bool) (byte, bool) {
	rex := byte(0x40)
	any := false
	if w {
		rex |= 0x08
		any = true
	}
	if r {
		rex |= 0x04
		any = true
	}
	if x {
		rex |= 0x02
		any = true
	}
	if b {
		rex |= 0x01
		any = true
	}
	return rex, any
}

// modRM builds a register-direct ModR/M byte: mod=11, reg=regField,
// rm=rmField (spec §6's eaCreate counterpart for the no-memory case).
func modRM(regField, rmField uint8) byte {
	return 0xC0 | (regField&7)<<3 | (rmField & 7)
}

// encodeEA emits the ModR/M (+ optional SIB, + optional displacement)
// bytes addressing ea with the instruction's other operand/opcode-
// extension field in regField. dispBytes is appended as given; the
// caller sizes it (CalcLen uses dispForEA for the same count).
func encodeEA(regField uint8, ea EffectiveAddress, dispBytes []byte) []byte {
	var out []byte

	switch {
	case ea.RIPRelative:
		out = append(out, 0x00|(regField&7)<<3|0x05)
		out = append(out, dispBytes...)
		return out

	case ea.Base == nil:
		// Absolute disp32 via SIB with no base (spec: mod=00, rm=100,
		// SIB base=101, index=100 i.e. "no index").
		out = append(out, 0x00|(regField&7)<<3|0x04)
		sibIndex := uint8(0x04)
		if ea.Index != nil {
			sibIndex = ea.Index.encoding & 7
		}
		scaleBits := scaleEncoding(ea.Scale)
		out = append(out, scaleBits<<6|sibIndex<<3|0x05)
		out = append(out, dispBytes...)
		return out

	case ea.Index != nil || ea.Base.encoding&7 == 4:
		// SIB required: either an explicit scaled index, or the base is
		// rsp/r12 whose rm encoding (100) is reserved for "has SIB".
		mod := dispMod(ea.Base, dispBytes)
		out = append(out, mod|(regField&7)<<3|0x04)
		sibIndex := uint8(0x04)
		if ea.Index != nil {
			sibIndex = ea.Index.encoding & 7
		}
		out = append(out, scaleEncoding(ea.Scale)<<6|sibIndex<<3|(ea.Base.encoding&7))
		out = append(out, dispBytes...)
		return out

	default:
		mod := dispMod(ea.Base, dispBytes)
		out = append(out, mod|(regField&7)<<3|(ea.Base.encoding&7))
		out = append(out, dispBytes...)
		return out
	}
}

func scaleEncoding(scale uint8) uint8 {
	switch scale {
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 0
	}
}

// dispMod picks the ModR/M mod field for a base-relative operand: rbp
// and r13 can't use mod=00 (that encoding means "no base" for them), so
// a zero displacement to those bases is forced to an explicit disp8=0.
func dispMod(base *Register, dispBytes []byte) byte {
	bpLike := base.encoding&7 == 5
	switch {
	case len(dispBytes) == 0 && !bpLike:
		return 0x00
	case len(dispBytes) == 1:
		return 0x40
	default:
		return 0x80
	}
}

// eaExtensions reports the REX.X/REX.B bits ea's index/base contribute.
func eaExtensions(ea EffectiveAddress) (x, b bool) {
	if ea.Index != nil && ea.Index.needsRex() {
		x = true
	}
	if ea.Base != nil && ea.Base.needsRex() {
		b = true
	}
	return x, b
}

// immBytes encodes n into the given byte width, little-endian, two's
// complement (spec §6's tobytes for the immediate/displacement case).
func immBytes(n *intnum.IntNum, width int) []byte {
	buf := make([]byte, width)
	n.ToBytes(buf, 0, uint(width*8), 0, true, true, nil)
	return buf
}

