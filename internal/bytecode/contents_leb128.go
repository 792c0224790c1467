package bytecode

import (
	"math/big"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
)

// Leb128 is a variable-length LEB128-encoded integer (spec §4.4; used by
// DWARF-style debug output). A non-constant Value is sized at the
// worst-case 128-bit width until the value resolves.
type Leb128 struct {
	Value  *expr.Expression
	Signed bool

	encoded []byte
}

func NewLeb128(val *expr.Expression, signed bool) *Leb128 {
	return &Leb128{Value: val, Signed: signed}
}

func (l *Leb128) Kind() string { return "leb128" }

func (l *Leb128) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	return nil
}

const leb128WorstCase = 19 // ceil(128/7)

func (l *Leb128) encode() []byte {
	n := l.Value.Simplify().GetIntNum()
	if n == nil {
		return nil
	}
	if l.Signed {
		return encodeSLEB128(n)
	}
	return encodeULEB128(n)
}

func encodeULEB128(n *intnum.IntNum) []byte {
	acc := new(big.Int).Set(n.Big())
	mask := big.NewInt(0x7f)
	var out []byte
	for {
		var low big.Int
		low.And(acc, mask)
		b := byte(low.Int64())
		acc.Rsh(acc, 7)
		if acc.Sign() == 0 {
			out = append(out, b)
			break
		}
		out = append(out, b|0x80)
	}
	return out
}

// encodeSLEB128 relies on math/big's bitwise ops treating negative
// values as an infinite two's-complement representation, so And/Rsh
// here already behave like the arithmetic shift LEB128 needs.
func encodeSLEB128(n *intnum.IntNum) []byte {
	mask := big.NewInt(0x7f)
	acc := new(big.Int).Set(n.Big())
	var out []byte
	for {
		var low big.Int
		low.And(acc, mask)
		b := byte(low.Int64())
		acc.Rsh(acc, 7)
		signBitSet := b&0x40 != 0
		done := (acc.Sign() == 0 && !signBitSet) || (acc.Cmp(big.NewInt(-1)) == 0 && signBitSet)
		if done {
			out = append(out, b)
			break
		}
		out = append(out, b|0x80)
	}
	return out
}

func (l *Leb128) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	if enc := l.encode(); enc != nil {
		l.encoded = enc
		return len(enc), nil
	}
	return leb128WorstCase, nil
}

func (l *Leb128) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	enc := l.encode()
	if enc == nil {
		return leb128WorstCase, nil, nil, false, nil
	}
	l.encoded = enc
	return len(enc), nil, nil, true, nil
}

func (l *Leb128) Output(bc *Bytecode, sink OutputSink) error {
	enc := l.encoded
	if enc == nil {
		enc = l.encode()
	}
	if enc == nil {
		return errwarn.NewError(errwarn.KindNotConstant, "leb128 value did not resolve to a constant")
	}
	if n := bc.Length(); len(enc) < n {
		pad := make([]byte, n)
		copy(pad, enc)
		// The original terminator byte (no longer last) and every
		// padding byte except the new final one need their
		// continuation bit set.
		for i := len(enc) - 1; i < n-1; i++ {
			pad[i] |= 0x80
		}
		enc = pad
	}
	return sink.WriteBytes(enc)
}

func (l *Leb128) Clone() Contents {
	encoded := make([]byte, len(l.encoded))
	copy(encoded, l.encoded)
	return &Leb128{Value: l.Value.Clone(), Signed: l.Signed, encoded: encoded}
}
