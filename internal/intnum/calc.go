package intnum

import (
	"fmt"
	"math/big"
)

// ErrZeroDivision matches spec §4.2's ZeroDivision failure mode.
var ErrZeroDivision = fmt.Errorf("intnum: division by zero")

// Calc applies op to the receiver and rhs, matching the source's
// IntNum::calc. Unary operators (Neg, Not, Lnot, Ident) ignore rhs.
func (n *IntNum) Calc(op Operator, rhs *IntNum) (*IntNum, error) {
	out := &IntNum{}
	switch op {
	case OpIdent:
		out.v.Set(&n.v)
	case OpAdd:
		out.v.Add(&n.v, &rhs.v)
	case OpSub:
		out.v.Sub(&n.v, &rhs.v)
	case OpMul:
		out.v.Mul(&n.v, &rhs.v)
	case OpDiv:
		if rhs.IsZero() {
			return nil, ErrZeroDivision
		}
		// Unsigned division per spec (DIV is the unsigned variant,
		// SIGNDIV the signed one): operate on absolute magnitudes.
		a, b := new(big.Int).Abs(&n.v), new(big.Int).Abs(&rhs.v)
		out.v.Quo(a, b)
	case OpSignDiv:
		if rhs.IsZero() {
			return nil, ErrZeroDivision
		}
		out.v.Quo(&n.v, &rhs.v)
	case OpMod:
		if rhs.IsZero() {
			return nil, ErrZeroDivision
		}
		a, b := new(big.Int).Abs(&n.v), new(big.Int).Abs(&rhs.v)
		out.v.Rem(a, b)
	case OpSignMod:
		if rhs.IsZero() {
			return nil, ErrZeroDivision
		}
		out.v.Rem(&n.v, &rhs.v)
	case OpNeg:
		out.v.Neg(&n.v)
	case OpNot:
		out.v.Not(&n.v)
	case OpOr:
		out.v.Or(&n.v, &rhs.v)
	case OpAnd:
		out.v.And(&n.v, &rhs.v)
	case OpXor:
		out.v.Xor(&n.v, &rhs.v)
	case OpXnor:
		out.v.Xor(&n.v, &rhs.v)
		out.v.Not(&out.v)
	case OpNor:
		out.v.Or(&n.v, &rhs.v)
		out.v.Not(&out.v)
	case OpShl:
		if rhs.v.Sign() < 0 {
			return nil, fmt.Errorf("intnum: negative shift count")
		}
		out.v.Lsh(&n.v, uint(rhs.v.Uint64()))
	case OpShr:
		if rhs.v.Sign() < 0 {
			return nil, fmt.Errorf("intnum: negative shift count")
		}
		out.v.Rsh(&n.v, uint(rhs.v.Uint64()))
	case OpLor:
		out.v.SetInt64(boolInt(!n.IsZero() || !rhs.IsZero()))
	case OpLand:
		out.v.SetInt64(boolInt(!n.IsZero() && !rhs.IsZero()))
	case OpLnot:
		out.v.SetInt64(boolInt(n.IsZero()))
	case OpLxor:
		out.v.SetInt64(boolInt(!n.IsZero() != !rhs.IsZero()))
	case OpLxnor:
		out.v.SetInt64(boolInt(!n.IsZero() == !rhs.IsZero()))
	case OpLnor:
		out.v.SetInt64(boolInt(n.IsZero() && rhs.IsZero()))
	case OpLt:
		out.v.SetInt64(boolInt(n.Cmp(rhs) < 0))
	case OpGt:
		out.v.SetInt64(boolInt(n.Cmp(rhs) > 0))
	case OpEq:
		out.v.SetInt64(boolInt(n.Cmp(rhs) == 0))
	case OpLe:
		out.v.SetInt64(boolInt(n.Cmp(rhs) <= 0))
	case OpGe:
		out.v.SetInt64(boolInt(n.Cmp(rhs) >= 0))
	case OpNe:
		out.v.SetInt64(boolInt(n.Cmp(rhs) != 0))
	default:
		return nil, fmt.Errorf("intnum: operator %s not valid on IntNum operands", op)
	}
	return out, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// IsOkSize reports whether the value, after an arithmetic right shift by
// rshift, fits in bits bits interpreted as signed or unsigned.
func (n *IntNum) IsOkSize(bits, rshift uint, isSigned bool) bool {
	v := new(big.Int).Set(&n.v)
	if rshift > 0 {
		v.Rsh(v, rshift)
	}
	if bits == 0 {
		return v.Sign() == 0
	}
	if isSigned {
		lo := new(big.Int).Lsh(big.NewInt(-1), bits-1)
		hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
		return v.Cmp(lo) >= 0 && v.Cmp(hi) <= 0
	}
	if v.Sign() < 0 {
		return false
	}
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	return v.Cmp(hi) <= 0
}
