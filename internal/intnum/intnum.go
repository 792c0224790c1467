// Package intnum implements yasm's arbitrary-precision integer (spec C1 /
// §4.1): the value type threaded through Expression evaluation and final
// byte emission.
package intnum

import (
	"fmt"
	"math/big"
)

// IntNum wraps math/big.Int: arbitrary-precision arithmetic has no
// lightweight third-party alternative worth pulling in over the standard
// library's own bignum package.
type IntNum struct {
	v big.Int
}

// Zero returns the additive identity.
func Zero() *IntNum { return &IntNum{} }

// FromInt64 builds an IntNum from a signed machine integer.
func FromInt64(n int64) *IntNum {
	in := &IntNum{}
	in.v.SetInt64(n)
	return in
}

// FromUint64 builds an IntNum from an unsigned machine integer.
func FromUint64(n uint64) *IntNum {
	in := &IntNum{}
	in.v.SetUint64(n)
	return in
}

// FromString parses a digit string in the given base (2, 8, 10, or 16).
func FromString(s string, base int) (*IntNum, error) {
	in := &IntNum{}
	if _, ok := in.v.SetString(s, base); !ok {
		return nil, fmt.Errorf("intnum: invalid digit string %q in base %d", s, base)
	}
	return in, nil
}

// FromBytes reads a little- or big-endian byte sequence into an IntNum,
// treating it as signed (two's complement) or unsigned.
func FromBytes(b []byte, littleEndian, signed bool) *IntNum {
	buf := make([]byte, len(b))
	copy(buf, b)
	if littleEndian {
		reverse(buf)
	}
	in := &IntNum{}
	in.v.SetBytes(buf)
	if signed && len(buf) > 0 && buf[0]&0x80 != 0 {
		// Two's complement negative: subtract 2^(8*len).
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(buf)*8))
		in.v.Sub(&in.v, mod)
	}
	return in
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Clone returns a deep copy.
func (n *IntNum) Clone() *IntNum {
	out := &IntNum{}
	out.v.Set(&n.v)
	return out
}

// Int64 reads the value as a signed machine integer, truncating silently
// (callers that care about truncation should check IsOkSize first).
func (n *IntNum) Int64() int64 { return n.v.Int64() }

// Uint64 reads the value as an unsigned machine integer.
func (n *IntNum) Uint64() uint64 { return n.v.Uint64() }

// Big exposes the underlying big.Int for callers that need it (internal
// to the module; never escapes a package boundary as a mutable alias
// other packages could corrupt without going through IntNum's API... in
// practice only internal/value and internal/arch reach for this).
func (n *IntNum) Big() *big.Int { return &n.v }

func (n *IntNum) String() string { return n.v.String() }

// Cmp compares two IntNums, returning -1, 0, or +1.
func (n *IntNum) Cmp(o *IntNum) int { return n.v.Cmp(&o.v) }

func (n *IntNum) Equal(o *IntNum) bool { return n.Cmp(o) == 0 }

// GetSign returns -1, 0, or +1.
func (n *IntNum) GetSign() int { return n.v.Sign() }

func (n *IntNum) IsZero() bool { return n.v.Sign() == 0 }
func (n *IntNum) IsPos1() bool { return n.v.Cmp(big.NewInt(1)) == 0 }
func (n *IntNum) IsNeg1() bool { return n.v.Cmp(big.NewInt(-1)) == 0 }

// Neg negates in place.
func (n *IntNum) Neg() *IntNum {
	n.v.Neg(&n.v)
	return n
}

// Not performs in-place one's-complement bit inversion.
func (n *IntNum) Not() *IntNum {
	n.v.Not(&n.v)
	return n
}

// Shl/Shr perform in-place arithmetic shifts by a non-negative count.
func (n *IntNum) Shl(count uint) *IntNum {
	n.v.Lsh(&n.v, count)
	return n
}

func (n *IntNum) Shr(count uint) *IntNum {
	n.v.Rsh(&n.v, count)
	return n
}
