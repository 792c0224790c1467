// Package floatnum implements yasm's fixed-precision binary float (spec
// C1 / §4.1), emittable as IEEE-754 single, double, or x87 80-bit
// extended precision.
package floatnum

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// FloatNum holds a value as an arbitrary-precision big.Float so that
// construction from a decimal literal doesn't lose bits before the
// caller picks a target precision at emission time.
type FloatNum struct {
	v big.Float
}

// FromFloat64 builds a FloatNum from a native double.
func FromFloat64(f float64) *FloatNum {
	fn := &FloatNum{}
	fn.v.SetFloat64(f)
	return fn
}

// FromString parses a decimal floating point literal.
func FromString(s string) (*FloatNum, error) {
	fn := &FloatNum{}
	if _, _, err := fn.v.Parse(s, 10); err != nil {
		return nil, fmt.Errorf("floatnum: %w", err)
	}
	return fn, nil
}

func (f *FloatNum) Float64() float64 {
	v, _ := f.v.Float64()
	return v
}

func (f *FloatNum) String() string { return f.v.Text('g', -1) }

// Precision identifies the target IEEE-754 width for emission.
type Precision int

const (
	Single   Precision = 32
	Double   Precision = 64
	Extended Precision = 80 // x87 80-bit (1 sign + 15 exponent + 64 mantissa incl. integer bit)
)

// ToBytes emits the value in the given precision and endianness,
// matching IntNum.ToBytes's shape so internal/value can treat both
// uniformly.
func (f *FloatNum) ToBytes(precision Precision, littleEndian bool) ([]byte, error) {
	switch precision {
	case Single:
		v, _ := f.v.Float32()
		buf := make([]byte, 4)
		bits := math.Float32bits(v)
		if littleEndian {
			binary.LittleEndian.PutUint32(buf, bits)
		} else {
			binary.BigEndian.PutUint32(buf, bits)
		}
		return buf, nil
	case Double:
		v, _ := f.v.Float64()
		buf := make([]byte, 8)
		bits := math.Float64bits(v)
		if littleEndian {
			binary.LittleEndian.PutUint64(buf, bits)
		} else {
			binary.BigEndian.PutUint64(buf, bits)
		}
		return buf, nil
	case Extended:
		return f.toExtendedBytes(littleEndian), nil
	default:
		return nil, fmt.Errorf("floatnum: unsupported precision %d", precision)
	}
}

// toExtendedBytes hand-builds the 10-byte x87 extended format (64-bit
// explicit-integer-bit mantissa + 15-bit exponent + sign) byte by byte,
// since no stdlib type models this layout.
func (f *FloatNum) toExtendedBytes(littleEndian bool) []byte {
	buf := make([]byte, 10)
	if f.v.Sign() == 0 {
		return buf
	}

	sign := uint16(0)
	mag := new(big.Float).Abs(&f.v)
	if f.v.Sign() < 0 {
		sign = 1
	}

	mant := new(big.Float).SetPrec(64)
	exp := mag.MantExp(mant) // mag = mant * 2^exp, 0.5 <= mant < 1

	// x87 extended stores an explicit integer bit with mantissa in
	// [1,2): shift mant left by 1 and decrement exp to match.
	mant.Mul(mant, big.NewFloat(2))
	exp--

	mant64, _ := new(big.Float).Mul(mant, new(big.Float).SetMantExp(big.NewFloat(1), 63)).Uint64()
	biasedExp := uint16(exp+16383) & 0x7fff
	expField := biasedExp | (sign << 15)

	if littleEndian {
		// x87 memory layout: mantissa in bytes 0-7, sign+exponent in
		// bytes 8-9, each little-endian.
		binary.LittleEndian.PutUint64(buf[0:8], mant64)
		binary.LittleEndian.PutUint16(buf[8:10], expField)
		return buf
	}
	// Big-endian: the same 80 bits, sign+exponent first.
	binary.BigEndian.PutUint16(buf[0:2], expField)
	binary.BigEndian.PutUint64(buf[2:10], mant64)
	return buf
}
