package intnum

import "testing"

func TestFromStringBases(t *testing.T) {
	cases := []struct {
		s    string
		base int
		want int64
	}{
		{"1010", 2, 10},
		{"17", 8, 15},
		{"42", 10, 42},
		{"2A", 16, 42},
	}
	for _, c := range cases {
		n, err := FromString(c.s, c.base)
		if err != nil {
			t.Fatalf("FromString(%q, %d): %v", c.s, c.base, err)
		}
		if n.Int64() != c.want {
			t.Errorf("FromString(%q, %d) = %d, want %d", c.s, c.base, n.Int64(), c.want)
		}
	}
}

func TestEndiannessRoundTrip(t *testing.T) {
	n := FromInt64(0x1234)
	buf := make([]byte, 2)
	n.ToBytes(buf, 0, 16, 0, true, true, nil)
	if buf[0] != 0x34 || buf[1] != 0x12 {
		t.Fatalf("little-endian bytes = %x", buf)
	}
	got := FromBytes(buf, true, true)
	if !got.Equal(n) {
		t.Errorf("round trip LE: got %v, want %v", got, n)
	}

	bufBE := make([]byte, 2)
	n.ToBytes(bufBE, 0, 16, 0, false, true, nil)
	if bufBE[0] != 0x12 || bufBE[1] != 0x34 {
		t.Fatalf("big-endian bytes = %x", bufBE)
	}
	gotBE := FromBytes(bufBE, false, true)
	if !gotBE.Equal(n) {
		t.Errorf("round trip BE: got %v, want %v", gotBE, n)
	}
}

func TestNegativeRoundTrip(t *testing.T) {
	n := FromInt64(-1)
	buf := make([]byte, 1)
	n.ToBytes(buf, 0, 8, 0, true, true, nil)
	if buf[0] != 0xFF {
		t.Fatalf("expected 0xFF, got %x", buf[0])
	}
	got := FromBytes(buf, true, true)
	if got.Int64() != -1 {
		t.Errorf("round trip of -1 = %d", got.Int64())
	}
}

func TestIsOkSize(t *testing.T) {
	n := FromInt64(127)
	if !n.IsOkSize(8, 0, true) {
		t.Error("127 should fit signed 8 bits")
	}
	n2 := FromInt64(128)
	if n2.IsOkSize(8, 0, true) {
		t.Error("128 should not fit signed 8 bits")
	}
	if !n2.IsOkSize(8, 0, false) {
		t.Error("128 should fit unsigned 8 bits")
	}
}

func TestCalcOperators(t *testing.T) {
	a, b := FromInt64(7), FromInt64(3)
	cases := []struct {
		op   Operator
		want int64
	}{
		{OpAdd, 10}, {OpSub, 4}, {OpMul, 21}, {OpSignDiv, 2}, {OpSignMod, 1},
		{OpAnd, 3}, {OpOr, 7}, {OpXor, 4},
	}
	for _, c := range cases {
		got, err := a.Calc(c.op, b)
		if err != nil {
			t.Fatalf("Calc(%s): %v", c.op, err)
		}
		if got.Int64() != c.want {
			t.Errorf("7 %s 3 = %d, want %d", c.op, got.Int64(), c.want)
		}
	}
}

func TestCalcZeroDivision(t *testing.T) {
	a, zero := FromInt64(10), FromInt64(0)
	if _, err := a.Calc(OpSignDiv, zero); err != ErrZeroDivision {
		t.Errorf("expected ErrZeroDivision, got %v", err)
	}
	if _, err := a.Calc(OpSignMod, zero); err != ErrZeroDivision {
		t.Errorf("expected ErrZeroDivision, got %v", err)
	}
}

func TestOperatorAgreementWithMachineInt(t *testing.T) {
	pairs := [][2]int64{{5, 3}, {-5, 3}, {5, -3}, {-5, -3}, {0, 7}, {1000, 1}}
	for _, p := range pairs {
		a, b := FromInt64(p[0]), FromInt64(p[1])
		if got, _ := a.Calc(intOpAdd, b); got.Int64() != p[0]+p[1] {
			t.Errorf("%d+%d = %d", p[0], p[1], got.Int64())
		}
		if got, _ := a.Calc(intOpSub, b); got.Int64() != p[0]-p[1] {
			t.Errorf("%d-%d = %d", p[0], p[1], got.Int64())
		}
		if got, _ := a.Calc(intOpMul, b); got.Int64() != p[0]*p[1] {
			t.Errorf("%d*%d = %d", p[0], p[1], got.Int64())
		}
	}
}

const (
	intOpAdd = OpAdd
	intOpSub = OpSub
	intOpMul = OpMul
)

func TestShiftOperators(t *testing.T) {
	n := FromInt64(1)
	got, _ := n.Calc(OpShl, FromInt64(4))
	if got.Int64() != 16 {
		t.Errorf("1 << 4 = %d", got.Int64())
	}
	n2 := FromInt64(-16)
	got2, _ := n2.Calc(OpShr, FromInt64(2))
	if got2.Int64() != -4 {
		t.Errorf("-16 >> 2 = %d, want -4 (arithmetic shift)", got2.Int64())
	}
}
