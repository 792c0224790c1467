package arch

import (
	"testing"

	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/optimizer"
	"github.com/yasm/yasm-go/internal/value"
)

// testSink is a minimal OutputSink that records emitted bytes in order,
// resolving any relocation-free Value written through it to its
// constant bytes (mirroring bytecode_test.go's recordSink, but with a
// working WriteValue since these tests assert on exact encodings).
type testSink struct {
	out []byte
}

func (s *testSink) WriteBytes(b []byte) error {
	s.out = append(s.out, b...)
	return nil
}

func (s *testSink) WriteValue(v *value.Value) error {
	n := v.GetIntNum()
	if n == nil {
		return errwarn.NewError(errwarn.KindValue, "value did not resolve to a constant")
	}
	buf := make([]byte, v.Size/8)
	n.ToBytes(buf, 0, uint(v.Size), 0, true, v.Signed, nil)
	s.out = append(s.out, buf...)
	return nil
}

func (s *testSink) Advance(n int) error {
	s.out = append(s.out, make([]byte, n)...)
	return nil
}

func noopAddSpan(int, *value.Value, *intnum.IntNum, *intnum.IntNum) {}

func TestLookupRegister(t *testing.T) {
	cases := []struct {
		name string
		size int
		enc  uint8
	}{
		{"al", 8, 0}, {"ax", 16, 0}, {"eax", 32, 0}, {"rax", 64, 0},
		{"r15", 64, 15}, {"esp", 32, 4}, {"xmm3", 128, 3},
	}
	for _, c := range cases {
		r, ok := LookupRegister(c.name)
		if !ok {
			t.Fatalf("%s: not found", c.name)
		}
		if r.Size() != c.size || r.Encoding() != c.enc {
			t.Errorf("%s: got size=%d enc=%d, want size=%d enc=%d", c.name, r.Size(), r.Encoding(), c.size, c.enc)
		}
	}
	if _, ok := LookupRegister("notareg"); ok {
		t.Error("notareg: expected not found")
	}
}

func TestNeedsRex(t *testing.T) {
	rax, _ := LookupRegister("rax")
	r8, _ := LookupRegister("r8")
	if rax.needsRex() {
		t.Error("rax should not need REX.B/R/X")
	}
	if !r8.needsRex() {
		t.Error("r8 should need REX.B/R/X")
	}
}

func TestEACreateRejectsBadScale(t *testing.T) {
	rax, _ := LookupRegister("rax")
	rcx, _ := LookupRegister("rcx")
	if _, err := EACreate(&rax, &rcx, 3, nil); err == nil {
		t.Error("expected an error for scale=3")
	}
	if _, err := EACreate(&rax, &rcx, 4, nil); err != nil {
		t.Errorf("scale=4 should be valid: %v", err)
	}
	if _, err := EACreate(&rax, nil, 0, nil); err != nil {
		t.Errorf("no index, scale=0 should be valid: %v", err)
	}
}

func TestParseCheckRegTmod(t *testing.T) {
	x := New()
	if _, isReg, _, _ := x.ParseCheckRegTmod("rax"); !isReg {
		t.Error("rax should be recognized as a register")
	}
	if _, _, size, isTmod := x.ParseCheckRegTmod("qword"); !isTmod || size != 64 {
		t.Errorf("qword: isTmod=%v size=%d, want true,64", isTmod, size)
	}
	if _, isReg, _, isTmod := x.ParseCheckRegTmod("foo"); isReg || isTmod {
		t.Error("foo should be neither a register nor a type modifier")
	}
}

func TestSetVarModeBits(t *testing.T) {
	x := New()
	if x.WordSize() != 64 {
		t.Fatalf("default WordSize = %d, want 64", x.WordSize())
	}
	if err := x.SetVar("mode_bits", 32); err != nil {
		t.Fatalf("SetVar(mode_bits, 32): %v", err)
	}
	if x.WordSize() != 32 {
		t.Errorf("WordSize after SetVar = %d, want 32", x.WordSize())
	}
	if err := x.SetVar("mode_bits", 17); err == nil {
		t.Error("expected an error for an unsupported mode_bits value")
	}
	if err := x.SetVar("bogus", 1); err == nil {
		t.Error("expected an error for an unknown var name")
	}
}

func TestGetFillRepeatsNopTable(t *testing.T) {
	x := New()
	fill := x.GetFill()
	if got := fill(1); len(got) != 1 || got[0] != 0x90 {
		t.Errorf("fill(1) = % x, want [90]", got)
	}
	got := fill(11)
	want := append(append([]byte{}, nopSequences[9]...), nopSequences[2]...)
	assertBytes(t, got, want)
}

func reg(t *testing.T, name string) Register {
	t.Helper()
	r, ok := LookupRegister(name)
	if !ok {
		t.Fatalf("register %q not found", name)
	}
	return r
}

func encodeInsn(t *testing.T, mnemonic string, ops []Operand) []byte {
	t.Helper()
	insn, err := NewInsn(mnemonic, ops)
	if err != nil {
		t.Fatalf("NewInsn(%s): %v", mnemonic, err)
	}
	bc := bytecode.New(nil, 1, bytecode.NewInsn(insn), 10)
	if _, err := insn.CalcLen(bc, noopAddSpan); err != nil {
		t.Fatalf("CalcLen(%s): %v", mnemonic, err)
	}
	sink := &testSink{}
	if err := insn.Encode(bc, sink); err != nil {
		t.Fatalf("Encode(%s): %v", mnemonic, err)
	}
	return sink.out
}

func TestMovRegToReg(t *testing.T) {
	got := encodeInsn(t, "mov", []Operand{RegOperand(reg(t, "rax")), RegOperand(reg(t, "rcx"))})
	want := []byte{0x48, 0x89, 0xC8} // REX.W, MOV r/m,r, ModRM(reg=rcx,rm=rax)
	assertBytes(t, got, want)
}

func TestMovRegToRegExtended(t *testing.T) {
	got := encodeInsn(t, "mov", []Operand{RegOperand(reg(t, "r8")), RegOperand(reg(t, "r9"))})
	// REX.W + REX.R(src=r9) + REX.B(dst=r8) = 0x4D
	want := []byte{0x4D, 0x89, 0xC8}
	assertBytes(t, got, want)
}

func TestMovImmToReg(t *testing.T) {
	got := encodeInsn(t, "mov", []Operand{RegOperand(reg(t, "eax")), ImmOperand(constExpr(42))})
	want := []byte{0xB8, 0x2A, 0x00, 0x00, 0x00}
	assertBytes(t, got, want)
}

func TestMovImmToReg64(t *testing.T) {
	got := encodeInsn(t, "mov", []Operand{RegOperand(reg(t, "rax")), ImmOperand(constExpr(1))})
	want := []byte{0x48, 0xB8, 1, 0, 0, 0, 0, 0, 0, 0}
	assertBytes(t, got, want)
}

func TestMovRegFromMem(t *testing.T) {
	rbx := reg(t, "rbx")
	rax := reg(t, "rax")
	ea, err := EACreate(&rbx, nil, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := encodeInsn(t, "mov", []Operand{RegOperand(rax), MemOperand(ea)})
	// REX.W, MOV r,r/m (0x8B), ModRM(mod=00,reg=rax,rm=rbx)
	want := []byte{0x48, 0x8B, 0x03}
	assertBytes(t, got, want)
}

func TestAddRegReg(t *testing.T) {
	got := encodeInsn(t, "add", []Operand{RegOperand(reg(t, "eax")), RegOperand(reg(t, "ecx"))})
	want := []byte{0x01, 0xC8} // ADD r/m,r (base+1=0x01), no REX (32-bit default)
	assertBytes(t, got, want)
}

func TestCmpRegImm(t *testing.T) {
	got := encodeInsn(t, "cmp", []Operand{RegOperand(reg(t, "eax")), ImmOperand(constExpr(10))})
	want := []byte{0x81, 0xF8, 0x0A, 0x00, 0x00, 0x00} // 81 /7, imm32 always (no imm8 shortcut)
	assertBytes(t, got, want)
}

func TestShiftByCL(t *testing.T) {
	got := encodeInsn(t, "shl", []Operand{RegOperand(reg(t, "rax")), RegOperand(reg(t, "cl"))})
	want := []byte{0x48, 0xD3, 0xE0} // REX.W, D3 /4
	assertBytes(t, got, want)
}

func TestShiftByImm(t *testing.T) {
	got := encodeInsn(t, "shr", []Operand{RegOperand(reg(t, "eax")), ImmOperand(constExpr(3))})
	want := []byte{0xC1, 0xE8, 0x03} // C1 /5 ib
	assertBytes(t, got, want)
}

func TestPushPop(t *testing.T) {
	assertBytes(t, encodeInsn(t, "push", []Operand{RegOperand(reg(t, "rbp"))}), []byte{0x55})
	assertBytes(t, encodeInsn(t, "pop", []Operand{RegOperand(reg(t, "r12"))}), []byte{0x41, 0x5C})
}

func TestLea(t *testing.T) {
	rbx := reg(t, "rbx")
	rax := reg(t, "rax")
	disp := value.New(32, constExpr(8))
	ea, err := EACreate(&rbx, nil, 0, disp)
	if err != nil {
		t.Fatal(err)
	}
	got := encodeInsn(t, "lea", []Operand{RegOperand(rax), MemOperand(ea)})
	want := []byte{0x48, 0x8D, 0x43, 0x08} // REX.W, 8D, ModRM(mod=01,reg=rax,rm=rbx), disp8
	assertBytes(t, got, want)
}

func TestConstFormEncoders(t *testing.T) {
	assertBytes(t, encodeInsn(t, "nop", nil), []byte{0x90})
	assertBytes(t, encodeInsn(t, "ret", nil), []byte{0xC3})
	assertBytes(t, encodeInsn(t, "syscall", nil), []byte{0x0F, 0x05})
}

func TestNewInsnRejectsBadShape(t *testing.T) {
	if _, err := NewInsn("mov", []Operand{RegOperand(reg(t, "rax"))}); err == nil {
		t.Error("expected an error for mov with one operand")
	}
	if _, err := NewInsn("push", []Operand{RegOperand(reg(t, "rax")), RegOperand(reg(t, "rcx"))}); err == nil {
		t.Error("expected an error for push with two operands")
	}
	if _, err := NewInsn("jmp", []Operand{RegOperand(reg(t, "rax"))}); err == nil {
		t.Error("expected an error for jmp with a non-relative operand")
	}
	if _, err := NewInsn("bogus", nil); err == nil {
		t.Error("expected an error for an unrecognized mnemonic")
	}
}

// fakeArch is the minimal object.Arch used to build a section/object for
// the jmp-promotion scenario below.
type fakeArch struct{}

func (fakeArch) Name() string  { return "x86" }
func (fakeArch) WordSize() int { return 64 }

func TestShortJmpPromotesToNearAcrossOptimizer(t *testing.T) {
	obj := object.New(fakeArch{}, "a.asm", "a.o")
	sec := obj.AppendSection(".text", true, false)

	here := sec.Append(nil, 1)

	sec.Append(bytecode.NewGap(150), 2)
	target := sec.Append(bytecode.NewGap(0), 3)

	rel := expr.FromLocation(target.Loc(0))
	insn, err := NewInsn("jmp", []Operand{RelOperand(rel)})
	if err != nil {
		t.Fatalf("NewInsn(jmp): %v", err)
	}
	here.Contents = bytecode.NewInsn(insn)

	ew := errwarn.New(nil)
	o := optimizer.New(ew)
	if err := o.Optimize(obj); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if ew.HasErrors() {
		t.Fatalf("unexpected errors: %v", ew.Diags())
	}
	if here.Length() != 5 {
		t.Errorf("jmp length = %d, want 5 (should promote to near)", here.Length())
	}

	sink := &testSink{}
	if err := insn.Encode(here, sink); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(sink.out) != 5 || sink.out[0] != 0xE9 {
		t.Errorf("encoded jmp = % x, want E9 + 4-byte rel32", sink.out)
	}
}

func TestShortJmpStaysShortWhenInRange(t *testing.T) {
	obj := object.New(fakeArch{}, "a.asm", "a.o")
	sec := obj.AppendSection(".text", true, false)

	here := sec.Append(nil, 1)
	sec.Append(bytecode.NewGap(10), 2)
	target := sec.Append(bytecode.NewGap(0), 3)

	rel := expr.FromLocation(target.Loc(0))
	insn, err := NewInsn("jmp", []Operand{RelOperand(rel)})
	if err != nil {
		t.Fatalf("NewInsn(jmp): %v", err)
	}
	here.Contents = bytecode.NewInsn(insn)

	ew := errwarn.New(nil)
	o := optimizer.New(ew)
	if err := o.Optimize(obj); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if here.Length() != 2 {
		t.Errorf("jmp length = %d, want 2 (should stay short)", here.Length())
	}

	sink := &testSink{}
	if err := insn.Encode(here, sink); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(sink.out) != 2 || sink.out[0] != 0xEB {
		t.Errorf("encoded jmp = % x, want EB + 1-byte rel8", sink.out)
	}
}

func assertBytes(t *testing.T, got, want []byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got % x, want % x", got, want)
		}
	}
}

func constExpr(n int64) *expr.Expression {
	return expr.FromIntNum(intnum.FromInt64(n))
}
