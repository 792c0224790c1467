package bytecode

import (
	"os"
	"testing"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/value"
)

type fakeSection struct {
	id    uint64
	code  bool
	bss   bool
}

func (s *fakeSection) SectionID() uint64 { return s.id }
func (s *fakeSection) IsCode() bool      { return s.code }
func (s *fakeSection) IsBSS() bool       { return s.bss }

// recordSink is a minimal OutputSink that records written/advanced bytes
// in order, so tests can assert on exact emitted content.
type recordSink struct {
	out []byte
}

func (s *recordSink) WriteBytes(b []byte) error {
	s.out = append(s.out, b...)
	return nil
}

func (s *recordSink) WriteValue(v *value.Value) error { return nil }

func (s *recordSink) Advance(n int) error {
	s.out = append(s.out, make([]byte, n)...)
	return nil
}

func newBC(sec SectionRef, c Contents) *Bytecode {
	return New(sec, 1, c, 10)
}

func constExpr(n int64) *expr.Expression {
	return expr.FromIntNum(intnum.FromInt64(n))
}

func TestGapBSSAdvancesWithoutBytes(t *testing.T) {
	sec := &fakeSection{bss: true}
	bc := newBC(sec, NewGap(16))
	if _, err := bc.CalcLen(nil); err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	sink := &recordSink{}
	if err := bc.Contents.Output(bc, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if len(sink.out) != 16 {
		t.Fatalf("want 16 bytes advanced, got %d", len(sink.out))
	}
}

func TestGapNonBSSWritesZeroBytes(t *testing.T) {
	sec := &fakeSection{}
	bc := newBC(sec, NewGap(4))
	bc.SetLength(4)
	sink := &recordSink{}
	if err := bc.Contents.Output(bc, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if len(sink.out) != 4 {
		t.Fatalf("want 4 bytes, got %d", len(sink.out))
	}
}

func TestGapNegativeCountRejected(t *testing.T) {
	g := NewGap(-1)
	if err := g.Finalize(nil, errwarn.New(nil)); err == nil {
		t.Error("negative gap count should fail Finalize")
	}
}

func TestAlignPadsToBoundary(t *testing.T) {
	a := NewAlign(constExpr(16), nil, nil, nil)
	ew := errwarn.New(nil)
	if err := a.Finalize(nil, ew); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sec := &fakeSection{}
	bc := newBC(sec, a)
	bc.SetOffset(10)
	n, err := bc.CalcLen(nil)
	if err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	if n != 6 {
		t.Errorf("align(10, 16) padding = %d, want 6", n)
	}
}

func TestAlignAlreadyOnBoundary(t *testing.T) {
	a := NewAlign(constExpr(4), nil, nil, nil)
	if err := a.Finalize(nil, errwarn.New(nil)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sec := &fakeSection{}
	bc := newBC(sec, a)
	bc.SetOffset(8)
	n, _ := bc.CalcLen(nil)
	if n != 0 {
		t.Errorf("align(8, 4) padding = %d, want 0", n)
	}
}

func TestAlignRejectsNonPowerOfTwo(t *testing.T) {
	a := NewAlign(constExpr(6), nil, nil, nil)
	if err := a.Finalize(nil, errwarn.New(nil)); err == nil {
		t.Error("boundary 6 is not a power of two, should fail")
	}
}

func TestAlignUsesCodeFillForCodeSection(t *testing.T) {
	codeFill := func(n int) []byte {
		out := make([]byte, n)
		for i := range out {
			out[i] = 0x90
		}
		return out
	}
	a := NewAlign(constExpr(4), nil, codeFill, nil)
	if err := a.Finalize(nil, errwarn.New(nil)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sec := &fakeSection{code: true}
	bc := newBC(sec, a)
	bc.SetOffset(1)
	n, _ := bc.CalcLen(nil)
	bc.SetLength(n)
	sink := &recordSink{}
	if err := a.Output(bc, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	for _, b := range sink.out {
		if b != 0x90 {
			t.Fatalf("code-section align fill = %#x, want 0x90 (nop)", b)
		}
	}
}

func TestOrgPadsToTarget(t *testing.T) {
	o := NewOrg(constExpr(0x100), nil)
	if err := o.Finalize(nil, errwarn.New(nil)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sec := &fakeSection{}
	bc := newBC(sec, o)
	bc.SetOffset(0x80)
	n, err := bc.CalcLen(nil)
	if err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	if n != 0x80 {
		t.Errorf("org padding = %#x, want 0x80", n)
	}
}

func TestOrgBehindCurrentOffsetErrors(t *testing.T) {
	o := NewOrg(constExpr(0x10), nil)
	if err := o.Finalize(nil, errwarn.New(nil)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sec := &fakeSection{}
	bc := newBC(sec, o)
	bc.SetOffset(0x20)
	if _, err := bc.CalcLen(nil); err == nil {
		t.Error("ORG target before current offset should error")
	}
}

func TestMultipleRepeatsSubcontentsCount(t *testing.T) {
	sub := NewGap(3)
	m := NewMultiple(sub, constExpr(4))
	sec := &fakeSection{}
	bc := newBC(sec, m)
	if err := bc.Finalize(errwarn.New(nil)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	n, err := bc.CalcLen(nil)
	if err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	if n != 12 {
		t.Errorf("times 4 of 3 bytes = %d, want 12", n)
	}
	bc.SetLength(n)
	sink := &recordSink{}
	if err := m.Output(bc, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if len(sink.out) != 12 {
		t.Errorf("output len = %d, want 12", len(sink.out))
	}
}

func TestMultipleRejectsNegativeCount(t *testing.T) {
	m := NewMultiple(NewGap(1), constExpr(-1))
	if err := m.Finalize(nil, errwarn.New(nil)); err == nil {
		t.Error("negative times count should fail")
	}
}

func TestIncbinReadsSliceOfFile(t *testing.T) {
	f, err := os.CreateTemp("", "incbin-*.bin")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	ib := NewIncbin(f.Name(), constExpr(2), constExpr(3))
	if err := ib.Finalize(nil, errwarn.New(nil)); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	n, err := ib.CalcLen(nil, nil)
	if err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	if n != 3 {
		t.Fatalf("incbin length = %d, want 3", n)
	}
	sink := &recordSink{}
	if err := ib.Output(nil, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	want := []byte{3, 4, 5}
	if string(sink.out) != string(want) {
		t.Errorf("incbin bytes = %v, want %v", sink.out, want)
	}
}

func TestIncbinMissingFileErrors(t *testing.T) {
	ib := NewIncbin("/nonexistent/path/does-not-exist.bin", nil, nil)
	if err := ib.Finalize(nil, errwarn.New(nil)); err == nil {
		t.Error("missing incbin file should error")
	}
}

func TestLeb128UnsignedSmallValue(t *testing.T) {
	l := NewLeb128(constExpr(624485), false)
	n, err := l.CalcLen(nil, nil)
	if err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	if n != 3 {
		t.Fatalf("uleb128(624485) length = %d, want 3", n)
	}
	sink := &recordSink{}
	bc := newBC(&fakeSection{}, l)
	bc.SetLength(n)
	if err := l.Output(bc, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	want := []byte{0xe5, 0x8e, 0x26}
	if string(sink.out) != string(want) {
		t.Errorf("uleb128(624485) = % x, want % x", sink.out, want)
	}
}

func TestLeb128SignedNegativeValue(t *testing.T) {
	l := NewLeb128(constExpr(-123456), true)
	n, err := l.CalcLen(nil, nil)
	if err != nil {
		t.Fatalf("CalcLen: %v", err)
	}
	sink := &recordSink{}
	bc := newBC(&fakeSection{}, l)
	bc.SetLength(n)
	if err := l.Output(bc, sink); err != nil {
		t.Fatalf("Output: %v", err)
	}
	want := []byte{0xc0, 0xbb, 0x78}
	if string(sink.out) != string(want) {
		t.Errorf("sleb128(-123456) = % x, want % x", sink.out, want)
	}
}
