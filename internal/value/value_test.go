package value

import (
	"testing"

	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
)

// fakeSymbol is a minimal expr.SymbolRef, following the same pattern
// internal/expr's own tests use to avoid depending on internal/symbol.
type fakeSymbol struct{ name string }

func (f *fakeSymbol) SymbolName() string                      { return f.name }
func (f *fakeSymbol) EquValue() (*expr.Expression, bool) { return nil, false }

// fakeEquSymbol is a SymbolRef bound to a constant expression, the way
// internal/symbol.Symbol looks once DefineEqu has run.
type fakeEquSymbol struct {
	name  string
	bound *expr.Expression
}

func (f *fakeEquSymbol) SymbolName() string { return f.name }
func (f *fakeEquSymbol) EquValue() (*expr.Expression, bool) { return f.bound, true }

type fakeBC struct {
	section uint64
	offset  uint64
	known   bool
}

func (b *fakeBC) SectionID() uint64              { return b.section }
func (b *fakeBC) BytecodeOffset() (uint64, bool) { return b.offset, b.known }
func (b *fakeBC) SameBytecode(o loc.BytecodeRef) bool {
	ob, ok := o.(*fakeBC)
	return ok && ob == b
}

func TestFromExpressionPlainConstant(t *testing.T) {
	e := expr.FromIntNum(intnum.FromInt64(42))
	v := FromExpression(e, 32, 1)
	if v.IsRelocatable() {
		t.Fatal("plain constant should not be relocatable")
	}
	n := v.GetIntNum()
	if n == nil || n.Int64() != 42 {
		t.Errorf("GetIntNum() = %v, want 42", n)
	}
}

func TestFromExpressionBareSymbol(t *testing.T) {
	sym := &fakeSymbol{name: "foo"}
	e := expr.FromSymbol(sym)
	v := FromExpression(e, 32, 1)
	if !v.IsRelocatable() {
		t.Fatal("bare symbol reference should be relocatable")
	}
	if v.Rel != sym {
		t.Errorf("Rel = %v, want %v", v.Rel, sym)
	}
}

func TestFromExpressionEquSymbolResolvesToConstant(t *testing.T) {
	sym := &fakeEquSymbol{name: "FOO", bound: expr.FromIntNum(intnum.FromInt64(0x1234))}
	e := expr.FromSymbol(sym)
	v := FromExpression(e, 16, 1)
	if v.IsRelocatable() {
		t.Fatal("an EQU-bound symbol should resolve to a constant, not a relocation")
	}
	n := v.GetIntNum()
	if n == nil || n.Int64() != 0x1234 {
		t.Errorf("GetIntNum() = %v, want 0x1234", n)
	}
}

func TestFromExpressionSegOf(t *testing.T) {
	sym := &fakeSymbol{name: "foo"}
	e := expr.MustNew(expr.OpSeg, expr.TermSymbol(sym))
	v := FromExpression(e, 16, 1)
	if !v.SegOf {
		t.Error("SEG wrapper should set SegOf")
	}
	if v.Rel != sym {
		t.Errorf("Rel = %v, want %v", v.Rel, sym)
	}
}

func TestFromExpressionWrt(t *testing.T) {
	sym := &fakeSymbol{name: "foo"}
	seg := &fakeSymbol{name: "mysegment"}
	e := expr.MustNew(expr.OpWrt, expr.TermSymbol(sym), expr.TermSymbol(seg))
	v := FromExpression(e, 32, 1)
	if v.Wrt != seg {
		t.Errorf("Wrt = %v, want %v", v.Wrt, seg)
	}
	if v.Rel != sym {
		t.Errorf("Rel = %v, want %v", v.Rel, sym)
	}
}

func TestFromExpressionSubtractiveLocation(t *testing.T) {
	bcA := &fakeBC{section: 1, offset: 0, known: true}
	bcB := &fakeBC{section: 1, offset: 10, known: true}
	e := expr.MustNew(expr.OpSub,
		expr.TermLocation(loc.Location{BC: bcB, Offset: 0}),
		expr.TermLocation(loc.Location{BC: bcA, Offset: 0}))
	v := FromExpression(e, 32, 1)
	if !v.IsRelocatable() {
		t.Fatal("subtractive value should be relocatable")
	}
	l, ok := GetSubLocation(v)
	if !ok {
		t.Fatal("expected a Sub location")
	}
	if l.BC != bcA {
		t.Errorf("sub location BC = %v, want bcA", l.BC)
	}
}

func TestFinalizeRejectsNonByteSize(t *testing.T) {
	v := New(5, expr.FromIntNum(intnum.FromInt64(1)))
	if err := v.Finalize(); err == nil {
		t.Error("size not a multiple of 8 should fail Finalize")
	}
}

func TestFinalizeRejectsSubWithWrt(t *testing.T) {
	sym := &fakeSymbol{name: "foo"}
	v := &Value{Size: 32, Sub: &SubRef{Sym: sym}, Wrt: sym}
	if err := v.Finalize(); err == nil {
		t.Error("combining Sub with Wrt should fail Finalize")
	}
}

func TestOutputBasicConstant(t *testing.T) {
	v := New(16, expr.FromIntNum(intnum.FromInt64(0x1234)))
	buf, err := OutputBasic(v, 0, nil, nil, 1)
	if err != nil {
		t.Fatalf("OutputBasic: %v", err)
	}
	want := []byte{0x34, 0x12} // little-endian
	if string(buf) != string(want) {
		t.Errorf("OutputBasic = % x, want % x", buf, want)
	}
}

func TestOutputBasicRelocatableNeedsEmitter(t *testing.T) {
	sym := &fakeSymbol{name: "foo"}
	v := FromExpression(expr.FromSymbol(sym), 32, 1)
	if _, err := OutputBasic(v, 0, nil, nil, 1); err == nil {
		t.Error("relocatable value with no emitter should error")
	}
}

type stubEmitter struct{ bytes []byte }

func (s *stubEmitter) EmitRelocatable(v *Value, sectionOffset uint64) ([]byte, error) {
	return s.bytes, nil
}

func TestOutputBasicRelocatableUsesEmitter(t *testing.T) {
	sym := &fakeSymbol{name: "foo"}
	v := FromExpression(expr.FromSymbol(sym), 32, 1)
	emitter := &stubEmitter{bytes: []byte{0, 0, 0, 0}}
	buf, err := OutputBasic(v, 100, emitter, nil, 1)
	if err != nil {
		t.Fatalf("OutputBasic: %v", err)
	}
	if len(buf) != 4 {
		t.Errorf("len(buf) = %d, want 4", len(buf))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	v := New(32, expr.FromIntNum(intnum.FromInt64(7)))
	cp := v.Clone()
	cp.Size = 16
	if v.Size == 16 {
		t.Error("Clone should not alias the original")
	}
}
