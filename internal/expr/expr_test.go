package expr

import (
	"testing"

	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
)

// fakeSymbol is a minimal SymbolRef for testing EQU substitution without
// depending on internal/symbol (which itself depends on this package).
type fakeSymbol struct {
	name string
	equ  *Expression
}

func (f *fakeSymbol) SymbolName() string { return f.name }
func (f *fakeSymbol) EquValue() (*Expression, bool) {
	if f.equ == nil {
		return nil, false
	}
	return f.equ, true
}

// fakeBC is a minimal loc.BytecodeRef for distance tests.
type fakeBC struct {
	section uint64
	offset  uint64
	known   bool
	self    *fakeBC
}

func (b *fakeBC) SectionID() uint64 { return b.section }
func (b *fakeBC) BytecodeOffset() (uint64, bool) { return b.offset, b.known }
func (b *fakeBC) SameBytecode(o loc.BytecodeRef) bool {
	ob, ok := o.(*fakeBC)
	return ok && ob == b
}

func TestNewArityValidation(t *testing.T) {
	if _, err := New(OpNeg, TermInt(intnum.FromInt64(1)), TermInt(intnum.FromInt64(2))); err == nil {
		t.Error("NEG with two operands should fail")
	}
	if _, err := New(OpAdd); err == nil {
		t.Error("ADD with zero operands should fail")
	}
	if _, err := New(OpSegOff, TermInt(intnum.FromInt64(1)), TermInt(intnum.FromInt64(2))); err != nil {
		t.Errorf("SEGOFF with two operands should succeed: %v", err)
	}
}

func TestSimplifyConstantFold(t *testing.T) {
	e := MustNew(OpAdd, TermInt(intnum.FromInt64(2)), TermInt(intnum.FromInt64(3)), TermInt(intnum.FromInt64(4)))
	got := e.Simplify()
	if n := got.GetIntNum(); n == nil || n.Int64() != 9 {
		t.Errorf("simplify(2+3+4) = %v, want IntNum(9)", got)
	}
}

func TestSimplifyIdentities(t *testing.T) {
	x := MustNew(OpIdent, TermSymbol(&fakeSymbol{name: "x"}))
	addZero := MustNew(OpAdd, TermExpr(x), TermInt(intnum.FromInt64(0)))
	got := addZero.Simplify()
	if got.GetSymbol() == nil || got.GetSymbol().SymbolName() != "x" {
		t.Errorf("simplify(x+0) = %v, want x", got)
	}

	mulZero := MustNew(OpMul, TermExpr(x), TermInt(intnum.FromInt64(0)))
	got2 := mulZero.Simplify()
	if n := got2.GetIntNum(); n == nil || !n.IsZero() {
		t.Errorf("simplify(x*0) = %v, want 0", got2)
	}
}

func TestSimplifyNegNeg(t *testing.T) {
	x := MustNew(OpIdent, TermSymbol(&fakeSymbol{name: "x"}))
	negneg := MustNew(OpNeg, TermExpr(MustNew(OpNeg, TermExpr(x))))
	got := negneg.Simplify()
	if got.GetSymbol() == nil || got.GetSymbol().SymbolName() != "x" {
		t.Errorf("simplify(-(-x)) = %v, want x", got)
	}
}

func TestSimplifyEquForwardReference(t *testing.T) {
	// FOO equ 0x1234 ; mov ax, FOO  (spec §8 scenario 3)
	foo := &fakeSymbol{name: "FOO", equ: FromIntNum(intnum.FromInt64(0x1234))}
	ref := MustNew(OpIdent, TermSymbol(foo))
	got := ref.Simplify()
	if n := got.GetIntNum(); n == nil || n.Int64() != 0x1234 {
		t.Errorf("simplify(FOO) = %v, want 0x1234", got)
	}
}

func TestSimplifyEquCycleDetection(t *testing.T) {
	a := &fakeSymbol{name: "A"}
	b := &fakeSymbol{name: "B"}
	a.equ = FromSymbol(b)
	b.equ = FromSymbol(a)

	ref := FromSymbol(a)
	got := ref.Simplify()
	// Neither A nor B has a constant value; substitution must terminate
	// instead of recursing forever, and must not spuriously produce an
	// IntNum.
	if got.IsIntNum() {
		t.Errorf("cyclic EQU should not simplify to a constant, got %v", got)
	}
}

func TestSimplifyDistanceSameSection(t *testing.T) {
	bcA := &fakeBC{section: 1, offset: 100, known: true}
	bcB := &fakeBC{section: 1, offset: 300, known: true}
	a := loc.Location{BC: bcA, Offset: 0}
	b := loc.Location{BC: bcB, Offset: 2}

	dist := MustNew(OpSub, TermLocation(b), TermLocation(a))
	got := dist.Simplify()
	n := got.GetIntNum()
	if n == nil {
		t.Fatalf("simplify(b-a) = %v, want a constant", got)
	}
	want := int64(300+2) - int64(100+0)
	if n.Int64() != want {
		t.Errorf("distance = %d, want %d", n.Int64(), want)
	}
}

func TestSimplifyDistanceUnknownOffsetStaysSymbolic(t *testing.T) {
	bcA := &fakeBC{section: 1, known: false}
	bcB := &fakeBC{section: 1, known: false}
	a := loc.Location{BC: bcA}
	b := loc.Location{BC: bcB}

	dist := MustNew(OpSub, TermLocation(b), TermLocation(a))
	got := dist.Simplify()
	if got.IsIntNum() {
		t.Errorf("distance with unknown offsets should not fold, got %v", got)
	}
}

func TestSimplifyFixpoint(t *testing.T) {
	e := MustNew(OpAdd, TermInt(intnum.FromInt64(1)), TermInt(intnum.FromInt64(2)))
	once := e.Simplify()
	twice := once.Simplify()
	if once.String() != twice.String() {
		t.Errorf("simplify is not idempotent: %v != %v", once, twice)
	}
}
