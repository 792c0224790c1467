package symbol

import (
	"testing"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
)

func TestGetSymbolCreatesOnce(t *testing.T) {
	tbl := NewTable()
	a := tbl.GetSymbol("foo")
	b := tbl.GetSymbol("foo")
	if a != b {
		t.Error("GetSymbol should return the same instance for repeated calls")
	}
	if tbl.FindSymbol("bar") != nil {
		t.Error("FindSymbol should return nil for an undeclared name")
	}
}

func TestDeclareMergesVisibility(t *testing.T) {
	tbl := NewTable()
	s := tbl.GetSymbol("x")
	if err := s.Declare(Local, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Declare(Global, 2); err != nil {
		t.Fatal(err)
	}
	if !s.Visibility().Has(Global) {
		t.Error("expected GLOBAL after merge")
	}
}

func TestDefineEquThenRedefineFails(t *testing.T) {
	tbl := NewTable()
	s := tbl.GetSymbol("lbl")
	if err := s.DefineEqu(expr.FromIntNum(intnum.FromInt64(1)), 1); err != nil {
		t.Fatal(err)
	}
	if err := s.DefineEqu(expr.FromIntNum(intnum.FromInt64(2)), 2); err == nil {
		t.Error("redefining an already-defined symbol should error")
	}
}

func TestGlobalCannotBeEqu(t *testing.T) {
	tbl := NewTable()
	s := tbl.GetSymbol("g")
	if err := s.Declare(Global, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.DefineEqu(expr.FromIntNum(intnum.FromInt64(1)), 2); err == nil {
		t.Error("GLOBAL symbol should not be EQU-definable")
	}
}

func TestFinalizeUndefinedNasmDefault(t *testing.T) {
	tbl := NewTable()
	s := tbl.GetSymbol("undef")
	s.Use(10)
	ew := errwarn.New(nil)
	tbl.Finalize(ew, false)
	if !ew.HasErrors() {
		t.Error("expected an undefined-symbol error under NASM semantics")
	}
}

func TestFinalizeUndefinedGasDefault(t *testing.T) {
	tbl := NewTable()
	s := tbl.GetSymbol("undef")
	s.Use(10)
	ew := errwarn.New(nil)
	tbl.Finalize(ew, true)
	if ew.HasErrors() {
		t.Error("GAS semantics should convert to EXTERN, not error")
	}
	if !s.Visibility().Has(Extern) {
		t.Error("expected symbol to become EXTERN")
	}
}

func TestFinalizeIgnoresUnusedUndefined(t *testing.T) {
	tbl := NewTable()
	tbl.GetSymbol("never_used")
	ew := errwarn.New(nil)
	tbl.Finalize(ew, false)
	if ew.HasErrors() {
		t.Error("an undefined symbol that is never used should not error")
	}
}

func TestSpecialSymbolRegistry(t *testing.T) {
	tbl := NewTable()
	got := tbl.GetSymbol("..gotpcrel")
	tbl.RegisterSpecial("..gotpcrel", got)
	if tbl.FindSpecialSymbol("..gotpcrel") != got {
		t.Error("special symbol lookup failed")
	}
	if tbl.FindSpecialSymbol("..plt") != nil {
		t.Error("unregistered special symbol should be nil")
	}
}
