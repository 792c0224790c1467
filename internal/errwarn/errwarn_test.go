package errwarn

import (
	"strings"
	"testing"
)

func TestComposeRepeatedArg(t *testing.T) {
	got := Compose("%1 went to %2 and %1 came back from %2", "Alice", "the store")
	want := "Alice went to the store and Alice came back from the store"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

func TestComposeLiteralPercent(t *testing.T) {
	got := Compose("100%% done, %1 left", "0")
	if got != "100% done, 0 left" {
		t.Errorf("Compose() = %q", got)
	}
}

func TestClassMaskDisableAll(t *testing.T) {
	m := NewClassMask()
	m.DisableAll()
	for c := WarnUnrecChar; c <= WarnGeneral; c++ {
		if m.Enabled(c) {
			t.Errorf("class %s should be disabled", c)
		}
	}
	m.Enable(WarnOrphanLabel, true)
	if !m.Enabled(WarnOrphanLabel) {
		t.Error("orphan-label should be re-enabled")
	}
}

func TestErrwarnsOrdersByLine(t *testing.T) {
	e := New(nil)
	e.Error(10, KindSyntax, "bad token")
	e.Error(3, KindValue, "bad value")
	e.Warn(7, WarnGeneral, "heads up")

	diags := e.Diags()
	if len(diags) != 3 {
		t.Fatalf("got %d diags, want 3", len(diags))
	}
	for i := 1; i < len(diags); i++ {
		if diags[i-1].Line > diags[i].Line {
			t.Errorf("diags not sorted: %+v", diags)
		}
	}
}

func TestErrwarnsWarningSuppressedByMask(t *testing.T) {
	mask := NewClassMask()
	mask.Enable(WarnSizeOverride, false)
	e := New(mask)
	e.Warn(1, WarnSizeOverride, "operand size mismatch")
	if len(e.Diags()) != 0 {
		t.Errorf("expected suppressed warning to be dropped, got %+v", e.Diags())
	}
}

func TestNumErrorsPromotesWarnings(t *testing.T) {
	e := New(nil)
	e.Warn(1, WarnGeneral, "just a warning")
	if e.NumErrors(false) != 0 {
		t.Errorf("warning should not count as error without -Werror")
	}
	if e.NumErrors(true) != 1 {
		t.Errorf("warning should count as error with -Werror")
	}
}

func TestPropagateBindsLine(t *testing.T) {
	e := New(nil)
	SetWarn(WarnGeneral, "orphaned")
	e.Propagate(42)
	diags := e.Diags()
	if len(diags) != 1 || diags[0].Line != 42 {
		t.Fatalf("propagate did not bind line: %+v", diags)
	}
}

func TestFormatStyles(t *testing.T) {
	d := Diag{Line: 5, Kind: KindSyntax, Message: "unexpected token"}
	gnu := Format(StyleGNU, "foo.asm", d)
	if !strings.HasPrefix(gnu, "foo.asm:5:") {
		t.Errorf("GNU style = %q", gnu)
	}
	vc := Format(StyleVC, "foo.asm", d)
	if !strings.HasPrefix(vc, "foo.asm(5) :") {
		t.Errorf("VC style = %q", vc)
	}
}

func TestInternalErrorKind(t *testing.T) {
	err := Internal("span %1 lost its bytecode", "3")
	if err.Kind != KindInternal {
		t.Errorf("Internal() kind = %v, want KindInternal", err.Kind)
	}
	var ae *AsmError
	if !AsError(err, &ae) {
		t.Fatal("AsError failed to unwrap *AsmError")
	}
}
