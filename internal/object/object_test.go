package object

import "testing"

type fakeArch struct{}

func (fakeArch) Name() string  { return "x86_64" }
func (fakeArch) WordSize() int { return 64 }

func TestAppendSectionFirstIsDefault(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	text := o.AppendSection(".text", true, false)
	if !text.IsDefault() {
		t.Error("first appended section should be the default")
	}
	data := o.AppendSection(".data", false, false)
	if data.IsDefault() {
		t.Error("second appended section should not be the default")
	}
	if o.CurSection() != text {
		t.Error("current section should start at the first appended section")
	}
}

func TestAppendSectionIdempotent(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	first := o.AppendSection(".text", true, false)
	second := o.AppendSection(".text", true, false)
	if first != second {
		t.Error("appending the same section name twice should return the same Section")
	}
}

func TestSectionsPreserveAppendOrder(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	o.AppendSection(".text", true, false)
	o.AppendSection(".data", false, false)
	o.AppendSection(".bss", false, true)
	names := []string{}
	for _, s := range o.Sections() {
		names = append(names, s.Name())
	}
	want := []string{".text", ".data", ".bss"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Sections()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestNewSectionHasSentinelBytecode(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	text := o.AppendSection(".text", true, false)
	bcs := text.Bytecodes()
	if len(bcs) != 1 {
		t.Fatalf("fresh section should hold exactly the sentinel, got %d bytecodes", len(bcs))
	}
	if bcs[0].Length() != 0 {
		t.Errorf("sentinel length = %d, want 0", bcs[0].Length())
	}
}

func TestSetCurSectionPivotsAppendTarget(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	text := o.AppendSection(".text", true, false)
	data := o.AppendSection(".data", false, false)
	o.SetCurSection(data)
	if o.CurSection() != data {
		t.Error("SetCurSection should change CurSection")
	}
	_ = text
}

func TestRegisterAndFindSpecialSymbol(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	sym := o.Symbols().GetSymbol("..gotpcrel")
	o.RegisterSpecialSymbol("..gotpcrel", sym)
	if o.FindSpecialSymbol("..gotpcrel") != sym {
		t.Error("FindSpecialSymbol should return the registered symbol")
	}
	if o.FindSpecialSymbol("..plt") != nil {
		t.Error("unregistered special symbol should be nil")
	}
}

func TestFindSectionMissingReturnsNil(t *testing.T) {
	o := New(fakeArch{}, "a.asm", "a.o")
	if o.FindSection(".text") != nil {
		t.Error("FindSection on an unappended name should return nil")
	}
}
