package nasmlite

import (
	"bytes"
	"testing"

	"github.com/yasm/yasm-go/internal/arch"
	"github.com/yasm/yasm-go/internal/driver"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/objfmt"
	"github.com/yasm/yasm-go/internal/optimizer"
)

// assemble runs source through the full pipeline (spec §6/§7's
// parse/finalize/optimize/output) exactly the way cmd/yasm will: a fresh
// Object, a NASM-lite Parser/Preprocessor pair, internal/optimizer, and
// the requested ObjectFormat.
func assemble(t *testing.T, source string, of interface {
	driver.ObjectFormat
	SetObject(*object.Object)
	AddDefaultSection() *object.Section
}) []byte {
	t.Helper()

	a := arch.New()
	if err := a.SetVar("mode_bits", 16); err != nil {
		t.Fatalf("SetVar(mode_bits): %v", err)
	}

	obj := object.New(a, "t.asm", "t.out")
	of.SetObject(obj)

	pp := NewRawPreproc("t.asm", source)
	p := NewParser(a)
	dirs := driver.NewDirectives()
	lm := driver.NewLineMap()
	ew := errwarn.New(errwarn.NewClassMask())

	var buf bytes.Buffer
	err := driver.Run(obj, pp, p, dirs, lm, func(o *object.Object) error {
		return optimizer.New(ew).Optimize(o)
	}, &buf, of, true, ew, false)
	if err != nil {
		t.Fatalf("Run: %v (diags: %v)", err, ew.Diags())
	}
	if ew.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ew.Diags())
	}
	return buf.Bytes()
}

// TestShortJumpPromotesAcrossTwoHundredNops exercises spec §8 scenario
// 1's source (`jmp near_end` / `times 200 nop` / `near_end:`), but
// against the real rel8 range (-128..127) internal/arch's Insn already
// implements and internal/arch/arch_test.go already covers with a
// smaller gap: a 200-byte forward distance does not fit an 8-bit signed
// displacement (127 max), so it promotes to the near (E9 + rel32) form
// exactly the way a 150-byte gap does in arch_test.go — not the short
// (EB + rel8) form the spec's own prose claims. The prose's arithmetic
// ("offset 202 from jmp end = 200, fits") is inconsistent with its own
// scenario 1/2 threshold: this test follows the already-built,
// already-tested threshold machinery instead of the inconsistent prose.
func TestShortJumpPromotesAcrossTwoHundredNops(t *testing.T) {
	src := "bits 16\njmp near_end\ntimes 200 nop\nnear_end:\n"
	out := assemble(t, src, objfmt.NewBin())

	if len(out) != 205 {
		t.Fatalf("len(out) = %d, want 205 (5-byte near jmp + 200 nops)", len(out))
	}
	if out[0] != 0xE9 {
		t.Errorf("out[0] = %#x, want 0xE9 (near jmp opcode)", out[0])
	}
	if got := int32(uint32(out[1]) | uint32(out[2])<<8 | uint32(out[3])<<16 | uint32(out[4])<<24); got != 200 {
		t.Errorf("rel32 = %d, want 200", got)
	}
	for i := 5; i < 205; i++ {
		if out[i] != 0x90 {
			t.Errorf("byte %d = %#x, want 0x90 (nop)", i, out[i])
		}
	}
}

// TestTimesAndData exercises spec §8 scenario 2: `times 3 db 0x55,0xAA`
// emits 0x55 0xAA three times over.
func TestTimesAndData(t *testing.T) {
	out := assemble(t, "times 3 db 0x55,0xAA\n", objfmt.NewBin())
	want := []byte{0x55, 0xAA, 0x55, 0xAA, 0x55, 0xAA}
	if !bytes.Equal(out, want) {
		t.Errorf("out = % x, want % x", out, want)
	}
}

// TestEquForwardReference exercises spec §8 scenario 3: `mov ax, FOO`
// precedes `FOO equ 0x1234`; FOO still resolves to a plain immediate.
func TestEquForwardReference(t *testing.T) {
	out := assemble(t, "mov ax, FOO\nFOO equ 0x1234\n", objfmt.NewBin())
	want := []byte{0xB8, 0x34, 0x12}
	if !bytes.Equal(out, want) {
		t.Errorf("out = % x, want % x", out, want)
	}
}

// TestAlignZeroFillsInDefaultSection exercises spec §8 scenario 4:
// `db 1` / `align 4` / `db 2` fills 3 zero bytes. NASM-lite's implicit
// default section is not marked executable (per the spec §9 open
// question over code-vs-data fill policy), so ALIGN's zero-fill path
// runs rather than arch.GetFill's NOP sequence.
func TestAlignZeroFillsInDefaultSection(t *testing.T) {
	out := assemble(t, "db 1\nalign 4\ndb 2\n", objfmt.NewBin())
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x02}
	if !bytes.Equal(out, want) {
		t.Errorf("out = % x, want % x", out, want)
	}
}

// TestSameSectionLabelDistance exercises spec §8 scenario 5: `a: dw
// b-a` / `b:` resolves the distance to the constant 2.
func TestSameSectionLabelDistance(t *testing.T) {
	out := assemble(t, "a: dw b-a\nb:\n", objfmt.NewBin())
	want := []byte{0x02, 0x00}
	if !bytes.Equal(out, want) {
		t.Errorf("out = % x, want % x", out, want)
	}
}

// TestOrgSetsLabelAddress exercises spec §8 scenario 6: `org 0x100` /
// `start:` / `mov ax, start` resolves `start` to 0x100 and writes at
// file offset 0 (the origin is a load-address basis, not a file-offset
// skip).
func TestOrgSetsLabelAddress(t *testing.T) {
	out := assemble(t, "org 0x100\nstart:\nmov ax, start\n", objfmt.NewBin())
	want := []byte{0xB8, 0x00, 0x01}
	if !bytes.Equal(out, want) {
		t.Errorf("out = % x, want % x", out, want)
	}
}
