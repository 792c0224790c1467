package objfmt

import (
	"bytes"
	"testing"

	"github.com/yasm/yasm-go/internal/errwarn"
)

func TestELFOutputHeaderAndSectionCount(t *testing.T) {
	obj, _ := buildSimpleObject(t)
	f := NewELF()
	f.SetObject(obj)

	var buf bytes.Buffer
	ew := errwarn.New(errwarn.NewClassMask())
	if err := f.Output(&buf, true, ew); err != nil {
		t.Fatalf("Output: %v", err)
	}
	out := buf.Bytes()

	if len(out) < elfEHSize {
		t.Fatalf("output too short: %d bytes", len(out))
	}
	if out[0] != 0x7F || out[1] != 'E' || out[2] != 'L' || out[3] != 'F' {
		t.Fatalf("missing ELF magic: %x", out[:4])
	}
	if out[4] != 2 {
		t.Errorf("EI_CLASS = %d, want 2 (ELFCLASS64)", out[4])
	}
	if typ := le16At(out, 16); typ != etRel {
		t.Errorf("e_type = %d, want ET_REL (%d)", typ, etRel)
	}
	if mach := le16At(out, 18); mach != emX8664 {
		t.Errorf("e_machine = %d, want %d", mach, emX8664)
	}
	// 1 text section + null + symtab + strtab + shstrtab + one .rela.text
	// (the extern reference needs a relocation).
	if n := le16At(out, 60); n != 6 {
		t.Errorf("e_shnum = %d, want 6", n)
	}
	shoff := le32At(out, 40) // low 32 bits; file is well under 4GB in tests
	if uint64(shoff) >= uint64(len(out)) {
		t.Fatalf("e_shoff %d points outside output (len %d)", shoff, len(out))
	}
}
