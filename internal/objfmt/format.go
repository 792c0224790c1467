// Package objfmt implements the Output pipeline and the concrete object
// formats (spec C8 / §4.8, §6): bin, xdf, elf, coff/win32/win64, macho.
// Every format shares the same section-walking/value-resolution
// plumbing (sink.go) and differs only in how it lays out headers, a
// symbol table, and relocation records on disk.
//
// Grounded on xdf-objfmt.cpp (original_source) for the walk-then-patch
// output algorithm every format variant here follows, and on pe.go /
// macho.go / elf_complete.go for the manual little-endian byte-buffer
// idiom (no encoding/binary; le16/le32/le64 helpers appending to a []byte).
package objfmt

import (
	"io"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
)

// DirectiveRegisterer is the minimal view of the parser a format needs
// to install its own directives (spec §6 `addDirectives`); internal/
// driver's Parser satisfies this without objfmt importing it back.
type DirectiveRegisterer interface {
	AddDirective(name string, handler func(args string, line uint64) error)
}

// ObjectFormat is the pluggable output-format surface (spec §6).
type ObjectFormat interface {
	// Keyword is the format's `-f` selector (e.g. "bin", "elf64", "xdf").
	Keyword() string
	// SetObject binds the format to the Object it will later output.
	SetObject(obj *object.Object)
	// AddDefaultSection ensures the format's default section (".text"
	// for most, absolute segment 0 for bin) exists and is current.
	AddDefaultSection() *object.Section
	// AppendSection creates (or returns) a named section, applying the
	// format's default flags for that name (spec §4.5/§6).
	AppendSection(name string, line uint64) (*object.Section, error)
	// Output writes the finalized, optimized Object to w (spec §4.8).
	// allSyms asks for every symbol (not just used ones) in the output
	// symbol table; the formats here ignore it and always write every
	// symbol.
	Output(w io.Writer, allSyms bool, ew *errwarn.Errwarns) error
	// GetExtension returns the default output filename suffix.
	GetExtension() string
	// GetDefaultX86ModeBits returns the bitness this format implies
	// absent an explicit BITS directive (0 if format-agnostic).
	GetDefaultX86ModeBits() int
	// GetDbgfmtKeywords lists debug formats this object format can
	// carry (spec §6). ELF lists "dwarf2", the others list none; no
	// debug format is implemented in this repository.
	GetDbgfmtKeywords() []string
	// AddDirectives installs format-specific directives into p.
	AddDirectives(p DirectiveRegisterer)
}

// Taste inspects the leading bytes in peek to identify which of the
// formats below produced them, for `-f` auto-detection on disassembly/
// relink workflows (spec §6 `taste`). It only reads peek; the caller
// supplies those bytes, so no stream is consumed.
func Taste(peek []byte) (keyword string, ok bool) {
	switch {
	case len(peek) >= 4 && peek[0] == 0x87 && peek[1] == 0x65 && peek[2] == 0x43 && peek[3] == 0x22:
		return "xdf", true
	case len(peek) >= 4 && peek[0] == 0x7F && peek[1] == 'E' && peek[2] == 'L' && peek[3] == 'F':
		return "elf64", true
	case len(peek) >= 4 && peek[0] == 0xCF && peek[1] == 0xFA && peek[2] == 0xED && peek[3] == 0xFE:
		// MH_MAGIC_64 (0xFEEDFACF) as written little-endian by MachO.Output.
		return "macho64", true
	case len(peek) >= 2 && peek[0] == 0x4C && peek[1] == 0x01:
		// COFF IMAGE_FILE_MACHINE_I386 object, no MZ stub (a plain .obj).
		return "win32", true
	case len(peek) >= 2 && peek[0] == 0x64 && peek[1] == 0x86:
		return "win64", true
	}
	return "", false
}
