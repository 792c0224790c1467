// Package object implements the Section/Object layer (spec C5 / §4.5): an
// Object owns an insertion-ordered set of Sections, each an ordered,
// non-empty list of Bytecodes. Grounded on elf_complete.go's layout map
// (offset/addr/size tracked per named section) for the bookkeeping shape,
// adapted from a fixed ELF section set to an open, parser-driven one.
package object

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/errwarn"
)

// AssocData is opaque per-format data a Section carries (spec §4.5: COFF
// flags, bin start/vstart, etc.); internal/objfmt type-asserts this to
// its own concrete type.
type AssocData any

// Section is an ordered, non-empty list of bytecodes (spec §3): the
// first is always the zero-length bytecode.Sentinel so offset 0 is a
// valid Location even in an empty section.
type Section struct {
	name    string
	id      uint64
	code    bool
	bss     bool
	deflt   bool // the first appended section, the parser's initial target
	nobase  bool
	align   uint64

	bcs []*bytecode.Bytecode

	lma     uint64
	hasLMA  bool
	vma     uint64
	hasVMA  bool
	filePos uint64

	follows  string // place immediately after this section (LMA)
	vfollows string // place immediately after this section (VMA)

	assoc AssocData
}

func newSection(name string, id uint64, code, bss bool) *Section {
	s := &Section{name: name, id: id, code: code, bss: bss}
	s.bcs = []*bytecode.Bytecode{bytecode.Sentinel(s)}
	return s
}

func (s *Section) Name() string { return s.name }

// SectionID implements bytecode.SectionRef.
func (s *Section) SectionID() uint64 { return s.id }

// IsCode implements bytecode.SectionRef.
func (s *Section) IsCode() bool { return s.code }

// IsBSS implements bytecode.SectionRef.
func (s *Section) IsBSS() bool { return s.bss }

func (s *Section) IsDefault() bool { return s.deflt }
func (s *Section) NoBase() bool    { return s.nobase }
func (s *Section) SetNoBase(v bool) { s.nobase = v }

func (s *Section) Align() uint64     { return s.align }
func (s *Section) SetAlign(a uint64) { s.align = a }

func (s *Section) LMA() (uint64, bool) { return s.lma, s.hasLMA }
func (s *Section) SetLMA(addr uint64)  { s.lma = addr; s.hasLMA = true }

func (s *Section) VMA() (uint64, bool) { return s.vma, s.hasVMA }
func (s *Section) SetVMA(addr uint64)  { s.vma = addr; s.hasVMA = true }

func (s *Section) FilePos() uint64     { return s.filePos }
func (s *Section) SetFilePos(p uint64) { s.filePos = p }

func (s *Section) Follows() (string, bool)  { return s.follows, s.follows != "" }
func (s *Section) SetFollows(name string)   { s.follows = name }
func (s *Section) VFollows() (string, bool) { return s.vfollows, s.vfollows != "" }
func (s *Section) SetVFollows(name string)  { s.vfollows = name }

func (s *Section) AssocData() AssocData     { return s.assoc }
func (s *Section) SetAssocData(a AssocData) { s.assoc = a }

// Bytecodes returns the ordered bytecode list, sentinel included.
func (s *Section) Bytecodes() []*bytecode.Bytecode { return s.bcs }

// Append adds a new Bytecode with the given contents at the end of the
// section, returning it so the caller can attach line information.
func (s *Section) Append(contents bytecode.Contents, line uint64) *bytecode.Bytecode {
	bc := bytecode.New(s, len(s.bcs), contents, line)
	s.bcs = append(s.bcs, bc)
	return bc
}

// Size is the section's total length in bytes, valid once the optimizer
// has run (spec §4.5: a BSS section "elides byte emission but still
// tracks length").
func (s *Section) Size() uint64 {
	var total uint64
	for _, bc := range s.bcs {
		total += uint64(bc.Length())
	}
	return total
}

// Finalize calls bytecode.Bytecode.Finalize on every bytecode in order
// (spec §4.4 lifecycle: "finalized once"). The leading sentinel is
// already in final form by construction and is skipped.
func (s *Section) Finalize(ew *errwarn.Errwarns) error {
	for _, bc := range s.bcs[1:] {
		if err := bc.Finalize(ew); err != nil {
			ew.PropagateErr(bc.Line, err)
		}
	}
	return nil
}
