package objfmt

import (
	"io"
	"sort"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/symbol"
	"github.com/yasm/yasm-go/internal/value"
)

// ELF writes an ELF64 relocatable object (ET_REL): just the sections the
// assembler produced, a symbol table, and one .rela section per user
// section that needed relocations — no program headers, no dynamic
// linking, nothing an executable needs that a linker will supply later.
// Manual little-endian buffer-writing idiom grounded on elf_complete.go
// / codegen_elf_writer.go's writer style, trimmed from their
// fully-linked-executable scope down to what a relocatable object needs;
// the numeric ELF/relocation constants themselves are the System V
// x86-64 psABI's fixed values, not a design choice.
type ELF struct {
	obj *object.Object
}

func NewELF() *ELF { return &ELF{} }

func (f *ELF) Keyword() string { return "elf64" }

func (f *ELF) SetObject(obj *object.Object) { f.obj = obj }

func (f *ELF) AddDefaultSection() *object.Section {
	return f.obj.AppendSection(".text", true, false)
}

func (f *ELF) AppendSection(name string, line uint64) (*object.Section, error) {
	bss := name == ".bss"
	sec := f.obj.AppendSection(name, !bss, bss)
	return sec, nil
}

func (f *ELF) GetExtension() string        { return ".o" }
func (f *ELF) GetDefaultX86ModeBits() int  { return 64 }
func (f *ELF) GetDbgfmtKeywords() []string { return []string{"dwarf2"} }
func (f *ELF) AddDirectives(p DirectiveRegisterer) {}

// ELF64 fixed-size constants.
const (
	elfEHSize     = 64
	elfSHEntSize  = 64
	elfSymEntSize = 24

	etRel    = 1
	emX8664  = 62
	shtNull  = 0
	shtProgbits = 1
	shtSymtab   = 2
	shtStrtab   = 3
	shtRela     = 4
	shtNobits   = 8

	shfWrite     = 1 << 0
	shfAlloc     = 1 << 1
	shfExecinstr = 1 << 2

	stbLocal  = 0
	stbGlobal = 1
	sttNotype = 0
	sttObject = 1
	sttFunc   = 2

	shnUndef = 0
	shnAbs   = 0xfff1

	rX8664_64   = 1
	rX8664_32   = 10
	rX8664_32S  = 11
	rX8664_PC32 = 2
)

type elfRela struct {
	offset uint64
	symIdx uint32
	typ    uint32
	addend int64
}

func (f *ELF) Output(w io.Writer, allSyms bool, ew *errwarn.Errwarns) error {
	sections := f.obj.Sections()

	type secRec struct {
		sec    *object.Section
		data   []byte
		relocs []elfRela
	}
	recs := make([]*secRec, len(sections))
	for i, sec := range sections {
		recs[i] = &secRec{sec: sec}
	}

	syms := f.obj.Symbols().All()
	// ELF requires all STB_LOCAL symbols before any STB_GLOBAL one.
	sort.SliceStable(syms, func(i, j int) bool {
		return !syms[i].Visibility().Has(symbol.Global) && syms[j].Visibility().Has(symbol.Global)
	})
	symIndex := make(map[*symbol.Symbol]int, len(syms))
	firstGlobal := uint32(1)
	for i, s := range syms {
		symIndex[s] = i + 1 // entry 0 is the null symbol
		if !s.Visibility().Has(symbol.Global) {
			firstGlobal = uint32(i + 2)
		}
	}

	secIndexByID := make(map[uint64]int, len(sections))
	for i, sec := range sections {
		secIndexByID[sec.SectionID()] = i + 1 // +1: ELF index 0 is SHN_UNDEF/null section
	}

	for _, r := range recs {
		if r.sec.IsBSS() {
			continue
		}
		data, err := outputSection(r.sec, ew, elfRelocFor(symIndex, &r.relocs))
		if err != nil {
			return err
		}
		r.data = data
	}

	// --- string tables ---
	var shstrtab, strtab []byte
	shstrtab = append(shstrtab, 0)
	strtab = append(strtab, 0)
	shNameOff := map[string]uint32{}
	addShName := func(name string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(shstrtab, []byte(name)...)
		shstrtab = append(shstrtab, 0)
		shNameOff[name] = off
		return off
	}
	for _, r := range recs {
		addShName(r.sec.Name())
	}
	addShName(".symtab")
	addShName(".strtab")
	addShName(".shstrtab")
	relaNameOff := map[string]uint32{}
	for _, r := range recs {
		if len(r.relocs) == 0 {
			continue
		}
		relaNameOff[r.sec.Name()] = addShName(".rela" + r.sec.Name())
	}

	symNameOff := make(map[*symbol.Symbol]uint32, len(syms))
	for _, s := range syms {
		off := uint32(len(strtab))
		strtab = append(strtab, []byte(s.SymbolName())...)
		strtab = append(strtab, 0)
		symNameOff[s] = off
	}

	// --- symbol table ---
	symtab := make([]byte, elfSymEntSize) // null entry
	for _, s := range syms {
		shndx, symVal := elfResolveSymbol(s, secIndexByID, ew)
		bind := uint8(stbLocal)
		if s.Visibility().Has(symbol.Global) {
			bind = stbGlobal
		}
		typ := uint8(sttNotype)
		if s.BindKind() == symbol.BindLabel {
			if sec, ok := s.Label(); ok && sec.BC != nil {
				if bcSec, ok2 := sectionRefFromBC(sec.BC, secIndexByID, sections); ok2 && bcSec.IsCode() {
					typ = sttFunc
				} else {
					typ = sttObject
				}
			}
		}
		symtab = append(symtab, le32(symNameOff[s])...)
		symtab = append(symtab, (bind<<4)|typ)
		symtab = append(symtab, 0) // st_other
		symtab = append(symtab, le16(shndx)...)
		symtab = append(symtab, le64(symVal)...)
		symtab = append(symtab, le64(0)...) // st_size: unknown at this layer
	}
	if ew.HasErrors() {
		return errwarn.NewError(errwarn.KindValue, "elf output aborted due to prior errors")
	}

	// --- lay out section headers + data ---
	type shdr struct {
		name, typ, flags uint32
		addr             uint64
		offset, size     uint64
		link, info       uint32
		align, entsize   uint64
	}
	var shdrs []shdr
	shdrs = append(shdrs, shdr{}) // SHN_UNDEF

	cursor := uint64(elfEHSize)
	numSections := uint32(1 + len(recs) + 3 + len(relaNameOff))
	cursor += uint64(numSections) * elfSHEntSize

	dataOffsets := make([]uint64, len(recs))
	for i, r := range recs {
		flags := uint32(shfAlloc)
		typ := uint32(shtProgbits)
		if r.sec.IsBSS() {
			typ = shtNobits
		}
		if r.sec.IsCode() {
			flags |= shfExecinstr
		} else {
			flags |= shfWrite
		}
		if !r.sec.IsBSS() {
			dataOffsets[i] = cursor
			cursor += uint64(len(r.data))
		}
		addr, _ := r.sec.VMA()
		shdrs = append(shdrs, shdr{
			name: shNameOff[r.sec.Name()], typ: typ, flags: flags,
			addr: addr, offset: dataOffsets[i], size: r.sec.Size(), align: 1,
		})
	}

	symtabOff := cursor
	cursor += uint64(len(symtab))
	strtabOff := cursor
	cursor += uint64(len(strtab))
	shstrtabOff := cursor
	cursor += uint64(len(shstrtab))

	shdrs = append(shdrs, shdr{
		name: shNameOff[".symtab"], typ: shtSymtab, offset: symtabOff, size: uint64(len(symtab)),
		link: uint32(1 + len(recs) + 1), info: firstGlobal, align: 8, entsize: elfSymEntSize,
	})
	shdrs = append(shdrs, shdr{
		name: shNameOff[".strtab"], typ: shtStrtab, offset: strtabOff, size: uint64(len(strtab)), align: 1,
	})
	shdrs = append(shdrs, shdr{
		name: shNameOff[".shstrtab"], typ: shtStrtab, offset: shstrtabOff, size: uint64(len(shstrtab)), align: 1,
	})

	relaOffsets := make(map[string]uint64, len(relaNameOff))
	relaBytes := make(map[string][]byte, len(relaNameOff))
	for i, r := range recs {
		if len(r.relocs) == 0 {
			continue
		}
		var rb []byte
		for _, rel := range r.relocs {
			rb = append(rb, le64(rel.offset)...)
			rb = append(rb, le32(rel.symIdx)...)
			rb = append(rb, le32(rel.typ)...)
			rb = append(rb, le64(uint64(rel.addend))...)
		}
		relaOffsets[r.sec.Name()] = cursor
		relaBytes[r.sec.Name()] = rb
		cursor += uint64(len(rb))
		shdrs = append(shdrs, shdr{
			name: relaNameOff[r.sec.Name()], typ: shtRela,
			offset: relaOffsets[r.sec.Name()], size: uint64(len(rb)),
			link: uint32(1 + len(recs)), info: uint32(i + 1),
			align: 8, entsize: 24,
		})
	}

	// --- assemble file ---
	var out []byte
	out = append(out, 0x7F, 'E', 'L', 'F', 2 /*ELFCLASS64*/, 1 /*little-endian*/, 1 /*EV_CURRENT*/, 0)
	out = append(out, make([]byte, 8)...) // e_ident padding
	out = append(out, le16(etRel)...)
	out = append(out, le16(emX8664)...)
	out = append(out, le32(1)...) // e_version
	out = append(out, le64(0)...) // e_entry
	out = append(out, le64(0)...) // e_phoff
	out = append(out, le64(0)...) // e_shoff, patched below once known
	out = append(out, le32(0)...) // e_flags
	out = append(out, le16(elfEHSize)...)
	out = append(out, le16(0)...) // e_phentsize
	out = append(out, le16(0)...) // e_phnum
	out = append(out, le16(elfSHEntSize)...)
	shstrtabIdx := uint16(1 + len(recs) + 3 - 1) // null, recs..., symtab, strtab, shstrtab
	out = append(out, le16(uint16(numSections))...)
	out = append(out, le16(shstrtabIdx)...) // e_shstrndx

	// The section header table is written directly after the ELF header,
	// ahead of the section data; patch e_shoff (offset 40) to point at it.
	shoff := uint64(elfEHSize)
	le64Into(out, 40, shoff)

	for _, h := range shdrs {
		out = append(out, le32(h.name)...)
		out = append(out, le32(h.typ)...)
		out = append(out, le64(uint64(h.flags))...)
		out = append(out, le64(h.addr)...)
		out = append(out, le64(h.offset)...)
		out = append(out, le64(h.size)...)
		out = append(out, le32(h.link)...)
		out = append(out, le32(h.info)...)
		out = append(out, le64(h.align)...)
		out = append(out, le64(h.entsize)...)
	}
	for _, r := range recs {
		if !r.sec.IsBSS() {
			out = append(out, r.data...)
		}
	}
	out = append(out, symtab...)
	out = append(out, strtab...)
	out = append(out, shstrtab...)
	for _, r := range recs {
		if rb, ok := relaBytes[r.sec.Name()]; ok {
			out = append(out, rb...)
		}
	}

	_, err := w.Write(out)
	return err
}

func elfResolveSymbol(s *symbol.Symbol, secIndexByID map[uint64]int, ew *errwarn.Errwarns) (shndx uint16, val uint64) {
	switch s.BindKind() {
	case symbol.BindLabel:
		l, _ := s.Label()
		off, ok := l.SectionOffset()
		if !ok {
			ew.Error(s.DefLine(), errwarn.KindInternal, "symbol `%1' has an unresolved offset at output time", s.SymbolName())
			return shnUndef, 0
		}
		return uint16(secIndexByID[l.BC.SectionID()]), off
	case symbol.BindEqu:
		e, _ := s.EquValue()
		if n := e.Simplify().GetIntNum(); n != nil {
			return shnAbs, n.Uint64()
		}
		if s.Visibility().Has(symbol.Global) {
			ew.Error(s.DefLine(), errwarn.KindNotConstant, "global EQU value `%1' is not a constant integer expression", s.SymbolName())
		}
		return shnAbs, 0
	default:
		return shnUndef, 0
	}
}

func sectionRefFromBC(bc interface{ SectionID() uint64 }, secIndexByID map[uint64]int, sections []*object.Section) (*object.Section, bool) {
	for _, sec := range sections {
		if sec.SectionID() == bc.SectionID() {
			return sec, true
		}
	}
	return nil, false
}

func elfRelocFor(symIndex map[*symbol.Symbol]int, relocs *[]elfRela) relocFunc {
	return func(v *value.Value, offset uint64) ([]byte, error) {
		if v.Sub != nil {
			return nil, errwarn.NewError(errwarn.KindTooComplex, "elf relocation too complex: subtractive value did not collapse to a constant")
		}
		sym, ok := v.Rel.(*symbol.Symbol)
		if !ok || sym == nil {
			return nil, errwarn.NewError(errwarn.KindTooComplex, "elf relocation requires a named symbol")
		}
		idx, ok := symIndex[sym]
		if !ok {
			return nil, errwarn.NewError(errwarn.KindInternal, "symbol `%1' missing from elf symbol table", sym.SymbolName())
		}

		var typ uint32
		switch {
		case v.IPRel || v.JumpTarget:
			typ = rX8664_PC32
		case v.Size == 64:
			typ = rX8664_64
		case v.Signed:
			typ = rX8664_32S
		default:
			typ = rX8664_32
		}

		var addend int64
		if v.Abs != nil {
			if n := v.Abs.Simplify().GetIntNum(); n != nil {
				addend = n.Int64()
			}
		}

		*relocs = append(*relocs, elfRela{offset: offset, symIdx: uint32(idx), typ: typ, addend: addend})
		return make([]byte, v.Size/8), nil
	}
}

func le64Into(buf []byte, at int, v uint64) {
	for i := 0; i < 8; i++ {
		buf[at+i] = byte(v >> (8 * i))
	}
}

var _ ObjectFormat = (*ELF)(nil)
