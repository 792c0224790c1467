package objfmt

import (
	"io"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/symbol"
	"github.com/yasm/yasm-go/internal/value"
)

// coff is the shared COFF .obj writer behind Win32 and Win64: an
// IMAGE_FILE_HEADER, a section table, each section's raw data, then the
// relocation table and symbol/string tables — no DOS stub, no optional
// header, no import directory, none of what pe.go builds for a runnable
// executable. Grounded on pe.go's manual writeU16/writeU32-closure idiom
// and constant-naming convention, trimmed to what a linker input needs.
type coff struct {
	obj     *object.Object
	machine uint16
}

const (
	coffFileHeaderSize = 20
	coffSectHeaderSize = 40
	coffSymEntSize      = 18

	imageFileMachineI386  = 0x14C
	imageFileMachineAmd64 = 0x8664

	imageScnCntCode           = 0x00000020
	imageScnCntInitializedData = 0x00000040
	imageScnCntUninitializedData = 0x00000080
	imageScnMemExecute        = 0x20000000
	imageScnMemRead           = 0x40000000
	imageScnMemWrite          = 0x80000000
	imageScnAlign4            = 0x00300000

	imageSymClassExternal = 2
	imageSymClassStatic   = 3
	imageSymClassSectNeg  = 0xFFFF // sentinel, unused; kept for reference

	imageRelAmd64Addr64 = 0x0001
	imageRelAmd64Addr32 = 0x0002
	imageRelAmd64Rel32  = 0x0004
	imageRelI386Dir32   = 0x0006
	imageRelI386Rel32   = 0x0014
)

type coffReloc struct {
	vaddr  uint32
	symIdx uint32
	typ    uint16
}

func (f *coff) AddDefaultSection() *object.Section {
	return f.obj.AppendSection(".text", true, false)
}

func (f *coff) AppendSection(name string, line uint64) (*object.Section, error) {
	bss := name == ".bss"
	return f.obj.AppendSection(name, !bss, bss), nil
}

func (f *coff) SetObject(obj *object.Object) { f.obj = obj }

func (f *coff) GetExtension() string        { return ".obj" }
func (f *coff) GetDbgfmtKeywords() []string { return nil }
func (f *coff) AddDirectives(p DirectiveRegisterer) {}

// Output implements the shared COFF layout: section table immediately
// follows the file header, each section's raw bytes and relocations are
// appended in section order, and the symbol table plus its string table
// (for names over 8 bytes) come last — the layout COFF linkers expect
// (spec §4.8, adapted from executable-only pe.go to relocatable .obj
// scope).
func (f *coff) Output(w io.Writer, allSyms bool, ew *errwarn.Errwarns) error {
	sections := f.obj.Sections()

	type secRec struct {
		sec    *object.Section
		data   []byte
		relocs []coffReloc
	}
	recs := make([]*secRec, len(sections))
	secIndex := make(map[uint64]int, len(sections))
	for i, sec := range sections {
		recs[i] = &secRec{sec: sec}
		secIndex[sec.SectionID()] = i + 1 // COFF section numbers are 1-based
	}

	syms := f.obj.Symbols().All()
	symIndex := make(map[*symbol.Symbol]int, len(syms))
	for i, s := range syms {
		symIndex[s] = i
	}

	relTypeAddr32, relTypeRel32 := uint16(imageRelI386Dir32), uint16(imageRelI386Rel32)
	if f.machine == imageFileMachineAmd64 {
		relTypeAddr32, relTypeRel32 = uint16(imageRelAmd64Addr32), uint16(imageRelAmd64Rel32)
	}

	for _, r := range recs {
		if r.sec.IsBSS() {
			continue
		}
		data, err := outputSection(r.sec, ew, coffRelocFor(symIndex, &r.relocs, relTypeAddr32, relTypeRel32, f.machine == imageFileMachineAmd64))
		if err != nil {
			return err
		}
		r.data = data
	}

	cursor := uint32(coffFileHeaderSize + coffSectHeaderSize*len(recs))
	for _, r := range recs {
		if !r.sec.IsBSS() {
			cursor += uint32(len(r.data))
		}
		cursor += uint32(len(r.relocs)) * 10 // IMAGE_RELOCATION is 10 bytes
	}
	symtabOff := cursor

	var strtab []byte
	symtab := make([]byte, 0, coffSymEntSize*len(syms))
	strOff := uint32(4) // string table begins with its own 4-byte length
	for _, s := range syms {
		name := s.SymbolName()
		if len(name) <= 8 {
			var n [8]byte
			copy(n[:], name)
			symtab = append(symtab, n[:]...)
		} else {
			symtab = append(symtab, le32(0)...)
			symtab = append(symtab, le32(strOff)...)
			strtab = append(strtab, []byte(name)...)
			strtab = append(strtab, 0)
			strOff += uint32(len(name) + 1)
		}
		shndx, val := coffResolveSymbol(s, secIndex, ew)
		symtab = append(symtab, le32(val)...)
		symtab = append(symtab, le16(shndx)...)
		symtab = append(symtab, le16(0)...) // type: unknown
		cls := uint8(imageSymClassStatic)
		if s.Visibility().Has(symbol.Global) {
			cls = imageSymClassExternal
		}
		symtab = append(symtab, cls)
		symtab = append(symtab, 0) // no aux entries
	}
	if ew.HasErrors() {
		return errwarn.NewError(errwarn.KindValue, "coff output aborted due to prior errors")
	}

	var out []byte
	out = append(out, le16(f.machine)...)
	out = append(out, le16(uint16(len(recs)))...)
	out = append(out, le32(0)...) // TimeDateStamp
	out = append(out, le32(symtabOff)...)
	out = append(out, le32(uint32(len(syms)))...)
	out = append(out, le16(0)...) // SizeOfOptionalHeader: none, this is an object file
	out = append(out, le16(0)...) // Characteristics

	dataCursor := uint32(coffFileHeaderSize + coffSectHeaderSize*len(recs))
	for _, r := range recs {
		flags := uint32(imageScnAlign4)
		if r.sec.IsBSS() {
			flags |= imageScnCntUninitializedData | imageScnMemRead | imageScnMemWrite
		} else if r.sec.IsCode() {
			flags |= imageScnCntCode | imageScnMemExecute | imageScnMemRead
		} else {
			flags |= imageScnCntInitializedData | imageScnMemRead | imageScnMemWrite
		}
		var name [8]byte
		copy(name[:], r.sec.Name())
		out = append(out, name[:]...)
		out = append(out, le32(0)...) // VirtualSize
		out = append(out, le32(0)...) // VirtualAddress
		out = append(out, le32(uint32(r.sec.Size()))...)
		if r.sec.IsBSS() {
			out = append(out, le32(0)...) // PointerToRawData
		} else {
			out = append(out, le32(dataCursor)...)
			dataCursor += uint32(len(r.data))
		}
		out = append(out, le32(dataCursor)...) // PointerToRelocations
		dataCursor += uint32(len(r.relocs)) * 10
		out = append(out, le32(0)...) // PointerToLinenumbers
		out = append(out, le16(uint16(len(r.relocs)))...)
		out = append(out, le16(0)...) // NumberOfLinenumbers
		out = append(out, le32(flags)...)
	}

	for _, r := range recs {
		if !r.sec.IsBSS() {
			out = append(out, r.data...)
		}
		for _, rel := range r.relocs {
			out = append(out, le32(rel.vaddr)...)
			out = append(out, le32(rel.symIdx)...)
			out = append(out, le16(rel.typ)...)
		}
	}

	out = append(out, symtab...)
	out = append(out, le32(uint32(len(strtab)+4))...)
	out = append(out, strtab...)

	_, err := w.Write(out)
	return err
}

func coffResolveSymbol(s *symbol.Symbol, secIndex map[uint64]int, ew *errwarn.Errwarns) (shndx uint16, val uint32) {
	switch s.BindKind() {
	case symbol.BindLabel:
		l, _ := s.Label()
		off, ok := l.SectionOffset()
		if !ok {
			ew.Error(s.DefLine(), errwarn.KindInternal, "symbol `%1' has an unresolved offset at output time", s.SymbolName())
			return 0, 0
		}
		return uint16(secIndex[l.BC.SectionID()]), uint32(off)
	case symbol.BindEqu:
		e, _ := s.EquValue()
		if n := e.Simplify().GetIntNum(); n != nil {
			return 0xFFFF, uint32(n.Uint64()) // IMAGE_SYM_ABSOLUTE
		}
		return 0xFFFF, 0
	default:
		return 0, 0 // IMAGE_SYM_UNDEFINED
	}
}

func coffRelocFor(symIndex map[*symbol.Symbol]int, relocs *[]coffReloc, typAddr32, typRel32 uint16, pcRelDefault bool) relocFunc {
	return func(v *value.Value, offset uint64) ([]byte, error) {
		if v.Sub != nil {
			return nil, errwarn.NewError(errwarn.KindTooComplex, "coff relocation too complex: subtractive value did not collapse to a constant")
		}
		sym, ok := v.Rel.(*symbol.Symbol)
		if !ok || sym == nil {
			return nil, errwarn.NewError(errwarn.KindTooComplex, "coff relocation requires a named symbol")
		}
		idx, ok := symIndex[sym]
		if !ok {
			return nil, errwarn.NewError(errwarn.KindInternal, "symbol `%1' missing from coff symbol table", sym.SymbolName())
		}
		typ := typAddr32
		if v.IPRel || v.JumpTarget {
			typ = typRel32
		}
		*relocs = append(*relocs, coffReloc{vaddr: uint32(offset), symIdx: uint32(idx), typ: typ})
		return make([]byte, v.Size/8), nil
	}
}

var _ ObjectFormat = (*Win32)(nil)
var _ ObjectFormat = (*Win64)(nil)
