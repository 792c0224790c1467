package objfmt

import (
	"io"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/symbol"
	"github.com/yasm/yasm-go/internal/value"
)

// MachO writes a relocatable Mach-O object (MH_OBJECT): one LC_SEGMENT_64
// load command holding every section, plus LC_SYMTAB — no LC_MAIN, no
// dyld load commands, no UUID/version-min commands, none of what a
// runnable, dynamically-linked executable needs. Constant block and
// section-flag naming trimmed to MH_OBJECT scope.
type MachO struct {
	obj *object.Object
}

func NewMachO() *MachO { return &MachO{} }

func (f *MachO) Keyword() string { return "macho64" }

func (f *MachO) SetObject(obj *object.Object) { f.obj = obj }

func (f *MachO) AddDefaultSection() *object.Section {
	return f.obj.AppendSection(".text", true, false)
}

func (f *MachO) AppendSection(name string, line uint64) (*object.Section, error) {
	bss := name == ".bss"
	return f.obj.AppendSection(name, !bss, bss), nil
}

func (f *MachO) GetExtension() string        { return ".o" }
func (f *MachO) GetDefaultX86ModeBits() int  { return 64 }
func (f *MachO) GetDbgfmtKeywords() []string { return nil }
func (f *MachO) AddDirectives(p DirectiveRegisterer) {}

const (
	machHeader64Size = 32
	lcSegment64Size  = 72
	section64Size    = 80
	lcSymtabSize     = 24
	nlist64Size      = 16

	mhMagic64  = 0xFEEDFACF
	mhObject   = 0x1
	cpuTypeX86_64       = 0x01000007
	cpuSubtypeX86_64All = 0x3

	lcSegment64 = 0x19
	lcSymtab    = 0x2

	vmProtRead    = 0x1
	vmProtWrite   = 0x2
	vmProtExecute = 0x4

	sAttrPureInstructions  = 0x80000000
	sAttrSomeInstructions  = 0x00000400
	sZerofill              = 0x1

	nTypeSect = 0xe // N_SECT
	nExt      = 0x1 // external symbol bit
)

type machoReloc struct {
	addr   uint32
	symIdx uint32
	pcRel  bool
	length uint8 // log2 of size in bytes: 0=1,1=2,2=4,3=8
}

func (f *MachO) Output(w io.Writer, allSyms bool, ew *errwarn.Errwarns) error {
	sections := f.obj.Sections()

	type secRec struct {
		sec    *object.Section
		data   []byte
		relocs []machoReloc
	}
	recs := make([]*secRec, len(sections))
	secIndex := make(map[uint64]int, len(sections))
	for i, sec := range sections {
		recs[i] = &secRec{sec: sec}
		secIndex[sec.SectionID()] = i + 1 // n_sect is 1-based
	}

	syms := f.obj.Symbols().All()
	symIndex := make(map[*symbol.Symbol]int, len(syms))
	for i, s := range syms {
		symIndex[s] = i
	}

	for _, r := range recs {
		if r.sec.IsBSS() {
			continue
		}
		data, err := outputSection(r.sec, ew, machoRelocFor(symIndex, &r.relocs))
		if err != nil {
			return err
		}
		r.data = data
	}

	ncmds := 2
	sizeofcmds := lcSegment64Size + section64Size*len(recs) + lcSymtabSize
	dataStart := uint32(machHeader64Size + sizeofcmds)

	dataOffsets := make([]uint32, len(recs))
	cursor := dataStart
	for i, r := range recs {
		if !r.sec.IsBSS() {
			dataOffsets[i] = cursor
			cursor += uint32(len(r.data))
		}
	}
	relOffsets := make([]uint32, len(recs))
	for i, r := range recs {
		if len(r.relocs) == 0 {
			continue
		}
		relOffsets[i] = cursor
		cursor += uint32(len(r.relocs)) * 8 // relocation_info is 8 bytes
	}

	var strtab []byte
	strtab = append(strtab, 0)
	symtab := make([]byte, 0, nlist64Size*len(syms))
	for _, s := range syms {
		strx := uint32(len(strtab))
		strtab = append(strtab, []byte(s.SymbolName())...)
		strtab = append(strtab, 0)

		nsect, val := machoResolveSymbol(s, secIndex, ew)
		typ := uint8(nTypeSect)
		if nsect == 0 {
			typ = nExt // N_UNDF (type 0) with N_EXT set
		}
		if s.Visibility().Has(symbol.Global) {
			typ |= nExt
		}
		symtab = append(symtab, le32(strx)...)
		symtab = append(symtab, typ)
		symtab = append(symtab, uint8(nsect))
		symtab = append(symtab, le16(0)...) // n_desc
		symtab = append(symtab, le64(val)...)
	}
	if ew.HasErrors() {
		return errwarn.NewError(errwarn.KindValue, "mach-o output aborted due to prior errors")
	}

	symoff := cursor
	cursor += uint32(len(symtab))
	stroff := cursor
	cursor += uint32(len(strtab))

	var out []byte
	out = append(out, le32(mhMagic64)...)
	out = append(out, le32(cpuTypeX86_64)...)
	out = append(out, le32(cpuSubtypeX86_64All)...)
	out = append(out, le32(mhObject)...)
	out = append(out, le32(uint32(ncmds))...)
	out = append(out, le32(uint32(sizeofcmds))...)
	out = append(out, le32(0)...) // flags
	out = append(out, le32(0)...) // reserved

	out = append(out, le32(lcSegment64)...)
	out = append(out, le32(uint32(lcSegment64Size+section64Size*len(recs)))...)
	out = append(out, make([]byte, 16)...) // segname: empty for MH_OBJECT
	segFileSize := cursor - dataStart
	out = append(out, le64(0)...)                  // vmaddr
	out = append(out, le64(uint64(segFileSize))...) // vmsize
	out = append(out, le64(uint64(dataStart))...)   // fileoff
	out = append(out, le64(uint64(segFileSize))...) // filesize
	out = append(out, le32(vmProtRead|vmProtWrite|vmProtExecute)...)
	out = append(out, le32(vmProtRead|vmProtWrite|vmProtExecute)...)
	out = append(out, le32(uint32(len(recs)))...)
	out = append(out, le32(0)...) // flags

	for i, r := range recs {
		var flags uint32
		if r.sec.IsBSS() {
			flags = sZerofill
		} else if r.sec.IsCode() {
			flags = sAttrPureInstructions | sAttrSomeInstructions
		}
		var sectname, segname [16]byte
		copy(sectname[:], r.sec.Name())
		out = append(out, sectname[:]...)
		out = append(out, segname[:]...)
		out = append(out, le64(0)...) // addr
		out = append(out, le64(r.sec.Size())...)
		out = append(out, le32(dataOffsets[i])...)
		out = append(out, le32(4)...) // align: 2^4 = 16 bytes
		out = append(out, le32(relOffsets[i])...)
		out = append(out, le32(uint32(len(r.relocs)))...)
		out = append(out, le32(flags)...)
		out = append(out, le32(0)...) // reserved1
		out = append(out, le32(0)...) // reserved2
		out = append(out, le32(0)...) // reserved3
	}

	out = append(out, le32(lcSymtab)...)
	out = append(out, le32(lcSymtabSize)...)
	out = append(out, le32(symoff)...)
	out = append(out, le32(uint32(len(syms)))...)
	out = append(out, le32(stroff)...)
	out = append(out, le32(uint32(len(strtab)))...)

	for _, r := range recs {
		if !r.sec.IsBSS() {
			out = append(out, r.data...)
		}
	}
	for _, r := range recs {
		for _, rel := range r.relocs {
			word0 := rel.addr
			word1 := rel.symIdx & 0x00FFFFFF
			if rel.pcRel {
				word1 |= 1 << 24
			}
			word1 |= uint32(rel.length) << 25
			word1 |= 1 << 27 // r_extern
			out = append(out, le32(word0)...)
			out = append(out, le32(word1)...)
		}
	}

	out = append(out, symtab...)
	out = append(out, strtab...)

	_, err := w.Write(out)
	return err
}

func machoResolveSymbol(s *symbol.Symbol, secIndex map[uint64]int, ew *errwarn.Errwarns) (nsect uint8, val uint64) {
	switch s.BindKind() {
	case symbol.BindLabel:
		l, _ := s.Label()
		off, ok := l.SectionOffset()
		if !ok {
			ew.Error(s.DefLine(), errwarn.KindInternal, "symbol `%1' has an unresolved offset at output time", s.SymbolName())
			return 0, 0
		}
		return uint8(secIndex[l.BC.SectionID()]), off
	case symbol.BindEqu:
		e, _ := s.EquValue()
		if n := e.Simplify().GetIntNum(); n != nil {
			return 0, n.Uint64()
		}
		return 0, 0
	default:
		return 0, 0
	}
}

func machoRelocFor(symIndex map[*symbol.Symbol]int, relocs *[]machoReloc) relocFunc {
	return func(v *value.Value, offset uint64) ([]byte, error) {
		if v.Sub != nil {
			return nil, errwarn.NewError(errwarn.KindTooComplex, "mach-o relocation too complex: subtractive value did not collapse to a constant")
		}
		sym, ok := v.Rel.(*symbol.Symbol)
		if !ok || sym == nil {
			return nil, errwarn.NewError(errwarn.KindTooComplex, "mach-o relocation requires a named symbol")
		}
		idx, ok := symIndex[sym]
		if !ok {
			return nil, errwarn.NewError(errwarn.KindInternal, "symbol `%1' missing from mach-o symbol table", sym.SymbolName())
		}
		length := uint8(2) // 4 bytes
		if v.Size == 64 {
			length = 3
		} else if v.Size == 16 {
			length = 1
		} else if v.Size == 8 {
			length = 0
		}
		*relocs = append(*relocs, machoReloc{
			addr: uint32(offset), symIdx: uint32(idx),
			pcRel: v.IPRel || v.JumpTarget, length: length,
		})
		return make([]byte, v.Size/8), nil
	}
}

var _ ObjectFormat = (*MachO)(nil)
