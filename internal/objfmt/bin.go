package objfmt

import (
	"io"
	"sort"

	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/symbol"
	"github.com/yasm/yasm-go/internal/value"
)

// Bin is the flat binary format (spec §4.8's default `-f bin`): no
// headers, no symbol table, just every section's bytes concatenated in
// LMA order with zero-fill gaps between them. LMA/VMA assignment itself
// is the optimizer's job (pass3.go); this format only lays out bytes
// once those addresses are final.
type Bin struct {
	obj *object.Object
}

func NewBin() *Bin { return &Bin{} }

func (f *Bin) Keyword() string { return "bin" }

func (f *Bin) SetObject(obj *object.Object) { f.obj = obj }

func (f *Bin) AddDefaultSection() *object.Section {
	sec := f.obj.AppendSection(".text", true, false)
	sec.SetLMA(0)
	return sec
}

func (f *Bin) AppendSection(name string, line uint64) (*object.Section, error) {
	bss := name == ".bss"
	sec := f.obj.AppendSection(name, !bss, bss)
	return sec, nil
}

func (f *Bin) GetExtension() string        { return "" }
func (f *Bin) GetDefaultX86ModeBits() int   { return 16 }
func (f *Bin) GetDbgfmtKeywords() []string  { return nil }
func (f *Bin) AddDirectives(p DirectiveRegisterer) {}

// Output writes every section's bytes at file-offset (LMA - lowest LMA),
// zero-filling any gap a section's start= leaves before the next
// section begins (spec §4.8 fill policy: zero fill outside code
// sections; code-section internal padding is already baked into each
// Align content's own CodeFill bytes by the time Output runs).
func (f *Bin) Output(w io.Writer, allSyms bool, ew *errwarn.Errwarns) error {
	sections := f.obj.Sections()
	if len(sections) == 0 {
		return nil
	}

	ordered := make([]*object.Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		li, _ := ordered[i].LMA()
		lj, _ := ordered[j].LMA()
		return li < lj
	})

	base, _ := ordered[0].LMA()

	var out []byte
	pos := uint64(0)
	for _, sec := range ordered {
		if sec.IsBSS() {
			continue
		}
		lma, _ := sec.LMA()
		start := lma - base
		if start < pos {
			return errwarn.NewError(errwarn.KindValue, "section `%1' overlaps the previous section in bin output", sec.Name())
		}
		if start > pos {
			out = append(out, make([]byte, start-pos)...)
			pos = start
		}
		data, err := outputSection(sec, ew, binRelocFor(sec.Name()))
		if err != nil {
			return err
		}
		out = append(out, data...)
		pos += uint64(len(data))
	}

	_, err := w.Write(out)
	return err
}

// binRelocFor resolves what it can and fails on the rest: the bin format
// has no relocation table, so a Value with a relocatable part is only
// ever valid here as a same-section label distance (spec §4.8's
// PC-relative-from-data case, e.g. `dw b-a` with both labels in one
// section) — anything else (an undefined symbol, a cross-section or
// external reference) is an error rather than something deferred to a
// linker, since bin output is never relinked.
func binRelocFor(secName string) relocFunc {
	return func(v *value.Value, offset uint64) ([]byte, error) {
		if dist, ok := sameSectionDistance(v); ok {
			return distanceBytes(v, dist), nil
		}
		if addr, ok := labelAbsoluteAddress(v); ok {
			return distanceBytes(v, addr), nil
		}
		name := "<unknown>"
		if sym, ok := v.Rel.(*symbol.Symbol); ok && sym != nil {
			name = sym.SymbolName()
		}
		return nil, errwarn.NewError(errwarn.KindTooComplex, "bin output cannot resolve reference to `%1' in section `%2' (bin has no relocations)", name, secName)
	}
}

// sameSectionDistance computes v.Rel - v.Sub as a section-absolute byte
// distance when both name a Location in the same section: v.Rel must be
// a label (a BindLabel symbol, not an external/undefined one), and
// v.Sub either a bare Location or another label symbol.
func sameSectionDistance(v *value.Value) (int64, bool) {
	if v.Wrt != nil || v.SegOf || v.Sub == nil {
		return 0, false
	}
	relSym, ok := v.Rel.(*symbol.Symbol)
	if !ok || relSym == nil {
		return 0, false
	}
	relLoc, ok := relSym.Label()
	if !ok {
		return 0, false
	}
	subLoc, ok := value.GetSubLocation(v)
	if !ok {
		subSym, ok := v.Sub.Sym.(*symbol.Symbol)
		if !ok || subSym == nil {
			return 0, false
		}
		subLoc, ok = subSym.Label()
		if !ok {
			return 0, false
		}
	}
	return loc.Distance(subLoc, relLoc)
}

// labelAbsoluteAddress resolves a bare label reference (no subtractive
// part) to its load-time address — VMA plus section-relative offset —
// the other case bin output can satisfy without a relocation table:
// `org`-based address calculation (spec §8 scenario 6), where a label
// used as a plain immediate (`mov ax, start`) needs its assumed runtime
// address rather than a file offset.
func labelAbsoluteAddress(v *value.Value) (int64, bool) {
	if v.Sub != nil || v.Wrt != nil || v.SegOf {
		return 0, false
	}
	sym, ok := v.Rel.(*symbol.Symbol)
	if !ok || sym == nil {
		return 0, false
	}
	l, ok := sym.Label()
	if !ok {
		return 0, false
	}
	bc, ok := l.BC.(*bytecode.Bytecode)
	if !ok {
		return 0, false
	}
	sec, ok := bc.Section().(*object.Section)
	if !ok {
		return 0, false
	}
	vma, ok := sec.VMA()
	if !ok {
		return 0, false
	}
	secOff, ok := l.SectionOffset()
	if !ok {
		return 0, false
	}
	return int64(vma) + int64(secOff), true
}

// distanceBytes renders a resolved distance the same way value.OutputBasic
// renders any other constant, so sign/shift/width handling stays uniform
// between the plain-constant and same-section-distance paths.
func distanceBytes(v *value.Value, dist int64) []byte {
	nbytes := v.Size / 8
	if nbytes == 0 {
		nbytes = 1
	}
	buf := make([]byte, nbytes)
	intnum.FromInt64(dist).ToBytes(buf, 0, uint(v.Size), v.RShift, value.LittleEndian, v.Signed, nil)
	return buf
}

var _ ObjectFormat = (*Bin)(nil)
