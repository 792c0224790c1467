package object

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/symbol"
)

// Arch is the minimal view of the active architecture an Object needs to
// carry around (spec §4.5: "a reference to an Arch"); internal/arch's
// concrete Arch implements this along with the richer InsnEncoder-side
// interfaces bytecode/value define.
type Arch interface {
	Name() string
	WordSize() int
}

// Object owns an insertion-ordered set of Sections plus the symbol table,
// current-section pointer, and architecture reference (spec C5 / §4.5).
type Object struct {
	sections     map[string]*Section
	order        []string
	nextID       uint64
	cur          *Section
	syms         *symbol.Table
	arch         Arch
	srcFilename  string
	objFilename  string
}

func New(arch Arch, srcFilename, objFilename string) *Object {
	return &Object{
		sections:    make(map[string]*Section),
		syms:        symbol.NewTable(),
		arch:        arch,
		srcFilename: srcFilename,
		objFilename: objFilename,
	}
}

func (o *Object) Symbols() *symbol.Table { return o.syms }
func (o *Object) Arch() Arch             { return o.arch }
func (o *Object) SourceFilename() string { return o.srcFilename }
func (o *Object) ObjectFilename() string { return o.objFilename }

// CurSection returns the parser's current append target.
func (o *Object) CurSection() *Section { return o.cur }

// SetCurSection pivots the parser's append target (spec §4.5
// `setCurSection`); sec must have been returned by AppendSection.
func (o *Object) SetCurSection(sec *Section) { o.cur = sec }

// AppendSection creates or returns the named section in declaration
// order (spec §4.5 `Object.appendSection`). The first section ever
// appended becomes the default and the initial current section.
func (o *Object) AppendSection(name string, code, bss bool) *Section {
	if sec, ok := o.sections[name]; ok {
		return sec
	}
	o.nextID++
	sec := newSection(name, o.nextID, code, bss)
	if len(o.order) == 0 {
		sec.deflt = true
	}
	o.sections[name] = sec
	o.order = append(o.order, name)
	if o.cur == nil {
		o.cur = sec
	}
	return sec
}

// FindSection returns nil if name has not been appended.
func (o *Object) FindSection(name string) *Section {
	return o.sections[name]
}

// Sections returns every section in append order.
func (o *Object) Sections() []*Section {
	out := make([]*Section, len(o.order))
	for i, name := range o.order {
		out[i] = o.sections[name]
	}
	return out
}

// RegisterSpecialSymbol installs a format-defined special symbol (spec
// §4.5: "..gotpcrel", "..plt") into the symbol table's special
// namespace.
func (o *Object) RegisterSpecialSymbol(name string, s *symbol.Symbol) {
	o.syms.RegisterSpecial(name, s)
}

func (o *Object) FindSpecialSymbol(name string) *symbol.Symbol {
	return o.syms.FindSpecialSymbol(name)
}

// Finalize runs every section's Finalize, then the symbol table's
// (spec §2: "Object.finalize propagates errwarns, checks symbol
// definedness"). undefExtern selects GAS- vs NASM-style handling of
// used-but-undefined symbols.
func (o *Object) Finalize(ew *errwarn.Errwarns, undefExtern bool) error {
	for _, name := range o.order {
		if err := o.sections[name].Finalize(ew); err != nil {
			return err
		}
	}
	o.syms.Finalize(ew, undefExtern)
	return nil
}
