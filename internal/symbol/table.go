package symbol

import "github.com/yasm/yasm-go/internal/errwarn"

// Table is the insertion-ordered name→Symbol map an Object owns (spec
// §4.3). Insertion order matters for deterministic symbol-table output
// (COFF/ELF symtabs list symbols in a stable order).
type Table struct {
	byName map[string]*Symbol
	order  []*Symbol
	specs  map[string]*Symbol // special-symbol registry, spec §4.3/§4.5
}

func NewTable() *Table {
	return &Table{byName: make(map[string]*Symbol)}
}

// GetSymbol returns the Symbol named name, creating it (Local,
// undefined) if absent.
func (t *Table) GetSymbol(name string) *Symbol {
	if s, ok := t.byName[name]; ok {
		return s
	}
	s := newSymbol(name)
	t.byName[name] = s
	t.order = append(t.order, s)
	return s
}

// FindSymbol returns nil if name has not been declared.
func (t *Table) FindSymbol(name string) *Symbol {
	return t.byName[name]
}

// All returns every symbol in insertion order. Callers must not mutate
// the table while ranging over the result (spec §9: "mutation during
// iteration is forbidden; callers collect indices first").
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// RegisterSpecial installs a format-defined special symbol (e.g.
// "..gotpcrel") so FindSpecialSymbol can find it without it appearing in
// the normal user symbol namespace or output symbol table.
func (t *Table) RegisterSpecial(name string, s *Symbol) {
	if t.specs == nil {
		t.specs = make(map[string]*Symbol)
	}
	t.specs[name] = s
}

func (t *Table) FindSpecialSymbol(name string) *Symbol {
	if t.specs == nil {
		return nil
	}
	return t.specs[name]
}

// Finalize implements spec §4.3's symbolsFinalize: every used-but-
// undefined symbol either becomes EXTERN (GAS's undefExtern=true
// default) or is reported as an error (NASM's default, undefExtern=
// false).
func (t *Table) Finalize(ew *errwarn.Errwarns, undefExtern bool) {
	for _, s := range t.order {
		if s.IsDefined() || s.useLine == 0 {
			continue
		}
		if undefExtern {
			s.visibility |= Extern
			continue
		}
		ew.Error(s.useLine, errwarn.KindValue, "undefined symbol `%1' (first use)", s.name)
	}
}
