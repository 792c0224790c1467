// Package symbol implements the Symbol table (spec C3 / §4.3): named
// entities with visibility, value bindings, and per-format associated
// data, owned by an Object.
package symbol

import (
	"fmt"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/loc"
)

// Visibility is a bitset; LOCAL is the zero value (default), matching
// spec §3's "set of flags drawn from {LOCAL (default), GLOBAL, COMMON,
// EXTERN, DLOCAL}".
type Visibility uint8

const (
	Local  Visibility = 0
	Global Visibility = 1 << iota
	Common
	Extern
	DLocal
)

func (v Visibility) Has(f Visibility) bool { return v&f != 0 }

func (v Visibility) String() string {
	if v == Local {
		return "local"
	}
	var parts []string
	if v.Has(Global) {
		parts = append(parts, "global")
	}
	if v.Has(Common) {
		parts = append(parts, "common")
	}
	if v.Has(Extern) {
		parts = append(parts, "extern")
	}
	if v.Has(DLocal) {
		parts = append(parts, "dlocal")
	}
	return joinPlus(parts)
}

func joinPlus(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "+"
		}
		out += s
	}
	return out
}

// BindKind tags which of the four mutually-exclusive bindings a Symbol
// currently has (spec §3: "exactly one of undefined, label, equ,
// absolute").
type BindKind int

const (
	BindUndefined BindKind = iota
	BindLabel
	BindEqu
	BindAbsolute
)

// Symbol is a named entity (spec §3).
type Symbol struct {
	name string

	visibility Visibility
	bind       BindKind
	label      loc.Location
	equ        *expr.Expression

	commonSize *expr.Expression

	assoc map[string]any // keyed by owning object-format name

	declLine uint64
	defLine  uint64
	useLine  uint64
}

func newSymbol(name string) *Symbol {
	return &Symbol{name: name, bind: BindUndefined}
}

func (s *Symbol) SymbolName() string      { return s.name }
func (s *Symbol) Visibility() Visibility  { return s.visibility }
func (s *Symbol) BindKind() BindKind      { return s.bind }
func (s *Symbol) DeclLine() uint64        { return s.declLine }
func (s *Symbol) DefLine() uint64         { return s.defLine }
func (s *Symbol) UseLine() uint64         { return s.useLine }
func (s *Symbol) IsDefined() bool         { return s.bind != BindUndefined }

// Label returns the bound Location when BindKind() == BindLabel.
func (s *Symbol) Label() (loc.Location, bool) {
	if s.bind == BindLabel {
		return s.label, true
	}
	return loc.Location{}, false
}

// EquValue implements expr.SymbolRef: it returns the bound Expression
// for any EQU-bound symbol, constant or not, and (nil, false) otherwise.
// The caller (Expression.Simplify) re-simplifies it and checks for an
// IntNum itself (spec §4.2 step 2: "symbol dereference for EQU-defined
// symbols whose value is a known IntNum").
func (s *Symbol) EquValue() (*expr.Expression, bool) {
	if s.bind == BindEqu {
		return s.equ, true
	}
	return nil, false
}

// CommonSize returns the common-size expression, if any.
func (s *Symbol) CommonSize() (*expr.Expression, bool) {
	if s.commonSize == nil {
		return nil, false
	}
	return s.commonSize, true
}

// AssocData returns the per-format data keyed by fmtName, if any was
// attached via SetAssocData.
func (s *Symbol) AssocData(fmtName string) (any, bool) {
	if s.assoc == nil {
		return nil, false
	}
	v, ok := s.assoc[fmtName]
	return v, ok
}

func (s *Symbol) SetAssocData(fmtName string, data any) {
	if s.assoc == nil {
		s.assoc = make(map[string]any)
	}
	s.assoc[fmtName] = data
}

// Declare merges visibility flags, matching spec §4.3: "declare(...)
// merges with existing visibility (LOCAL+GLOBAL = GLOBAL; conflicting
// with EXTERN of a defined symbol is an error)".
func (s *Symbol) Declare(vis Visibility, line uint64) error {
	if vis.Has(Extern) && s.IsDefined() && s.bind != BindAbsolute {
		return errwarn.NewError(errwarn.KindValue, "symbol `%1' already defined, cannot redeclare as EXTERN", s.name)
	}
	s.visibility |= vis
	if s.declLine == 0 {
		s.declLine = line
	}
	return nil
}

func (s *Symbol) defineCheck(line uint64) error {
	if s.IsDefined() {
		return errwarn.NewError(errwarn.KindValue, "symbol `%1' redefined", s.name)
	}
	_ = line
	return nil
}

// DefineLabel binds the symbol to a Location (spec §4.3).
func (s *Symbol) DefineLabel(l loc.Location, line uint64) error {
	if err := s.defineCheck(line); err != nil {
		return err
	}
	s.bind = BindLabel
	s.label = l
	s.defLine = line
	return nil
}

// DefineEqu binds the symbol to an Expression (spec §4.3). A GLOBAL or
// EXTERN symbol cannot be EQU-bound (spec §3 invariant).
func (s *Symbol) DefineEqu(e *expr.Expression, line uint64) error {
	if s.visibility.Has(Global) || s.visibility.Has(Extern) {
		return errwarn.NewError(errwarn.KindValue, "EXTERN/GLOBAL symbol `%1' cannot be EQU-defined", s.name)
	}
	if err := s.defineCheck(line); err != nil {
		return err
	}
	s.bind = BindEqu
	s.equ = e
	s.defLine = line
	return nil
}

// DefineCommon binds the symbol as a COMMON symbol with the given size
// expression (spec §3, §4.3).
func (s *Symbol) DefineCommon(size *expr.Expression, line uint64) error {
	if err := s.defineCheck(line); err != nil {
		return err
	}
	s.visibility |= Common
	s.commonSize = size
	s.defLine = line
	return nil
}

// DefineAbsolute marks a synthetic symbol like `.absolute` as resolved
// without a real binding.
func (s *Symbol) DefineAbsolute(line uint64) error {
	if err := s.defineCheck(line); err != nil {
		return err
	}
	s.bind = BindAbsolute
	s.defLine = line
	return nil
}

// Use records the first-use line for diagnostics (spec §4.3).
func (s *Symbol) Use(line uint64) {
	if s.useLine == 0 {
		s.useLine = line
	}
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s[%s/%s]", s.name, s.visibility, s.bindString())
}

func (s *Symbol) bindString() string {
	switch s.bind {
	case BindUndefined:
		return "undefined"
	case BindLabel:
		return "label"
	case BindEqu:
		return "equ"
	case BindAbsolute:
		return "absolute"
	default:
		return "?"
	}
}
