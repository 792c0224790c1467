// Package value implements Value, the unit passed to the output pipeline
// (spec C6 / §4.6): an absolute expression plus at most one relocatable
// part (rel/wrt/sub), ready to be split into written bytes and/or a
// relocation record. Grounded on mov_x86_64.go's operand classification
// (pull a composite operand apart into at most one of immediate,
// register, or memory-with-displacement).
package value

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
)

// SubRef is the "subtract this" half of a Value (spec §4.6: "an optional
// subtract this symbol or location, for PC-relative from non-instruction
// contexts"). Exactly one of Sym/Loc is set.
type SubRef struct {
	Sym expr.SymbolRef
	Loc *loc.Location
}

// Value is the descriptor of an unresolved scalar to be emitted (spec
// §4.6).
type Value struct {
	Abs    *expr.Expression // absolute part; may be nil
	Rel    expr.SymbolRef   // relocatable symbol; nil if none
	Wrt    expr.SymbolRef   // WRT segment symbol; nil if none
	Sub    *SubRef          // subtractive part; nil if none
	SegOf  bool             // emit the segment of Rel, not its offset
	Size   int              // field width in bits
	RShift uint              // right shift applied before truncation

	IPRel      bool
	JumpTarget bool
	SectionRel bool
	NoWarn     bool
	Signed     bool

	line uint64
}

// New builds a Value of the given bit Size holding a plain absolute
// expression; use FromExpression to split out a relocatable part.
func New(size int, abs *expr.Expression) *Value {
	return &Value{Abs: abs, Size: size}
}

// FromExpression extracts a Value from e: a SEG or WRT wrapper, a
// trailing subtraction of a Symbol/Location, or a bare Symbol leaf are
// all recognized as the relocatable part, with whatever remains kept as
// Abs (spec §4.6, §4.2's "Location - Location ... is the primary
// mechanism by which PC-relative ... references become constants" —
// FromExpression is what runs before that mechanism has had a chance to
// fully collapse the subtraction to a constant).
func FromExpression(e *expr.Expression, size int, line uint64) *Value {
	v := &Value{Size: size, line: line}
	v.absorb(e)
	return v
}

func (v *Value) absorb(e *expr.Expression) {
	if e == nil {
		return
	}
	if e.Op == expr.OpSeg && len(e.Terms) == 1 {
		v.SegOf = true
		v.absorb(e.Terms[0].Expr)
		if sym := e.Terms[0].Sym; sym != nil {
			v.Rel = sym
		}
		return
	}
	if e.Op == expr.OpWrt && len(e.Terms) == 2 {
		if sym := e.Terms[1].Sym; sym != nil {
			v.Wrt = sym
		}
		v.absorbTerm(e.Terms[0])
		return
	}
	if e.Op == expr.OpSub && len(e.Terms) == 2 {
		if sub := subRefFromTerm(e.Terms[1]); sub != nil {
			v.Sub = sub
			v.absorbTerm(e.Terms[0])
			return
		}
	}
	if sym := e.GetSymbol(); sym != nil {
		// An EQU-bound symbol is a constant standing in for its bound
		// expression, not a relocatable reference — keep it as Abs so
		// GetIntNum's later Simplify() can substitute the binding (spec
		// §4.2 step 2) instead of forcing it down the emitter path a
		// label or extern symbol needs.
		if _, isEqu := sym.EquValue(); !isEqu {
			v.Rel = sym
			return
		}
	}
	v.Abs = e
}

func (v *Value) absorbTerm(t expr.Term) {
	switch {
	case t.Sym != nil:
		v.Rel = t.Sym
	case t.Expr != nil:
		v.absorb(t.Expr)
	default:
		v.Abs = expr.MustNew(expr.OpIdent, t)
	}
}

func subRefFromTerm(t expr.Term) *SubRef {
	switch {
	case t.Sym != nil:
		return &SubRef{Sym: t.Sym}
	case t.Loc != nil:
		l := *t.Loc
		return &SubRef{Loc: &l}
	default:
		return nil
	}
}

// Finalize validates the invariants spec §4.6 requires: at most one of
// (relative+SegOf), (relative+Wrt), (subtractive) is set together with a
// relative part in an otherwise-conflicting way, and Size is a multiple
// of 8 outside instruction-operand use (Size==0 marks "set by the
// encoder", used for in-instruction immediates/displacements).
func (v *Value) Finalize() error {
	if v.Size != 0 && v.Size%8 != 0 {
		return errwarn.NewError(errwarn.KindValue, "value size %1 is not a multiple of 8 bits", v.Size)
	}
	if v.Sub != nil && (v.Wrt != nil || v.SegOf) {
		return errwarn.NewError(errwarn.KindValue, "value cannot combine a subtractive part with WRT or SEG")
	}
	return nil
}

// IsRelocatable reports whether this Value has any part that cannot be
// resolved to a plain constant without relocation support (spec §4.6,
// §4.8: drives the output pipeline's bytes-vs-relocation decision).
func (v *Value) IsRelocatable() bool {
	return v.Rel != nil || v.Sub != nil
}

// GetIntNum returns the fully-constant value of v, if Abs alone (no
// relocatable part) simplifies to an IntNum.
func (v *Value) GetIntNum() *intnum.IntNum {
	if v.IsRelocatable() || v.Abs == nil {
		return nil
	}
	return v.Abs.Simplify().GetIntNum()
}

func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	cp := *v
	cp.Abs = v.Abs.Clone()
	if v.Sub != nil {
		sub := *v.Sub
		cp.Sub = &sub
	}
	return &cp
}
