// Package expr implements the Expression tree (spec C2 / §4.2): a
// symbolic arithmetic engine over IntNum, FloatNum, Symbol, Location, and
// Register terms, supporting simplification and PC-relative distance
// substitution.
package expr

import (
	"fmt"

	"github.com/yasm/yasm-go/internal/floatnum"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
)

// Operator is intnum.Operator re-exported under this package's name so
// callers write expr.OpAdd instead of reaching into internal/intnum; see
// intnum/operator.go for why the type itself lives there.
type Operator = intnum.Operator

const (
	OpIdent   = intnum.OpIdent
	OpAdd     = intnum.OpAdd
	OpSub     = intnum.OpSub
	OpMul     = intnum.OpMul
	OpDiv     = intnum.OpDiv
	OpSignDiv = intnum.OpSignDiv
	OpMod     = intnum.OpMod
	OpSignMod = intnum.OpSignMod
	OpNeg     = intnum.OpNeg
	OpNot     = intnum.OpNot
	OpOr      = intnum.OpOr
	OpAnd     = intnum.OpAnd
	OpXor     = intnum.OpXor
	OpXnor    = intnum.OpXnor
	OpNor     = intnum.OpNor
	OpShl     = intnum.OpShl
	OpShr     = intnum.OpShr
	OpLor     = intnum.OpLor
	OpLand    = intnum.OpLand
	OpLnot    = intnum.OpLnot
	OpLxor    = intnum.OpLxor
	OpLxnor   = intnum.OpLxnor
	OpLnor    = intnum.OpLnor
	OpLt      = intnum.OpLt
	OpGt      = intnum.OpGt
	OpEq      = intnum.OpEq
	OpLe      = intnum.OpLe
	OpGe      = intnum.OpGe
	OpNe      = intnum.OpNe
	OpSeg     = intnum.OpSeg
	OpWrt     = intnum.OpWrt
	OpSegOff  = intnum.OpSegOff
)

// SymbolRef is the view of a Symbol that expressions need: a stable
// identity plus (for EQU substitution) its current constant value, if
// any. internal/symbol.Symbol implements this; package expr never
// imports internal/symbol to avoid the obvious import cycle (a Symbol's
// EQU binding is itself an *Expression).
type SymbolRef interface {
	SymbolName() string
	// EquValue returns the symbol's bound expression and true if the
	// symbol is EQU-defined, else (nil, false).
	EquValue() (*Expression, bool)
}

// RegisterRef is the minimal view of an architecture register that an
// expression term needs.
type RegisterRef interface {
	RegName() string
}

// Term is one operand of an Expression: exactly one of the concrete
// kinds below, or a nested *Expression.
type Term struct {
	Int  *intnum.IntNum
	Flt  *floatnum.FloatNum
	Sym  SymbolRef
	Loc  *loc.Location
	Reg  RegisterRef
	Expr *Expression
}

func (t Term) isEmpty() bool {
	return t.Int == nil && t.Flt == nil && t.Sym == nil && t.Loc == nil && t.Reg == nil && t.Expr == nil
}

func TermInt(n *intnum.IntNum) Term         { return Term{Int: n} }
func TermFloat(f *floatnum.FloatNum) Term   { return Term{Flt: f} }
func TermSymbol(s SymbolRef) Term           { return Term{Sym: s} }
func TermLocation(l loc.Location) Term      { return Term{Loc: &l} }
func TermRegister(r RegisterRef) Term       { return Term{Reg: r} }
func TermExpr(e *Expression) Term           { return Term{Expr: e} }

// Expression is an n-ary tree: a root Operator applied to an ordered list
// of Terms (spec §3).
type Expression struct {
	Op    Operator
	Terms []Term
}

// New builds an Expression, validating arity against the operator's
// class the way spec §3's invariants require: unary operators get
// exactly one term, SEGOFF exactly two, and every operator needs at
// least one.
func New(op Operator, terms ...Term) (*Expression, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("expr: operator %s requires at least one operand", op)
	}
	if n, fixed := op.FixedArity(); fixed && len(terms) != n {
		return nil, fmt.Errorf("expr: operator %s requires exactly %d operand(s), got %d", op, n, len(terms))
	}
	for _, t := range terms {
		if t.isEmpty() {
			return nil, fmt.Errorf("expr: empty term in operator %s", op)
		}
	}
	return &Expression{Op: op, Terms: terms}, nil
}

// MustNew panics on a shape violation; for callers (in this package and
// others) whose operator/term shape is known good by construction.
func MustNew(op Operator, terms ...Term) *Expression {
	e, err := New(op, terms...)
	if err != nil {
		panic(err)
	}
	return e
}

// FromIntNum/FromSymbol/FromLocation/FromRegister are convenience
// single-leaf constructors (spec §4.2).
func FromIntNum(n *intnum.IntNum) *Expression  { return MustNew(OpIdent, TermInt(n)) }
func FromFloat(f *floatnum.FloatNum) *Expression { return MustNew(OpIdent, TermFloat(f)) }
func FromSymbol(s SymbolRef) *Expression       { return MustNew(OpIdent, TermSymbol(s)) }
func FromLocation(l loc.Location) *Expression  { return MustNew(OpIdent, TermLocation(l)) }
func FromRegister(r RegisterRef) *Expression   { return MustNew(OpIdent, TermRegister(r)) }

// Clone deep-copies the expression tree. IntNum leaves are cloned and
// Locations copied by value; FloatNum, Symbol and Register leaves keep
// the same pointer, FloatNum having no mutating methods and the others
// being non-owning handles (spec §5).
func (e *Expression) Clone() *Expression {
	if e == nil {
		return nil
	}
	terms := make([]Term, len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = cloneTerm(t)
	}
	return &Expression{Op: e.Op, Terms: terms}
}

func cloneTerm(t Term) Term {
	switch {
	case t.Int != nil:
		return Term{Int: t.Int.Clone()}
	case t.Flt != nil:
		return Term{Flt: t.Flt}
	case t.Sym != nil:
		return Term{Sym: t.Sym}
	case t.Loc != nil:
		l := *t.Loc
		return Term{Loc: &l}
	case t.Reg != nil:
		return Term{Reg: t.Reg}
	case t.Expr != nil:
		return Term{Expr: t.Expr.Clone()}
	default:
		return Term{}
	}
}

// GetIntNum returns a non-owning pointer when e is a pure IntNum leaf
// (an IDENT of one IntNum term), else nil.
func (e *Expression) GetIntNum() *intnum.IntNum {
	if e == nil {
		return nil
	}
	if e.Op == OpIdent && len(e.Terms) == 1 && e.Terms[0].Int != nil {
		return e.Terms[0].Int
	}
	return nil
}

func (e *Expression) IsIntNum() bool { return e.GetIntNum() != nil }

// GetSymbol returns a non-owning pointer when e is a pure Symbol leaf.
func (e *Expression) GetSymbol() SymbolRef {
	if e == nil {
		return nil
	}
	if e.Op == OpIdent && len(e.Terms) == 1 && e.Terms[0].Sym != nil {
		return e.Terms[0].Sym
	}
	return nil
}

// GetRegister returns a non-owning pointer when e is a pure Register leaf.
func (e *Expression) GetRegister() RegisterRef {
	if e == nil {
		return nil
	}
	if e.Op == OpIdent && len(e.Terms) == 1 && e.Terms[0].Reg != nil {
		return e.Terms[0].Reg
	}
	return nil
}

// GetLocation returns the Location when e is a pure Location leaf.
func (e *Expression) GetLocation() (loc.Location, bool) {
	if e == nil {
		return loc.Location{}, false
	}
	if e.Op == OpIdent && len(e.Terms) == 1 && e.Terms[0].Loc != nil {
		return *e.Terms[0].Loc, true
	}
	return loc.Location{}, false
}

func (e *Expression) String() string {
	return render(e)
}
