package expr

import (
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
)

// Simplify returns a simplified rebuild of e (spec §4.2). It is not
// in-place on the caller's pointer in the Go port (unlike the C++
// "simplify in place" wording) because Go values don't alias the way
// owning pointers do; callers assign the result back:
//
//	v.Abs = v.Abs.Simplify()
//
// simplifying is still idempotent and side-effect-free on sub-trees that
// don't change, matching the "fixpoint" testable property in spec §8.
func (e *Expression) Simplify() *Expression {
	return simplify(e, map[string]bool{})
}

func simplify(e *Expression, substituting map[string]bool) *Expression {
	if e == nil {
		return nil
	}

	// 1. Recursively simplify children.
	terms := make([]Term, len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = simplifyTerm(t, substituting)
	}
	out := &Expression{Op: e.Op, Terms: terms}

	// 6. Collapse unary IDENT-of-single-nested-Expr to the child
	// (applied before further folding so later steps see a flat tree).
	out = flattenIdent(out)

	// 2. EQU symbol substitution, with cycle detection.
	out = substituteEqu(out, substituting)

	// 3. Location-Location distance folding.
	out = foldDistance(out)

	// 4. Constant folding of associative/commutative operators.
	out = foldConstants(out)

	// 5. Identities.
	out = applyIdentities(out)

	return out
}

func simplifyTerm(t Term, substituting map[string]bool) Term {
	if t.Expr != nil {
		return Term{Expr: simplify(t.Expr, substituting)}
	}
	if t.Sym != nil {
		// A bare symbol leaf is left as is here; substituteEqu, run on
		// the enclosing expression, handles its EQU substitution.
		return t
	}
	return t
}

// flattenIdent collapses `IDENT(IDENT(x))` and, for any operator, a
// nested term that is itself a single-term IDENT wrapping a leaf, down
// to the leaf directly (spec §4.2 step 6, plus the NEG(NEG(x)) identity
// from step 5 which is handled in applyIdentities since it needs
// operator-specific logic).
func flattenIdent(e *Expression) *Expression {
	if e.Op == OpIdent && len(e.Terms) == 1 {
		t := e.Terms[0]
		if t.Expr != nil && t.Expr.Op == OpIdent && len(t.Expr.Terms) == 1 {
			return flattenIdent(t.Expr)
		}
	}
	terms := make([]Term, len(e.Terms))
	for i, t := range e.Terms {
		if t.Expr != nil && t.Expr.Op == OpIdent && len(t.Expr.Terms) == 1 {
			terms[i] = t.Expr.Terms[0]
		} else {
			terms[i] = t
		}
	}
	return &Expression{Op: e.Op, Terms: terms}
}

// substituteEqu replaces any Symbol term (or bare Symbol expression)
// whose binding is an already-constant Expression with that constant,
// refusing to re-expand a symbol already on the substitution stack
// (spec §4.2 step 2: cycle detection).
func substituteEqu(e *Expression, substituting map[string]bool) *Expression {
	terms := make([]Term, len(e.Terms))
	changed := false
	for i, t := range e.Terms {
		if t.Sym != nil {
			name := t.Sym.SymbolName()
			if bound, ok := t.Sym.EquValue(); ok && !substituting[name] {
				substituting[name] = true
				resolved := simplify(bound, substituting)
				delete(substituting, name)
				if resolved.IsIntNum() {
					terms[i] = Term{Int: resolved.GetIntNum().Clone()}
					changed = true
					continue
				}
			}
		}
		terms[i] = t
	}
	if !changed {
		return e
	}
	return &Expression{Op: e.Op, Terms: terms}
}

// foldDistance implements spec §4.2 step 3: within a SUB of exactly two
// Location terms, replace the pair with the IntNum distance when it is
// known (same bytecode pre-optimize, or same section post-optimize).
func foldDistance(e *Expression) *Expression {
	if e.Op != OpSub || len(e.Terms) != 2 {
		return e
	}
	a, aok := termLocation(e.Terms[0])
	b, bok := termLocation(e.Terms[1])
	if !aok || !bok {
		return e
	}
	// e is `a - b`; loc.Distance(l, o) computes o-l, so swap arguments.
	dist, ok := loc.Distance(b, a)
	if !ok {
		return e
	}
	return MustNew(OpIdent, TermInt(intnum.FromInt64(dist)))
}

func termLocation(t Term) (loc.Location, bool) {
	if t.Loc != nil {
		return *t.Loc, true
	}
	if t.Expr != nil {
		if l, ok := t.Expr.GetLocation(); ok {
			return l, true
		}
	}
	return loc.Location{}, false
}

// foldConstants folds every IntNum child of an associative+commutative
// operator into a single trailing IntNum term (spec §4.2 step 4). Order
// of non-constant operands is preserved (deterministic, left-to-right,
// per spec §4.2's ordering guarantee).
func foldConstants(e *Expression) *Expression {
	if !(e.Op.IsAssociative() && e.Op.IsCommutative()) || len(e.Terms) < 2 {
		return e
	}
	var rest []Term
	var acc *intnum.IntNum
	for _, t := range e.Terms {
		if t.Int != nil {
			if acc == nil {
				acc = t.Int.Clone()
			} else {
				folded, err := acc.Calc(e.Op, t.Int)
				if err == nil {
					acc = folded
				} else {
					rest = append(rest, t)
				}
			}
			continue
		}
		rest = append(rest, t)
	}
	if acc == nil {
		return e
	}
	terms := append(rest, TermInt(acc))
	if len(terms) == 1 {
		return MustNew(OpIdent, terms[0])
	}
	return &Expression{Op: e.Op, Terms: terms}
}

// applyIdentities implements spec §4.2 step 5.
func applyIdentities(e *Expression) *Expression {
	switch e.Op {
	case OpAdd:
		if nt, ok := identityFilter(e.Terms, func(n *intnum.IntNum) bool { return n.IsZero() }); ok {
			return nt
		}
	case OpMul:
		if nt, ok := identityFilter(e.Terms, func(n *intnum.IntNum) bool { return n.IsPos1() }); ok {
			return nt
		}
		for _, t := range e.Terms {
			if t.Int != nil && t.Int.IsZero() {
				return MustNew(OpIdent, TermInt(intnum.FromInt64(0)))
			}
		}
	case OpAnd:
		if nt, ok := identityFilter(e.Terms, func(n *intnum.IntNum) bool { return n.IsNeg1() }); ok {
			return nt
		}
	case OpNeg:
		if len(e.Terms) == 1 && e.Terms[0].Expr != nil {
			inner := e.Terms[0].Expr
			if inner.Op == OpNeg && len(inner.Terms) == 1 {
				return simplifyLeaf(inner.Terms[0])
			}
		}
	}
	return e
}

func simplifyLeaf(t Term) *Expression {
	return &Expression{Op: OpIdent, Terms: []Term{t}}
}

// identityFilter drops every term matching drop from an n-ary operator,
// returning (result, true) if that leaves exactly one remaining term
// (the identity collapsed the expression to its other operand).
func identityFilter(terms []Term, drop func(*intnum.IntNum) bool) (*Expression, bool) {
	var kept []Term
	for _, t := range terms {
		if t.Int != nil && drop(t.Int) {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 1 && len(kept) < len(terms) {
		return simplifyLeaf(kept[0]), true
	}
	return nil, false
}
