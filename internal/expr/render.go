package expr

import "strings"

// render produces a debug-only textual form; it is not a re-parseable
// surface syntax (surface syntax belongs to the parser, an external
// collaborator per spec §1).
func render(e *Expression) string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == OpIdent && len(e.Terms) == 1 {
		return renderTerm(e.Terms[0])
	}
	if n, fixed := e.Op.FixedArity(); fixed && n == 1 {
		return e.Op.String() + "(" + renderTerm(e.Terms[0]) + ")"
	}
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = renderTerm(t)
	}
	return "(" + strings.Join(parts, " "+e.Op.String()+" ") + ")"
}

func renderTerm(t Term) string {
	switch {
	case t.Int != nil:
		return t.Int.String()
	case t.Flt != nil:
		return t.Flt.String()
	case t.Sym != nil:
		return t.Sym.SymbolName()
	case t.Loc != nil:
		return "<loc>"
	case t.Reg != nil:
		return t.Reg.RegName()
	case t.Expr != nil:
		return render(t.Expr)
	default:
		return "<empty>"
	}
}
