package nasmlite

import (
	"strings"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/object"
)

// parseNumber reads a NASM integer literal: `0x`/`0X`-prefixed hex or
// plain decimal (spec §4.1's IntNum is the target; this is just the
// textual front door to it).
func parseNumber(s string) (*intnum.IntNum, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return intnum.FromString(s[2:], 16)
	}
	return intnum.FromString(s, 10)
}

// parseTerm resolves one expression leaf: a numeric literal or a bare
// identifier, which names a symbol (spec §4.3: GetSymbol creates an
// undefined stub on first mention, so a forward reference to a label or
// EQU defined later in the source resolves once the whole file has been
// parsed — no two-pass binding pre-scan needed).
func parseTerm(tok Token, obj *object.Object, line uint64) (expr.Term, error) {
	switch tok.Type {
	case TokenNumber:
		n, err := parseNumber(tok.Value)
		if err != nil {
			return expr.Term{}, errwarn.NewError(errwarn.KindSyntax, "malformed number `%1'", tok.Value)
		}
		return expr.TermInt(n), nil
	case TokenIdent:
		sym := obj.Symbols().GetSymbol(tok.Value)
		sym.Use(line)
		return expr.TermSymbol(sym), nil
	default:
		return expr.Term{}, errwarn.NewError(errwarn.KindSyntax, "expected a value, found `%1'", tok.Value)
	}
}

// parseExpr parses a NASM-lite expression: a term, optionally negated,
// followed by at most a left-associated chain of +/- operators. A
// single binary operator (the common case: `label - label`, `const +
// const`) builds an exactly-2-term node the way value.go's absorb and
// expr.go's foldDistance expect to pattern-match against; longer chains
// nest through an inner Expression instead, which is still semantically
// correct but isn't exercised by anything this package's tests build.
func parseExpr(toks []Token, obj *object.Object, line uint64) (*expr.Expression, error) {
	if len(toks) == 0 {
		return nil, errwarn.NewError(errwarn.KindSyntax, "expected an expression")
	}
	i := 0
	negate := false
	if toks[0].Type == TokenMinus {
		negate = true
		i++
	}
	if i >= len(toks) {
		return nil, errwarn.NewError(errwarn.KindSyntax, "expression ends after unary `-'")
	}
	firstTerm, err := parseTerm(toks[i], obj, line)
	if err != nil {
		return nil, err
	}
	i++

	var result *expr.Expression
	pendingTerm := firstTerm
	if negate {
		result = expr.MustNew(expr.OpNeg, firstTerm)
	}

	for i < len(toks) {
		var op expr.Operator
		switch toks[i].Type {
		case TokenPlus:
			op = expr.OpAdd
		case TokenMinus:
			op = expr.OpSub
		default:
			return nil, errwarn.NewError(errwarn.KindSyntax, "expected `+' or `-', found `%1'", toks[i].Value)
		}
		i++
		if i >= len(toks) {
			return nil, errwarn.NewError(errwarn.KindSyntax, "expression ends with an operator")
		}
		rightTerm, err := parseTerm(toks[i], obj, line)
		if err != nil {
			return nil, err
		}
		i++

		leftTerm := pendingTerm
		if result != nil {
			leftTerm = expr.TermExpr(result)
		}
		result = expr.MustNew(op, leftTerm, rightTerm)
	}

	if result == nil {
		return expr.MustNew(expr.OpIdent, pendingTerm), nil
	}
	return result, nil
}

// constU64 simplifies e and requires it to already be a known constant
// (spec §4.4's ORG/ALIGN/`times` count: all three reject a non-constant
// operand at parse/finalize time rather than deferring to the
// optimizer).
func constU64(e *expr.Expression) (uint64, bool) {
	n := e.Simplify().GetIntNum()
	if n == nil {
		return 0, false
	}
	return n.Uint64(), true
}
