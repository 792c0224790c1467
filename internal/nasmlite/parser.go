package nasmlite

import (
	"strings"

	"github.com/yasm/yasm-go/internal/arch"
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/driver"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/symbol"
	"github.com/yasm/yasm-go/internal/value"
)

// Parser implements driver.Parser for the NASM-lite subset (spec §6).
// Grounded on parser.go's single-pass statement dispatch, cut down to
// NASM-lite's closed pseudo-op/mnemonic set; the forward-reference
// problem parser.go solves with a dedicated pre-pass is instead solved
// here the way internal/symbol.Table already solves it for free:
// Table.GetSymbol returns the same *Symbol pointer for a name regardless
// of which mention comes first, so a `jmp near_end` seen before
// `near_end:` is defined still ends up pointing at the symbol that gets
// DefineLabel'd a few lines later — Finalize/optimize/output only run
// once the whole file is behind them.
type Parser struct {
	arch        *arch.X86_64
	dirHandlers map[string]func(args string, line uint64) error
}

// NewParser builds a Parser that emits instructions for a.
func NewParser(a *arch.X86_64) *Parser {
	return &Parser{arch: a}
}

// AddDirective implements driver.Parser: an ObjectFormat or Arch can
// attach a raw-string directive handler directly to this parser (spec
// §6). None of NASM-lite's six core scenarios need one (no SECTION/
// GLOBAL), so this just stores the registration for whatever directive
// syntax a caller chooses to route through it.
func (p *Parser) AddDirective(name string, handler func(args string, line uint64) error) {
	if p.dirHandlers == nil {
		p.dirHandlers = make(map[string]func(string, uint64) error)
	}
	p.dirHandlers[strings.ToLower(name)] = handler
}

// Parse implements driver.Parser: pull every line from pp and dispatch
// each to parseLine, accumulating diagnostics into ew rather than
// stopping at the first one (spec §7's "accumulate then report").
func (p *Parser) Parse(obj *object.Object, pp driver.Preprocessor, dirs *driver.Directives, lm *driver.LineMap, ew *errwarn.Errwarns) error {
	if obj.CurSection() == nil {
		sec := obj.AppendSection(".text", false, false)
		sec.SetLMA(0)
	}
	for {
		line, lineno, ok, err := pp.GetLine()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		lm.Set(lineno, obj.SourceFilename(), lineno)
		if err := p.parseLine(obj, line, lineno, dirs, ew); err != nil {
			ew.PropagateErr(lineno, err)
		}
	}
}

func (p *Parser) parseLine(obj *object.Object, line string, lineno uint64, dirs *driver.Directives, ew *errwarn.Errwarns) error {
	toks := NewLexer(line).Tokens()
	if len(toks) == 0 {
		return nil
	}

	var label *symbol.Symbol
	if len(toks) >= 2 && toks[0].Type == TokenIdent && toks[1].Type == TokenColon {
		label = obj.Symbols().GetSymbol(toks[0].Value)
		toks = toks[2:]
	}

	if len(toks) == 0 {
		if label == nil {
			return nil
		}
		return p.anchorLabel(obj, label, lineno)
	}

	// `NAME EQU expr` (NASM's EQU pseudo-op has no leading colon).
	if label == nil && len(toks) >= 3 && toks[0].Type == TokenIdent && toks[1].Type == TokenIdent && strings.EqualFold(toks[1].Value, "equ") {
		sym := obj.Symbols().GetSymbol(toks[0].Value)
		e, err := parseExpr(toks[2:], obj, lineno)
		if err != nil {
			return err
		}
		return sym.DefineEqu(e, lineno)
	}

	mnemonic := strings.ToLower(toks[0].Value)
	rest := toks[1:]

	switch mnemonic {
	case "bits":
		if len(rest) != 1 || rest[0].Type != TokenNumber {
			return errwarn.NewError(errwarn.KindSyntax, "`bits' expects a single numeric operand")
		}
		n, err := parseNumber(rest[0].Value)
		if err != nil {
			return err
		}
		if err := p.arch.SetVar("mode_bits", int(n.Uint64())); err != nil {
			return err
		}
		return p.anchorIfLabeled(obj, label, lineno)
	case "org":
		e, err := parseExpr(rest, obj, lineno)
		if err != nil {
			return err
		}
		addr, ok := constU64(e)
		if !ok {
			return errwarn.NewError(errwarn.KindNotConstant, "`org' target must be constant")
		}
		sec := obj.CurSection()
		sec.SetLMA(addr)
		sec.SetVMA(addr)
		return p.anchorIfLabeled(obj, label, lineno)
	}

	contents, err := p.buildContents(obj, toks, lineno)
	if err != nil {
		return err
	}
	bc := obj.CurSection().Append(contents, lineno)
	if label != nil {
		return label.DefineLabel(bc.Loc(0), lineno)
	}
	return nil
}

// anchorLabel binds a label mentioned with nothing following it on its
// line to a fresh zero-length Gap, the same "bare anchor" pattern
// internal/objfmt's own tests use for a trailing label (spec §4.4: a
// Gap's Count may be 0; it is still a valid, addressable Location).
func (p *Parser) anchorLabel(obj *object.Object, label *symbol.Symbol, lineno uint64) error {
	bc := obj.CurSection().Append(bytecode.NewGap(0), lineno)
	return label.DefineLabel(bc.Loc(0), lineno)
}

func (p *Parser) anchorIfLabeled(obj *object.Object, label *symbol.Symbol, lineno uint64) error {
	if label == nil {
		return nil
	}
	return p.anchorLabel(obj, label, lineno)
}

// buildContents dispatches the content-producing statements: ALIGN,
// TIMES, the data pseudo-ops, and plain instructions. It never consumes
// a label — the caller already stripped that off — so it can recurse
// for TIMES's repeated sub-statement without re-parsing a label that
// isn't there.
func (p *Parser) buildContents(obj *object.Object, toks []Token, lineno uint64) (bytecode.Contents, error) {
	mnemonic := strings.ToLower(toks[0].Value)
	rest := toks[1:]

	switch mnemonic {
	case "align":
		boundary, err := parseExpr(rest, obj, lineno)
		if err != nil {
			return nil, err
		}
		var codeFill bytecode.FillFunc
		if obj.CurSection().IsCode() {
			codeFill = p.arch.GetFill()
		}
		return bytecode.NewAlign(boundary, nil, codeFill, nil), nil

	case "times":
		if len(rest) < 2 {
			return nil, errwarn.NewError(errwarn.KindSyntax, "`times' needs a count and a statement")
		}
		count, err := parseExpr(rest[:1], obj, lineno)
		if err != nil {
			return nil, err
		}
		sub, err := p.buildContents(obj, rest[1:], lineno)
		if err != nil {
			return nil, err
		}
		return bytecode.NewMultiple(sub, count), nil

	case "db", "dw", "dd":
		width := map[string]int{"db": 8, "dw": 16, "dd": 32}[mnemonic]
		groups := splitOnComma(rest)
		if len(groups) == 0 {
			return nil, errwarn.NewError(errwarn.KindSyntax, "`%1' needs at least one value", mnemonic)
		}
		values := make([]*value.Value, len(groups))
		for i, g := range groups {
			e, err := parseExpr(g, obj, lineno)
			if err != nil {
				return nil, err
			}
			values[i] = value.FromExpression(e, width, lineno)
		}
		return bytecode.NewData(values...), nil

	default:
		return p.buildInsn(obj, mnemonic, rest, lineno)
	}
}

func splitOnComma(toks []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range toks {
		if t.Type == TokenComma {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 || len(groups) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// buildInsn builds the handful of mnemonics NASM-lite's scenarios need
// (spec §4.10's Arch.createEmptyInsn boundary): a register destination
// or the owning Arch's encoder table handles everything else (spec §6
// lists `createEmptyInsn` as the one Arch-owned parse hook; this is that
// hook, narrowed to the operand shapes NASM-lite's grammar can produce).
func (p *Parser) buildInsn(obj *object.Object, mnemonic string, rest []Token, lineno uint64) (bytecode.Contents, error) {
	switch mnemonic {
	case "nop", "ret", "int3", "syscall", "cdq", "cqo":
		if len(rest) != 0 {
			return nil, errwarn.NewError(errwarn.KindSyntax, "`%1' takes no operands", mnemonic)
		}
		insn, err := arch.NewInsn(mnemonic, nil)
		if err != nil {
			return nil, err
		}
		return bytecode.NewInsn(insn), nil

	case "jmp":
		if len(rest) != 1 || rest[0].Type != TokenIdent {
			return nil, errwarn.NewError(errwarn.KindSyntax, "`jmp' expects a single target label")
		}
		sym := obj.Symbols().GetSymbol(rest[0].Value)
		sym.Use(lineno)
		insn, err := arch.NewInsn("jmp", []arch.Operand{arch.RelOperand(expr.FromSymbol(sym))})
		if err != nil {
			return nil, err
		}
		return bytecode.NewInsn(insn), nil

	case "mov":
		return p.buildMov(obj, rest, lineno)

	default:
		return nil, errwarn.NewError(errwarn.KindSyntax, "unrecognized mnemonic `%1'", mnemonic)
	}
}

func (p *Parser) buildMov(obj *object.Object, rest []Token, lineno uint64) (bytecode.Contents, error) {
	if len(rest) < 3 || rest[0].Type != TokenIdent || rest[1].Type != TokenComma {
		return nil, errwarn.NewError(errwarn.KindSyntax, "`mov' expects `dst, src'")
	}
	dst, ok := arch.LookupRegister(strings.ToLower(rest[0].Value))
	if !ok {
		return nil, errwarn.NewError(errwarn.KindSyntax, "`%1' is not a register", rest[0].Value)
	}
	srcToks := rest[2:]
	if len(srcToks) == 1 {
		if src, ok := arch.LookupRegister(strings.ToLower(srcToks[0].Value)); ok {
			insn, err := arch.NewInsn("mov", []arch.Operand{arch.RegOperand(dst), arch.RegOperand(src)})
			if err != nil {
				return nil, err
			}
			return bytecode.NewInsn(insn), nil
		}
	}
	imm, err := parseExpr(srcToks, obj, lineno)
	if err != nil {
		return nil, err
	}
	insn, err := arch.NewInsn("mov", []arch.Operand{arch.RegOperand(dst), arch.ImmOperand(imm)})
	if err != nil {
		return nil, err
	}
	return bytecode.NewInsn(insn), nil
}

var _ driver.Parser = (*Parser)(nil)
