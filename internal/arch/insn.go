package arch

import (
	"fmt"
	"os"

	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
	"github.com/yasm/yasm-go/internal/value"
)

// Verbose gates inline fmt.Fprintf(os.Stderr, ...) tracing, as a single
// package-level switch.
var Verbose bool

func trace(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// relShortLow/relShortHigh/relNearLow/relNearHigh bound a short (rel8)
// vs near (rel32) relative branch displacement (spec §4.7's motivating
// scenario: short-form jumps that promote to long form).
var (
	relShortLow  = intnum.FromInt64(-128)
	relShortHigh = intnum.FromInt64(127)
	relNearLow   = intnum.FromInt64(-2147483648)
	relNearHigh  = intnum.FromInt64(2147483647)
)

// Insn is the x86-64 bytecode.InsnEncoder (spec §4.10): one encoder per
// instruction class, dispatched here by mnemonic rather than by a
// one-method-per-mnemonic backend, since this package must fit the
// CalcLen/Expand/Encode shape bytecode.Insn requires instead of writing
// straight into an output buffer.
//
// Only a relative branch (jmp/jcc) participates in the span/threshold/
// Expand protocol; every other mnemonic here has a length that depends
// only on its operands' declared sizes, never on an operand's resolved
// value, so arithmetic and mov immediates always pick the widest
// encoding for their operand size rather than the narrower form a
// constant-valued immediate could fit in. This mirrors the documented
// optimizer package-scope decision that only Insn (and, within Insn,
// only the relative-branch case) formally spans.
type Insn struct {
	Mnemonic string
	Ops      []Operand

	short bool // current chosen form for a relative-branch mnemonic
}

// NewInsn validates operands against mnemonic's expected shape (spec
// §6's createEmptyInsn + per-operand checks) and builds the encoder.
func NewInsn(mnemonic string, ops []Operand) (*Insn, error) {
	if def, ok := insnTable[mnemonic]; ok {
		if err := def.checkOperands(ops); err != nil {
			return nil, err
		}
		return &Insn{Mnemonic: mnemonic, Ops: ops}, nil
	}
	_, isCond := conditionCodes[mnemonic]
	if mnemonic == "call" || mnemonic == "jmp" || isCond {
		if len(ops) != 1 || !ops[0].isRel() {
			return nil, Errorf("%s requires exactly one relative target operand", mnemonic)
		}
		return &Insn{Mnemonic: mnemonic, Ops: ops, short: mnemonic != "call"}, nil
	}
	return nil, Errorf("unrecognized instruction %q", mnemonic)
}

// distanceValue builds the Value the optimizer spans against: target -
// (this instruction's address + its own length), matching spec §4.2's
// Location-Location-distance mechanism and the technique
// optimizer_test.go's fakeJmpEncoder exercises in isolation.
func (i *Insn) distanceValue(bc *bytecode.Bytecode, length, size int) *value.Value {
	next := bc.Loc(uint64(length))
	target := i.Ops[0].Rel
	// A label symbol target is replaced by the Location it is bound to,
	// so the subtraction folds as a Location-Location distance.
	if sym := target.GetSymbol(); sym != nil {
		if lbl, ok := sym.(interface{ Label() (loc.Location, bool) }); ok {
			if l, ok := lbl.Label(); ok {
				target = expr.FromLocation(l)
			}
		}
	}
	e := expr.MustNew(expr.OpSub, expr.TermExpr(target), expr.TermLocation(next))
	return value.New(size, e)
}

func (i *Insn) CalcLen(bc *bytecode.Bytecode, addSpan bytecode.AddSpanFunc) (int, error) {
	if def, ok := insnTable[i.Mnemonic]; ok {
		return def.length(i.Ops)
	}
	if i.Mnemonic == "call" {
		return 5, nil
	}

	n := branchLength(i.Mnemonic, i.short)
	lo, hi, size := relShortLow, relShortHigh, 8
	if !i.short {
		lo, hi, size = relNearLow, relNearHigh, 32
	}
	addSpan(0, i.distanceValue(bc, n, size), lo, hi)
	return n, nil
}

func (i *Insn) Expand(bc *bytecode.Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	if i.short {
		i.short = false
		trace("%s: promoting short form to near form at line %d\n", i.Mnemonic, bc.Line)
	}
	return branchLength(i.Mnemonic, false), nil, nil, true, nil
}

func (i *Insn) Encode(bc *bytecode.Bytecode, sink bytecode.OutputSink) error {
	if def, ok := insnTable[i.Mnemonic]; ok {
		return def.encode(i.Ops, sink)
	}
	return encodeBranch(i, bc, sink)
}
