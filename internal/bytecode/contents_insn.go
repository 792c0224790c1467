package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
)

// InsnEncoder is the hook internal/arch implements for one assembled
// instruction's architecture-specific sizing and encoding (spec C10 /
// §4.10). Keeping the interface here, rather than importing arch from
// bytecode, is what lets bytecode stay architecture-agnostic (spec
// §1/§9: the core is "completely insulated" from any one instruction
// set).
//
// Insn is the only Contents variant that participates in the formal
// span/threshold/Expand protocol with full generality (spec §4.7's
// motivating scenario is exactly short-vs-near jump promotion); other
// variants recompute their length unconditionally as offsets propagate.
type InsnEncoder interface {
	// CalcLen returns the instruction's current best-guess length. It
	// may call addSpan to register a span-dependent operand (e.g. a
	// relative displacement that might not fit in one byte).
	CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error)
	// Expand is called when a previously registered span's value falls
	// outside its threshold; it re-encodes to a (possibly larger) form.
	Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (newLen int, negThres, posThres *intnum.IntNum, done bool, err error)
	// Encode writes the final instruction bytes through sink.
	Encode(bc *Bytecode, sink OutputSink) error
}

// Insn wraps one assembled instruction (spec §4.4); internal/arch builds
// the InsnEncoder at parse time from mnemonic + operands.
type Insn struct {
	Encoder InsnEncoder
}

func NewInsn(enc InsnEncoder) *Insn {
	return &Insn{Encoder: enc}
}

func (i *Insn) Kind() string { return "insn" }

func (i *Insn) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error { return nil }

func (i *Insn) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	return i.Encoder.CalcLen(bc, addSpan)
}

func (i *Insn) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	return i.Encoder.Expand(bc, spanID, oldVal, newVal)
}

func (i *Insn) Output(bc *Bytecode, sink OutputSink) error {
	return i.Encoder.Encode(bc, sink)
}

func (i *Insn) Clone() Contents {
	return &Insn{Encoder: i.Encoder}
}
