package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
)

// FillFunc returns n bytes of fill content for padding; internal/arch
// supplies the NOP-sequence variant for code sections. Data sections
// get zero bytes: Align.Output writes zeros itself when DataFill is nil,
// and nothing in this repository sets a DataFill (spec §4.4,
// §4.8 "Fill policy"; the bin-format code/bss ambiguity is resolved per
// spec §9: "the source picks based on isCode() alone" — see the Align
// content's use of section.IsCode() below).
type FillFunc func(n int) []byte

// Align pads up to the next multiple of Boundary, capped by MaxSkip if
// set (spec §4.4).
type Align struct {
	Boundary *expr.Expression
	MaxSkip  *expr.Expression
	CodeFill FillFunc
	DataFill FillFunc

	boundary uint64
	maxSkip  uint64
	hasMax   bool
}

func NewAlign(boundary *expr.Expression, maxSkip *expr.Expression, codeFill, dataFill FillFunc) *Align {
	return &Align{Boundary: boundary, MaxSkip: maxSkip, CodeFill: codeFill, DataFill: dataFill}
}

func (a *Align) Kind() string { return "align" }

func (a *Align) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	n := a.Boundary.Simplify().GetIntNum()
	if n == nil {
		return errwarn.NewError(errwarn.KindNotConstant, "alignment boundary must be constant")
	}
	b := n.Uint64()
	if b == 0 || b&(b-1) != 0 {
		return errwarn.NewError(errwarn.KindValue, "alignment boundary must be a power of two")
	}
	a.boundary = b
	if a.MaxSkip != nil {
		if m := a.MaxSkip.Simplify().GetIntNum(); m != nil {
			a.maxSkip = m.Uint64()
			a.hasMax = true
		}
	}
	return nil
}

func (a *Align) padding(curOffset uint64) int {
	rem := curOffset % a.boundary
	if rem == 0 {
		return 0
	}
	pad := a.boundary - rem
	if a.hasMax && pad > a.maxSkip {
		return 0
	}
	return int(pad)
}

func (a *Align) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	off, ok := bc.BytecodeOffset()
	if !ok {
		return 0, nil
	}
	return a.padding(off), nil
}

func (a *Align) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	n, _ := a.CalcLen(bc, nil)
	return n, nil, nil, true, nil
}

func (a *Align) Output(bc *Bytecode, sink OutputSink) error {
	n := bc.Length()
	if n == 0 {
		return nil
	}
	if bc.section != nil && bc.section.IsBSS() {
		return sink.Advance(n)
	}
	var fill []byte
	if bc.section != nil && bc.section.IsCode() && a.CodeFill != nil {
		fill = a.CodeFill(n)
	} else if a.DataFill != nil {
		fill = a.DataFill(n)
	} else {
		fill = make([]byte, n)
	}
	return sink.WriteBytes(fill)
}

func (a *Align) Clone() Contents {
	cp := *a
	return &cp
}
