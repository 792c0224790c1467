package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
)

// Org pads with fill bytes from the current offset up to Start (spec
// §4.4); it is an error for the current offset to already exceed Start.
type Org struct {
	Start *expr.Expression
	Fill  FillFunc

	start uint64
}

func NewOrg(start *expr.Expression, fill FillFunc) *Org {
	return &Org{Start: start, Fill: fill}
}

func (o *Org) Kind() string { return "org" }

func (o *Org) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	n := o.Start.Simplify().GetIntNum()
	if n == nil {
		return errwarn.NewError(errwarn.KindNotConstant, "ORG target must be constant")
	}
	o.start = n.Uint64()
	return nil
}

func (o *Org) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	off, ok := bc.BytecodeOffset()
	if !ok {
		return 0, nil
	}
	if off > o.start {
		return 0, errwarn.NewError(errwarn.KindValue, "ORG target is before current position")
	}
	return int(o.start - off), nil
}

func (o *Org) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	n, err := o.CalcLen(bc, nil)
	return n, nil, nil, true, err
}

func (o *Org) Output(bc *Bytecode, sink OutputSink) error {
	n := bc.Length()
	if n == 0 {
		return nil
	}
	if bc.section != nil && bc.section.IsBSS() {
		return sink.Advance(n)
	}
	fill := make([]byte, n)
	if o.Fill != nil {
		fill = o.Fill(n)
	}
	return sink.WriteBytes(fill)
}

func (o *Org) Clone() Contents {
	cp := *o
	return &cp
}
