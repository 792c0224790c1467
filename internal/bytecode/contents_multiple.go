package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
)

// Multiple repeats a sub-container Count times (spec §4.4: NASM's
// `times`). Count must resolve to a non-negative constant by optimize
// time.
type Multiple struct {
	Sub   Contents
	Count *expr.Expression

	count  uint64
	subLen int
}

func NewMultiple(sub Contents, count *expr.Expression) *Multiple {
	return &Multiple{Sub: sub, Count: count}
}

func (m *Multiple) Kind() string { return "multiple" }

func (m *Multiple) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	n := m.Count.Simplify().GetIntNum()
	if n == nil {
		return errwarn.NewError(errwarn.KindNotConstant, "`times' count must be constant")
	}
	if n.GetSign() < 0 {
		return errwarn.NewError(errwarn.KindValue, "`times' count may not be negative")
	}
	m.count = n.Uint64()
	return m.Sub.Finalize(bc, ew)
}

func (m *Multiple) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	subLen, err := m.Sub.CalcLen(bc, addSpan)
	if err != nil {
		return 0, err
	}
	m.subLen = subLen
	return subLen * int(m.count), nil
}

func (m *Multiple) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	subLen, negT, posT, done, err := m.Sub.Expand(bc, spanID, oldVal, newVal)
	if err != nil {
		return 0, nil, nil, false, err
	}
	m.subLen = subLen
	return subLen * int(m.count), negT, posT, done, nil
}

func (m *Multiple) Output(bc *Bytecode, sink OutputSink) error {
	for i := uint64(0); i < m.count; i++ {
		if err := m.Sub.Output(bc, sink); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multiple) Clone() Contents {
	return &Multiple{Sub: m.Sub.Clone(), Count: m.Count.Clone(), count: m.count, subLen: m.subLen}
}
