package bytecode

import (
	"os"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/expr"
	"github.com/yasm/yasm-go/internal/intnum"
)

// Incbin copies literal bytes from an external file at optimize time
// (spec §4.4), optionally starting at Start for at most MaxLen bytes.
type Incbin struct {
	Filename string
	Start    *expr.Expression // may be nil for "from the beginning"
	MaxLen   *expr.Expression // may be nil for "to the end"

	data []byte
}

func NewIncbin(filename string, start, maxLen *expr.Expression) *Incbin {
	return &Incbin{Filename: filename, Start: start, MaxLen: maxLen}
}

func (ib *Incbin) Kind() string { return "incbin" }

func (ib *Incbin) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	raw, err := os.ReadFile(ib.Filename)
	if err != nil {
		return errwarn.NewError(errwarn.KindIO, "cannot open incbin file `%1': %2", ib.Filename, err.Error())
	}

	start := uint64(0)
	if ib.Start != nil {
		n := ib.Start.Simplify().GetIntNum()
		if n == nil {
			return errwarn.NewError(errwarn.KindNotConstant, "incbin start must be constant")
		}
		start = n.Uint64()
	}
	if start > uint64(len(raw)) {
		return errwarn.NewError(errwarn.KindValue, "incbin start %1 is past end of file `%2'", start, ib.Filename)
	}
	raw = raw[start:]

	if ib.MaxLen != nil {
		n := ib.MaxLen.Simplify().GetIntNum()
		if n == nil {
			return errwarn.NewError(errwarn.KindNotConstant, "incbin length must be constant")
		}
		if max := n.Uint64(); max < uint64(len(raw)) {
			raw = raw[:max]
		}
	}
	ib.data = raw
	return nil
}

func (ib *Incbin) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	return len(ib.data), nil
}

func (ib *Incbin) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	return len(ib.data), nil, nil, true, nil
}

func (ib *Incbin) Output(bc *Bytecode, sink OutputSink) error {
	return sink.WriteBytes(ib.data)
}

func (ib *Incbin) Clone() Contents {
	data := make([]byte, len(ib.data))
	copy(data, ib.data)
	return &Incbin{Filename: ib.Filename, Start: ib.Start, MaxLen: ib.MaxLen, data: data}
}
