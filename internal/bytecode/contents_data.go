package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/value"
)

// Data holds a list of fixed-size Values (spec §4.4: "db"/"dw"/"dd"/...).
type Data struct {
	Values []*value.Value
}

func NewData(values ...*value.Value) *Data { return &Data{Values: values} }

func (d *Data) Kind() string { return "data" }

func (d *Data) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	for _, v := range d.Values {
		if err := v.Finalize(); err != nil {
			ew.PropagateErr(bc.Line, err)
		}
	}
	return nil
}

func (d *Data) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	total := 0
	for _, v := range d.Values {
		total += v.Size / 8
	}
	return total, nil
}

// Expand is never called for Data: its length is fixed by the declared
// Value sizes, it registers no spans.
func (d *Data) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	return bc.Length(), nil, nil, true, nil
}

func (d *Data) Output(bc *Bytecode, sink OutputSink) error {
	for _, v := range d.Values {
		if err := sink.WriteValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Data) Clone() Contents {
	values := make([]*value.Value, len(d.Values))
	for i, v := range d.Values {
		values[i] = v.Clone()
	}
	return &Data{Values: values}
}
