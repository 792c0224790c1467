package optimizer

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/value"
)

// pass1 walks every section's bytecodes in order, setting each one's
// tentative offset and calling calcLen (spec §4.7 Pass 1). Any span a
// Contents registers via addSpan is recorded against the section it
// lives in.
func (o *Optimizer) pass1(obj *object.Object) error {
	for _, sec := range obj.Sections() {
		offset := uint64(0)
		for _, bc := range sec.Bytecodes() {
			bc.SetOffset(offset)
			n, err := bc.CalcLen(o.addSpanFunc(bc, sec))
			if err != nil {
				o.ew.PropagateErr(bc.Line, err)
				continue
			}
			offset += uint64(n)
		}
	}
	return nil
}

// addSpanFunc builds the AddSpanFunc a Contents' CalcLen/Expand use to
// register a span-dependent value against this bytecode (spec §4.4's
// addSpan callback).
func (o *Optimizer) addSpanFunc(bc *bytecode.Bytecode, sec *object.Section) bytecode.AddSpanFunc {
	return func(spanID int, v *value.Value, thresLow, thresHigh *intnum.IntNum) {
		key := spanKey{bc: bc, local: spanID}
		o.spans[key] = &span{
			key:       key,
			sec:       sec,
			val:       v,
			thresLow:  thresLow,
			thresHigh: thresHigh,
		}
		o.order = append(o.order, key)
	}
}
