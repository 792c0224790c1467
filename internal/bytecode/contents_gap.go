package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
)

// Gap is N bytes of uninitialized space (spec §4.4: "reserve"). A BSS
// section elides the byte emission (Output advances the sink without
// writing), but Gap tracks length the same as any other contents so
// non-BSS sections (e.g. NASM's `resb` outside .bss) still reserve real
// file space, written as zero bytes.
type Gap struct {
	Count int
}

func NewGap(count int) *Gap { return &Gap{Count: count} }

func (g *Gap) Kind() string { return "gap" }

func (g *Gap) Finalize(bc *Bytecode, ew *errwarn.Errwarns) error {
	if g.Count < 0 {
		return errwarn.NewError(errwarn.KindValue, "negative reserve count")
	}
	return nil
}

func (g *Gap) CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error) {
	return g.Count, nil
}

func (g *Gap) Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	return g.Count, nil, nil, true, nil
}

func (g *Gap) Output(bc *Bytecode, sink OutputSink) error {
	if bc.section != nil && bc.section.IsBSS() {
		return sink.Advance(g.Count)
	}
	return sink.WriteBytes(make([]byte, g.Count))
}

func (g *Gap) Clone() Contents { return &Gap{Count: g.Count} }
