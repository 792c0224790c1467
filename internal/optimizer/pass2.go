package optimizer

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/value"
)

// noopAddSpan discards span registrations made by a CalcLen call that is
// only being rerun to pick up a shifted offset (see resyncFrom), not to
// register new span-dependent state. Insn encoders only choose a new
// encoding form in response to Expand, so rerunning CalcLen mid-resync
// just reflects the form already chosen; Align/Org/Multiple never call
// addSpan at all (spec §4.7's documented scope: only Insn formally
// spans).
func noopAddSpan(spanID int, v *value.Value, thresLow, thresHigh *intnum.IntNum) {}

// pass2 iterates the FIFO queue of spans to re-evaluate until it is
// empty (spec §4.7 Pass 2). Every section's spans enqueue together: a
// length change anywhere in a section requeues every unresolved span in
// that section rather than tracking the precise per-symbol dependency
// set spec describes (see the span/spanKey doc comment in optimizer.go).
func (o *Optimizer) pass2() {
	sections := make(map[uint64][]spanKey)
	for _, key := range o.order {
		s := o.spans[key]
		sections[s.sec.SectionID()] = append(sections[s.sec.SectionID()], key)
	}

	queue := append([]spanKey(nil), o.order...)
	queued := make(map[spanKey]bool, len(o.order))
	for _, k := range queue {
		queued[k] = true
	}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		queued[key] = false

		s, ok := o.spans[key]
		if !ok || s.resolved {
			continue
		}

		newVal := s.val.GetIntNum()
		if newVal == nil {
			// Still not reducible to a constant (e.g. a forward
			// reference whose target offset isn't known yet); it will
			// be requeued if anything in its section changes again.
			continue
		}
		if s.thresLow != nil && s.thresHigh != nil &&
			newVal.Cmp(s.thresLow) >= 0 && newVal.Cmp(s.thresHigh) <= 0 {
			continue
		}

		o.expands[key]++
		if o.expands[key] > maxExpandsPerSpan {
			o.ew.Error(key.bc.Line, errwarn.KindValue,
				"span did not converge after %1 expansions", maxExpandsPerSpan)
			s.resolved = true
			continue
		}

		// Contents.Expand's oldVal only matters to encoders that need the
		// prior value for a growth heuristic; none of the built-in
		// Contents variants do, so this optimizer doesn't separately
		// track a span's last-seen value and passes newVal for both.
		newLen, negThres, posThres, done, err := key.bc.Contents.Expand(key.bc, key.local, newVal, newVal)
		if err != nil {
			o.ew.PropagateErr(key.bc.Line, err)
			s.resolved = true
			continue
		}
		s.thresLow, s.thresHigh = negThres, posThres
		if done {
			s.resolved = true
		}

		oldLen := key.bc.Length()
		if newLen == oldLen {
			continue
		}
		key.bc.SetLength(newLen)
		o.resyncFrom(key.bc, s.sec)

		for _, depKey := range sections[s.sec.SectionID()] {
			if depKey == key || o.spans[depKey].resolved || queued[depKey] {
				continue
			}
			queue = append(queue, depKey)
			queued[depKey] = true
		}
	}
}

// resyncFrom recomputes offset and length for every bytecode after bc in
// sec, given that bc's own length just changed. Non-spanning contents
// (Align, Org, Multiple) recompute a fresh length from the new offset;
// Insn contents simply reflect whatever form Expand last chose.
func (o *Optimizer) resyncFrom(bc *bytecode.Bytecode, sec *object.Section) {
	idx := bc.Index()
	off, _ := bc.BytecodeOffset()
	offset := off + uint64(bc.Length())

	secBCs := sec.Bytecodes()
	for _, later := range secBCs[idx+1:] {
		later.SetOffset(offset)
		n, err := later.CalcLen(noopAddSpan)
		if err != nil {
			o.ew.PropagateErr(later.Line, err)
			continue
		}
		offset += uint64(n)
	}
}
