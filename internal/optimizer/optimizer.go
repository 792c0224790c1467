// Package optimizer implements the span-dependent length-resolution
// fixpoint loop (spec C7 / §4.7): a two-pass iterative algorithm, derived
// from Randall Hyde's and GNU as's span-dependent resolution, that grows
// bytecodes (short jumps to near jumps, unresolved EQU-driven displacement
// sizes, ...) until every registered span's value lies inside its
// threshold, followed by a section-placement pass. Grounded on
// optimizer.go's Optimizer.Optimize fixed-point loop (maxIter, per-pass
// changed tracking, VerboseMode tracing), generalized here from "rerun
// every whole-program pass" to "requeue only the spans a length change
// could have affected".
package optimizer

import (
	"fmt"
	"os"

	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/value"
)

// Verbose is a package-level trace switch for the optimizer's passes.
var Verbose bool

func trace(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// maxExpandsPerSpan bounds Pass 2's iteration count (spec §8
// "Termination": each bytecode expands at most a small architecture-
// specific constant number of times). Exceeding it means a span never
// reaches its threshold, which Pass 2 reports as an error rather than
// looping forever.
const maxExpandsPerSpan = 8

// Optimizer runs the three-pass resolution over one Object.
type Optimizer struct {
	ew      *errwarn.Errwarns
	spans   map[spanKey]*span
	order   []spanKey // registration order, for deterministic initial enqueue
	expands map[spanKey]int
}

// New creates an Optimizer that reports failures into ew.
func New(ew *errwarn.Errwarns) *Optimizer {
	return &Optimizer{
		ew:      ew,
		spans:   make(map[spanKey]*span),
		expands: make(map[spanKey]int),
	}
}

// Optimize runs Pass 1, Pass 2, and Pass 3 over obj in order (spec
// §4.7). It reports errors into the Errwarns given to New and returns an
// error only for conditions severe enough to abort immediately (a
// section-placement cycle); span-resolution failures accumulate in
// Errwarns so later errors can still surface, matching the "optimizer
// continues" failure mode in spec §4.7.
func (o *Optimizer) Optimize(obj *object.Object) error {
	trace("-> optimizer: pass 1 (initial lengths)\n")
	if err := o.pass1(obj); err != nil {
		return err
	}
	trace("-> optimizer: pass 2 (fixpoint)\n")
	o.pass2()
	trace("-> optimizer: pass 3 (section placement)\n")
	if err := o.pass3(obj); err != nil {
		return err
	}
	return nil
}

// spanKey identifies a span the way Expand needs to address it back: the
// owning bytecode plus the Contents' own local span numbering (a single
// Insn may register more than one span, each with its own small integer
// handed to addSpan).
type spanKey struct {
	bc    *bytecode.Bytecode
	local int
}

// span is the optimizer's per-span-dependent-value bookkeeping (spec
// §4.7 Pass 1: "{bc, span_id, value_expr, thres_low, thres_high,
// cur_val}"). Rather than tracking spec's precise per-symbol dependency
// set, every span is keyed to the section it lives in; a length change
// anywhere in a section requeues every not-yet-resolved span in that
// same section (see pass2.go) — a conservative over-approximation of
// "dependency set includes a bytecode whose offset changed" that trades
// a few redundant re-evaluations for not having to walk Expression trees
// to discover which Locations a span's value actually reads.
type span struct {
	key       spanKey
	sec       *object.Section
	val       *value.Value
	thresLow  *intnum.IntNum
	thresHigh *intnum.IntNum
	resolved  bool
}
