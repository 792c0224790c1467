// Package bytecode implements the atomic emission unit inside a section
// (spec C4 / §4.4): each Bytecode has a fixed head, a polymorphic
// variable-length tail ("contents"), and offset/length bookkeeping that
// the optimizer refines across passes.
package bytecode

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/intnum"
	"github.com/yasm/yasm-go/internal/loc"
	"github.com/yasm/yasm-go/internal/value"
)

// SectionRef is the minimal view of the owning Section a Bytecode needs:
// just enough to answer loc.BytecodeRef's SectionID. internal/object's
// Section implements this.
type SectionRef interface {
	SectionID() uint64
	IsCode() bool
	IsBSS() bool
}

// AddSpanFunc is how a Contents' CalcLen registers a span-dependent
// value with the optimizer: "call me back (via Expand) if value falls
// outside [thresLow, thresHigh]" (spec §4.4, §4.7).
type AddSpanFunc func(spanID int, value *value.Value, thresLow, thresHigh *intnum.IntNum)

// OutputSink is what Contents.Output writes bytes and Values through.
// internal/objfmt provides the concrete implementation during the output
// pipeline (spec §4.8).
type OutputSink interface {
	// WriteBytes appends raw, already-resolved bytes.
	WriteBytes(b []byte) error
	// WriteValue resolves v (writing constant bytes, or recording a
	// relocation and writing placeholder bytes) and advances the sink by
	// v.Size/8 bytes.
	WriteValue(v *value.Value) error
	// Advance moves the output position forward by n bytes without
	// emitting data (BSS sections, Gap contents).
	Advance(n int) error
}

// Contents is the polymorphic tail of a Bytecode (spec §4.4). The set of
// built-in variants is closed (data/gap/align/org/multiple/incbin/insn/
// leb128 plus format-specific subclasses), so per spec §9 this is a
// tagged-variant interface rather than an open plugin mechanism.
type Contents interface {
	// Kind names the variant for diagnostics and type switches in
	// internal/objfmt (e.g. deciding fill policy).
	Kind() string
	// Finalize validates and freezes parse-time inputs. Called exactly
	// once, before optimize; a Contents that has already been finalized
	// must reject a second call.
	Finalize(bc *Bytecode, ew *errwarn.Errwarns) error
	// CalcLen returns the current best-guess length, registering any
	// span dependencies via addSpan.
	CalcLen(bc *Bytecode, addSpan AddSpanFunc) (int, error)
	// Expand mutates the contents to accommodate newVal falling outside
	// the span's threshold, returning the new length and the next
	// threshold interval, or done=true if now in final form.
	Expand(bc *Bytecode, spanID int, oldVal, newVal *intnum.IntNum) (newLen int, negThres, posThres *intnum.IntNum, done bool, err error)
	// Output emits bytes via sink.
	Output(bc *Bytecode, sink OutputSink) error
	// Clone deep-copies the contents.
	Clone() Contents
}

// Bytecode is the atom of emission inside a Section (spec §4.4).
type Bytecode struct {
	Line     uint64
	Contents Contents

	section  SectionRef
	index    int // position within the section's bytecode list
	offset   uint64
	hasOff   bool
	length   int
	finalOk  bool
}

// New constructs a Bytecode; Section (internal/object) calls this when
// appending so the Bytecode always knows its owner.
func New(section SectionRef, index int, contents Contents, line uint64) *Bytecode {
	return &Bytecode{Line: line, Contents: contents, section: section, index: index}
}

// Sentinel creates the zero-length "bytecodes_first" anchor every
// Section prepends (spec §4.5) so offset 0 is always a valid Location.
func Sentinel(section SectionRef) *Bytecode {
	bc := New(section, 0, sentinelContents{}, 0)
	bc.offset = 0
	bc.hasOff = true
	bc.length = 0
	bc.finalOk = true
	return bc
}

type sentinelContents struct{}

func (sentinelContents) Kind() string { return "sentinel" }
func (sentinelContents) Finalize(*Bytecode, *errwarn.Errwarns) error { return nil }
func (sentinelContents) CalcLen(*Bytecode, AddSpanFunc) (int, error) { return 0, nil }
func (sentinelContents) Expand(*Bytecode, int, *intnum.IntNum, *intnum.IntNum) (int, *intnum.IntNum, *intnum.IntNum, bool, error) {
	return 0, nil, nil, true, nil
}
func (sentinelContents) Output(*Bytecode, OutputSink) error { return nil }
func (sentinelContents) Clone() Contents                    { return sentinelContents{} }

// Index returns the bytecode's position within its section's ordered
// list (used for iteration and for locating "next bytecode" during
// expand-driven offset propagation).
func (bc *Bytecode) Index() int { return bc.index }

// SectionID implements loc.BytecodeRef.
func (bc *Bytecode) SectionID() uint64 {
	if bc.section == nil {
		return 0
	}
	return bc.section.SectionID()
}

// Section returns the owning section reference.
func (bc *Bytecode) Section() SectionRef { return bc.section }

// BytecodeOffset implements loc.BytecodeRef.
func (bc *Bytecode) BytecodeOffset() (uint64, bool) { return bc.offset, bc.hasOff }

// SameBytecode implements loc.BytecodeRef.
func (bc *Bytecode) SameBytecode(other loc.BytecodeRef) bool {
	ob, ok := other.(*Bytecode)
	return ok && ob == bc
}

// SetOffset is called by the optimizer as it walks a section,
// establishing or updating this bytecode's section-relative offset
// (spec §5: "Locations ... invalidated across optimization passes").
func (bc *Bytecode) SetOffset(off uint64) {
	bc.offset = off
	bc.hasOff = true
}

func (bc *Bytecode) Invalidate() { bc.hasOff = false }

// Length returns the most recently computed length in bytes.
func (bc *Bytecode) Length() int { return bc.length }

func (bc *Bytecode) SetLength(n int) { bc.length = n }

// Loc builds a Location at the given byte offset within this bytecode.
func (bc *Bytecode) Loc(offset uint64) loc.Location {
	return loc.Location{BC: bc, Offset: offset}
}

// Finalize calls the contents' Finalize exactly once.
func (bc *Bytecode) Finalize(ew *errwarn.Errwarns) error {
	if bc.finalOk {
		return errwarn.NewError(errwarn.KindInternal, "bytecode at line %1 finalized twice", bc.Line)
	}
	bc.finalOk = true
	return bc.Contents.Finalize(bc, ew)
}

// CalcLen delegates to the contents and stores the result.
func (bc *Bytecode) CalcLen(addSpan AddSpanFunc) (int, error) {
	n, err := bc.Contents.CalcLen(bc, addSpan)
	if err != nil {
		return 0, err
	}
	bc.length = n
	return n, nil
}
