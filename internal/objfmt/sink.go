package objfmt

import (
	"github.com/yasm/yasm-go/internal/bytecode"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/value"
)

// relocFunc records a format-specific relocation for v at the given
// section-relative byte offset and returns the size/8 placeholder bytes
// to write in its place (spec §4.8 step 2b/2c). It is the one piece
// every format's Output must supply; everything else about walking a
// section's bytecodes and resolving Values is shared here.
type relocFunc func(v *value.Value, sectionOffset uint64) ([]byte, error)

// sectionSink accumulates one section's output bytes, implementing both
// bytecode.OutputSink (what Contents.Output writes through) and
// value.ByteEmitter (what value.OutputBasic calls back into when a
// Value can't resolve to a plain constant).
type sectionSink struct {
	buf   []byte
	ew    *errwarn.Errwarns
	line  uint64
	emit  relocFunc
}

func (s *sectionSink) WriteBytes(b []byte) error {
	s.buf = append(s.buf, b...)
	return nil
}

func (s *sectionSink) Advance(n int) error {
	s.buf = append(s.buf, make([]byte, n)...)
	return nil
}

func (s *sectionSink) WriteValue(v *value.Value) error {
	off := uint64(len(s.buf))
	b, err := value.OutputBasic(v, off, s, s.ew, s.line)
	if err != nil {
		return err
	}
	s.buf = append(s.buf, b...)
	return nil
}

// EmitRelocatable implements value.ByteEmitter by delegating to the
// format's relocFunc.
func (s *sectionSink) EmitRelocatable(v *value.Value, sectionOffset uint64) ([]byte, error) {
	return s.emit(v, sectionOffset)
}

// outputSection runs every bytecode in sec through a fresh sectionSink
// in order and returns the accumulated bytes (spec §4.8 step 1: "for
// each section ... call bytecode.output(stream_sink) in order"). The
// format writers call it only for non-BSS sections; BSS sections are
// not walked.
func outputSection(sec *object.Section, ew *errwarn.Errwarns, emit relocFunc) ([]byte, error) {
	sink := &sectionSink{ew: ew, emit: emit}
	for _, bc := range sec.Bytecodes() {
		sink.line = bc.Line
		if err := bc.Contents.Output(bc, sink); err != nil {
			return nil, err
		}
	}
	return sink.buf, nil
}

// zeroFill returns n zero bytes, a bytecode.FillFunc for data padding
// (spec §4.8 "Fill policy": "the format's fill byte, typically 0, in data
// sections"). No Align content is given it as DataFill; Align already
// writes zeros when DataFill is nil.
func zeroFill(n int) []byte { return make([]byte, n) }

var _ bytecode.OutputSink = (*sectionSink)(nil)
