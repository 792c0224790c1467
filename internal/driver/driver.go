// Package driver implements the external-interface glue spec §6 names but
// doesn't give a concrete type to: the module registry (Arch/Parser/
// Preprocessor/ObjectFormat lookup by name, a package-level map populated
// by init-time registration rather than reflection or a DI framework),
// the Directives name->handler dispatch, a line map for diagnostics, and
// the three-phase driver loop cmd/yasm calls.
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/object"
)

// Verbose gates driver-level diagnostic traces the same way the
// optimizer's own pass tracing is gated; cmd/yasm sets it from -v.
var Verbose bool

func trace(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, "yasm: "+format+"\n", args...)
	}
}

// Arch is the subset of internal/arch.X86_64's surface the driver depends
// on without importing internal/arch directly (spec §6's Arch module
// boundary), so a future second architecture only needs to satisfy this.
type Arch interface {
	object.Arch
	SetVar(name string, value int) error
	GetMachines() []string
}

// Preprocessor is a line-oriented token source (spec §6): getLine,
// addIncludeFile, predefineMacro, undefineMacro, defineBuiltin. yasm-go
// ships one preprocessor, internal/nasmlite's RawPreproc, behind this
// interface so internal/driver never imports internal/nasmlite back.
type Preprocessor interface {
	GetLine() (line string, lineno uint64, ok bool, err error)
	AddIncludeFile(path string) error
	PredefineMacro(name, value string)
	UndefineMacro(name string)
	DefineBuiltin(name, value string)
}

// Parser consumes a Preprocessor's lines and appends Bytecodes/declares
// Symbols into obj (spec §6). AddDirective lets an ObjectFormat install
// format-specific directives without the parser importing objfmt.
type Parser interface {
	Parse(obj *object.Object, pp Preprocessor, dirs *Directives, lm *LineMap, ew *errwarn.Errwarns) error
	AddDirective(name string, handler func(args string, line uint64) error)
}

// Run executes the three-phase pipeline spec §6/§7 describes: parse into
// an Object, Finalize it, Optimize it, then Output through fmt. Each phase
// stops at the first phase that records an error, matching "driver then
// emits all accumulated diagnostics and exits non-zero" (spec §7) — Run
// itself doesn't print anything; the caller (cmd/yasm) owns stderr.
func Run(obj *object.Object, pp Preprocessor, p Parser, dirs *Directives, lm *LineMap, optimize func(*object.Object) error, fmtWriter io.Writer, of ObjectFormat, allSyms bool, ew *errwarn.Errwarns, undefExtern bool) error {
	trace("parsing %s", obj.SourceFilename())
	if err := p.Parse(obj, pp, dirs, lm, ew); err != nil {
		return err
	}
	if ew.HasErrors() {
		return fmt.Errorf("yasm: parse errors")
	}

	trace("finalizing object")
	if err := obj.Finalize(ew, undefExtern); err != nil {
		return err
	}
	if ew.HasErrors() {
		return fmt.Errorf("yasm: finalize errors")
	}

	trace("optimizing object")
	if err := optimize(obj); err != nil {
		return err
	}
	if ew.HasErrors() {
		return fmt.Errorf("yasm: optimize errors")
	}

	trace("writing output")
	if err := of.Output(fmtWriter, allSyms, ew); err != nil {
		return err
	}
	if ew.HasErrors() {
		return fmt.Errorf("yasm: output errors")
	}
	return nil
}

// ObjectFormat mirrors objfmt.ObjectFormat without importing that package,
// so driver has no dependency on the concrete writers it dispatches to.
type ObjectFormat interface {
	Output(w io.Writer, allSyms bool, ew *errwarn.Errwarns) error
}
