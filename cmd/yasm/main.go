// Command yasm is the CLI front end: flag parsing, module selection, and
// the parse/finalize/optimize/output pipeline (spec §6/§7).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yasm/yasm-go/internal/arch"
	"github.com/yasm/yasm-go/internal/driver"
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/nasmlite"
	"github.com/yasm/yasm-go/internal/object"
	"github.com/yasm/yasm-go/internal/objfmt"
	"github.com/yasm/yasm-go/internal/optimizer"
)

var objfmts = driver.NewRegistry[objfmt.ObjectFormat]()

func init() {
	objfmts.Register("bin", func() objfmt.ObjectFormat { return objfmt.NewBin() })
	objfmts.Register("xdf", func() objfmt.ObjectFormat { return objfmt.NewXDF() })
	objfmts.Register("elf64", func() objfmt.ObjectFormat { return objfmt.NewELF() })
	objfmts.Register("win32", func() objfmt.ObjectFormat { return objfmt.NewWin32() })
	objfmts.Register("win64", func() objfmt.ObjectFormat { return objfmt.NewWin64() })
	objfmts.Register("macho64", func() objfmt.ObjectFormat { return objfmt.NewMachO() })
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("yasm", flag.ContinueOnError)
	outputFlag := fs.String("o", "", "output filename")
	fmtFlag := fs.String("f", "bin", "object format, or 'help' to list available formats")
	verboseFlag := fs.Bool("v", false, "verbose mode (trace parse/finalize/optimize/output phases)")
	disableAllWarn := fs.Bool("w", false, "disable all warnings")
	allSymsFlag := fs.Bool("a", false, "emit all symbols, not just used ones")
	var warnFlags stringList
	fs.Var(&warnFlags, "W", "enable/disable a warning class: -Wclass or -Wno-class (repeatable)")

	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if *fmtFlag == "help" {
		for _, name := range objfmts.Names() {
			fmt.Println(name)
		}
		return 0
	}

	of, err := objfmts.Get(*fmtFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	inputs := fs.Args()
	if len(inputs) != 1 {
		fmt.Fprintln(os.Stderr, "usage: yasm [options] <file.asm>")
		return 1
	}
	srcFilename := inputs[0]

	src, err := os.ReadFile(srcFilename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yasm: %v\n", err)
		return 1
	}

	outputFilename := *outputFlag
	if outputFilename == "" {
		outputFilename = defaultOutputName(srcFilename, of.GetExtension())
	}

	mask := errwarn.NewClassMask()
	if *disableAllWarn {
		mask.DisableAll()
	}
	for _, w := range warnFlags {
		applyWarnFlag(mask, w)
	}
	ew := errwarn.New(mask)

	driver.Verbose = *verboseFlag
	optimizer.Verbose = *verboseFlag

	a := arch.New()
	if err := a.SetVar("mode_bits", of.GetDefaultX86ModeBits()); err != nil {
		fmt.Fprintf(os.Stderr, "yasm: %v\n", err)
		return 1
	}

	obj := object.New(a, srcFilename, outputFilename)
	of.SetObject(obj)
	of.AddDefaultSection()

	pp := nasmlite.NewRawPreproc(srcFilename, string(src))
	p := nasmlite.NewParser(a)
	of.AddDirectives(p)
	dirs := driver.NewDirectives()
	lm := driver.NewLineMap()

	out, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yasm: %v\n", err)
		return 1
	}
	defer out.Close()

	runErr := driver.Run(obj, pp, p, dirs, lm, func(o *object.Object) error {
		return optimizer.New(ew).Optimize(o)
	}, out, of, *allSymsFlag, ew, false)

	ew.OutputAll(false, func(d errwarn.Diag) {
		fmt.Fprintf(os.Stderr, "%s:%d: %s: %s\n", srcFilename, d.Line, d.Kind, d.Message)
	}, func(d errwarn.Diag) {
		fmt.Fprintf(os.Stderr, "%s:%d: warning: %s\n", srcFilename, d.Line, d.Message)
	})

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "yasm: %v\n", runErr)
		return 1
	}
	if ew.HasErrors() {
		return 1
	}
	return 0
}

func defaultOutputName(srcFilename, ext string) string {
	base := srcFilename
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func applyWarnFlag(mask *errwarn.ClassMask, flagVal string) {
	on := true
	name := flagVal
	if strings.HasPrefix(name, "no-") {
		on = false
		name = name[len("no-"):]
	}
	class, ok := warnClassByName(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "yasm: unknown warning class %q\n", name)
		return
	}
	mask.Enable(class, on)
}

func warnClassByName(name string) (errwarn.WarnClass, bool) {
	for _, c := range []errwarn.WarnClass{
		errwarn.WarnUnrecChar,
		errwarn.WarnOrphanLabel,
		errwarn.WarnUninitContents,
		errwarn.WarnSizeOverride,
		errwarn.WarnGeneral,
	} {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// stringList accumulates repeated -W flag occurrences.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
