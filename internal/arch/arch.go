// Package arch implements the C10 Arch boundary (spec §4.10, §6): the
// one architecture-specific seam the rest of the module depends on, so
// that internal/object, internal/bytecode, internal/value, and
// internal/optimizer never need to know what instruction set they are
// assembling for. X86_64 is the one concrete implementation: a
// direct-write, REX-prefix-aware, Verbose-traced encoding style,
// retargeted from "append bytes straight into an executable buffer" to
// "build an InsnEncoder the bytecode/optimizer pipeline drives".
package arch

import "github.com/yasm/yasm-go/internal/errwarn"

// Errorf builds a Value-kind AsmError, the diagnostic kind this package
// uses for malformed operands (spec §7's Value kind: "an argument is
// semantically invalid").
func Errorf(format string, args ...any) error {
	return errwarn.NewError(errwarn.KindValue, format, args...)
}

// X86_64 is the Arch implementation for the x86-64 machine (spec
// §6/§4.10; object.Arch's Name/WordSize plus the richer encoder-side
// interfaces bytecode.InsnEncoder and value.ByteEmitter this package's
// other files implement).
type X86_64 struct {
	// modeBits and forceStrict are the two vars spec §6's setVar names
	// ("mode_bits", "force_strict"); NASM's `[bits 64]` directive and
	// `--force-strict` flag both flow through setVar rather than having
	// dedicated setters, matching spec's literal interface shape.
	modeBits    int
	forceStrict bool
}

// modeBits mirrors X86_64.modeBits at package scope: the operand-size
// prefix logic in regops.go's widthPrefix lives in encoder closures
// built once into insnTable with no per-call Arch handle, so the active
// mode has to reach them the same way Verbose (insn.go) does.
var modeBits = 64

// New constructs an X86_64 Arch defaulting to 64-bit mode (spec's
// default target per the CLI's -m amd64).
func New() *X86_64 {
	return &X86_64{modeBits: 64}
}

func (x *X86_64) Name() string { return "x86" }

// WordSize implements object.Arch (spec C5: "a reference to an Arch").
func (x *X86_64) WordSize() int { return x.modeBits }

// GetWordsize is the spec-named alias for WordSize (spec §6
// "getWordsize"); kept as a thin wrapper so driver code written against
// the spec's vocabulary and Go code written against object.Arch's
// vocabulary both compile against the same method set.
func (x *X86_64) GetWordsize() int { return x.WordSize() }

// SetVar implements spec §6's setVar("mode_bits"|"force_strict", value).
func (x *X86_64) SetVar(name string, value int) error {
	switch name {
	case "mode_bits":
		if value != 16 && value != 32 && value != 64 {
			return Errorf("unsupported mode_bits value %d", value)
		}
		x.modeBits = value
		modeBits = value
	case "force_strict":
		x.forceStrict = value != 0
	default:
		return Errorf("unknown arch variable %q", name)
	}
	return nil
}

// GetMachines implements spec §6's getMachines(): the set of machine
// names this Arch answers to, for the CLI's -m flag and `-a help`
// listing.
func (x *X86_64) GetMachines() []string {
	return []string{"x86", "amd64", "x86_64"}
}

// ParseCheckRegTmod implements spec §6's parseCheckRegTmod: given a bare
// identifier token, report whether it names a register (and which one)
// or a type/size modifier keyword (byte/word/dword/qword), since NASM's
// grammar resolves both from the same identifier class.
func (x *X86_64) ParseCheckRegTmod(ident string) (reg Register, isReg bool, sizeBits int, isTmod bool) {
	if r, ok := LookupRegister(ident); ok {
		return r, true, 0, false
	}
	switch ident {
	case "byte":
		return Register{}, false, 8, true
	case "word":
		return Register{}, false, 16, true
	case "dword":
		return Register{}, false, 32, true
	case "qword":
		return Register{}, false, 64, true
	}
	return Register{}, false, 0, false
}

// ParseCheckInsnPrefix implements spec §6's parseCheckInsnPrefix:
// report whether ident is an instruction prefix keyword (as opposed to a
// mnemonic), e.g. NASM's `lock`/`rep`/`repe`/`repne`.
func (x *X86_64) ParseCheckInsnPrefix(ident string) (prefixByte byte, ok bool) {
	switch ident {
	case "lock":
		return 0xF0, true
	case "repne", "repnz":
		return 0xF2, true
	case "rep", "repe", "repz":
		return 0xF3, true
	}
	return 0, false
}
