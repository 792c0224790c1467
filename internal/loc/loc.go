// Package loc defines Location, the finest-grained address handle in the
// object model (spec §3, §4.4/§4.5). It is split out from internal/expr
// and internal/bytecode into its own tiny package because the two
// otherwise need each other: Expression terms include Locations, and a
// Location names a Bytecode. This mirrors the source's forward-declared
// Location/Expr headers (spec §9 design note on cyclic references); in Go
// the equivalent is a shared leaf package plus an interface boundary.
package loc

// BytecodeRef is the minimal view internal/bytecode.Bytecode exposes so
// internal/expr can compute distances without importing internal/bytecode
// (which in turn would need to import internal/expr for Value contents).
type BytecodeRef interface {
	// SectionID identifies the owning section; two Locations are only
	// directly subtractable when they share a SectionID.
	SectionID() uint64
	// BytecodeOffset returns this bytecode's offset within its section
	// and whether that offset is currently known. The optimizer sets
	// offsets in Pass 1 and updates later ones whenever an earlier
	// bytecode's length changes in Pass 2 (spec §5).
	BytecodeOffset() (uint64, bool)
	// SameBytecode reports whether other is this same bytecode (used for
	// the pre-optimize same-bytecode distance special case in
	// Expression.simplify, spec §4.2 step 3).
	SameBytecode(other BytecodeRef) bool
}

// Location is a (Bytecode, byte-offset-within-bytecode) pair: the
// finest-grained address handle (spec §3, GLOSSARY).
type Location struct {
	BC     BytecodeRef
	Offset uint64
}

// SectionOffset returns the absolute offset of this Location within its
// section, or ok=false if the owning bytecode's offset hasn't been
// resolved by the optimizer yet.
func (l Location) SectionOffset() (offset uint64, ok bool) {
	if l.BC == nil {
		return 0, false
	}
	bcOff, known := l.BC.BytecodeOffset()
	if !known {
		return 0, false
	}
	return bcOff + l.Offset, true
}

// SameSection reports whether l and o live in sections with the same ID.
func (l Location) SameSection(o Location) bool {
	if l.BC == nil || o.BC == nil {
		return false
	}
	return l.BC.SectionID() == o.BC.SectionID()
}

// SameBytecode reports whether l and o refer to the same Bytecode,
// regardless of whether its offset is known yet — this is what makes
// same-bytecode distances (e.g. within one Data content's value list)
// computable before any optimize pass has run.
func (l Location) SameBytecode(o Location) bool {
	if l.BC == nil || o.BC == nil {
		return false
	}
	return l.BC.SameBytecode(o.BC)
}

// Distance computes o - l as a section-absolute distance, when both
// Locations' bytecodes have known offsets and share a section. This is
// the primitive behind Expression's Location-Location folding (spec
// §4.2 step 3, §8 "Distance" property).
func Distance(l, o Location) (dist int64, ok bool) {
	if l.SameBytecode(o) {
		return int64(o.Offset) - int64(l.Offset), true
	}
	if !l.SameSection(o) {
		return 0, false
	}
	lo, lok := l.SectionOffset()
	oo, ook := o.SectionOffset()
	if !lok || !ook {
		return 0, false
	}
	return int64(oo) - int64(lo), true
}
