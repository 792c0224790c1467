package value

import (
	"github.com/yasm/yasm-go/internal/errwarn"
	"github.com/yasm/yasm-go/internal/loc"
)

// ByteEmitter is the architecture/output-pipeline hook for relocatable
// Values (spec §4.8): when a Value cannot be resolved to a plain
// constant, the output pipeline calls EmitRelocatable so the active
// ObjectFormat can place a relocation record and the caller still gets
// placeholder bytes to write in the meantime.
type ByteEmitter interface {
	// EmitRelocatable returns size/8 placeholder bytes for v and records
	// a relocation at the given section-relative offset.
	EmitRelocatable(v *Value, sectionOffset uint64) ([]byte, error)
}

// LittleEndian controls OutputBasic's byte order; x86/x86-64 output is
// always little-endian, so this is a package-level constant rather than
// a per-call parameter threaded through every Content.Output.
const LittleEndian = true

// OutputBasic resolves v into size/8 bytes, the common case of a Value
// with no relocatable part (spec §4.8's "resolves values into bytes").
// emitter and sectionOffset are only consulted when v.IsRelocatable(),
// in which case the emitter's placeholder bytes are returned.
func OutputBasic(v *Value, sectionOffset uint64, emitter ByteEmitter, ew *errwarn.Errwarns, line uint64) ([]byte, error) {
	if v.IsRelocatable() {
		if emitter == nil {
			return nil, errwarn.NewError(errwarn.KindInternal, "relocatable value has no output emitter")
		}
		return emitter.EmitRelocatable(v, sectionOffset)
	}

	n := v.GetIntNum()
	if n == nil {
		return nil, errwarn.NewError(errwarn.KindNotConstant, "value did not resolve to a constant")
	}

	nbytes := v.Size / 8
	if nbytes == 0 {
		nbytes = 1
	}
	buf := make([]byte, nbytes)
	n.ToBytes(buf, 0, uint(v.Size), v.RShift, LittleEndian, v.Signed, func(msg string) {
		if !v.NoWarn && ew != nil {
			ew.Warn(line, errwarn.WarnGeneral, msg)
		}
	})
	return buf, nil
}

// GetSubLocation returns the Location half of v.Sub, if the subtractive
// part names a Location rather than a bare Symbol (spec §4.6: "an
// optional subtract this symbol or location").
func GetSubLocation(v *Value) (loc.Location, bool) {
	if v.Sub == nil || v.Sub.Loc == nil {
		return loc.Location{}, false
	}
	return *v.Sub.Loc, true
}
