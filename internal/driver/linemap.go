package driver

import "fmt"

// LineMap tracks the source-file/line a linear bytecode-stream line number
// came from, so diagnostics and `%line`/include-file nesting report the
// file the programmer wrote rather than the flattened stream (spec §6).
// Grounded on frontends/yasm.cpp's linemap table; implemented here as a
// flat slice since yasm-go's preprocessor never needs random insertion,
// only append-and-lookup.
type LineMap struct {
	entries []lineEntry
}

type lineEntry struct {
	low      uint64 // first linear line this entry covers
	filename string
	fileLine uint64 // source-file line number `low` maps to
}

// NewLineMap returns an empty map whose line 0 is unmapped.
func NewLineMap() *LineMap {
	return &LineMap{}
}

// Set records that linear line `low` onward (until the next Set) comes
// from filename, starting at fileLine and incrementing 1:1 with the
// linear line — the common case for straight-through source, and for
// `%line` directives and include-file pushes/pops alike.
func (m *LineMap) Set(low uint64, filename string, fileLine uint64) {
	m.entries = append(m.entries, lineEntry{low: low, filename: filename, fileLine: fileLine})
}

// Lookup returns the filename and source line a linear line number maps
// to, for use in diagnostics (spec §7's "always surfaced with the
// offending line").
func (m *LineMap) Lookup(line uint64) (filename string, fileLine uint64) {
	if len(m.entries) == 0 {
		return "", line
	}
	e := m.entries[0]
	for _, cand := range m.entries {
		if cand.low > line {
			break
		}
		e = cand
	}
	return e.filename, e.fileLine + (line - e.low)
}

// String renders "filename:fileLine" for the given linear line, the
// fragment both error-format styles (spec §4.9) embed.
func (m *LineMap) String(line uint64) string {
	f, l := m.Lookup(line)
	return fmt.Sprintf("%s:%d", f, l)
}
