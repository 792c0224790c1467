package errwarn

import "fmt"

// Style selects one of the two diagnostic renderings the CLI's -X flag
// picks between (spec §6, §7), grounded on frontends/yasm.cpp's
// print_error/print_warning switch.
type Style int

const (
	StyleGNU Style = iota
	StyleVC
)

// Format renders a single diagnostic as "file:line: kind: message" (GNU)
// or "file(line) : kind: message" (Microsoft).
func Format(style Style, filename string, d Diag) string {
	kind := "error"
	if d.IsWarning() {
		kind = fmt.Sprintf("warning (%s)", d.Class)
	} else {
		kind = d.Kind.String()
	}
	switch style {
	case StyleVC:
		return fmt.Sprintf("%s(%d) : %s: %s", filename, d.Line, kind, d.Message)
	default:
		return fmt.Sprintf("%s:%d: %s: %s", filename, d.Line, kind, d.Message)
	}
}
