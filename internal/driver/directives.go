package driver

import "github.com/yasm/yasm-go/internal/errwarn"

// NameValueKind discriminates the four directive-argument shapes
// original_source/include/yasmx/NameValue.h describes (spec §6's
// NameValues argument type, left unspecified in the distilled spec).
type NameValueKind int

const (
	NVID NameValueKind = iota
	NVString
	NVExpr
	NVRegister
)

// NameValue is one `name=value` (or bare positional) directive argument,
// e.g. SECTION .text ALIGN=16 EXEC NOWRITE. Name is empty for positional
// arguments. Exactly one of the Kind-selected fields is meaningful.
type NameValue struct {
	Name string
	Kind NameValueKind

	ID     string // NVID: a bare identifier, e.g. the ALIGN in ALIGN=16's value position only if non-numeric
	Str    string // NVString: a quoted string literal
	ExprID string // NVExpr: rendered expression text; the directive handler re-parses what it needs
	Reg    string // NVRegister: a register name
}

// NameValues is an ordered list of directive arguments; order matters for
// positional arguments (spec §6).
type NameValues []NameValue

// Get returns the first argument named name, or the ok=false zero value.
func (nv NameValues) Get(name string) (NameValue, bool) {
	for _, v := range nv {
		if v.Name == name {
			return v, true
		}
	}
	return NameValue{}, false
}

// Positional returns the i'th argument with no Name (a bare value), or
// ok=false if fewer than i+1 positional arguments were given.
func (nv NameValues) Positional(i int) (NameValue, bool) {
	n := 0
	for _, v := range nv {
		if v.Name == "" {
			if n == i {
				return v, true
			}
			n++
		}
	}
	return NameValue{}, false
}

// Handler is a directive's implementation. It receives the parsed
// arguments as one NameValues slice (no separate "standard" and
// "format-specific" sets, unlike the original's ObjectExtNameValues) and
// the source line for diagnostics; the object being built is not passed.
type Handler func(nv NameValues, line uint64) error

// Directives is a name->handler map (spec §6): `%directive` or `[directive]`
// dispatches here. It is one flat table, mirroring dependencies.go's
// single flat registry rather than one registry per concern. The x86 Arch
// has no AddDirectives, and ObjectFormat.AddDirectives installs into a
// parser's AddDirective rather than into this table.
type Directives struct {
	handlers map[string]Handler
}

// NewDirectives returns an empty registry.
func NewDirectives() *Directives {
	return &Directives{handlers: make(map[string]Handler)}
}

// Add registers handler under name, overwriting any prior registration,
// so the last registration for a name wins.
func (d *Directives) Add(name string, handler Handler) {
	d.handlers[name] = handler
}

// Dispatch looks up name and invokes its handler, or records an error into
// ew if name isn't registered (spec §7's Syntax kind).
func (d *Directives) Dispatch(name string, nv NameValues, line uint64, ew *errwarn.Errwarns) {
	h, ok := d.handlers[name]
	if !ok {
		ew.Error(line, errwarn.KindSyntax, "unrecognized directive `%1'", name)
		return
	}
	if err := h(nv, line); err != nil {
		ew.PropagateErr(line, err)
	}
}

// Names lists every registered directive, for `-f help`-style listings.
func (d *Directives) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	return names
}
