package nasmlite

import (
	"fmt"
	"strings"
)

// RawPreproc is a pass-through driver.Preprocessor: it hands the Parser
// each source line unmodified, with no macro expansion (spec §6 lists
// `getLine`/`addIncludeFile`/`predefineMacro`/`undefineMacro`/
// `defineBuiltin` as the Preprocessor surface without mandating any one
// macro engine; NASM-lite's six core scenarios need none of them, so
// this satisfies the interface without implementing substitution).
// Predefined/built-in macros are recorded but never substituted, and
// AddIncludeFile always returns an error: included files are not read.
type RawPreproc struct {
	stack []*lineSource

	predefined map[string]string
	builtins   map[string]string
}

type lineSource struct {
	filename string
	lines    []string
	next     int
}

// NewRawPreproc seeds the preprocessor with the top-level source text,
// split into lines the way getLine hands them to the Parser one at a
// time.
func NewRawPreproc(filename, source string) *RawPreproc {
	return &RawPreproc{
		stack: []*lineSource{{filename: filename, lines: splitLines(source)}},
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// GetLine returns the next source line and its 1-based line number
// within the innermost active file, popping back to the including file
// once the innermost is exhausted (spec §6's getLine/include-file
// nesting).
func (p *RawPreproc) GetLine() (line string, lineno uint64, ok bool, err error) {
	for len(p.stack) > 0 {
		cur := p.stack[len(p.stack)-1]
		if cur.next >= len(cur.lines) {
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}
		cur.next++
		return cur.lines[cur.next-1], uint64(cur.next), true, nil
	}
	return "", 0, false, nil
}

// AddIncludeFile is unused by the six core scenarios (none `%include`s
// anything); kept so a future NASM-lite directive handler for
// `%include` has somewhere to call into, matching spec §6's Preprocessor
// surface. This package has no filesystem access, so it returns an error
// naming path and never pushes a new file onto the line stack.
func (p *RawPreproc) AddIncludeFile(path string) error {
	return fmt.Errorf("nasmlite: %%include not supported (no source for %q)", path)
}

func (p *RawPreproc) PredefineMacro(name, value string) {
	if p.predefined == nil {
		p.predefined = make(map[string]string)
	}
	p.predefined[name] = value
}

func (p *RawPreproc) UndefineMacro(name string) {
	delete(p.predefined, name)
}

func (p *RawPreproc) DefineBuiltin(name, value string) {
	if p.builtins == nil {
		p.builtins = make(map[string]string)
	}
	p.builtins[name] = value
}
