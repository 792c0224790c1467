package driver

import "github.com/xyproto/env/v2"

// Environment variable names the driver consults as defaults before
// falling back to built-ins, the same override-before-default role
// dependencies.go's GetFunctionRepository gives env/v2 for its own
// lookups (spec §6 names no environment variables for the core itself,
// but cmd/yasm's surrounding driver wiring is a natural home for the
// search-path/default-format knobs real assemblers expose this way).
const (
	EnvInclude = "YASM_INCLUDE"
	EnvObjfmt  = "YASM_OBJFMT"
)

// DefaultIncludePaths returns the colon-separated YASM_INCLUDE directories
// to search for `%include`, empty if unset.
func DefaultIncludePaths() []string {
	v := env.Str(EnvInclude, "")
	if v == "" {
		return nil
	}
	return splitPathList(v)
}

// DefaultObjectFormat returns the YASM_OBJFMT override for `-f`, or
// fallback if unset — mirroring dependencies.go's "env override, else the
// built-in default" order.
func DefaultObjectFormat(fallback string) string {
	return env.Str(EnvObjfmt, fallback)
}

func splitPathList(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
