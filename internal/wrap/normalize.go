// Package wrap forwards arguments to an external deployment command and turns
// its failures into readable reports.
package wrap

import (
	"slices"
	"strings"
)

// reservedFlag is a wrapper-only flag stripped before forwarding.
// Width is the number of tokens it consumes, the flag included.
type reservedFlag struct {
	token string
	width int
}

// Removal order matters: each flag is looked up after the previous ones are gone.
var reservedFlags = []reservedFlag{
	{"--debug", 1},
	{"-d", 1},
	{"--websocket", 2},
	{"--skipauth", 1},
	{"--checkcoverage", 1},
}

// CheckOnlyFlag marks a validation run of the underlying tool.
const CheckOnlyFlag = "--checkonly"

// Invocation is a normalized command ready to run.
type Invocation struct {
	Base    string
	Args    []string
	Command string
}

// CheckOnly reports whether the forwarded arguments request a validation run.
func (inv Invocation) CheckOnly() bool {
	return slices.Contains(inv.Args, CheckOnlyFlag)
}

// Normalize quotes bare arguments and strips reserved flags. Arguments
// starting with -, " or ' are left as-is. Each reserved flag is removed at
// most once, by exact token match.
func Normalize(base string, args []string) Invocation {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = quote(arg)
	}

	for _, f := range reservedFlags {
		pos := slices.Index(out, f.token)
		if pos < 0 {
			continue
		}
		end := min(pos+f.width, len(out))
		out = slices.Delete(out, pos, end)
	}

	return Invocation{
		Base:    base,
		Args:    out,
		Command: base + " " + strings.Join(out, " "),
	}
}

// DebugRequested reports whether raw args ask for debug output.
func DebugRequested(args []string) bool {
	return slices.Contains(args, "--debug") || slices.Contains(args, "-d")
}

// CoverageCheckRequested reports whether raw args ask for a coverage check.
func CoverageCheckRequested(args []string) bool {
	return slices.Contains(args, "--checkcoverage")
}

func quote(arg string) string {
	if strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, `"`) || strings.HasPrefix(arg, "'") {
		return arg
	}
	return `"` + arg + `"`
}
