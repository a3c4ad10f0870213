package deploytips

import (
	"fmt"
	"strings"
)

const tipIndent = "    "

// Options tunes the report header.
type Options struct {
	// Check marks the run as a validation (check-only) deployment.
	Check bool
}

// Tip is one matched signature.
type Tip struct {
	Rule    string
	Line    string
	Message string
}

// Report is the analyzer output. ErrLog is ready to print.
type Report struct {
	ErrLog string
	Tips   []Tip
}

// Analyzer matches deployment logs against a Catalog.
type Analyzer struct {
	catalog *Catalog
}

// New creates an analyzer for the given catalog.
func New(c *Catalog) *Analyzer {
	return &Analyzer{catalog: c}
}

// Analyze scans log line by line and appends the tip of every matching rule
// under the line it matched. When verbose is false only matched lines are kept.
func (a *Analyzer) Analyze(log string, verbose bool, opts Options) Report {
	title := "Deployment failed"
	if opts.Check {
		title = "Deployment simulation failed"
	}

	if strings.TrimSpace(log) == "" {
		return Report{ErrLog: title + ": the command produced no output to analyze"}
	}

	var body strings.Builder
	var tips []Tip
	for _, raw := range strings.Split(log, "\n") {
		line := strings.TrimRight(raw, " \r\t")

		var matched []Tip
		for _, r := range a.catalog.rules {
			if msg, ok := r.match(line); ok {
				matched = append(matched, Tip{Rule: r.Name, Line: strings.TrimSpace(line), Message: msg})
			}
		}

		if len(matched) == 0 {
			if verbose {
				body.WriteString(line)
				body.WriteByte('\n')
			}
			continue
		}

		body.WriteString(line)
		body.WriteByte('\n')
		for _, t := range matched {
			fmt.Fprintf(&body, "%s*** Tip: %s ***\n", tipIndent, t.Rule)
			for _, l := range strings.Split(t.Message, "\n") {
				body.WriteString(tipIndent)
				body.WriteString(l)
				body.WriteByte('\n')
			}
		}
		tips = append(tips, matched...)
	}

	var out strings.Builder
	switch len(tips) {
	case 0:
		fmt.Fprintf(&out, "%s: no known error signature found, see the raw output below\n\n", title)
	default:
		fmt.Fprintf(&out, "%s: %d tip(s) found\n\n", title, len(tips))
	}
	out.WriteString(strings.TrimRight(body.String(), "\n"))

	return Report{ErrLog: out.String(), Tips: tips}
}
