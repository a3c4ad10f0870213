package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// EnvDeployErrColors disables colored deploy error reports when set to "false".
const EnvDeployErrColors = "SFDX_HARDIS_DEPLOY_ERR_COLORS"

// Console writes diagnostic text for humans.
type Console struct {
	out         *termenv.Output
	plainErrors bool
}

// NewConsole creates a console on w. The color profile is detected from w
// unless opts override it.
func NewConsole(w io.Writer, opts ...termenv.OutputOption) *Console {
	return &Console{
		out:         termenv.NewOutput(w, opts...),
		plainErrors: strings.EqualFold(os.Getenv(EnvDeployErrColors), "false"),
	}
}

// SetPlainErrors forces error reports to be written without color.
func (c *Console) SetPlainErrors(plain bool) {
	c.plainErrors = plain
}

func (c *Console) style(s string) termenv.Style {
	return c.out.String(s)
}

// Info prints a plain line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Success prints a green line.
func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.out, c.style(fmt.Sprintf(format, args...)).Foreground(c.out.Color("2")))
}

// Warn prints a yellow line.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintln(c.out, c.style(fmt.Sprintf(format, args...)).Foreground(c.out.Color("3")))
}

// Failure prints a bold red headline.
func (c *Console) Failure(msg string) {
	fmt.Fprintln(c.out, c.style(msg).Bold().Foreground(c.out.Color("1")))
}

// ErrorReport prints a multi-line report preceded by a blank line, in red
// unless plain error output was requested.
func (c *Console) ErrorReport(report string) {
	text := "\n" + report
	if c.plainErrors {
		fmt.Fprintln(c.out, text)
		return
	}
	fmt.Fprintln(c.out, c.style(text).Foreground(c.out.Color("1")))
}
