package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// CommandError is returned when a wrapped command exits unsuccessfully.
// Code is zero when the process could not report an exit status.
type CommandError struct {
	Command string
	Stdout  string
	Stderr  string
	Code    int
	Err     error
}

func (e *CommandError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("command %q failed with exit code %d", e.Command, e.Code)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode extracts the process exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// OSRunner executes commands via os/exec.
type OSRunner struct{}

func (r *OSRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// Shell runs a composed command line through sh so that quoted arguments
// survive. Failures come back as *CommandError with the captured output.
func Shell(ctx context.Context, r CommandRunner, command string) (string, string, error) {
	stdout, stderr, err := r.Run(ctx, "sh", "-c", command)
	if err != nil {
		code, _ := ExitCode(err)
		return stdout, stderr, &CommandError{
			Command: strings.TrimSpace(command),
			Stdout:  stdout,
			Stderr:  stderr,
			Code:    code,
			Err:     err,
		}
	}
	return stdout, stderr, nil
}
