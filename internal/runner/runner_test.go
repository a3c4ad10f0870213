package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

func TestShellSuccess(t *testing.T) {
	fake := NewFakeRunner()
	fake.SetResponse(`sf project deploy start "force-app"`, Response{Stdout: "ok\n"})

	stdout, _, err := Shell(context.Background(), fake, `sf project deploy start "force-app"`)
	if err != nil {
		t.Fatalf("Shell: %v", err)
	}
	if stdout != "ok\n" {
		t.Errorf("stdout = %q, want %q", stdout, "ok\n")
	}
	if !fake.Called("sh -c sf project deploy start") {
		t.Error("expected command to run through sh -c")
	}
}

func TestShellFailureWrapsOutput(t *testing.T) {
	fake := NewFakeRunner()
	fake.SetFallback(Response{
		Stdout: "partial",
		Stderr: "boom",
		Err:    fmt.Errorf("exit status 1"),
	})

	_, _, err := Shell(context.Background(), fake, "sf project deploy start")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %T", err)
	}
	if cmdErr.Stdout != "partial" || cmdErr.Stderr != "boom" {
		t.Errorf("captured output = %q/%q", cmdErr.Stdout, cmdErr.Stderr)
	}
	if cmdErr.Code != 0 {
		t.Errorf("code = %d, want 0 for an error without exit status", cmdErr.Code)
	}
}

func TestOSRunnerExitCode(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, _, err := Shell(context.Background(), &OSRunner{}, "echo out; echo err >&2; exit 42")
	if err == nil {
		t.Fatal("expected error")
	}
	code, ok := ExitCode(err)
	if !ok || code != 42 {
		t.Errorf("ExitCode = %d, %v; want 42, true", code, ok)
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %T", err)
	}
	if strings.TrimSpace(cmdErr.Stdout) != "out" {
		t.Errorf("stdout = %q", cmdErr.Stdout)
	}
	if strings.TrimSpace(cmdErr.Stderr) != "err" {
		t.Errorf("stderr = %q", cmdErr.Stderr)
	}
}

func TestExitCodeWithoutStatus(t *testing.T) {
	if _, ok := ExitCode(errors.New("plain")); ok {
		t.Error("plain error should carry no exit code")
	}
	if _, ok := ExitCode(&CommandError{Command: "x", Err: errors.New("spawn failed")}); ok {
		t.Error("zero code should not be reported")
	}
}

func TestFakeShellCommands(t *testing.T) {
	fake := NewFakeRunner()
	ctx := context.Background()
	Shell(ctx, fake, "first")
	fake.Run(ctx, "git", "status")
	Shell(ctx, fake, "second")

	got := fake.ShellCommands()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("ShellCommands = %v", got)
	}

	fake.Reset()
	if fake.CallCount("sh") != 0 {
		t.Error("Reset should clear calls")
	}
}
