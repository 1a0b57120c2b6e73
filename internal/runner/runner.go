// Package runner executes external binaries on behalf of subprocess-backed
// skills. Every run is bounded by an explicit timeout; a timeout is reported
// as a normal failure, and process termination is the OS's responsibility.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"skillbox/internal/config"
	"skillbox/internal/domain"
)

// Runner abstracts command execution for testability. Implementations must
// enforce the given timeout.
type Runner interface {
	Run(timeout time.Duration, name string, args ...string) (stdout string, stderr string, err error)
}

// BinaryFinder locates external binaries on PATH. Skills cache the result as
// an advisory handle and may re-resolve on any call.
type BinaryFinder interface {
	LookPath(bin string) (string, error)
}

// ExecRunner runs commands via os/exec with a context deadline. When cfg is
// non-nil its AllowedCommands list is enforced before execution.
type ExecRunner struct {
	cfg *domain.Config
}

// NewExecRunner creates an ExecRunner enforcing cfg's command allowlist.
// A nil cfg disables the allowlist.
func NewExecRunner(cfg *domain.Config) *ExecRunner {
	return &ExecRunner{cfg: cfg}
}

// Run executes name with args, capturing stdout and stderr separately. The
// process is killed when the timeout elapses and a descriptive error is
// returned alongside whatever output was captured.
func (e *ExecRunner) Run(timeout time.Duration, name string, args ...string) (string, string, error) {
	if err := config.ValidateBinary(e.cfg, name); err != nil {
		return "", "", err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout.String(), stderr.String(),
			fmt.Errorf("command %q timed out after %s", name, timeout)
	}
	return stdout.String(), stderr.String(), err
}

// LookPath resolves bin on PATH.
func (e *ExecRunner) LookPath(bin string) (string, error) {
	return exec.LookPath(bin)
}

// ExitCode extracts the process exit code from a Run error, or -1 when the
// command never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
