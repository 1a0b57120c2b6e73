package runner

import (
	"errors"
	"strings"
	"testing"
	"time"

	"skillbox/internal/config"
	"skillbox/internal/domain"
)

func TestRun_WhenCommandSucceeds_ShouldCaptureStdout(t *testing.T) {
	// Given
	r := NewExecRunner(nil)

	// When
	stdout, stderr, err := r.Run(5*time.Second, "echo", "hello")

	// Then
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "hello" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
	if stderr != "" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRun_WhenCommandWritesStderr_ShouldCaptureSeparately(t *testing.T) {
	// Given
	r := NewExecRunner(nil)

	// When
	stdout, stderr, err := r.Run(5*time.Second, "sh", "-c", "echo out; echo err >&2")

	// Then
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "out" || strings.TrimSpace(stderr) != "err" {
		t.Errorf("streams mixed: stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestRun_WhenTimeoutElapses_ShouldReportTimeout(t *testing.T) {
	// Given
	r := NewExecRunner(nil)

	// When
	_, _, err := r.Run(100*time.Millisecond, "sleep", "5")

	// Then
	if err == nil || !strings.Contains(err.Error(), "timed out after") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_WhenBinaryNotAllowed_ShouldRefuseBeforeExec(t *testing.T) {
	// Given
	cfg := &domain.Config{AllowedCommands: []string{"echo"}}
	r := NewExecRunner(cfg)

	// When
	_, _, err := r.Run(time.Second, "sleep", "1")

	// Then
	if !errors.Is(err, config.ErrCommandNotAllowed) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_WhenBinaryAllowed_ShouldExecute(t *testing.T) {
	// Given
	cfg := &domain.Config{AllowedCommands: []string{"echo"}}
	r := NewExecRunner(cfg)

	// When
	stdout, _, err := r.Run(time.Second, "echo", "ok")

	// Then
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "ok" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestRun_WhenZeroTimeout_ShouldStillRun(t *testing.T) {
	// Given
	r := NewExecRunner(nil)

	// When
	stdout, _, err := r.Run(0, "echo", "defaulted")

	// Then
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "defaulted" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestLookPath_WhenBinaryExists_ShouldResolve(t *testing.T) {
	// Given
	r := NewExecRunner(nil)

	// When
	path, err := r.LookPath("sh")

	// Then
	if err != nil || path == "" {
		t.Fatalf("sh not found: path=%q err=%v", path, err)
	}
}

func TestExitCode_WhenProcessExitsNonZero_ShouldExtractCode(t *testing.T) {
	// Given
	r := NewExecRunner(nil)

	// When
	_, _, err := r.Run(5*time.Second, "sh", "-c", "exit 3")

	// Then
	if got := ExitCode(err); got != 3 {
		t.Errorf("unexpected exit code: %d (%v)", got, err)
	}
}

func TestExitCode_WhenNilError_ShouldBeZero(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("unexpected exit code: %d", got)
	}
}

func TestExitCode_WhenNotAnExitError_ShouldBeMinusOne(t *testing.T) {
	if got := ExitCode(errors.New("no such binary")); got != -1 {
		t.Errorf("unexpected exit code: %d", got)
	}
}
