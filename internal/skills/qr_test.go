package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestQRGenerate_WhenValidData_ShouldWritePNG(t *testing.T) {
	// Given
	outPath := filepath.Join(t.TempDir(), "code.png")
	s := NewQRSkill(&stubRunner{}, nil)

	// When
	out := mustCall(t, s, "qr_generate",
		fmt.Sprintf(`{"data": "https://example.com", "output": %q}`, outPath))

	// Then
	if out != "QR code saved to "+outPath {
		t.Errorf("unexpected output: %q", out)
	}
	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("png not written: %v", err)
	}
	if len(raw) < 8 || string(raw[1:4]) != "PNG" {
		t.Errorf("output is not a PNG file")
	}
}

func TestQRGenerate_WhenUnwritablePath_ShouldReportError(t *testing.T) {
	// Given
	s := NewQRSkill(&stubRunner{}, nil)

	// When
	out := mustCall(t, s, "qr_generate", `{"data": "hi", "output": "/nonexistent/dir/code.png"}`)

	// Then
	if !strings.HasPrefix(out, "Error writing file:") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestQRRead_WhenFileMissing_ShouldReportNotFound(t *testing.T) {
	// Given
	s := NewQRSkill(&stubRunner{}, nil)

	// When
	out := mustCall(t, s, "qr_read", `{"image_path": "/nonexistent/code.png"}`)

	// Then
	if !strings.HasPrefix(out, "File not found:") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestQRRead_WhenZbarimgMissing_ShouldSuggestInstall(t *testing.T) {
	// Given
	path := filepath.Join(t.TempDir(), "code.png")
	if err := os.WriteFile(path, []byte("fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewQRSkill(&stubRunner{}, noBinaryFinder{})

	// When
	out := mustCall(t, s, "qr_read", argJSON("image_path", path))

	// Then
	if !strings.Contains(out, "zbarimg not found") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestQRRead_WhenDecodeSucceeds_ShouldReturnResults(t *testing.T) {
	// Given
	path := filepath.Join(t.TempDir(), "code.png")
	if err := os.WriteFile(path, []byte("fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	run := &stubRunner{outputs: map[string]string{"zbarimg": "https://example.com\n"}}
	s := NewQRSkill(run, run)

	// When
	out := mustCall(t, s, "qr_read", argJSON("image_path", path))

	// Then
	if !strings.Contains(out, `"data": "https://example.com"`) {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(run.gotCommands[0], "--raw -q "+path) {
		t.Errorf("unexpected command: %v", run.gotCommands)
	}
}

func TestQRRead_WhenDecoderFails_ShouldReportStderr(t *testing.T) {
	// Given
	path := filepath.Join(t.TempDir(), "code.png")
	if err := os.WriteFile(path, []byte("fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	run := &stubRunner{err: errors.New("exit status 4"), stderr: "scanned 0 barcode symbols"}
	s := NewQRSkill(run, run)

	// When
	out := mustCall(t, s, "qr_read", argJSON("image_path", path))

	// Then
	if out != "Error reading QR code: scanned 0 barcode symbols" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestQRText_WhenData_ShouldRenderBlocks(t *testing.T) {
	// Given
	s := NewQRSkill(&stubRunner{}, nil)

	// When
	out := mustCall(t, s, "qr_text", `{"data": "hello"}`)

	// Then
	if len(out) == 0 || !strings.Contains(out, "\n") {
		t.Errorf("expected multi-line ASCII art, got %q", out)
	}
}

func TestExpandHome_WhenTildePrefix_ShouldResolveHome(t *testing.T) {
	// Given
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	// Then
	if got := expandHome("~/notes.txt"); got != filepath.Join(home, "notes.txt") {
		t.Errorf("unexpected expansion: %q", got)
	}
	if got := expandHome("/absolute/path"); got != "/absolute/path" {
		t.Errorf("absolute path should pass through: %q", got)
	}
}
