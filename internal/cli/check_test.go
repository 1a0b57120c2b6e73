package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCheck_WhenNoConfig_ShouldSuggestFix(t *testing.T) {
	t.Setenv("SKILLBOX_CONFIG", filepath.Join(t.TempDir(), "skillbox.json"))

	var out, errOut bytes.Buffer
	code := RunCheck([]string{"skillbox", "check"}, &out, &errOut)

	if code != 0 {
		t.Fatalf("want exit 0, got %d (stderr: %s)", code, errOut.String())
	}
	if !strings.Contains(out.String(), "No config at") {
		t.Errorf("expected missing-config note, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "--fix") {
		t.Errorf("expected fix suggestion, got: %s", out.String())
	}
}

func TestRunCheck_WhenFixFlag_ShouldWriteDefaultConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "skillbox.json")
	t.Setenv("SKILLBOX_CONFIG", cfgPath)

	var out, errOut bytes.Buffer
	code := RunCheck([]string{"skillbox", "check", "--fix"}, &out, &errOut)

	if code != 0 {
		t.Fatalf("want exit 0, got %d (stderr: %s)", code, errOut.String())
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("default config should exist: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote default config") {
		t.Errorf("expected write note, got: %s", out.String())
	}
}

func TestRunCheck_WhenConfigInvalid_ShouldReturnOne(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "skillbox.json")
	if err := os.WriteFile(cfgPath, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKILLBOX_CONFIG", cfgPath)

	var out, errOut bytes.Buffer
	if code := RunCheck([]string{"skillbox", "check"}, &out, &errOut); code != 1 {
		t.Errorf("want exit 1 for invalid config, got %d", code)
	}
}

func TestRunCheck_WhenConfigValid_ShouldReportGatewayAndSkills(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "skills")
	if err := os.Mkdir(custom, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "skillbox.json")
	cfgJSON := `{"gateway": {"port": 9191}, "skills": {"customDir": "` + custom + `", "disabled": ["docker"]}}`
	if err := os.WriteFile(cfgPath, []byte(cfgJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKILLBOX_CONFIG", cfgPath)

	var out, errOut bytes.Buffer
	if code := RunCheck([]string{"skillbox", "check"}, &out, &errOut); code != 0 {
		t.Fatalf("want exit 0, got %d", code)
	}
	s := out.String()
	if !strings.Contains(s, "port=9191") {
		t.Errorf("expected gateway port note, got: %s", s)
	}
	if !strings.Contains(s, "custom dir") {
		t.Errorf("expected custom dir note, got: %s", s)
	}
	if !strings.Contains(s, "disabled: [docker]") {
		t.Errorf("expected disabled skills note, got: %s", s)
	}
}

func TestRunCheck_WhenBinaryMissing_ShouldNoteRemedy(t *testing.T) {
	t.Setenv("SKILLBOX_CONFIG", filepath.Join(t.TempDir(), "skillbox.json"))

	old := lookPath
	lookPath = func(bin string) (string, error) { return "", errors.New("not found") }
	defer func() { lookPath = old }()

	var out, errOut bytes.Buffer
	if code := RunCheck([]string{"skillbox", "check"}, &out, &errOut); code != 0 {
		t.Fatalf("want exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "bluetoothctl not found") {
		t.Errorf("expected missing-binary note, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "install the bluez package") {
		t.Errorf("expected remedy hint, got: %s", out.String())
	}
}

func TestCheckDir_WhenFileNotDir_ShouldError(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := checkDir(f); err == nil {
		t.Error("expected error for non-directory path")
	}
}
