// Package cli implements the check subcommand: a quick health report on
// config, the custom skill directory, and the external binaries that
// subprocess-backed skills shell out to.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"skillbox/internal/config"
)

// checkedBinaries are the external collaborators skills shell out to, with a
// remedy hint for each.
var checkedBinaries = []struct {
	name   string
	skill  string
	remedy string
}{
	{"nmcli", "wifi", "install NetworkManager"},
	{"bluetoothctl", "bluetooth", "install the bluez package"},
	{"adb", "android", "install android-tools"},
	{"docker", "docker", "install Docker Engine"},
	{"zbarimg", "qr", "install the zbar-tools package"},
	{"git", "git", "install git"},
}

// lookPath resolves binaries on PATH; tests may replace it.
var lookPath = exec.LookPath

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Fix bool // if true, write default config when missing
}

// RunCheck runs the check subcommand: config, skill directory, binaries.
// Returns the process exit code.
func RunCheck(args []string, stdout, stderr io.Writer) int {
	opts := parseCheckOptions(args)
	cfgPath := "skillbox.json"
	if p := os.Getenv("SKILLBOX_CONFIG"); p != "" {
		cfgPath = p
	}

	note := func(section, message string) {
		fmt.Fprintf(stdout, "  [%s] %s\n", section, message)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			note("Config", fmt.Sprintf("No config at %s.", cfgPath))
			if opts.Fix {
				if writeErr := config.WriteDefault(cfgPath); writeErr != nil {
					fmt.Fprintf(stderr, "  failed to write default config: %v\n", writeErr)
					return 1
				}
				note("Config", fmt.Sprintf("Wrote default config to %s.", cfgPath))
			} else {
				note("Config", "Run with --fix to create a default skillbox.json.")
			}
		} else {
			note("Config", err.Error())
			return 1
		}
	} else {
		note("Config", fmt.Sprintf("Loaded %s.", cfgPath))
		note("Gateway", fmt.Sprintf("port=%d auth=%v", cfg.Gateway.Port, cfg.Gateway.AuthToken != ""))
		if cfg.Gateway.AuthToken == "" {
			note("Gateway", "Auth is disabled. Set gateway.authToken to require a Bearer token.")
		}
		if dir := cfg.Skills.CustomDir; dir != "" {
			if err := checkDir(dir); err != nil {
				note("Skills", err.Error())
			} else {
				note("Skills", fmt.Sprintf("custom dir %s ok.", dir))
			}
		}
		if len(cfg.Skills.Disabled) > 0 {
			note("Skills", fmt.Sprintf("disabled: %v", cfg.Skills.Disabled))
		}
	}

	for _, bin := range checkedBinaries {
		if _, err := lookPath(bin.name); err != nil {
			note("Binaries", fmt.Sprintf("%s not found (%s skill degraded; %s)", bin.name, bin.skill, bin.remedy))
		} else {
			note("Binaries", fmt.Sprintf("%s ok.", bin.name))
		}
	}

	fmt.Fprintln(stdout, "  Check complete.")
	return 0
}

func parseCheckOptions(args []string) CheckOptions {
	var opts CheckOptions
	for _, a := range args {
		if a == "--fix" || a == "-fix" {
			opts.Fix = true
			break
		}
	}
	return opts
}

func checkDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("custom dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("custom dir %q does not exist", abs)
		}
		return fmt.Errorf("custom dir %q: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("custom dir %q: not a directory", abs)
	}
	return nil
}
