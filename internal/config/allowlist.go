package config

import (
	"errors"
	"path/filepath"
	"strings"

	"skillbox/internal/domain"
)

// ErrCommandNotAllowed is returned when a requested binary is not in the
// allowlist.
var ErrCommandNotAllowed = errors.New("command not allowed by policy")

// AddAllowedCommand adds bin to cfg.AllowedCommands if not already present
// (compared by binary base name).
func AddAllowedCommand(cfg *domain.Config, bin string) {
	if cfg == nil {
		return
	}
	bin = filepath.Base(strings.TrimSpace(bin))
	if bin == "" || bin == "." {
		return
	}
	if cfg.AllowedCommands == nil {
		cfg.AllowedCommands = []string{}
	}
	for _, c := range cfg.AllowedCommands {
		if filepath.Base(c) == bin {
			return
		}
	}
	cfg.AllowedCommands = append(cfg.AllowedCommands, bin)
}

// RemoveAllowedCommand removes the binary (by base name) from
// cfg.AllowedCommands.
func RemoveAllowedCommand(cfg *domain.Config, bin string) {
	if cfg == nil || len(cfg.AllowedCommands) == 0 {
		return
	}
	bin = filepath.Base(strings.TrimSpace(bin))
	out := make([]string, 0, len(cfg.AllowedCommands))
	for _, c := range cfg.AllowedCommands {
		if filepath.Base(c) != bin {
			out = append(out, c)
		}
	}
	cfg.AllowedCommands = out
}

// ValidateBinary checks cfg.AllowedCommands. An empty or nil allowlist allows
// any binary; otherwise the binary's base name must be listed.
func ValidateBinary(cfg *domain.Config, bin string) error {
	if cfg == nil || len(cfg.AllowedCommands) == 0 {
		return nil
	}
	bin = filepath.Base(strings.TrimSpace(bin))
	if bin == "" || bin == "." {
		return ErrCommandNotAllowed
	}
	for _, allowed := range cfg.AllowedCommands {
		if filepath.Base(allowed) == bin {
			return nil
		}
	}
	return ErrCommandNotAllowed
}
