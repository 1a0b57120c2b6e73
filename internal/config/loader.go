package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"skillbox/internal/domain"
)

// marshalIndent and writeFile are used by WriteDefault and Save; tests may
// replace them to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// WriteDefault writes a default Config to path (e.g. skillbox.json). Parent
// directories are not created.
func WriteDefault(path string) error {
	cfg := Default()
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Default returns the built-in configuration.
func Default() *domain.Config {
	return &domain.Config{
		Gateway: domain.GatewayConfig{Port: 8080},
		Skills:  domain.SkillsConfig{Disabled: []string{}},
		Infra:   domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		AllowedCommands: []string{},
	}
}

// Load reads path, unmarshals into domain.Config, and cleans all path fields
// to mitigate path traversal. Returns an error if the file is missing or not
// valid JSON.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c domain.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	CleanPaths(&c)
	return &c, nil
}

// CleanPaths applies filepath.Clean to all path fields in cfg.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	if cfg.Skills.CustomDir != "" {
		cfg.Skills.CustomDir = filepath.Clean(cfg.Skills.CustomDir)
	}
}

// Save writes cfg to path as JSON (so allowlist edits can be persisted).
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config save: %w", err)
	}
	return writeFile(path, data, 0644)
}
