package config

import (
	"os"

	"github.com/joho/godotenv"

	"skillbox/internal/domain"
)

// LoadDotEnv loads a .env file into the process environment when one exists.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overlays well-known environment variables onto cfg, so secrets
// never need to live in skillbox.json. Explicit config values win.
func ApplyEnv(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	if cfg.Skills.GitHubToken == "" {
		cfg.Skills.GitHubToken = os.Getenv("SKILLBOX_GITHUB_TOKEN")
	}
	if cfg.Skills.GitLabToken == "" {
		cfg.Skills.GitLabToken = os.Getenv("SKILLBOX_GITLAB_TOKEN")
	}
	if cfg.Skills.BridgeURL == "" {
		cfg.Skills.BridgeURL = os.Getenv("SKILLBOX_BRIDGE_URL")
	}
	if cfg.Gateway.AuthToken == "" {
		cfg.Gateway.AuthToken = os.Getenv("SKILLBOX_AUTH_TOKEN")
	}
}
