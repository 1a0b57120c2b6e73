package domain

// Config is the root configuration loaded from skillbox.json.
type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Skills  SkillsConfig  `json:"skills"`
	Infra   InfraConfig   `json:"infra"`

	// AllowedCommands restricts which external binaries subprocess-backed
	// skills may launch. Empty means no restriction.
	AllowedCommands []string `json:"allowedCommands"`

	// StrictValidation turns on full JSON-Schema validation of tool
	// arguments. The default is a lenient required-fields-only check.
	StrictValidation bool `json:"strictValidation,omitempty"`
}

type GatewayConfig struct {
	Port int `json:"port"`
	// AuthToken, when set, requires Authorization: Bearer <token> on every
	// gateway request.
	AuthToken string `json:"authToken,omitempty"`
}

type SkillsConfig struct {
	// Disabled lists skill names that must not be registered.
	Disabled []string `json:"disabled,omitempty"`
	// CustomDir is a directory of Markdown-defined skills loaded at startup
	// and watched for changes.
	CustomDir string `json:"customDir,omitempty"`
	// BridgeURL is the Android bridge endpoint used when ADB is unavailable.
	BridgeURL string `json:"bridgeUrl,omitempty"`
	// DatabaseURL is the sql skill's default database (file: or libsql: URL).
	DatabaseURL string `json:"databaseUrl,omitempty"`
	// GitHubToken / GitLabToken authenticate the git skill's remote tools.
	GitHubToken string `json:"githubToken,omitempty"`
	GitLabToken string `json:"gitlabToken,omitempty"`
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}
