package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"skillbox/internal/banner"
	"skillbox/internal/cli"
	"skillbox/internal/config"
	"skillbox/internal/domain"
	"skillbox/internal/fetch"
	"skillbox/internal/gateway"
	"skillbox/internal/registry"
	"skillbox/internal/runner"
	"skillbox/internal/security"
	"skillbox/internal/skills"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("skillbox %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "skillbox",
		Short: "Skill registry and dispatch",
		Long:  "Skillbox is a tool registry and dispatch daemon for agent skills.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return runDaemon(cmd, daemonShutdownCh)
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		RunE:  runTools,
	}
	root.AddCommand(toolsCmd)

	invokeCmd := &cobra.Command{
		Use:   "invoke <tool> [json-arguments]",
		Short: "Invoke a tool once and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runInvoke,
	}
	root.AddCommand(invokeCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check config, skill directory, and external binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			checkArgs := []string{"skillbox", "check"}
			if fix {
				checkArgs = append(checkArgs, "--fix")
			}
			code := cli.RunCheck(checkArgs, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != 0 {
				return exitCodeErr(code)
			}
			return nil
		},
	}
	checkCmd.Flags().Bool("fix", false, "write default config if missing")
	root.AddCommand(checkCmd)

	return root
}

// loadConfig reads skillbox.json (or $SKILLBOX_CONFIG), layers .env values on
// top, and falls back to defaults when no file exists.
func loadConfig() (*domain.Config, bool) {
	_ = config.LoadDotEnv(".env")

	cfgPath := os.Getenv("SKILLBOX_CONFIG")
	if cfgPath == "" {
		cfgPath = "skillbox.json"
	}
	cfg, err := config.Load(cfgPath)
	loaded := err == nil
	if cfg == nil {
		cfg = config.Default()
	}
	config.ApplyEnv(cfg)
	return cfg, loaded
}

// setupLogger configures the default slog logger from infra config.
func setupLogger(infra domain.InfraConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(infra.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(infra.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildRegistry constructs every enabled skill and registers its tools.
// The returned custom skill is nil when no custom directory is configured.
func buildRegistry(cfg *domain.Config, logger *slog.Logger) (*registry.Registry, *skills.CustomSkill, error) {
	run := runner.NewExecRunner(cfg)
	fetcher := fetch.NewClient(10 * time.Second)

	disabled := make(map[string]bool, len(cfg.Skills.Disabled))
	for _, name := range cfg.Skills.Disabled {
		disabled[name] = true
	}

	dbURL := cfg.Skills.DatabaseURL
	all := []domain.Skill{
		skills.NewCryptoSkill(),
		skills.NewEncodingSkill(),
		skills.NewColorSkill(),
		skills.NewURLSkill(),
		skills.NewIPSkill(fetcher),
		skills.NewJWTSkill(),
		skills.NewDateTimeSkill(),
		skills.NewCurrencySkill(fetcher),
		skills.NewTextSkill(),
		skills.NewCronSkill(),
		skills.NewHTTPSkill(fetcher),
		skills.NewHTMLSkill(fetcher),
		skills.NewImageSkill(),
		skills.NewQRSkill(run, run),
		skills.NewWiFiSkill(run),
		skills.NewBluetoothSkill(run),
		skills.NewAndroidSkill(run, run, fetcher, cfg.Skills.BridgeURL),
		skills.NewGitSkill(cfg.Skills.GitHubToken, cfg.Skills.GitLabToken),
		skills.NewDockerSkill(run),
		skills.NewSQLSkill(dbURL),
	}

	reg := registry.New(
		registry.WithLogger(logger),
		registry.WithStrictValidation(cfg.StrictValidation),
	)
	for _, s := range all {
		if disabled[s.Name()] {
			logger.Debug("skill disabled by config", "skill", s.Name())
			continue
		}
		reg.Register(s)
	}

	var custom *skills.CustomSkill
	if cfg.Skills.CustomDir != "" && !disabled["custom"] {
		var err error
		custom, err = skills.NewCustomSkill(cfg.Skills.CustomDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load custom skills: %w", err)
		}
		reg.Register(custom)
	}
	return reg, custom, nil
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, _ := loadConfig()
	logger := setupLogger(cfg.Infra)
	reg, _, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	for _, def := range reg.List() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", def.Name, def.Description)
	}
	return nil
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, _ := loadConfig()
	logger := setupLogger(cfg.Infra)
	reg, _, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}

	raw := json.RawMessage("{}")
	if len(args) == 2 {
		raw = json.RawMessage(args[1])
	}
	result, err := reg.Invoke(args[0], raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

// runDaemon starts the gateway and the custom-skill watcher. If shutdownCh is
// non-nil, it returns when shutdownCh is closed (for tests); otherwise it
// blocks on OS signals.
func runDaemon(cmd *cobra.Command, shutdownCh <-chan struct{}) error {
	euidGetter := security.EffectiveUIDGetter()
	if daemonEUIDGetter != nil {
		euidGetter = daemonEUIDGetter
	}
	if err := security.RequireNonRoot(euidGetter); err != nil {
		return err
	}
	banner.Startup(getVersion(), nil)

	cfg, loaded := loadConfig()
	logger := setupLogger(cfg.Infra)
	if !loaded {
		fmt.Println("  (no config file, using defaults)")
	}

	reg, custom, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	fmt.Printf("  %d tools registered\n", len(reg.List()))

	var watcher *skills.CustomWatcher
	if custom != nil {
		watcher = skills.NewCustomWatcher(custom)
		if err := watcher.Start(func() {
			// Re-registration is last-wins, so reloaded tools replace
			// their prior descriptors in place.
			reg.Register(custom)
			logger.Info("custom skills reloaded", "dir", custom.Dir())
		}); err != nil {
			log.Printf("  custom skill watcher: %v", err)
			watcher = nil
		}
	}

	var gatewayShutdown chan struct{}
	srv, srvErr := gateway.NewServer(&cfg.Gateway, reg)
	if srvErr != nil {
		fmt.Fprintf(gatewayBindErrWriter, "  gateway start: %v\n", srvErr)
	} else {
		gatewayServerForTest = srv
		gatewayShutdown = make(chan struct{})
		go func() {
			_ = srv.Run(gatewayShutdown)
		}()
		// Wait until the server has bound so "ready." means clients can connect.
		var bound string
		for i := 0; i < daemonBindWaitIterations; i++ {
			if a := srv.Addr(); a != "" {
				bound = a
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if bound != "" {
			fmt.Printf("  listen %s\n  ready.\n", bound)
		} else {
			if err := srv.ListenErr(); err != nil {
				fmt.Fprintf(gatewayBindErrWriter, "  gateway failed to bind: %v\n", err)
			} else {
				fmt.Fprintln(gatewayBindErrWriter, "  gateway failed to bind (check port or permissions)")
			}
		}
	}
	if gatewayShutdown == nil {
		fmt.Println("  ready.")
	}

	stop := func() {
		if watcher != nil {
			_ = watcher.Stop()
		}
		if gatewayShutdown != nil {
			close(gatewayShutdown)
		}
	}

	if shutdownCh != nil {
		<-shutdownCh
		stop()
		return nil
	}
	daemonWaitForShutdown()
	stop()
	return nil
}

func getVersion() string {
	if version != "" {
		return version
	}
	b, err := os.ReadFile("VERSION")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(b))
}

// version is set at build time via ldflags for build metadata, e.g.:
//
//	go build -ldflags "-X main.version=1.0.0" -o skillbox ./cmd/skillbox
var version string

// daemonShutdownCh is set by tests to unblock runDaemon without signals. Production leaves it nil.
var daemonShutdownCh <-chan struct{}

// daemonEUIDGetter is set by tests to avoid RequireNonRoot failing when test runs as root. Production leaves it nil.
var daemonEUIDGetter func() int

// daemonWaitForShutdown is set by init in main_signal*.go so tests can inject a no-op to cover the nil-shutdownCh path.
var daemonWaitForShutdown func()

// gatewayServerForTest is set when the gateway server starts so tests can read Addr().
var gatewayServerForTest *gateway.Server

// daemonBindWaitIterations is the max loop count waiting for gateway to bind. Tests may lower it.
var daemonBindWaitIterations = 50

// gatewayBindErrWriter is where bind errors are written. Tests set this to capture output; production uses os.Stderr.
var gatewayBindErrWriter interface{ Write([]byte) (int, error) } = os.Stderr

// exitCodeErr carries an exit code for the process. When returned from a command, runApp exits with that code.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code (0, 1, or 2).
func runApp(args []string) int {
	bm := newBuildMeta(version, "", "")
	if bm.Version == "" {
		bm.Version = getVersion()
	}
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	if err := root.Execute(); err != nil {
		if err == security.ErrRunningAsRoot {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
