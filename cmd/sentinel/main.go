// Package main is the entry point for the sentinel CLI.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sentinelops/sentinel/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env for API keys and other environment overrides.
	_ = godotenv.Load()
}

// appContext carries shared dependencies into command handlers.
type appContext struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sentinel"),
		kong.Description("Autonomous risk-assurance agent runner."),
		kong.UsageOnError(),
		kongVars(),
	)

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentinel: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentinel: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := ctx.Run(&appContext{cfg: cfg, log: logger}); err != nil {
		fmt.Fprintf(os.Stderr, "sentinel: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// newLogger builds the process logger. Quiet by default; config flips
// it to human-readable debug output.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if !cfg.Log.Debug {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		return zcfg.Build()
	}
	zcfg := zap.NewDevelopmentConfig()
	return zcfg.Build()
}

// Run implements the version command.
func (c *VersionCmd) Run(app *appContext) error {
	fmt.Printf("sentinel version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
