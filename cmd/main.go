package main

import (
	"context"
	"os"

	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// EnvConfigPath overrides the default config.toml location.
const EnvConfigPath = "MERCHTRACK_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if v, ok := os.LookupEnv(EnvConfigPath); ok && v != "" {
		configPath = v
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(nil)
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Logging.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "merchtrack",
		Usage:    "Distribute marketplace moderation tasks and track how long they stay open",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	runner.Close()
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
