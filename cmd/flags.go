package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"validator-explorer/internal/config"
	"validator-explorer/internal/logging"
)

var (
	// ConfigPathFlag specifies the config file path.
	ConfigPathFlag = &cli.StringFlag{
		Name:    "config-file",
		Usage:   "The filepath to a yaml/json/toml config file; defaults and environment apply without it",
		EnvVars: []string{"CONFIG_FILE"},
	}

	// VerbosityFlag overrides logging.level of the config.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error, fatal, panic)",
	}

	// LogFormatFlag overrides logging.format of the config.
	LogFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: text, json.",
	}

	// UseMemoryFlag swaps every store for its in-memory implementation.
	UseMemoryFlag = &cli.BoolFlag{
		Name:  "use-memory",
		Usage: "Use in-memory storage instead of mongo, redis and the price backends",
	}
)

// Setup loads the config named by the flags and builds the logger from it.
func Setup(c *cli.Context) (*config.Config, *logrus.Entry, error) {
	cfg, err := config.Load(c.String(ConfigPathFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet(VerbosityFlag.Name) {
		cfg.Logging.Level = c.String(VerbosityFlag.Name)
	}
	if c.IsSet(LogFormatFlag.Name) {
		cfg.Logging.Format = c.String(LogFormatFlag.Name)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logrus.NewEntry(logger), nil
}
