// Package cli provides the command-line interface for modsync.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/modsync/internal/config"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// logFile is the open --log-file, closed when Run returns.
var logFile io.Closer

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "modsync",
		Usage:   "Install and update game mods from a remote catalog",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output, including raw tool output",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to `FILE`",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Read configuration from `FILE` instead of ~/.modsync/config.yaml",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			return ctx, configureLogging(cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if logFile != nil {
				err := logFile.Close()
				logFile = nil
				return err
			}
			return nil
		},
		Commands: []*cli.Command{
			versionCommand(),
			configCommand(),
			listCommand(),
			planCommand(),
			installCommand(),
			statusCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output based on CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	if path := cmd.String("log-file"); path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			return err
		}
		opts.File = f
		logFile = f
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}

// loadConfig reads the --config file when given, otherwise the default one,
// and applies its color preference unless --no-color was given.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if !cmd.Bool("no-color") {
		if err := ui.SetColorMode(cfg.Output.Color); err != nil {
			return nil, fmt.Errorf("output.color: %w", err)
		}
	}
	return cfg, nil
}
