package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

const appName = "guildsweep"

// Version is the application version, overridden at build time
var Version = "0.1.0"

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger

	app := &cli.Command{
		Name:    appName,
		Usage:   "Bulk role and ban maintenance for Discord guilds",
		Version: Version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			logger = logger.With("service", appName, "version", Version)

			slog.SetDefault(logger)
			return ctxlog.With(ctx, logger), nil
		},
		Commands: []*cli.Command{
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		err = goerr.Wrap(err, "CLI execution failed", goerr.V("args", args))
		slog.Default().Error("guildsweep exited with error", "error", err)
		return err
	}

	return nil
}
