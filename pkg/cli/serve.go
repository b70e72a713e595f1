package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/cli/config"
	controller "github.com/secmon-lab/guildsweep/pkg/controller/http"
	"github.com/secmon-lab/guildsweep/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		discordCfg config.Discord
		pacingCfg  config.Pacing
	)

	flags := slices.Concat(
		serverCfg.Flags(),
		discordCfg.Flags(),
		pacingCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := serverCfg.Validate(); err != nil {
				return err
			}
			pacing, err := pacingCfg.Configure(c.IsSet)
			if err != nil {
				return err
			}
			connector, err := discordCfg.Configure()
			if err != nil {
				return err
			}

			logger.Info("Starting guildsweep server",
				slog.Any("server", serverCfg),
				slog.Any("discord", discordCfg),
				slog.Any("pacing", pacing),
			)

			guildAdmin := usecase.NewGuildAdmin(connector, usecase.WithPacing(pacing))

			// Create HTTP server
			server, err := controller.NewServer(ctx, serverCfg.Addr(), Version, guildAdmin)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr()))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "HTTP server error", goerr.V("addr", serverCfg.Addr()))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return err
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
