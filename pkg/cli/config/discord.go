package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/service/discord"
	"github.com/urfave/cli/v3"
)

// Discord holds configuration for platform sessions
type Discord struct {
	ReadyTimeout time.Duration
}

// Flags returns CLI flags for Discord configuration
func (d *Discord) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "ready-timeout",
			Usage:       "Maximum wait for a new session to become ready",
			Category:    "Discord",
			Value:       discord.DefaultReadyTimeout,
			Sources:     cli.EnvVars("GUILDSWEEP_READY_TIMEOUT"),
			Destination: &d.ReadyTimeout,
		},
	}
}

// Configure creates the platform connector
func (d *Discord) Configure() (*discord.Connector, error) {
	if d.ReadyTimeout <= 0 {
		return nil, goerr.New("ready timeout must be positive", goerr.V("timeout", d.ReadyTimeout))
	}
	return discord.NewConnector(discord.WithReadyTimeout(d.ReadyTimeout)), nil
}

// LogValue returns structured log value
func (d Discord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("ready_timeout", d.ReadyTimeout),
	)
}
