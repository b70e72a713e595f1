package config

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const DefaultPort = 3000

// Server holds server configuration
type Server struct {
	Host string
	Port int
}

// Flags returns CLI flags for Server configuration
func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "host",
			Usage:       "Listening host (empty for all interfaces)",
			Category:    "Server",
			Value:       "",
			Sources:     cli.EnvVars("GUILDSWEEP_HOST"),
			Destination: &s.Host,
		},
		&cli.IntFlag{
			Name:        "port",
			Aliases:     []string{"p"},
			Usage:       "Listening port",
			Category:    "Server",
			Value:       DefaultPort,
			Sources:     cli.EnvVars("GUILDSWEEP_PORT", "PORT"),
			Destination: &s.Port,
		},
	}
}

// Validate validates the server configuration
func (s *Server) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return goerr.New("invalid port", goerr.V("port", s.Port))
	}
	return nil
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogValue returns structured log value
func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
	)
}
