package model

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultRoleInterval  = 100 * time.Millisecond
	DefaultUnbanInterval = 500 * time.Millisecond
	DefaultBatchTimeout  = 15 * time.Minute
)

// Pacing holds the fixed delays inserted after each successful mutation
type Pacing struct {
	RoleInterval  time.Duration
	UnbanInterval time.Duration
	// BatchTimeout bounds one whole workflow including session setup
	BatchTimeout time.Duration
}

// DefaultPacing returns pacing tuned for the platform rate limits
func DefaultPacing() Pacing {
	return Pacing{
		RoleInterval:  DefaultRoleInterval,
		UnbanInterval: DefaultUnbanInterval,
		BatchTimeout:  DefaultBatchTimeout,
	}
}

// Interval returns the pause used after a successful mutation of kind
func (p Pacing) Interval(kind OperationKind) time.Duration {
	if kind == OperationUnban {
		return p.UnbanInterval
	}
	return p.RoleInterval
}

// Validate checks pacing values
func (p Pacing) Validate() error {
	if p.RoleInterval < 0 {
		return goerr.New("role interval must not be negative", goerr.V("interval", p.RoleInterval))
	}
	if p.UnbanInterval < 0 {
		return goerr.New("unban interval must not be negative", goerr.V("interval", p.UnbanInterval))
	}
	if p.BatchTimeout < 0 {
		return goerr.New("batch timeout must not be negative", goerr.V("timeout", p.BatchTimeout))
	}
	return nil
}

// LogValue returns structured log value
func (p Pacing) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("role_interval", p.RoleInterval),
		slog.Duration("unban_interval", p.UnbanInterval),
		slog.Duration("batch_timeout", p.BatchTimeout),
	)
}
