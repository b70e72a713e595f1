package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	flagRoleInterval  = "role-interval"
	flagUnbanInterval = "unban-interval"
	flagBatchTimeout  = "batch-timeout"
)

// Pacing holds delay and timeout configuration for bulk workflows
type Pacing struct {
	RoleInterval  time.Duration
	UnbanInterval time.Duration
	BatchTimeout  time.Duration
	ConfigFile    string
}

// Flags returns CLI flags for Pacing configuration
func (p *Pacing) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        flagRoleInterval,
			Usage:       "Pause after each successful role change",
			Category:    "Pacing",
			Value:       model.DefaultRoleInterval,
			Sources:     cli.EnvVars("GUILDSWEEP_ROLE_INTERVAL"),
			Destination: &p.RoleInterval,
		},
		&cli.DurationFlag{
			Name:        flagUnbanInterval,
			Usage:       "Pause after each successful unban",
			Category:    "Pacing",
			Value:       model.DefaultUnbanInterval,
			Sources:     cli.EnvVars("GUILDSWEEP_UNBAN_INTERVAL"),
			Destination: &p.UnbanInterval,
		},
		&cli.DurationFlag{
			Name:        flagBatchTimeout,
			Usage:       "Upper bound for one bulk request",
			Category:    "Pacing",
			Value:       model.DefaultBatchTimeout,
			Sources:     cli.EnvVars("GUILDSWEEP_BATCH_TIMEOUT"),
			Destination: &p.BatchTimeout,
		},
		&cli.StringFlag{
			Name:        "pacing-config",
			Usage:       "YAML file overriding pacing defaults",
			Category:    "Pacing",
			Sources:     cli.EnvVars("GUILDSWEEP_PACING_CONFIG"),
			Destination: &p.ConfigFile,
		},
	}
}

// PacingFile is the YAML layout of the pacing config file; durations use time.ParseDuration syntax
type PacingFile struct {
	RoleInterval  string `yaml:"role_interval"`
	UnbanInterval string `yaml:"unban_interval"`
	BatchTimeout  string `yaml:"batch_timeout"`
}

// Configure resolves the effective pacing. Values from the config file
// replace defaults, and flags set explicitly win over the file.
func (p *Pacing) Configure(isSet func(name string) bool) (model.Pacing, error) {
	pacing := model.Pacing{
		RoleInterval:  p.RoleInterval,
		UnbanInterval: p.UnbanInterval,
		BatchTimeout:  p.BatchTimeout,
	}

	if p.ConfigFile != "" {
		file, err := LoadPacingFromFile(p.ConfigFile)
		if err != nil {
			return model.Pacing{}, err
		}

		overrides := []struct {
			flag  string
			value string
			dst   *time.Duration
		}{
			{flagRoleInterval, file.RoleInterval, &pacing.RoleInterval},
			{flagUnbanInterval, file.UnbanInterval, &pacing.UnbanInterval},
			{flagBatchTimeout, file.BatchTimeout, &pacing.BatchTimeout},
		}
		for _, o := range overrides {
			if o.value == "" || isSet(o.flag) {
				continue
			}
			d, err := time.ParseDuration(o.value)
			if err != nil {
				return model.Pacing{}, goerr.Wrap(err, "invalid duration in pacing config",
					goerr.V("path", p.ConfigFile),
					goerr.V("key", o.flag),
					goerr.V("value", o.value))
			}
			*o.dst = d
		}
	}

	if err := pacing.Validate(); err != nil {
		return model.Pacing{}, goerr.Wrap(err, "invalid pacing configuration")
	}
	return pacing, nil
}

// LoadPacingFromFile reads the pacing YAML file
func LoadPacingFromFile(path string) (*PacingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "pacing config file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read pacing config file",
			goerr.V("path", path))
	}

	var file PacingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse YAML configuration",
			goerr.V("path", path))
	}
	return &file, nil
}

// LogValue returns structured log value
func (p Pacing) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("role_interval", p.RoleInterval),
		slog.Duration("unban_interval", p.UnbanInterval),
		slog.Duration("batch_timeout", p.BatchTimeout),
		slog.String("config_file", p.ConfigFile),
	)
}
