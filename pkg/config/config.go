// Package config loads nocterm settings from ~/.nocterm/config.yaml,
// an explicit file, and NOCTERM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/editor"
	"github.com/psaab/nocterm/pkg/history"
	"github.com/psaab/nocterm/pkg/scenario"
)

// EnvPrefix prefixes environment overrides, e.g. NOCTERM_HOSTNAME or
// NOCTERM_PING_INTERVAL.
const EnvPrefix = "NOCTERM"

// ErrInvalid is wrapped by validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full nocterm configuration.
type Config struct {
	Hostname  string                   `mapstructure:"hostname"`
	Username  string                   `mapstructure:"username"`
	MaxLine   int                      `mapstructure:"max_line"`
	History   History                  `mapstructure:"history"`
	Log       Log                      `mapstructure:"log"`
	Ping      Ping                     `mapstructure:"ping"`
	SSH       SSH                      `mapstructure:"ssh"`
	Scenarios map[string]time.Duration `mapstructure:"scenarios"`
	API       API                      `mapstructure:"api"`
}

// History controls the global command history.
type History struct {
	Size    int    `mapstructure:"size"`
	File    string `mapstructure:"file"`
	Persist bool   `mapstructure:"persist"`
}

// Log sizes the event log.
type Log struct {
	Capacity int `mapstructure:"capacity"`
	Tail     int `mapstructure:"tail"`
}

// Ping sets the echo pacing.
type Ping struct {
	Interval      time.Duration `mapstructure:"interval"`
	CiscoInterval time.Duration `mapstructure:"cisco_interval"`
}

// SSH configures the simulated handshake.
type SSH struct {
	Delay   time.Duration `mapstructure:"delay"`
	Targets []string      `mapstructure:"targets"`
}

// API holds the listen addresses used by "nocterm serve" and the
// address "nocterm connect" dials.
type API struct {
	HTTPAddr string            `mapstructure:"http_addr"`
	GRPCAddr string            `mapstructure:"grpc_addr"`
	Keys     []string          `mapstructure:"keys"`
	Users    map[string]string `mapstructure:"users"`
}

// Dir returns ~/.nocterm.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".nocterm"), nil
}

func setDefaults(v *viper.Viper) {
	d := cli.DefaultOptions()
	v.SetDefault("hostname", d.Hostname)
	v.SetDefault("username", d.Username)
	v.SetDefault("max_line", editor.DefaultMaxLine)

	v.SetDefault("history.size", history.DefaultSize)
	v.SetDefault("history.file", "~/.nocterm/history.json")
	v.SetDefault("history.persist", true)

	v.SetDefault("log.capacity", d.LogCapacity)
	v.SetDefault("log.tail", d.LoggingTail)

	v.SetDefault("ping.interval", d.PingInterval)
	v.SetDefault("ping.cisco_interval", d.CiscoPingInterval)

	v.SetDefault("ssh.delay", d.SSHDelay)
	v.SetDefault("ssh.targets", d.SSHTargets)

	intervals := map[string]any{}
	for _, s := range scenario.Catalog() {
		intervals[s.Name] = s.Interval
	}
	v.SetDefault("scenarios", intervals)

	v.SetDefault("api.http_addr", "127.0.0.1:8780")
	v.SetDefault("api.grpc_addr", "127.0.0.1:50780")
}

// Load reads the configuration. With an empty path it looks for
// config.yaml under ~/.nocterm and falls back to defaults when none
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", expanded, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and scenario names.
func (c *Config) Validate() error {
	switch {
	case c.MaxLine <= 0:
		return fmt.Errorf("max_line must be positive: %w", ErrInvalid)
	case c.History.Size <= 0:
		return fmt.Errorf("history.size must be positive: %w", ErrInvalid)
	case c.Log.Capacity <= 0:
		return fmt.Errorf("log.capacity must be positive: %w", ErrInvalid)
	case c.Ping.Interval <= 0 || c.Ping.CiscoInterval <= 0:
		return fmt.Errorf("ping intervals must be positive: %w", ErrInvalid)
	}
	known := map[string]bool{}
	for _, s := range scenario.Catalog() {
		known[s.Name] = true
	}
	for name, d := range c.Scenarios {
		if !known[name] {
			return fmt.Errorf("scenarios.%s: %w", name, scenario.ErrUnknownScenario)
		}
		if d <= 0 {
			return fmt.Errorf("scenarios.%s must be positive: %w", name, ErrInvalid)
		}
	}
	return nil
}

// Options converts the configuration into interpreter options.
func (c *Config) Options() cli.Options {
	return cli.Options{
		Hostname:          c.Hostname,
		Username:          c.Username,
		LogCapacity:       c.Log.Capacity,
		LoggingTail:       c.Log.Tail,
		PingInterval:      c.Ping.Interval,
		CiscoPingInterval: c.Ping.CiscoInterval,
		SSHDelay:          c.SSH.Delay,
		SSHTargets:        c.SSH.Targets,
		ScenarioIntervals: scenario.Intervals(c.Scenarios),
	}
}

// HistoryStore returns the history file when persistence is enabled.
func (c *Config) HistoryStore() (*history.File, error) {
	if !c.History.Persist || c.History.File == "" {
		return nil, nil
	}
	return history.NewFile(c.History.File)
}
