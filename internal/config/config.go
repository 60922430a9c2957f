// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config handles the breadboard configuration file.
//
package config

import (
	"os"
	"path/filepath"
	"strconv"

	bb "github.com/db47h/breadboard"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPath is the environment variable overriding the configuration file path.
//
const EnvPath = "BREADBOARD_CONFIG"

// Config is the breadboard configuration.
//
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Output     Output     `yaml:"output"`
	Log        Log        `yaml:"log"`
}

// Simulation settings.
//
type Simulation struct {
	MaxPasses  int    `yaml:"max_passes"`
	Resolution string `yaml:"resolution"` // default resolution of named nets
	Steps      int    `yaml:"steps"`      // steps run when a circuit file lists none
}

// Output settings.
//
type Output struct {
	Format     string  `yaml:"format"`      // table or json
	PlotWidth  float64 `yaml:"plot_width"`  // centimeters
	PlotHeight float64 `yaml:"plot_height"` // centimeters per trace
	Database   string  `yaml:"database"`    // default record store, empty for none
}

// Log settings.
//
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
//
func Default() *Config {
	return &Config{
		Simulation: Simulation{
			MaxPasses:  bb.DefaultMaxPasses,
			Resolution: bb.Strict.String(),
			Steps:      1,
		},
		Output: Output{
			Format:     "table",
			PlotWidth:  16,
			PlotHeight: 1.5,
		},
		Log: Log{Level: "info"},
	}
}

// Path returns the configuration file path: $BREADBOARD_CONFIG if set,
// breadboard/config.yaml in the user configuration directory otherwise.
//
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate configuration directory")
	}
	return filepath.Join(dir, "breadboard", "config.yaml"), nil
}

// Load loads the configuration from a YAML file. Settings missing from the
// file keep their default value. A missing file yields the defaults.
//
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory if needed.
//
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// Marshal returns the YAML encoding of c.
//
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Wrap(err, "marshal config")
}

// Validate checks the configuration values.
//
func (c *Config) Validate() error {
	if c.Simulation.MaxPasses < 0 {
		return errors.Errorf("negative max_passes %d", c.Simulation.MaxPasses)
	}
	if c.Simulation.Steps < 0 {
		return errors.Errorf("negative steps %d", c.Simulation.Steps)
	}
	if _, err := c.DefaultResolution(); err != nil {
		return err
	}
	switch c.Output.Format {
	case "table", "json":
	default:
		return errors.Errorf("invalid output format %q", c.Output.Format)
	}
	if c.Output.PlotWidth <= 0 || c.Output.PlotHeight <= 0 {
		return errors.Errorf("invalid plot size %sx%s",
			strconv.FormatFloat(c.Output.PlotWidth, 'g', -1, 64), strconv.FormatFloat(c.Output.PlotHeight, 'g', -1, 64))
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// DefaultResolution returns the parsed simulation resolution mode.
//
func (c *Config) DefaultResolution() (bb.Resolution, error) {
	return bb.ParseResolution(c.Simulation.Resolution)
}

// LogLevel returns the parsed log level.
//
func (c *Config) LogLevel() (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(c.Log.Level)
	return l, errors.Wrap(err, "log level")
}
