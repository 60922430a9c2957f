// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	bb "github.com/db47h/breadboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, bb.DefaultMaxPasses, cfg.Simulation.MaxPasses)
	r, err := cfg.DefaultResolution()
	require.NoError(t, err)
	assert.Equal(t, bb.Strict, r)
	l, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, l)
}

func TestLoad_missingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.yaml")
	cfg := Default()
	cfg.Simulation.MaxPasses = 42
	cfg.Simulation.Resolution = "wired-or"
	cfg.Output.Format = "json"
	cfg.Output.Database = "runs.db"
	cfg.Log.Level = "debug"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  max_passes: 7\n"), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Simulation.MaxPasses)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, 1, cfg.Simulation.Steps)
}

func TestLoad_invalid(t *testing.T) {
	td := map[string]string{
		"syntax":     "simulation: [",
		"passes":     "simulation:\n  max_passes: -1\n",
		"resolution": "simulation:\n  resolution: majority\n",
		"format":     "output:\n  format: xml\n",
		"plot":       "output:\n  plot_width: 0\n",
		"log":        "log:\n  level: chatty\n",
	}
	for name, data := range td {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(data), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/bb.yaml")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bb.yaml", p)

	t.Setenv(EnvPath, "")
	p, err = Path()
	if err == nil {
		assert.Equal(t, filepath.Join("breadboard", "config.yaml"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))
	}
}
