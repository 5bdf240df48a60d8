package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cstomo/pkg/regression"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 128, cfg.Phantom.Size)
	assert.Equal(t, 18, cfg.Phantom.Directions)
	assert.Equal(t, 0.15, cfg.Noise.Sigma)
	assert.Equal(t, 0.001, cfg.Lasso.Alpha)
	assert.Equal(t, 0.2, cfg.Ridge.Alpha)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Phantom, cfg.Phantom)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Phantom.Size = 32
	cfg.Phantom.Seed = 7
	cfg.Ridge.Solver = "cg"
	cfg.FBP.Enabled = true
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phantom:\n  size: 16\n  directions: 3\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Phantom.Size)
	assert.Equal(t, 3, cfg.Phantom.Directions)
	assert.Equal(t, 36, cfg.Phantom.Points)
	assert.Equal(t, 0.001, cfg.Lasso.Alpha)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phantom: [unterminated"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Lasso, loaded.Lasso)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Phantom.Size = 0
	cfg.Noise.Sigma = -1
	cfg.Ridge.Solver = "lsqr"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)
	assert.True(t, errors.Is(err, regression.ErrUnknownSolver))
}
