// File: lixenwraith/argtree/cmd/argtree/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps discovery away from files outside the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("TRAIN_DEFAULTS", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
}

// TestRun tests the demo program end to end
func TestRun(t *testing.T) {
	isolate(t)

	t.Run("Defaults", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(&out, []string{"ds"}))

		s := out.String()
		assert.Contains(t, s, "optimizer: adam\n")
		assert.Contains(t, s, "data.path = ds\n")
		assert.Contains(t, s, "data.batch_size = 32\n")
		assert.Contains(t, s, "epochs = 10\n")
		assert.Contains(t, s, "optimizer.lr = 0.001\n")
		assert.Contains(t, s, "optimizer.betas = [0.9 0.999]\n")
		assert.Contains(t, s, "seed = 42\n")
	})

	t.Run("OtherOptimizer", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(&out, []string{"ds", "--epochs", "3", "sgd", "--optimizer.momentum", "0.9"}))

		s := out.String()
		assert.Contains(t, s, "optimizer: sgd\n")
		assert.Contains(t, s, "epochs = 3\n")
		assert.Contains(t, s, "optimizer.lr = 0.01\n")
		assert.Contains(t, s, "optimizer.momentum = 0.9\n")
		assert.NotContains(t, s, "optimizer.betas")
	})

	t.Run("Help", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(&out, []string{"--help"}))
		assert.Contains(t, out.String(), "usage: train [OPTIONS]")
		assert.Contains(t, out.String(), "adam")
	})

	t.Run("ValidatorRejects", func(t *testing.T) {
		var out bytes.Buffer
		err := run(&out, []string{"ds", "--epochs", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "epochs must be positive")
	})

	t.Run("FixedSeed", func(t *testing.T) {
		var out bytes.Buffer
		err := run(&out, []string{"--seed", "1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--seed is fixed")
	})

	t.Run("DefaultsFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "train.toml")
		require.NoError(t, os.WriteFile(path, []byte("epochs = 4\n\n[data]\nbatch_size = 64\n"), 0644))

		var out bytes.Buffer
		require.NoError(t, run(&out, []string{"ds", "--defaults", path}))
		assert.Contains(t, out.String(), "epochs = 4\n")
		assert.Contains(t, out.String(), "data.batch_size = 64\n")
	})
}
