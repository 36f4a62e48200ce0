// FILE: lixenwraith/argtree/discovery_test.go
package argtree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDiscoverFile tests the defaults file search order
func TestDiscoverFile(t *testing.T) {
	dir := t.TempDir()
	opts := FileDiscoveryOptions{
		Name:       "app",
		Extensions: []string{".toml", ".yaml"},
		Paths:      []string{dir},
		EnvVar:     "APP_DEFAULTS",
		CLIFlag:    "--defaults",
	}

	t.Run("CLIFlag", func(t *testing.T) {
		path, rest, found := discoverFile(opts, []string{"run", "--defaults", "x.toml", "--n", "1"})
		assert.True(t, found)
		assert.Equal(t, "x.toml", path)
		assert.Equal(t, []string{"run", "--n", "1"}, rest)
	})

	t.Run("CLIFlagEquals", func(t *testing.T) {
		path, rest, found := discoverFile(opts, []string{"--defaults=y.json", "run"})
		assert.True(t, found)
		assert.Equal(t, "y.json", path)
		assert.Equal(t, []string{"run"}, rest)
	})

	t.Run("EnvVar", func(t *testing.T) {
		t.Setenv("APP_DEFAULTS", "/from/env.toml")
		path, rest, found := discoverFile(opts, []string{"run"})
		assert.True(t, found)
		assert.Equal(t, "/from/env.toml", path)
		assert.Equal(t, []string{"run"}, rest)
	})

	t.Run("SearchPaths", func(t *testing.T) {
		t.Setenv("APP_DEFAULTS", "")
		want := writeFile(t, dir, "app.yaml", "a: 1\n")
		path, _, found := discoverFile(opts, nil)
		assert.True(t, found)
		assert.Equal(t, want, path)
	})

	t.Run("ExtensionOrder", func(t *testing.T) {
		t.Setenv("APP_DEFAULTS", "")
		other := t.TempDir()
		writeFile(t, other, "app.yaml", "a: 1\n")
		want := writeFile(t, other, "app.toml", "a = 1\n")
		o := opts
		o.Paths = []string{other}
		path, _, found := discoverFile(o, nil)
		assert.True(t, found)
		assert.Equal(t, want, path)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Setenv("APP_DEFAULTS", "")
		o := opts
		o.Paths = []string{t.TempDir()}
		_, rest, found := discoverFile(o, []string{"a"})
		assert.False(t, found)
		assert.Equal(t, []string{"a"}, rest)
	})
}

// TestDiscoveryDefaults tests the default discovery settings
func TestDiscoveryDefaults(t *testing.T) {
	opts := DefaultDiscoveryOptions("train")
	assert.Equal(t, "TRAIN_DEFAULTS", opts.EnvVar)
	assert.Equal(t, "--defaults", opts.CLIFlag)
	assert.Equal(t, ".toml", opts.Extensions[0])
	assert.True(t, opts.UseXDG)

	t.Run("XDGPaths", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/xdg/home")
		t.Setenv("XDG_CONFIG_DIRS", "/xdg/a"+string(filepath.ListSeparator)+"/xdg/b")
		assert.Equal(t, []string{"/xdg/home/train", "/xdg/a/train", "/xdg/b/train"}, xdgConfigPaths("train"))
	})

	t.Run("XDGFallback", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_CONFIG_DIRS", "")
		t.Setenv("HOME", "/home/u")
		assert.Equal(t, []string{"/home/u/.config/train", "/etc/xdg/train"}, xdgConfigPaths("train"))
	})
}
