// FILE: lixenwraith/argtree/discovery.go
package argtree

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures automatic defaults file discovery
type FileDiscoveryOptions struct {
	// Base name of the defaults file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable holding an explicit path
	EnvVar string

	// CLI flag holding an explicit path, e.g. "--defaults". The flag and
	// its value are removed from the arguments before collection.
	CLIFlag string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns the usual discovery settings for an app.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_DEFAULTS",
		CLIFlag:       "--defaults",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// discoverFile finds a defaults file. It returns the path, the arguments
// with the CLI flag removed, and whether a file was found.
func discoverFile(opts FileDiscoveryOptions, args []string) (string, []string, bool) {
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				rest := append(append([]string(nil), args[:i]...), args[i+2:]...)
				return args[i+1], rest, true
			}
			if value, ok := strings.CutPrefix(arg, opts.CLIFlag+"="); ok {
				rest := append(append([]string(nil), args[:i]...), args[i+1:]...)
				return value, rest, true
			}
		}
	}

	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path, args, true
		}
	}

	searchPaths := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}
	if opts.UseXDG {
		searchPaths = append(searchPaths, xdgConfigPaths(opts.Name)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, args, true
			}
		}
	}
	return "", args, false
}

// xdgConfigPaths returns XDG-compliant search paths
func xdgConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths, filepath.Join("/etc/xdg", appName))
	}
	return paths
}
