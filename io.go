// FILE: lixenwraith/argtree/io.go
package argtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveDefaults writes the root leaf defaults of the schema to path. The
// format follows the file extension and falls back to TOML. The file is
// replaced atomically.
func (s *Schema) SaveDefaults(path string) error {
	delim := s.resolver.Options().Delimiter
	var buf bytes.Buffer

	switch detectFileFormat(path) {
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(leafDefaults(s.Tree, delim)); err != nil {
			return fmt.Errorf("failed to marshal defaults to JSON: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		if err := enc.Encode(leafDefaults(s.Tree, delim)); err != nil {
			return fmt.Errorf("failed to marshal defaults to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to marshal defaults to YAML: %w", err)
		}
	default:
		if err := s.Tree.DumpDefaults(&buf, delim); err != nil {
			return fmt.Errorf("failed to marshal defaults to TOML: %w", err)
		}
	}
	return atomicWriteFile(path, buf.Bytes())
}

// leafDefaults nests the concrete root leaf defaults by path segment.
func leafDefaults(t *Tree, delim string) map[string]any {
	nested := make(map[string]any)
	for _, l := range t.Root.Leaves() {
		if isConcrete(l.Field.Default) {
			setNestedValue(nested, l.Field.Name, delim, l.Field.Default)
		}
	}
	return nested
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
