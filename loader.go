// FILE: lixenwraith/argtree/loader.go
package argtree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrDefaultsNotFound is returned when a defaults file does not exist.
var ErrDefaultsNotFound = errors.New("defaults file not found")

// LoadOptions configures how a defaults file is read.
type LoadOptions struct {
	// Format is "toml", "json", "yaml" or "auto" (the default).
	Format string
	// MaxFileSize rejects larger files when positive.
	MaxFileSize int64
}

// ReadDefaultsFile reads a TOML, JSON or YAML file into a nested map.
func ReadDefaultsFile(path string, opts LoadOptions) (map[string]any, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDefaultsNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat defaults file '%s': %w", path, err)
	}
	if opts.MaxFileSize > 0 && fileInfo.Size() > opts.MaxFileSize {
		return nil, fmt.Errorf("defaults file '%s' exceeds maximum size %d bytes", path, opts.MaxFileSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open defaults file '%s': %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if opts.MaxFileSize > 0 {
		reader = io.LimitReader(file, opts.MaxFileSize)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults file '%s': %w", path, err)
	}

	format := opts.Format
	if format == "" || format == "auto" {
		format = detectFileFormat(path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
	}
	return parseDefaults(data, format, path)
}

func parseDefaults(data []byte, format, path string) (map[string]any, error) {
	out := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to parse TOML defaults file '%s': %w", path, err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to parse JSON defaults file '%s': %w", path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to parse YAML defaults file '%s': %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unable to determine format of defaults file '%s'", path)
	}
	return out, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// detectFormatFromContent tries the formats from strictest to loosest. Only
// a JSON object counts as JSON, since a bare scalar is also valid YAML.
func detectFormatFromContent(data []byte) string {
	if gjson.ValidBytes(data) && gjson.ParseBytes(data).IsObject() {
		return "json"
	}
	var probe any
	if err := toml.Unmarshal(data, &probe); err == nil {
		return "toml"
	}
	if err := yaml.Unmarshal(data, &probe); err == nil {
		return "yaml"
	}
	return ""
}

// OverlayDefaults returns a new default instance for record type t: def
// with the values in data applied on top. A reflected record with a struct
// default produces a Go value of that struct type. Otherwise the result is an
// *Instance, sparse when def is not an instance. def is left unmodified.
func OverlayDefaults(t Type, def any, data map[string]any) (any, error) {
	rec, ok := originRecord(t)
	if !ok {
		return nil, fmt.Errorf("%w: defaults can only be loaded for records, got %s", ErrUnsupportedType, typeName(t))
	}
	if rec.Go != nil && isConcrete(def) && !isNilPointer(def) {
		return overlayStruct(rec, def, data)
	}
	return overlayInstance(rec, def, data)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func overlayStruct(rec *Record, def any, data map[string]any) (any, error) {
	out := reflect.New(rec.Go)
	dv := reflect.ValueOf(def)
	for dv.Kind() == reflect.Pointer && !dv.IsNil() {
		dv = dv.Elem()
	}
	if dv.Type() != rec.Go {
		return nil, fmt.Errorf("default of type %T does not match record %s", def, rec.Name)
	}
	out.Elem().Set(dv)
	if err := decodeInto(data, out.Interface(), nil, ""); err != nil {
		return nil, fmt.Errorf("failed to apply defaults to %s: %w", rec.Name, err)
	}
	return out.Elem().Interface(), nil
}

// overlayInstance sets the supplied keys on a copy of def. Without a base
// instance the result is sparse, so unsupplied fields keep their declared
// defaults or stay required.
func overlayInstance(rec *Record, def any, data map[string]any) (*Instance, error) {
	inst := NewInstance(rec)
	inst.Sparse = true
	if base, ok := def.(*Instance); ok && base != nil && base.Type == rec {
		for k, v := range base.Values {
			inst.Values[k] = v
		}
		inst.Sparse = base.Sparse
	}
	for _, rf := range rec.Fields {
		v, ok := data[rf.Name]
		if !ok {
			continue
		}
		if child, isRec := originRecord(rf.Type); isRec {
			sub, isMap := v.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("defaults for %s.%s must be a table, got %T", rec.Name, rf.Name, v)
			}
			var childDef any = rf.Default
			if cur, ok := inst.Values[rf.Name]; ok {
				childDef = cur
			}
			nested, err := OverlayDefaults(child, childDef, sub)
			if err != nil {
				return nil, err
			}
			inst.Values[rf.Name] = nested
			continue
		}
		if gt := goType(rf.Type); gt != nil {
			decoded, err := decodeValue(v, gt, nil)
			if err != nil {
				return nil, fmt.Errorf("invalid default for %s.%s: %w", rec.Name, rf.Name, err)
			}
			v = decoded
		}
		inst.Values[rf.Name] = v
	}
	return inst, nil
}
