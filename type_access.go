// File: lixenwraith/argtree/type_access.go
package argtree

import (
	"fmt"
	"reflect"
	"strings"
)

// Get returns the value collected for a flattened leaf name.
func (r *Result) Get(name string) (any, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Subcommand returns the tag chosen for a subcommand group.
func (r *Result) Subcommand(group string) (string, bool) {
	tag, ok := r.Subcommands[group]
	return tag, ok
}

// Has reports whether any value was collected under the given prefix.
func (r *Result) Has(prefix string) bool {
	if _, ok := r.Values[prefix]; ok {
		return true
	}
	p := prefix + r.delim()
	for name := range r.Values {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// String retrieves a value converted to string.
func (r *Result) String(name string) (string, error) {
	return As[string](r, name)
}

// Int64 retrieves a value converted to int64.
func (r *Result) Int64(name string) (int64, error) {
	return As[int64](r, name)
}

// Bool retrieves a value converted to bool.
func (r *Result) Bool(name string) (bool, error) {
	return As[bool](r, name)
}

// Float64 retrieves a value converted to float64.
func (r *Result) Float64(name string) (float64, error) {
	return As[float64](r, name)
}

// As retrieves a collected value converted to T using weak typing, so "5",
// int64(5) and 5.0 all convert to an int.
func As[T any](r *Result, name string) (T, error) {
	var out T
	val, found := r.Values[name]
	if !found {
		return out, fmt.Errorf("no value for %s", name)
	}
	if val == nil {
		return out, fmt.Errorf("value for %s is nil, cannot convert to %T", name, out)
	}
	if v, ok := val.(T); ok {
		return v, nil
	}
	if err := decodeInto(val, &out, nil, ""); err != nil {
		return out, fmt.Errorf("cannot convert %T to %s for %s: %w", val, reflect.TypeFor[T](), name, err)
	}
	return out, nil
}

// Nested returns the collected values as a nested map keyed by path
// segment.
func (r *Result) Nested() map[string]any {
	nested := make(map[string]any)
	for name, v := range r.Values {
		setNestedValue(nested, name, r.delim(), v)
	}
	return nested
}

// Scan decodes the values under prefix into target, a non-nil pointer to a
// struct or map. Struct fields are matched by their arg tag name.
func (r *Result) Scan(prefix string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be a non-nil pointer, got %T", target)
	}

	var section any = r.Nested()
	if prefix != "" {
		for _, seg := range strings.Split(prefix, r.delim()) {
			m, ok := section.(map[string]any)
			if !ok {
				section = nil
				break
			}
			section = m[seg]
		}
	}
	if section == nil {
		section = map[string]any{}
	}
	if err := decodeInto(section, target, nil, ""); err != nil {
		return fmt.Errorf("scan of %q into %T failed: %w", prefix, target, err)
	}
	return nil
}

func (r *Result) delim() string {
	if r.Delimiter == "" {
		return "."
	}
	return r.Delimiter
}
