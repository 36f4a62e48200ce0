// FILE: lixenwraith/argtree/decode.go
package argtree

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// LeafDecoder converts the raw tokens collected for a leaf into a value of
// the leaf's type.
type LeafDecoder interface {
	Decode(f Field, raw []string) (any, error)
}

// LeafDecoderFunc adapts a function to LeafDecoder.
type LeafDecoderFunc func(f Field, raw []string) (any, error)

func (fn LeafDecoderFunc) Decode(f Field, raw []string) (any, error) {
	return fn(f, raw)
}

// mapDecoder decodes leaves with mapstructure using weak typing.
type mapDecoder struct {
	hook mapstructure.DecodeHookFunc
}

// NewLeafDecoder returns the default mapstructure based decoder. Extra hooks
// run after the built-in ones.
func NewLeafDecoder(hooks ...mapstructure.DecodeHookFunc) LeafDecoder {
	return &mapDecoder{hook: decodeHook(hooks...)}
}

func (d *mapDecoder) Decode(f Field, raw []string) (any, error) {
	gt := goType(f.Type)
	multi := isMultiValue(f.Type)
	if gt == nil {
		// No Go type to target; hand back the tokens.
		if multi {
			return append([]string(nil), raw...), nil
		}
		if len(raw) == 0 {
			return "", nil
		}
		return raw[len(raw)-1], nil
	}

	var input any
	switch {
	case multi && gt.Kind() == reflect.Array && len(raw) != gt.Len():
		return nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrInvalidValue, f.Name, gt.Len(), len(raw))
	case multi:
		input = raw
	case len(raw) == 0:
		return nil, fmt.Errorf("%w: %s expects a value", ErrInvalidValue, f.Name)
	default:
		input = raw[len(raw)-1]
	}

	v, err := decodeValue(input, gt, d.hook)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Name, err)
	}
	return v, nil
}

// decodeValue decodes input into a fresh value of type gt.
func decodeValue(input any, gt reflect.Type, hook mapstructure.DecodeHookFunc) (any, error) {
	out := reflect.New(gt)
	if err := decodeInto(input, out.Interface(), hook, ""); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

// decodeInto decodes input into target, a non-nil pointer. Struct fields
// are matched through the arg tag, then by snake_case name.
func decodeInto(input any, target any, hook mapstructure.DecodeHookFunc, tagName string) error {
	if hook == nil {
		hook = decodeHook()
	}
	if tagName == "" {
		tagName = argTag
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       hook,
		MatchName: func(mapKey, fieldName string) bool {
			return strings.EqualFold(mapKey, fieldName) || mapKey == snakeCase(fieldName)
		},
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder.Decode(input)
}

// decodeHook composes the conversions used for every decode.
func decodeHook(extra ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFunc {
	hooks := []mapstructure.DecodeHookFunc{
		stringToTypeHook(reflect.TypeOf(net.IP{}), 45, parseIP),
		stringToTypeHook(reflect.TypeOf(net.IPNet{}), 49, parseCIDR),
		stringToTypeHook(reflect.TypeOf(url.URL{}), 2048, parseURL),

		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}
	return mapstructure.ComposeDecodeHookFunc(append(hooks, extra...)...)
}

// stringToTypeHook converts strings into target, or a pointer to it, using
// parse. Inputs longer than maxLen are rejected before parsing.
func stringToTypeHook(target reflect.Type, maxLen int, parse func(string) (any, error)) mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		if isPtr {
			t = t.Elem()
		}
		if t != target {
			return data, nil
		}

		str := data.(string)
		if len(str) > maxLen {
			return nil, fmt.Errorf("%s input too long: %d", target, len(str))
		}
		v, err := parse(str)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if isPtr {
			p := reflect.New(target)
			p.Elem().Set(rv)
			return p.Interface(), nil
		}
		return v, nil
	}
}

func parseIP(s string) (any, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", s)
	}
	return ip, nil
}

func parseCIDR(s string) (any, error) {
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %w", err)
	}
	return *ipnet, nil
}

func parseURL(s string) (any, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	return *u, nil
}
