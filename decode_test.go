// FILE: lixenwraith/argtree/decode_test.go
package argtree

import (
	"net"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLeafDecoder tests decoding of collected tokens into leaf values
func TestLeafDecoder(t *testing.T) {
	dec := NewLeafDecoder()
	r := NewReflector()
	typeOf := func(rt reflect.Type) Type {
		t.Helper()
		typ, err := r.TypeOf(rt)
		require.NoError(t, err)
		return typ
	}

	t.Run("Scalars", func(t *testing.T) {
		tests := []struct {
			name string
			typ  Type
			raw  []string
			want any
		}{
			{"Int", Int, []string{"42"}, 42},
			{"Int64", Int64, []string{"-7"}, int64(-7)},
			{"Float", Float, []string{"2.5"}, 2.5},
			{"Bool", Bool, []string{"true"}, true},
			{"String", String, []string{"hello"}, "hello"},
			{"LastWins", Int, []string{"1", "2"}, 2},
			{"Duration", Duration, []string{"1m30s"}, 90 * time.Second},
			{"Uint8", typeOf(reflect.TypeFor[uint8]()), []string{"255"}, uint8(255)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v, err := dec.Decode(Field{Name: tt.name, Type: tt.typ}, tt.raw)
				require.NoError(t, err)
				assert.Equal(t, tt.want, v)
			})
		}
	})

	t.Run("NetworkTypes", func(t *testing.T) {
		v, err := dec.Decode(Field{Name: "ip", Type: typeOf(reflect.TypeFor[net.IP]())}, []string{"10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, net.ParseIP("10.0.0.1"), v)

		v, err = dec.Decode(Field{Name: "cidr", Type: typeOf(reflect.TypeFor[net.IPNet]())}, []string{"10.0.0.0/8"})
		require.NoError(t, err)
		ipnet, ok := v.(net.IPNet)
		require.True(t, ok)
		assert.Equal(t, "10.0.0.0/8", ipnet.String())

		v, err = dec.Decode(Field{Name: "url", Type: typeOf(reflect.TypeFor[url.URL]())}, []string{"https://example.com/path"})
		require.NoError(t, err)
		u, ok := v.(url.URL)
		require.True(t, ok)
		assert.Equal(t, "example.com", u.Host)

		_, err = dec.Decode(Field{Name: "ip", Type: typeOf(reflect.TypeFor[net.IP]())}, []string{"not-an-ip"})
		assert.ErrorIs(t, err, ErrInvalidValue)

		_, err = dec.Decode(Field{Name: "ip", Type: typeOf(reflect.TypeFor[net.IP]())}, []string{strings.Repeat("1", 64)})
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("Sequences", func(t *testing.T) {
		v, err := dec.Decode(Field{Name: "ns", Type: &Sequence{Elem: Int}}, []string{"1", "2", "3"})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, v)

		v, err = dec.Decode(Field{Name: "pt", Type: &Tuple{Elems: []Type{Float, Float}}}, []string{"0.5", "1.5"})
		require.NoError(t, err)
		assert.Equal(t, [2]float64{0.5, 1.5}, v)

		_, err = dec.Decode(Field{Name: "pt", Type: &Tuple{Elems: []Type{Float, Float}}}, []string{"0.5"})
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("NoGoType", func(t *testing.T) {
		custom := &Primitive{Name: "custom"}
		v, err := dec.Decode(Field{Name: "c", Type: custom}, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, "b", v)

		v, err = dec.Decode(Field{Name: "cs", Type: &Sequence{Elem: custom}}, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)

		v, err = dec.Decode(Field{Name: "mixed", Type: &Tuple{Elems: []Type{Int, String}}}, []string{"1", "x"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "x"}, v)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := dec.Decode(Field{Name: "n", Type: Int}, []string{"many"})
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Contains(t, err.Error(), "n")

		_, err = dec.Decode(Field{Name: "n", Type: Int}, nil)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("ExtraHook", func(t *testing.T) {
		many := mapstructure.DecodeHookFuncKind(func(f, to reflect.Kind, data any) (any, error) {
			if f == reflect.String && to == reflect.Int && data == "many" {
				return 100, nil
			}
			return data, nil
		})
		v, err := NewLeafDecoder(many).Decode(Field{Name: "n", Type: Int}, []string{"many"})
		require.NoError(t, err)
		assert.Equal(t, 100, v)
	})
}

// TestDecodeInto tests struct decoding through arg tags and snake_case names
func TestDecodeInto(t *testing.T) {
	type target struct {
		BatchSize int    `arg:"batch"`
		MaxDepth  int
		Label     string
		Timeout   time.Duration
	}

	var out target
	err := decodeInto(map[string]any{
		"batch":     "8",
		"max_depth": int64(3),
		"LABEL":     "x",
		"timeout":   "5s",
	}, &out, nil, "")
	require.NoError(t, err)
	assert.Equal(t, target{BatchSize: 8, MaxDepth: 3, Label: "x", Timeout: 5 * time.Second}, out)
}
