// FILE: lixenwraith/argtree/collect_test.go
package argtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandParser(t *testing.T, opt bool, def func(one, two *Record) any) *ParserSpec {
	t.Helper()
	one, two := commandRecords()
	one.Frozen, two.Frozen = true, true
	arms := []Type{one, two}
	if opt {
		arms = append(arms, Null)
	}
	f := RecordField{Name: "command", Type: &Union{Arms: arms}}
	if def != nil {
		f.Default, f.HasDefault = def(one, two), true
	}
	root := &Record{Name: "Root", Fields: []RecordField{
		{Name: "verbose", Type: Bool, Default: false, HasDefault: true},
		f,
	}}
	tree, err := quietResolver().Assemble(root, MissingNonProp)
	require.NoError(t, err)
	return BuildParser(tree)
}

// TestCollectSubcommands tests dispatch into subcommand variants
func TestCollectSubcommands(t *testing.T) {
	t.Run("ChosenVariantOnly", func(t *testing.T) {
		p := commandParser(t, false, nil)
		res, err := p.Collect([]string{"CommandOne", "--command.a", "5"}, nil)
		require.NoError(t, err)

		assert.Equal(t, 5, res.Values["command.a"])
		assert.NotContains(t, res.Values, "command.b")
		assert.Equal(t, "CommandOne", res.Subcommands["command"])
		assert.Equal(t, false, res.Values["verbose"])
		assert.True(t, res.Explicit["command.a"])
		assert.False(t, res.Explicit["verbose"])
	})

	t.Run("ParentFlagsBeforeSubcommand", func(t *testing.T) {
		p := commandParser(t, false, nil)
		res, err := p.Collect([]string{"--verbose", "CommandTwo", "--command.b=7"}, nil)
		require.NoError(t, err)
		assert.Equal(t, true, res.Values["verbose"])
		assert.Equal(t, 7, res.Values["command.b"])
	})

	t.Run("MissingRequiredSubcommand", func(t *testing.T) {
		p := commandParser(t, false, nil)
		_, err := p.Collect(nil, nil)
		assert.ErrorIs(t, err, ErrMissingSubcommand)
	})

	t.Run("OptionalSubcommandOmitted", func(t *testing.T) {
		p := commandParser(t, true, nil)
		res, err := p.Collect([]string{}, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Subcommands)
	})

	t.Run("DefaultSubcommand", func(t *testing.T) {
		p := commandParser(t, false, func(one, two *Record) any { return NewInstance(two, "b", 9) })
		res, err := p.Collect(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "CommandTwo", res.Subcommands["command"])
		assert.Equal(t, 9, res.Values["command.b"])
	})

	t.Run("MissingVariantArgument", func(t *testing.T) {
		p := commandParser(t, false, nil)
		_, err := p.Collect([]string{"CommandOne"}, nil)
		assert.ErrorIs(t, err, ErrMissingArgument)
		assert.Contains(t, err.Error(), "--command.a")
	})

	t.Run("UnknownSubcommand", func(t *testing.T) {
		p := commandParser(t, false, nil)
		_, err := p.Collect([]string{"CommandThree"}, nil)
		assert.ErrorIs(t, err, ErrUnknownArgument)
	})

	t.Run("HelpInsideVariant", func(t *testing.T) {
		p := commandParser(t, false, nil)
		_, err := p.Collect([]string{"CommandOne", "--help"}, nil)
		assert.ErrorIs(t, err, ErrHelp)

		var he *HelpError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, "CommandOne", he.Parser.Name)
	})
}

// TestCollectArguments tests flag forms, positionals and decoding
func TestCollectArguments(t *testing.T) {
	tree, err := quietResolver().Assemble(serveRecord(), MissingNonProp)
	require.NoError(t, err)
	p := BuildParser(tree)

	t.Run("AllForms", func(t *testing.T) {
		res, err := p.Collect([]string{
			"conf.toml", "--name", "bob", "--port=9000", "--debug",
			"--strict", "false", "--tags", "x", "y",
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, "conf.toml", res.Values["config_path"])
		assert.Equal(t, "bob", res.Values["name"])
		assert.Equal(t, 9000, res.Values["port"])
		assert.Equal(t, true, res.Values["debug"])
		assert.Equal(t, false, res.Values["strict"])
		assert.Equal(t, []string{"x", "y"}, res.Values["tags"])
		assert.Equal(t, "1.0", res.Values["version"])
		assert.Equal(t, "x", res.Values["secret"])
	})

	t.Run("DashSeparatedFlag", func(t *testing.T) {
		tree, err := quietResolver().Assemble(&Record{Name: "R", Fields: []RecordField{
			{Name: "max_count", Type: Int, Default: 1, HasDefault: true},
		}}, MissingNonProp)
		require.NoError(t, err)

		res, err := BuildParser(tree).Collect([]string{"--max-count", "3"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Values["max_count"])

		res, err = BuildParser(tree).Collect([]string{"--max_count", "4"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Values["max_count"])
	})

	t.Run("LastValueWins", func(t *testing.T) {
		res, err := p.Collect([]string{"c", "--name", "a", "--port", "1", "--port", "2"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Values["port"])
	})

	t.Run("MissingRequired", func(t *testing.T) {
		_, err := p.Collect([]string{"conf.toml"}, nil)
		assert.ErrorIs(t, err, ErrMissingArgument)
		assert.Contains(t, err.Error(), "--name")
	})

	t.Run("FixedCannotBeSet", func(t *testing.T) {
		_, err := p.Collect([]string{"c", "--name", "n", "--version", "2"}, nil)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("UnknownFlag", func(t *testing.T) {
		_, err := p.Collect([]string{"c", "--name", "n", "--nope", "1"}, nil)
		assert.ErrorIs(t, err, ErrUnknownArgument)
	})

	t.Run("MissingValue", func(t *testing.T) {
		_, err := p.Collect([]string{"c", "--name"}, nil)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("BadValue", func(t *testing.T) {
		_, err := p.Collect([]string{"c", "--name", "n", "--port", "eighty"}, nil)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("Help", func(t *testing.T) {
		_, err := p.Collect([]string{"-h"}, nil)
		var he *HelpError
		require.ErrorAs(t, err, &he)
		assert.Same(t, p, he.Parser)
	})

	t.Run("CustomDecoder", func(t *testing.T) {
		upper := LeafDecoderFunc(func(f Field, raw []string) (any, error) {
			return "decoded:" + raw[len(raw)-1], nil
		})
		res, err := p.Collect([]string{"c", "--name", "n"}, upper)
		require.NoError(t, err)
		assert.Equal(t, "decoded:n", res.Values["name"])
	})
}

// TestCollectPartial tests that excluded fields stay out of the result
func TestCollectPartial(t *testing.T) {
	rec := &Record{Name: "Opts", Partial: true, Fields: []RecordField{
		{Name: "x", Type: Int},
		{Name: "y", Type: String},
	}}
	tree, err := quietResolver().Assemble(rec, MissingNonProp)
	require.NoError(t, err)

	res, err := BuildParser(tree).Collect([]string{"--x", "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, res.Values)
}
