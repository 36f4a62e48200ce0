// FILE: lixenwraith/argtree/builder_test.go
package argtree

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buildDB struct {
	Host    string        `default:"localhost" help:"database host"`
	Port    int           `default:"5432"`
	Timeout time.Duration `default:"5s"`
}

type buildApp struct {
	Name  string `arg:"name,positional" help:"service name"`
	Debug bool
	DB    buildDB `arg:"db"`
	Token string  `arg:"token,fixed"`
}

type buildJob struct {
	Name   string
	Epochs int `default:"10"`
	Rate   float64
	DB     buildDB `arg:"db"`
}

func quietBuilder(buf *bytes.Buffer) *Builder {
	return NewBuilder().WithLogger(slog.New(slog.NewTextHandler(buf, nil)))
}

// TestBuilder tests schema construction from Go defaults
func TestBuilder(t *testing.T) {
	var logs bytes.Buffer

	t.Run("FromDefaults", func(t *testing.T) {
		s, err := quietBuilder(&logs).
			WithDefaults(buildApp{Name: "svc", DB: buildDB{Host: "db", Port: 5432, Timeout: time.Second}, Token: "t"}).
			WithArgs([]string{"api", "--db.port", "6543"}).
			Build()
		require.NoError(t, err)

		assert.Equal(t, []string{"name", "debug", "db.host", "db.port", "db.timeout", "token"}, leafNames(s.Tree.Root))
		assert.Equal(t, []string{"api", "--db.port", "6543"}, s.Args())

		res, err := s.Collect(s.Args())
		require.NoError(t, err)
		assert.Equal(t, "api", res.Values["name"])
		assert.Equal(t, 6543, res.Values["db.port"])
		assert.Equal(t, "db", res.Values["db.host"])
		assert.Equal(t, time.Second, res.Values["db.timeout"])
		assert.Equal(t, "t", res.Values["token"])
		assert.Equal(t, ".", res.Delimiter)
	})

	t.Run("NilPointerDefaults", func(t *testing.T) {
		s, err := quietBuilder(&logs).WithDefaults((*buildDB)(nil)).WithArgs(nil).Build()
		require.NoError(t, err)
		l, ok := s.Tree.Root.Leaf("port")
		require.True(t, ok)
		assert.Equal(t, 5432, l.Field.Default)
	})

	t.Run("ExplicitType", func(t *testing.T) {
		s, err := quietBuilder(&logs).WithType(lineRecord(pairRecord())).WithArgs(nil).Build()
		require.NoError(t, err)
		assert.Len(t, s.Parser.Required, 3)

		res, err := s.Collect([]string{"--point.a", "1", "--point.b", "2", "--label", "x"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Values["point.a"])
	})

	t.Run("NothingToBuild", func(t *testing.T) {
		_, err := quietBuilder(&logs).Build()
		assert.Error(t, err)
	})

	t.Run("Delimiter", func(t *testing.T) {
		s, err := quietBuilder(&logs).WithDefaults(buildApp{}).WithDelimiter("-").WithArgs(nil).Build()
		require.NoError(t, err)
		_, ok := s.Tree.Root.Leaf("db-port")
		assert.True(t, ok)

		res, err := s.Collect([]string{"svc", "--db-port", "1"})
		require.NoError(t, err)
		assert.Equal(t, "-", res.Delimiter)
		assert.True(t, res.Has("db"))

		_, err = quietBuilder(&logs).WithDefaults(buildApp{}).WithDelimiter("a b").Build()
		assert.Error(t, err)
	})

	t.Run("Docs", func(t *testing.T) {
		s, err := quietBuilder(&logs).
			WithType(lineRecord(pairRecord())).
			WithDocs(DocFunc(func(owner Type, field string) (string, bool) {
				return owner.TypeName() + "." + field, true
			})).
			Build()
		require.NoError(t, err)
		a, _ := s.Parser.Lookup("label")
		assert.Equal(t, "Line.label", a.Help)
		a, _ = s.Parser.Lookup("point.a")
		assert.Equal(t, "first", a.Help)
	})

	t.Run("Validator", func(t *testing.T) {
		errLow := errors.New("port too low")
		s, err := quietBuilder(&logs).
			WithDefaults(buildApp{DB: buildDB{Port: 5432}}).
			WithValidator(func(r *Result) error {
				port, err := r.Int64("db.port")
				if err != nil {
					return err
				}
				if port < 1024 {
					return errLow
				}
				return nil
			}).
			WithValidator(nil).
			Build()
		require.NoError(t, err)

		_, err = s.Collect([]string{"svc"})
		require.NoError(t, err)

		_, err = s.Collect([]string{"svc", "--db.port", "80"})
		assert.ErrorIs(t, err, errLow)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Decoder", func(t *testing.T) {
		dec := LeafDecoderFunc(func(f Field, raw []string) (any, error) { return len(raw), nil })
		res, err := quietBuilder(&logs).WithDefaults(buildApp{}).WithDecoder(dec).
			WithArgs([]string{"svc", "--db.host", "h"}).BuildAndCollect()
		require.NoError(t, err)
		assert.Equal(t, 1, res.Values["db.host"])
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() { quietBuilder(&logs).MustBuild() })
	})
}

// TestBuilderDefaultsFile tests defaults files and discovery
func TestBuilderDefaultsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.toml", "debug = true\nunknown = 1\n\n[db]\nport = 7000\n")

	t.Run("Explicit", func(t *testing.T) {
		var logs bytes.Buffer
		s, err := quietBuilder(&logs).WithDefaults(buildApp{DB: buildDB{Host: "h"}}).
			WithDefaultsFile(path).WithArgs([]string{"svc"}).Build()
		require.NoError(t, err)
		assert.Equal(t, path, s.File)

		res, err := s.Collect(s.Args())
		require.NoError(t, err)
		assert.Equal(t, 7000, res.Values["db.port"])
		assert.Equal(t, "h", res.Values["db.host"])
		assert.Equal(t, true, res.Values["debug"])

		require.Len(t, s.Tree.Warnings, 1)
		assert.Equal(t, "unknown", s.Tree.Warnings[0].Path)
		assert.Contains(t, logs.String(), "defaults file key does not match any argument")
	})

	t.Run("ExplicitMissing", func(t *testing.T) {
		var logs bytes.Buffer
		_, err := quietBuilder(&logs).WithDefaults(buildApp{}).
			WithDefaultsFile(filepath.Join(dir, "nope.toml")).Build()
		assert.ErrorIs(t, err, ErrDefaultsNotFound)
	})

	t.Run("DiscoveredByFlag", func(t *testing.T) {
		var logs bytes.Buffer
		opts := FileDiscoveryOptions{Name: "app", CLIFlag: "--defaults"}
		s, err := quietBuilder(&logs).WithDefaults(buildApp{}).
			WithFileDiscovery(opts).
			WithArgs([]string{"svc", "--defaults", path}).Build()
		require.NoError(t, err)
		assert.Equal(t, path, s.File)
		assert.Equal(t, []string{"svc"}, s.Args())
	})

	t.Run("DiscoveredInPath", func(t *testing.T) {
		var logs bytes.Buffer
		opts := FileDiscoveryOptions{Name: "app", Extensions: []string{".toml"}, Paths: []string{dir}}
		res, err := quietBuilder(&logs).WithDefaults(buildApp{}).
			WithFileDiscovery(opts).WithArgs([]string{"svc"}).BuildAndCollect()
		require.NoError(t, err)
		assert.Equal(t, 7000, res.Values["db.port"])
	})

	t.Run("DiscoveredButMissing", func(t *testing.T) {
		var logs bytes.Buffer
		t.Setenv("APP_DEFAULTS", filepath.Join(dir, "gone.toml"))
		opts := FileDiscoveryOptions{Name: "app", EnvVar: "APP_DEFAULTS"}
		s, err := quietBuilder(&logs).WithDefaults(buildApp{}).
			WithFileDiscovery(opts).WithArgs(nil).Build()
		require.NoError(t, err)
		assert.Empty(t, s.File)
		assert.Contains(t, logs.String(), "discovered defaults file is missing")
	})

	t.Run("DescriptorRecord", func(t *testing.T) {
		var logs bytes.Buffer
		pair := pairRecord()
		file := writeFile(t, dir, "pair.json", `{"a": 3}`)
		s, err := quietBuilder(&logs).WithType(pair).WithDefaults(NewInstance(pair, "b", 4)).
			WithDefaultsFile(file).Build()
		require.NoError(t, err)

		res, err := s.Collect(nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Values["a"])
		assert.Equal(t, 4, res.Values["b"])
	})

	t.Run("FileWithoutDefaultInstance", func(t *testing.T) {
		var logs bytes.Buffer
		file := writeFile(t, dir, "job.toml", "rate = 0.5\n\n[db]\nport = 7000\n")

		bare, err := quietBuilder(&logs).WithDefaults((*buildJob)(nil)).WithArgs(nil).Build()
		require.NoError(t, err)
		s, err := quietBuilder(&logs).WithDefaults((*buildJob)(nil)).
			WithDefaultsFile(file).WithArgs(nil).Build()
		require.NoError(t, err)
		assert.Equal(t, file, s.File)
		assert.Empty(t, s.Tree.Warnings)

		for _, name := range []string{"name", "epochs", "db.host", "db.timeout"} {
			want, ok := bare.Parser.Lookup(name)
			require.True(t, ok, name)
			got, ok := s.Parser.Lookup(name)
			require.True(t, ok, name)
			assert.Equal(t, want.Default, got.Default, name)
			assert.Equal(t, want.Required, got.Required, name)
		}

		name, _ := s.Parser.Lookup("name")
		assert.True(t, name.Required)
		epochs, _ := s.Parser.Lookup("epochs")
		assert.Equal(t, 10, epochs.Default)
		rate, _ := s.Parser.Lookup("rate")
		assert.Equal(t, 0.5, rate.Default)
		port, _ := s.Parser.Lookup("db.port")
		assert.Equal(t, 7000, port.Default)

		_, err = s.Collect(nil)
		assert.Error(t, err)
		res, err := s.Collect([]string{"--name", "run"})
		require.NoError(t, err)
		assert.Equal(t, 10, res.Values["epochs"])
		assert.Equal(t, "localhost", res.Values["db.host"])
	})
}
