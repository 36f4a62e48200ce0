// File: lixenwraith/argtree/builder.go
package argtree

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// ValidatorFunc checks a collected result. It runs after every successful
// collection.
type ValidatorFunc func(r *Result) error

// Builder provides a fluent interface for building a Schema.
type Builder struct {
	opts       Options
	typ        Type
	defaults   any
	name       string
	file       string
	discovery  *FileDiscoveryOptions
	load       LoadOptions
	args       []string
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a builder reading os.Args[1:].
func NewBuilder() *Builder {
	return &Builder{
		args: os.Args[1:],
		load: LoadOptions{Format: "auto"},
	}
}

// WithType sets an explicit type descriptor. Without it the type is
// reflected from the defaults.
func (b *Builder) WithType(t Type) *Builder {
	b.typ = t
	return b
}

// WithDefaults sets the default instance: a Go struct value or pointer, or
// an *Instance for descriptor-built records.
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithName sets the program name shown in help.
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithDefaultsFile sets a TOML, JSON or YAML file whose values override the
// default instance.
func (b *Builder) WithDefaultsFile(path string) *Builder {
	b.file = path
	return b
}

// WithFileDiscovery searches for a defaults file when none was set.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = &opts
	return b
}

// WithLoadOptions sets how the defaults file is read.
func (b *Builder) WithLoadOptions(opts LoadOptions) *Builder {
	b.load = opts
	return b
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithDelimiter sets the separator between nested names.
func (b *Builder) WithDelimiter(delim string) *Builder {
	if delim == "" || strings.ContainsAny(delim, " =") {
		b.err = fmt.Errorf("invalid delimiter %q", delim)
		return b
	}
	b.opts.Delimiter = delim
	return b
}

// WithLogger sets the logger for warnings and debug traces.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// WithDocs sets the documentation lookup for fields without help tags.
func (b *Builder) WithDocs(docs DocLookup) *Builder {
	b.opts.Docs = docs
	return b
}

// WithDecoder replaces the leaf decoder.
func (b *Builder) WithDecoder(dec LeafDecoder) *Builder {
	b.opts.Decoder = dec
	return b
}

// WithReflector shares a reflector, e.g. one with registered unions.
func (b *Builder) WithReflector(r *Reflector) *Builder {
	b.opts.Reflector = r
	return b
}

// WithValidator adds a validation function run after collection. Multiple
// validators run in the order they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build resolves the type into a Schema. A missing defaults file found by
// discovery is not an error.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}

	resolver := NewResolver(b.opts)
	opts := resolver.Options()

	typ, def := b.typ, b.defaults
	if typ == nil {
		if def == nil {
			return nil, errors.New("builder needs a type or a default instance")
		}
		var err error
		if typ, def, err = opts.Reflector.Of(def); err != nil {
			return nil, fmt.Errorf("failed to reflect defaults: %w", err)
		}
	} else if def == nil {
		def = MissingNonProp
	}

	args := b.args
	file := b.file
	if file == "" && b.discovery != nil {
		var found bool
		if file, args, found = discoverFile(*b.discovery, args); !found {
			opts.Logger.Debug("no defaults file discovered", "name", b.discovery.Name)
		}
	}

	var (
		fileData map[string]any
		applied  string
	)
	if file != "" {
		data, err := ReadDefaultsFile(file, b.load)
		switch {
		case errors.Is(err, ErrDefaultsNotFound) && b.file == "":
			opts.Logger.Warn("discovered defaults file is missing", "path", file)
		case err != nil:
			return nil, err
		default:
			if def, err = OverlayDefaults(typ, def, data); err != nil {
				return nil, err
			}
			fileData, applied = data, file
		}
	}

	tree, err := resolver.Assemble(typ, def)
	if err != nil {
		return nil, err
	}
	if fileData != nil {
		for _, key := range unknownKeys(fileData, tree.Roles, opts.Delimiter) {
			w := Warning{Path: key, Message: "defaults file key does not match any argument"}
			opts.Logger.Warn(w.Message, "path", key, "file", file)
			tree.Warnings = append(tree.Warnings, w)
		}
	}

	parser := BuildParser(tree)
	parser.Name = b.name

	return &Schema{
		Type:       typ,
		Default:    def,
		Tree:       tree,
		Parser:     parser,
		File:       applied,
		args:       args,
		resolver:   resolver,
		validators: b.validators,
	}, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("argtree build failed: %v", err))
	}
	return s
}

// BuildAndCollect builds the schema and collects the builder's arguments.
func (b *Builder) BuildAndCollect() (*Result, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return s.Collect(s.args)
}

// Schema is a resolved type ready to collect command lines.
type Schema struct {
	Type    Type
	Default any
	Tree    *Tree
	Parser  *ParserSpec
	// File is the defaults file that was applied, if any.
	File string

	args       []string
	resolver   *Resolver
	validators []ValidatorFunc
}

// Args returns the arguments the schema was built with, minus any
// discovery flag.
func (s *Schema) Args() []string {
	return s.args
}

// Collect parses args against the schema and runs the validators.
func (s *Schema) Collect(args []string) (*Result, error) {
	opts := s.resolver.Options()
	res, err := s.Parser.Collect(args, opts.Decoder)
	if err != nil {
		return nil, err
	}
	res.Delimiter = opts.Delimiter
	for _, validator := range s.validators {
		if err := validator(res); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}
	return res, nil
}

// Help renders the root help listing.
func (s *Schema) Help() string {
	return s.Parser.Format()
}

// unknownKeys lists flattened file keys that name no argument path.
func unknownKeys(data map[string]any, roles map[string]Role, delim string) []string {
	var unknown []string
	for key := range flattenMap(data, "", delim) {
		if _, ok := roles[key]; ok {
			continue
		}
		// A table default for a leaf, such as a mapping, flattens below it.
		matched := false
		for p := key; !matched; {
			i := strings.LastIndex(p, delim)
			if i < 0 {
				break
			}
			p = p[:i]
			_, matched = roles[p]
		}
		if !matched {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}
