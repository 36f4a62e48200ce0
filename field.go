// File: lixenwraith/argtree/field.go
package argtree

// Field is a single named, typed argument candidate produced by
// decomposing a parent type.
type Field struct {
	// Name is the field name; after assembly it is the flattened path.
	Name    string
	Type    Type
	Default any
	Help    string
	Markers MarkerSet

	// CallName is the key used when handing the value back to the parent
	// constructor: a field name, a positional index or a mapping key.
	CallName any

	Arg        ArgConf
	Subcommand *SubcommandConf
}

// NewField builds a field, stripping annotations from typ into markers and
// argument configuration. A non-empty ArgConf name or help overrides name
// and help.
func NewField(name string, typ Type, def any, help string, callName any, markers ...Marker) (Field, error) {
	return makeField(name, typ, def, help, callName, Markers(markers...))
}

func makeField(name string, typ Type, def any, help string, callName any, markers MarkerSet) (Field, error) {
	inner, typMarkers, arg, sub := unwrapAnnotated(typ)
	f := Field{
		Name:       name,
		Type:       inner,
		Default:    def,
		Help:       help,
		Markers:    markers.Union(typMarkers),
		CallName:   callName,
		Subcommand: sub,
	}
	if arg != nil {
		f.Arg = *arg
		if arg.Name != "" {
			f.Name = arg.Name
		}
		if arg.Help != "" {
			f.Help = arg.Help
		}
	}
	if f.CallName == nil {
		f.CallName = name
	}
	if err := f.check(); err != nil {
		return Field{}, err
	}
	return f, nil
}

// check enforces that fixed or suppressed fields carry a usable default.
func (f Field) check() error {
	if !f.Markers.Has(Fixed) && !f.Markers.Has(Suppress) {
		return nil
	}
	if IsMissing(f.Default) {
		return resolveErrf(f.Name, f.Type, ErrFixedWithoutDefault, "markers %s", f.Markers)
	}
	return nil
}

// WithMarkers returns a copy of f with extra markers applied.
func (f Field) WithMarkers(m MarkerSet) (Field, error) {
	if m == 0 {
		return f, nil
	}
	f.Markers = f.Markers.Union(m)
	if err := f.check(); err != nil {
		return Field{}, err
	}
	return f, nil
}

// IsPositional reports whether the field is parsed positionally.
func (f Field) IsPositional() bool {
	return f.Markers.Has(Positional)
}

// IsPositionalCall reports whether the value is passed to the parent
// constructor by position.
func (f Field) IsPositionalCall() bool {
	return f.Markers.Has(positionalCall)
}

// IsFixed reports whether the value cannot be changed from the command line.
func (f Field) IsFixed() bool {
	return f.Markers.Has(Fixed) || f.Markers.Has(Suppress)
}

// IsRequired reports whether a value must be supplied.
func (f Field) IsRequired() bool {
	return IsMissing(f.Default) && !f.IsFixed()
}
