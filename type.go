// File: lixenwraith/argtree/type.go
package argtree

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Type is a structural type descriptor. The set of implementations is closed:
// *Primitive, *Record, *Tuple, *Sequence, *Mapping, *Union, *Callable,
// *TypeParam, *Generic, *Annotated and *Ref.
type Type interface {
	// TypeName returns a human readable name used in errors and help.
	TypeName() string
	isType()
}

// Primitive is a scalar type that is always parsed directly as a leaf.
type Primitive struct {
	Name string
	// Go is the Go type leaf values decode into. May be nil.
	Go reflect.Type
}

// Predefined primitives for hand-built descriptors.
var (
	Bool     = &Primitive{Name: "bool", Go: reflect.TypeFor[bool]()}
	Int      = &Primitive{Name: "int", Go: reflect.TypeFor[int]()}
	Int64    = &Primitive{Name: "int64", Go: reflect.TypeFor[int64]()}
	Float    = &Primitive{Name: "float64", Go: reflect.TypeFor[float64]()}
	String   = &Primitive{Name: "string", Go: reflect.TypeFor[string]()}
	Duration = &Primitive{Name: "duration", Go: reflect.TypeFor[time.Duration]()}

	// Null is the empty arm of an optional union.
	Null = &Primitive{Name: "null"}
)

// Record is a type with a fixed, ordered set of named and typed fields.
type Record struct {
	Name       string
	Doc        string
	TypeParams []*TypeParam
	Fields     []RecordField

	// Frozen records are immutable, so sharing an instance as a default is safe.
	Frozen bool
	// Partial records leave unsupplied fields out of construction.
	Partial bool

	// Go is the struct type the record was reflected from, if any.
	Go reflect.Type
}

// RecordField is a declared field of a Record.
type RecordField struct {
	Name string
	// GoName is the struct field name used for attribute lookup on Go
	// default instances. Empty for descriptor-built records.
	GoName string
	Type   Type
	Help   string

	// Default is only consulted when HasDefault is set, so nil is a valid
	// declared default.
	Default    any
	HasDefault bool

	// Factory produces a default when no plain default is declared. When
	// FactoryOf is the field's own type the factory is ignored and the
	// nested fields resolve their own defaults.
	Factory   func() any
	FactoryOf Type

	Markers MarkerSet
	Arg     *ArgConf
}

// Tuple is a fixed-length ordered container. Elems may be nil when the
// element types are to be inferred from a default. A Variadic tuple has a
// single element type and behaves like a Sequence.
type Tuple struct {
	Elems    []Type
	Variadic bool
}

// Sequence is a variable-length homogeneous container. Elem may be nil when
// it is to be inferred from a default.
type Sequence struct {
	Elem Type
}

// Mapping is a key/value container.
type Mapping struct {
	Key   Type
	Value Type
}

// Union is a tagged union over its arms, in declaration order. Null may
// appear as an arm to mark the union optional.
type Union struct {
	Arms []Type
}

// ParamKind is how a callable parameter may be passed.
type ParamKind int

const (
	PositionalOrKeyword ParamKind = iota
	PositionalOnly
	KeywordOnly
)

// Param is one parameter of a Callable. A nil Type means the parameter is
// unannotated.
type Param struct {
	Name       string
	Type       Type
	Kind       ParamKind
	Help       string
	Default    any
	HasDefault bool
}

// Callable is a reflected function signature.
type Callable struct {
	Name   string
	Doc    string
	Params []Param
	// Namespace resolves *Ref annotations in parameter types.
	Namespace map[string]Type
}

// TypeParam is a generic type parameter of a Record.
type TypeParam struct {
	Name string
	// Bound is used when the parameter is left unbound. May be nil.
	Bound Type
}

// Generic instantiates a generic Record with concrete type arguments.
type Generic struct {
	Origin *Record
	Args   []Type
}

// Annotated attaches configuration to a type without changing its shape.
type Annotated struct {
	Type       Type
	Markers    MarkerSet
	Arg        *ArgConf
	Subcommand *SubcommandConf
}

// Ref is a forward reference to a named type, resolved through a callable
// namespace.
type Ref struct {
	Name string
}

// ArgConf overrides how a single argument is presented.
type ArgConf struct {
	Name    string
	Help    string
	Metavar string
}

// SubcommandConf configures a union arm or a whole union. On a union, a
// default selects the default arm at that level only.
type SubcommandConf struct {
	Name        string
	Description string
	Default     any
	HasDefault  bool
}

func (*Primitive) isType() {}
func (*Record) isType()    {}
func (*Tuple) isType()     {}
func (*Sequence) isType()  {}
func (*Mapping) isType()   {}
func (*Union) isType()     {}
func (*Callable) isType()  {}
func (*TypeParam) isType() {}
func (*Generic) isType()   {}
func (*Annotated) isType() {}
func (*Ref) isType()       {}

func (p *Primitive) TypeName() string { return p.Name }
func (r *Record) TypeName() string    { return r.Name }
func (c *Callable) TypeName() string  { return c.Name }
func (p *TypeParam) TypeName() string { return p.Name }
func (r *Ref) TypeName() string       { return r.Name }
func (a *Annotated) TypeName() string { return typeName(a.Type) }

func (t *Tuple) TypeName() string {
	if t.Variadic && len(t.Elems) == 1 {
		return "tuple[" + typeName(t.Elems[0]) + ", ...]"
	}
	if t.Elems == nil {
		return "tuple"
	}
	return "tuple[" + joinNames(t.Elems) + "]"
}

func (s *Sequence) TypeName() string {
	if s.Elem == nil {
		return "list"
	}
	return "list[" + typeName(s.Elem) + "]"
}

func (m *Mapping) TypeName() string {
	return "map[" + typeName(m.Key) + "]" + typeName(m.Value)
}

func (u *Union) TypeName() string {
	return "union[" + joinNames(u.Arms) + "]"
}

func (g *Generic) TypeName() string {
	return g.Origin.Name + "[" + joinNames(g.Args) + "]"
}

func typeName(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.TypeName()
}

func joinNames(ts []Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = typeName(t)
	}
	return strings.Join(names, ", ")
}

// Annotate wraps t with markers.
func Annotate(t Type, markers ...Marker) *Annotated {
	return &Annotated{Type: t, Markers: Markers(markers...)}
}

// Optional builds a union of t and Null.
func Optional(t Type) *Union {
	return &Union{Arms: []Type{t, Null}}
}

// Instance is a concrete value of a descriptor-built Record. Instances are
// mutable, so sharing one as a nested default triggers an aliasing warning
// unless the record is Frozen.
type Instance struct {
	Type   *Record
	Values map[string]any
	// Sparse instances hold only some fields. Absent fields fall back to
	// their declared defaults without a warning.
	Sparse bool
}

// NewInstance creates an instance of r from alternating name/value pairs.
func NewInstance(r *Record, kv ...any) *Instance {
	inst := &Instance{Type: r, Values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		inst.Values[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return inst
}

// Get returns the value stored for a field.
func (i *Instance) Get(name string) (any, bool) {
	v, ok := i.Values[name]
	return v, ok
}

// unwrapAnnotated strips every Annotated layer, merging the configuration
// found on the way. Inner configuration wins over outer for ArgConf and
// SubcommandConf; markers are unioned.
func unwrapAnnotated(t Type) (Type, MarkerSet, *ArgConf, *SubcommandConf) {
	var (
		markers MarkerSet
		arg     *ArgConf
		sub     *SubcommandConf
	)
	for {
		a, ok := t.(*Annotated)
		if !ok {
			return t, markers, arg, sub
		}
		markers = markers.Union(a.Markers)
		if a.Arg != nil {
			arg = a.Arg
		}
		if a.Subcommand != nil {
			sub = a.Subcommand
		}
		t = a.Type
	}
}

// originRecord returns the record behind t, looking through annotations and
// generic instantiations.
func originRecord(t Type) (*Record, bool) {
	t, _, _, _ = unwrapAnnotated(t)
	switch v := t.(type) {
	case *Record:
		return v, true
	case *Generic:
		return v.Origin, v.Origin != nil
	}
	return nil, false
}

// goType returns the Go type leaf values of t decode into, or nil.
func goType(t Type) reflect.Type {
	t, _, _, _ = unwrapAnnotated(t)
	switch v := t.(type) {
	case *Primitive:
		return v.Go
	case *Record:
		return v.Go
	case *Sequence:
		if e := goType(v.Elem); e != nil {
			return reflect.SliceOf(e)
		}
	case *Tuple:
		if v.Variadic && len(v.Elems) == 1 {
			if e := goType(v.Elems[0]); e != nil {
				return reflect.SliceOf(e)
			}
			return nil
		}
		if len(v.Elems) == 0 {
			return nil
		}
		first := goType(v.Elems[0])
		for _, e := range v.Elems[1:] {
			if goType(e) != first {
				return nil
			}
		}
		if first != nil {
			return reflect.ArrayOf(len(v.Elems), first)
		}
	case *Mapping:
		k, e := goType(v.Key), goType(v.Value)
		if k != nil && e != nil {
			return reflect.MapOf(k, e)
		}
	}
	return nil
}

// isMultiValue reports whether a leaf of type t takes several tokens.
func isMultiValue(t Type) bool {
	t, _, _, _ = unwrapAnnotated(t)
	switch t.(type) {
	case *Sequence, *Tuple:
		return true
	}
	return false
}
