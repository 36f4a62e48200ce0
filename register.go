// File: lixenwraith/argtree/register.go
package argtree

import (
	"encoding"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Struct tags read by the Reflector.
const (
	argTag     = "arg"
	helpTag    = "help"
	defaultTag = "default"
	metavarTag = "metavar"
	nameTag    = "name"
)

// Frozen is embedded in a struct to mark its record immutable.
type Frozen struct{}

// Partial is embedded in a struct to mark its record partial: fields that
// are not supplied are left out instead of being required.
type Partial struct{}

// Command is embedded in a struct to name it as a subcommand and document
// it, using the `name` and `help` tags on the embedded field.
type Command struct{}

var (
	frozenType  = reflect.TypeFor[Frozen]()
	partialType = reflect.TypeFor[Partial]()
	commandType = reflect.TypeFor[Command]()

	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// knownScalars are struct or slice types that are parsed as a single value.
var knownScalars = map[reflect.Type]*Primitive{
	reflect.TypeFor[time.Duration](): Duration,
	reflect.TypeFor[time.Time]():     {Name: "time", Go: reflect.TypeFor[time.Time]()},
	reflect.TypeFor[net.IP]():        {Name: "ip", Go: reflect.TypeFor[net.IP]()},
	reflect.TypeFor[net.IPNet]():     {Name: "cidr", Go: reflect.TypeFor[net.IPNet]()},
	reflect.TypeFor[url.URL]():       {Name: "url", Go: reflect.TypeFor[url.URL]()},
	reflect.TypeFor[[]byte]():        {Name: "bytes", Go: reflect.TypeFor[[]byte]()},
}

var builtinPrimitives = map[reflect.Type]*Primitive{
	reflect.TypeFor[bool]():    Bool,
	reflect.TypeFor[int]():     Int,
	reflect.TypeFor[int64]():   Int64,
	reflect.TypeFor[float64](): Float,
	reflect.TypeFor[string]():  String,
}

// Reflector derives type descriptors from Go types. Results are cached per
// reflect.Type, so self-referencing structs yield cyclic descriptors that
// assembly reports as ErrCyclicType. Safe for concurrent use.
type Reflector struct {
	mu     sync.RWMutex
	types  map[reflect.Type]Type
	unions map[reflect.Type][]reflect.Type
	hook   mapstructure.DecodeHookFunc
}

// NewReflector creates an empty reflector.
func NewReflector() *Reflector {
	return &Reflector{
		types:  make(map[reflect.Type]Type),
		unions: make(map[reflect.Type][]reflect.Type),
		hook:   decodeHook(),
	}
}

// RegisterUnion declares the struct types implementing interface I that
// form a tagged union. Arms keep the order given.
func RegisterUnion[I any](r *Reflector, arms ...I) error {
	it := reflect.TypeFor[I]()
	if it.Kind() != reflect.Interface {
		return fmt.Errorf("RegisterUnion requires an interface type, got %s", it)
	}
	if len(arms) < 2 {
		return fmt.Errorf("union %s needs at least two arms, got %d", it, len(arms))
	}

	types := make([]reflect.Type, 0, len(arms))
	for _, arm := range arms {
		at := reflect.TypeOf(arm)
		if at == nil {
			return fmt.Errorf("union %s: nil arm", it)
		}
		base := at
		for base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if base.Kind() != reflect.Struct {
			return fmt.Errorf("union %s: arm %s is not a struct", it, at)
		}
		types = append(types, base)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.unions[it] = types
	delete(r.types, it)
	return nil
}

// TypeOf returns the descriptor for a Go type.
func (r *Reflector) TypeOf(rt reflect.Type) (Type, error) {
	r.mu.RLock()
	t, ok := r.types[rt]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typeOf(rt)
}

// ValueType returns the descriptor for the dynamic type of v. Nil maps to
// Null and *Instance to its record.
func (r *Reflector) ValueType(v any) (Type, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case *Instance:
		if x.Type == nil {
			return nil, fmt.Errorf("%w: instance without record", ErrUnsupportedType)
		}
		return x.Type, nil
	}
	return r.TypeOf(reflect.TypeOf(v))
}

// Of returns the descriptor for the type of v together with v as its
// default instance.
func (r *Reflector) Of(v any) (Type, any, error) {
	if v == nil {
		return nil, nil, fmt.Errorf("%w: nil value", ErrUnsupportedType)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			t, err := r.TypeOf(rv.Type())
			return t, MissingNonProp, err
		}
	}
	t, err := r.ValueType(v)
	return t, v, err
}

// typeOf builds the descriptor for rt. Caller holds the write lock.
func (r *Reflector) typeOf(rt reflect.Type) (Type, error) {
	if t, ok := r.types[rt]; ok {
		return t, nil
	}
	if p, ok := primitiveOf(rt); ok {
		r.types[rt] = p
		return p, nil
	}

	var (
		t   Type
		err error
	)
	switch rt.Kind() {
	case reflect.Pointer:
		t, err = r.typeOf(rt.Elem())
	case reflect.Struct:
		return r.record(rt)
	case reflect.Slice:
		var elem Type
		if elem, err = r.typeOf(rt.Elem()); err == nil {
			t = &Sequence{Elem: elem}
		}
	case reflect.Array:
		var elem Type
		if elem, err = r.typeOf(rt.Elem()); err == nil {
			elems := make([]Type, rt.Len())
			for i := range elems {
				elems[i] = elem
			}
			t = &Tuple{Elems: elems}
		}
	case reflect.Map:
		var k, v Type
		if k, err = r.typeOf(rt.Key()); err == nil {
			if v, err = r.typeOf(rt.Elem()); err == nil {
				t = &Mapping{Key: k, Value: v}
			}
		}
	case reflect.Interface:
		t, err = r.union(rt)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, rt)
	}
	if err != nil {
		return nil, err
	}
	r.types[rt] = t
	return t, nil
}

// primitiveOf maps scalar Go types to primitives.
func primitiveOf(rt reflect.Type) (*Primitive, bool) {
	if p, ok := builtinPrimitives[rt]; ok {
		return p, true
	}
	if p, ok := knownScalars[rt]; ok {
		return p, true
	}
	switch rt.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return &Primitive{Name: rt.String(), Go: rt}, true
	case reflect.Interface:
		if rt.NumMethod() == 0 {
			return &Primitive{Name: "any", Go: rt}, true
		}
	}
	if rt.Kind() != reflect.Pointer && reflect.PointerTo(rt).Implements(textUnmarshalerType) {
		return &Primitive{Name: rt.String(), Go: rt}, true
	}
	return nil, false
}

// record reflects a struct. The record is cached before its fields are
// built so recursive references resolve to the same descriptor.
func (r *Reflector) record(rt reflect.Type) (Type, error) {
	rec := &Record{Name: rt.Name(), Go: rt}
	if rec.Name == "" {
		rec.Name = rt.String()
	}
	r.types[rt] = rec

	var errors []string
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if sf.Anonymous {
			switch sf.Type {
			case frozenType:
				rec.Frozen = true
				continue
			case partialType:
				rec.Partial = true
				continue
			case commandType:
				if name := sf.Tag.Get(nameTag); name != "" {
					rec.Name = name
				}
				rec.Doc = sf.Tag.Get(helpTag)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		rf, skip, err := r.field(sf)
		if err != nil {
			errors = append(errors, fmt.Sprintf("field %s.%s: %v", rt.Name(), sf.Name, err))
			continue
		}
		if !skip {
			rec.Fields = append(rec.Fields, rf)
		}
	}

	if len(errors) > 0 {
		delete(r.types, rt)
		return nil, fmt.Errorf("%w: failed to reflect %d field(s): %s", ErrUnsupportedType, len(errors), strings.Join(errors, "; "))
	}
	return rec, nil
}

// field reflects one struct field from its tags:
//
//	arg:"name,positional,fixed,optional"  help:"text"  default:"value"  metavar:"N"
func (r *Reflector) field(sf reflect.StructField) (RecordField, bool, error) {
	tag := sf.Tag.Get(argTag)
	if tag == "-" {
		return RecordField{}, true, nil
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = snakeCase(sf.Name)
	}
	if !isValidKeySegment(name) {
		return RecordField{}, false, fmt.Errorf("invalid argument name %q", name)
	}

	var (
		markers  MarkerSet
		optional bool
	)
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if opt == "optional" {
			optional = true
			continue
		}
		m, ok := markerByName(opt)
		if !ok {
			return RecordField{}, false, fmt.Errorf("unknown %s tag option %q", argTag, opt)
		}
		markers = markers.With(m)
	}

	ft, err := r.typeOf(sf.Type)
	if err != nil {
		return RecordField{}, false, err
	}
	if optional {
		if u, ok := ft.(*Union); ok {
			arms := append(append([]Type(nil), u.Arms...), Null)
			ft = &Union{Arms: arms}
		} else {
			ft = Optional(ft)
		}
	}

	rf := RecordField{
		Name:    name,
		GoName:  sf.Name,
		Type:    ft,
		Help:    sf.Tag.Get(helpTag),
		Markers: markers,
	}
	if mv := sf.Tag.Get(metavarTag); mv != "" {
		rf.Arg = &ArgConf{Metavar: mv}
	}

	if raw, ok := sf.Tag.Lookup(defaultTag); ok {
		target := sf.Type
		for target.Kind() == reflect.Pointer {
			target = target.Elem()
		}
		if target.Kind() == reflect.Interface && target.NumMethod() > 0 {
			return RecordField{}, false, fmt.Errorf("%s tag not supported on union field", defaultTag)
		}
		v, err := decodeValue(raw, target, r.hook)
		if err != nil {
			return RecordField{}, false, fmt.Errorf("invalid %s tag %q: %w", defaultTag, raw, err)
		}
		rf.Default, rf.HasDefault = v, true
	}
	return rf, false, nil
}

// union builds the descriptor for a registered interface.
func (r *Reflector) union(it reflect.Type) (Type, error) {
	armTypes, ok := r.unions[it]
	if !ok {
		return nil, fmt.Errorf("%w: interface %s is not a registered union", ErrUnsupportedType, it)
	}
	u := &Union{Arms: make([]Type, 0, len(armTypes))}
	// Cache first so arms referring back to the union terminate.
	r.types[it] = u
	for _, at := range armTypes {
		arm, err := r.typeOf(at)
		if err != nil {
			delete(r.types, it)
			return nil, err
		}
		u.Arms = append(u.Arms, arm)
	}
	return u, nil
}
