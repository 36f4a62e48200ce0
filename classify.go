// File: lixenwraith/argtree/classify.go
package argtree

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
)

// Shape is the structural category a type was classified into.
type Shape int

const (
	ShapeLeaf Shape = iota
	ShapeRecord
	ShapeTuple
	ShapeSequence
	ShapeMapping
	ShapeCallable
	ShapeUnion
)

var shapeNames = [...]string{"leaf", "record", "tuple", "sequence", "mapping", "callable", "union"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "shape(" + strconv.Itoa(int(s)) + ")"
}

// Decomposition is the result of classifying one type with one default.
type Decomposition struct {
	Shape Shape
	// Type is the classified type with annotations stripped and generics
	// bound to their origin record.
	Type     Type
	Default  any
	Markers  MarkerSet
	Bindings Bindings
	Fields   []Field
	// Reason explains why a leaf could not be decomposed further.
	Reason   string
	Warnings []Warning
}

// Nested reports whether the type expands into child fields.
func (d *Decomposition) Nested() bool {
	return d.Shape != ShapeLeaf && d.Shape != ShapeUnion
}

// Options configures a Resolver.
type Options struct {
	// Delimiter joins nested field names. Defaults to ".".
	Delimiter string
	// Docs supplies help text for fields without inline help.
	Docs DocLookup
	// Logger receives warnings and debug traces. Defaults to slog.Default().
	Logger *slog.Logger
	// Reflector infers types of default values. Defaults to a new Reflector.
	Reflector *Reflector
	// Decoder converts collected tokens into leaf values.
	Decoder LeafDecoder
}

// Resolver classifies and assembles type trees. A Resolver holds no per-call
// state and may be used concurrently.
type Resolver struct {
	opts Options
}

// NewResolver creates a resolver, filling unset options with defaults.
func NewResolver(opts Options) *Resolver {
	if opts.Delimiter == "" {
		opts.Delimiter = "."
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Reflector == nil {
		opts.Reflector = NewReflector()
	}
	if opts.Decoder == nil {
		opts.Decoder = NewLeafDecoder()
	}
	return &Resolver{opts: opts}
}

// Options returns the effective options.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve classifies t with default def and returns its immediate children.
func (r *Resolver) Resolve(t Type, def any) (*Decomposition, error) {
	w := newWarnSink(r.opts.Logger)
	d, err := r.resolve(t, def, nil, w, "")
	if err != nil {
		return nil, err
	}
	d.Warnings = w.warnings
	return d, nil
}

// IsNested reports whether t with default def expands into child fields.
func (r *Resolver) IsNested(t Type, def any) (bool, error) {
	d, err := r.Resolve(t, def)
	if err != nil {
		return false, err
	}
	return d.Nested(), nil
}

func (r *Resolver) resolve(t Type, def any, env Bindings, w *warnSink, path string) (*Decomposition, error) {
	if t == nil {
		return &Decomposition{Shape: ShapeLeaf, Default: def, Reason: "no type"}, nil
	}
	inner, markers, _, sub := unwrapAnnotated(t)
	if sub != nil && sub.HasDefault {
		def = sub.Default
	}

	bound, b, err := Bind(inner, env)
	if err != nil {
		return nil, resolveErr(path, inner, err)
	}
	// A parameter may resolve to another annotated type.
	if _, wasParam := inner.(*TypeParam); wasParam {
		var more MarkerSet
		bound, more, _, _ = unwrapAnnotated(bound)
		markers = markers.Union(more)
		if bound, b, err = Bind(bound, env); err != nil {
			return nil, resolveErr(path, inner, err)
		}
	}

	d := &Decomposition{Shape: ShapeLeaf, Type: bound, Default: def, Markers: markers, Bindings: b}
	w.debug("classify", "path", path, "type", typeName(bound))

	switch v := bound.(type) {
	case *Primitive:
		d.Reason = "primitive type"
	case *Record:
		fields, err := r.recordFields(v, b, def, w, path)
		if err != nil {
			return nil, err
		}
		d.Shape, d.Fields = ShapeRecord, fields
	case *Tuple:
		err = r.tupleFields(d, v, env, w, path)
	case *Sequence:
		err = r.sequenceFields(d, v.Elem, env, w, path)
	case *Mapping:
		err = r.mappingFields(d, v, w, path)
	case *Union:
		if _, ok := subcommandArms(v, env); ok {
			d.Shape = ShapeUnion
		} else {
			d.Reason = "union is not a union of records"
		}
	case *Callable:
		err = r.callableFields(d, v, w, path)
	case *Ref:
		d.Reason = "unresolved reference " + v.Name
	default:
		return nil, resolveErrf(path, bound, ErrUnsupportedType, "%T", bound)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// recordFields decomposes a record into one field per declared field.
func (r *Resolver) recordFields(rec *Record, b Bindings, def any, w *warnSink, path string) ([]Field, error) {
	fields := make([]Field, 0, len(rec.Fields))
	for _, rf := range rec.Fields {
		fpath := joinPath(path, rf.Name, r.opts.Delimiter)
		ft, err := Substitute(rf.Type, b)
		if err != nil {
			return nil, resolveErr(fpath, rf.Type, err)
		}
		if rf.Arg != nil {
			ft = &Annotated{Type: ft, Arg: rf.Arg}
		}

		var childDef any
		if rec.Partial {
			childDef, err = r.partialDefault(rec, rf, ft, b, def, w, fpath)
			if err != nil {
				return nil, err
			}
		} else {
			childDef = r.childDefault(rec, rf, def, w, fpath)
		}

		help := rf.Help
		if help == "" && r.opts.Docs != nil {
			help, _ = r.opts.Docs.FieldDoc(rec, rf.Name)
		}
		f, err := makeField(rf.Name, ft, childDef, help, rf.Name, rf.Markers)
		if err != nil {
			return nil, resolveErr(fpath, ft, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// childDefault picks the default for one record field. In order: a
// propagating-missing parent, an attribute of a concrete parent instance,
// the declared default, the declared factory and finally MissingNonProp.
func (r *Resolver) childDefault(rec *Record, rf RecordField, parent any, w *warnSink, path string) any {
	if parent == MissingProp {
		return MissingProp
	}
	if isConcrete(parent) {
		if v, ok := attribute(parent, rf); ok {
			return v
		}
		if !isSparse(parent) {
			w.warn(path, fmt.Sprintf("could not find field %q in default instance of type %T for %s, using declared default", rf.Name, parent, rec.Name))
		}
	}
	if rf.HasDefault {
		if r.isMutableInstance(rf.Default) {
			w.warn(path, fmt.Sprintf("mutable default instance of %s is shared between uses; mark the record frozen or use a factory", typeNameOfValue(rf.Default)))
		}
		return rf.Default
	}
	if rf.Factory != nil && !sameType(rf.FactoryOf, rf.Type) {
		return rf.Factory()
	}
	return MissingNonProp
}

// partialDefault picks the default for a field of a partial record. Fields
// of any nested shape are rejected.
func (r *Resolver) partialDefault(rec *Record, rf RecordField, ft Type, b Bindings, parent any, w *warnSink, path string) (any, error) {
	quiet := &warnSink{logger: w.logger}
	cd, err := r.resolve(ft, MissingNonProp, b, quiet, path)
	if err != nil {
		return nil, err
	}
	if cd.Nested() {
		return nil, resolveErrf(path, ft, ErrNestedInPartial, "%s", rec.Name)
	}
	if parent == MissingProp {
		return MissingProp, nil
	}
	if !isConcrete(parent) {
		return Excluded, nil
	}
	if v, ok := attribute(parent, rf); ok {
		return v, nil
	}
	return MissingProp, nil
}

// tupleFields decomposes a fixed-length tuple into positional children.
func (r *Resolver) tupleFields(d *Decomposition, t *Tuple, env Bindings, w *warnSink, path string) error {
	if t.Variadic {
		if len(t.Elems) != 1 {
			return resolveErrf(path, t, ErrUnsupportedType, "variadic tuple needs exactly one element type")
		}
		return r.sequenceFields(d, t.Elems[0], env, w, path)
	}

	var values []any
	if isConcrete(d.Default) {
		vs, ok := sequenceValues(d.Default)
		if !ok {
			return resolveErrf(path, t, ErrUnsupportedType, "default %T is not a sequence", d.Default)
		}
		values = vs
	}

	elems := t.Elems
	if elems == nil {
		if values == nil {
			return resolveErrf(path, t, ErrMissingDefault, "tuple without element types")
		}
		elems = make([]Type, len(values))
		for i, v := range values {
			et, err := r.valueType(v)
			if err != nil {
				return resolveErr(path, t, err)
			}
			elems[i] = et
		}
	}
	if values != nil && len(values) != len(elems) {
		return resolveErrf(path, t, ErrUnsupportedType, "default has %d elements, tuple has %d", len(values), len(elems))
	}

	fields := make([]Field, len(elems))
	nested := false
	for i, et := range elems {
		var def any
		switch {
		case d.Default == MissingProp || d.Default == Excluded:
			def = d.Default
		case values != nil:
			def = values[i]
		default:
			def = MissingNonProp
		}
		name := strconv.Itoa(i)
		f, err := makeField(name, et, def, "", i, 0)
		if err != nil {
			return resolveErr(joinPath(path, name, r.opts.Delimiter), et, err)
		}
		fields[i] = f
		if !nested {
			if nested, err = r.nestedChild(f, env, w, path); err != nil {
				return err
			}
		}
	}
	if !nested {
		d.Reason = "tuple has no nested positions"
		return nil
	}
	d.Shape, d.Fields = ShapeTuple, fields
	return nil
}

// sequenceFields decomposes a variable-length sequence. Without a default
// the length is unknown, so only scalar elements are accepted, as a leaf.
func (r *Resolver) sequenceFields(d *Decomposition, elem Type, env Bindings, w *warnSink, path string) error {
	if !isConcrete(d.Default) {
		if elem == nil {
			return resolveErrf(path, d.Type, ErrMissingDefault, "sequence without element type")
		}
		nested, err := r.nestedChild(Field{Type: elem, Default: MissingNonProp}, env, w, path)
		if err != nil {
			return err
		}
		if nested {
			return resolveErrf(path, d.Type, ErrMissingDefault, "sequence of nested %s needs a default to infer its length", typeName(elem))
		}
		d.Reason = "sequence of scalars"
		return nil
	}

	values, ok := sequenceValues(d.Default)
	if !ok {
		return resolveErrf(path, d.Type, ErrUnsupportedType, "default %T is not a sequence", d.Default)
	}
	if elem == nil && len(values) == 0 {
		return resolveErrf(path, d.Type, ErrMissingDefault, "cannot infer element type from empty default")
	}

	fields := make([]Field, len(values))
	nested := false
	for i, v := range values {
		et := elem
		if et == nil {
			var err error
			if et, err = r.valueType(v); err != nil {
				return resolveErr(path, d.Type, err)
			}
		}
		name := strconv.Itoa(i)
		f, err := makeField(name, et, v, "", i, 0)
		if err != nil {
			return resolveErr(joinPath(path, name, r.opts.Delimiter), et, err)
		}
		fields[i] = f
		if !nested {
			if nested, err = r.nestedChild(f, env, w, path); err != nil {
				return err
			}
		}
	}
	if !nested {
		d.Reason = "sequence has no nested elements"
		return nil
	}
	d.Shape, d.Fields = ShapeSequence, fields
	return nil
}

// mappingFields decomposes a mapping with a concrete default into one field
// per key, in sorted key order.
func (r *Resolver) mappingFields(d *Decomposition, m *Mapping, w *warnSink, path string) error {
	if !isConcrete(d.Default) {
		d.Reason = "mapping without default"
		return nil
	}
	rv := reflect.Indirect(reflect.ValueOf(d.Default))
	if rv.Kind() != reflect.Map {
		return resolveErrf(path, m, ErrUnsupportedType, "default %T is not a mapping", d.Default)
	}
	if rv.Len() == 0 {
		d.Reason = "empty mapping"
		return nil
	}

	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		val := rv.MapIndex(k).Interface()
		name := fmt.Sprint(k.Interface())
		vt := m.Value
		if val != nil {
			if inferred, err := r.valueType(val); err == nil {
				vt = inferred
			} else {
				w.debug("mapping value type not inferred", "path", path, "key", name, "error", err)
			}
		}
		f, err := makeField(name, vt, val, "", k.Interface(), 0)
		if err != nil {
			return resolveErr(joinPath(path, name, r.opts.Delimiter), vt, err)
		}
		fields = append(fields, f)
	}
	d.Shape, d.Fields = ShapeMapping, fields
	return nil
}

// callableFields decomposes a callable signature into its parameters.
func (r *Resolver) callableFields(d *Decomposition, c *Callable, w *warnSink, path string) error {
	if isConcrete(d.Default) || d.Default == Excluded {
		d.Reason = "callable with a default instance"
		return nil
	}

	fields := make([]Field, 0, len(c.Params))
	for _, p := range c.Params {
		ppath := joinPath(path, p.Name, r.opts.Delimiter)
		if p.Type == nil {
			if p.Kind == KeywordOnly {
				return resolveErrf(ppath, c, ErrUnsupportedType, "keyword-only parameter %q has no type", p.Name)
			}
			d.Reason = fmt.Sprintf("parameter %q has no type", p.Name)
			return nil
		}
		pt, ok := resolveRefs(p.Type, c.Namespace)
		if !ok {
			d.Reason = fmt.Sprintf("parameter %q has an unresolved reference", p.Name)
			return nil
		}

		var def any
		switch {
		case d.Default == MissingProp:
			def = MissingProp
		case p.HasDefault:
			def = p.Default
		default:
			def = MissingNonProp
		}

		var markers MarkerSet
		if p.Kind == PositionalOnly {
			markers = Markers(Positional, positionalCall)
		}
		help := p.Help
		if help == "" && r.opts.Docs != nil {
			help, _ = r.opts.Docs.FieldDoc(c, p.Name)
		}
		f, err := makeField(p.Name, pt, def, help, p.Name, markers)
		if err != nil {
			return resolveErr(ppath, pt, err)
		}
		fields = append(fields, f)
	}
	d.Shape, d.Fields = ShapeCallable, fields
	return nil
}

// nestedChild classifies a child field in isolation, discarding warnings.
func (r *Resolver) nestedChild(f Field, env Bindings, w *warnSink, path string) (bool, error) {
	quiet := &warnSink{logger: w.logger}
	cd, err := r.resolve(f.Type, f.Default, env, quiet, joinPath(path, f.Name, r.opts.Delimiter))
	if err != nil {
		return false, err
	}
	return cd.Nested(), nil
}

// valueType infers the type of a runtime value.
func (r *Resolver) valueType(v any) (Type, error) {
	return r.opts.Reflector.ValueType(v)
}

func isSparse(v any) bool {
	inst, ok := v.(*Instance)
	return ok && inst.Sparse
}

// attribute looks a field up on a concrete default instance.
func attribute(parent any, rf RecordField) (any, bool) {
	switch p := parent.(type) {
	case *Instance:
		return p.Get(rf.Name)
	case map[string]any:
		v, ok := p[rf.Name]
		return v, ok
	}

	rv := reflect.ValueOf(parent)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	name := rf.GoName
	if name == "" {
		name = rf.Name
	}
	fv := rv.FieldByName(name)
	if !fv.IsValid() || !fv.CanInterface() {
		return nil, false
	}
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil, true
		}
		fv = fv.Elem()
	}
	return fv.Interface(), true
}

// sequenceValues expands a slice or array default into its elements.
func sequenceValues(v any) ([]any, bool) {
	if vs, ok := v.([]any); ok {
		return vs, true
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isMutableInstance reports whether v is a shared, mutable record instance.
// Pointers to structs are looked up through the reflector so frozen Go
// records are exempt.
func (r *Resolver) isMutableInstance(v any) bool {
	if !isConcrete(v) {
		return false
	}
	if inst, ok := v.(*Instance); ok {
		return inst != nil && (inst.Type == nil || !inst.Type.Frozen)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return false
	}
	t, err := r.opts.Reflector.TypeOf(rv.Elem().Type())
	if err != nil {
		return true
	}
	rec, ok := t.(*Record)
	return !ok || !rec.Frozen
}

// sameType reports whether a and b name the same type.
func sameType(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	ra, okA := originRecord(a)
	rb, okB := originRecord(b)
	return okA && okB && ra == rb
}

func typeNameOfValue(v any) string {
	if inst, ok := v.(*Instance); ok && inst.Type != nil {
		return inst.Type.Name
	}
	return fmt.Sprintf("%T", v)
}

// resolveRefs replaces forward references using the namespace. It does not
// look inside records.
func resolveRefs(t Type, ns map[string]Type) (Type, bool) {
	switch v := t.(type) {
	case *Ref:
		target, ok := ns[v.Name]
		if !ok {
			return nil, false
		}
		return resolveRefs(target, ns)
	case *Tuple:
		elems, ok := resolveAllRefs(v.Elems, ns)
		return &Tuple{Elems: elems, Variadic: v.Variadic}, ok
	case *Sequence:
		if v.Elem == nil {
			return v, true
		}
		elem, ok := resolveRefs(v.Elem, ns)
		return &Sequence{Elem: elem}, ok
	case *Mapping:
		k, okK := resolveRefs(v.Key, ns)
		val, okV := resolveRefs(v.Value, ns)
		return &Mapping{Key: k, Value: val}, okK && okV
	case *Union:
		arms, ok := resolveAllRefs(v.Arms, ns)
		return &Union{Arms: arms}, ok
	case *Generic:
		args, ok := resolveAllRefs(v.Args, ns)
		return &Generic{Origin: v.Origin, Args: args}, ok
	case *Annotated:
		inner, ok := resolveRefs(v.Type, ns)
		cp := *v
		cp.Type = inner
		return &cp, ok
	}
	return t, true
}

func resolveAllRefs(ts []Type, ns map[string]Type) ([]Type, bool) {
	if ts == nil {
		return nil, true
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		r, ok := resolveRefs(t, ns)
		if !ok {
			return nil, false
		}
		out[i] = r
	}
	return out, true
}

func unwrapType(t Type) Type {
	t, _, _, _ = unwrapAnnotated(t)
	return t
}

func joinPath(prefix, name, delim string) string {
	if prefix == "" {
		return name
	}
	return prefix + delim + name
}
