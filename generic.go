// File: lixenwraith/argtree/generic.go
package argtree

import "fmt"

// Bindings maps type parameters to the concrete types bound at a use site.
type Bindings map[*TypeParam]Type

// Lookup returns the type bound to p.
func (b Bindings) Lookup(p *TypeParam) (Type, bool) {
	t, ok := b[p]
	return t, ok
}

// Bind strips a generic instantiation down to its origin record and returns
// the bindings for the origin's type parameters. Arguments are first
// substituted through parent so a parameter bound higher up resolves to its
// concrete type. Every call allocates a fresh map.
//
// Non-generic types are returned unchanged with empty bindings. A generic
// record used bare keeps the parent's bindings for its parameters, else their
// bounds; parameters left unbound fail when a field type mentions them.
func Bind(t Type, parent Bindings) (Type, Bindings, error) {
	b := make(Bindings)
	switch v := t.(type) {
	case *Generic:
		if v.Origin == nil {
			return nil, nil, fmt.Errorf("%w: generic without origin", ErrUnsupportedType)
		}
		if len(v.Args) > len(v.Origin.TypeParams) {
			return nil, nil, fmt.Errorf("%w: %s takes %d type arguments, got %d",
				ErrUnsupportedType, v.Origin.Name, len(v.Origin.TypeParams), len(v.Args))
		}
		for i, p := range v.Origin.TypeParams {
			if i < len(v.Args) {
				arg, err := Substitute(v.Args[i], parent)
				if err != nil {
					return nil, nil, err
				}
				b[p] = arg
				continue
			}
			if p.Bound == nil {
				return nil, nil, fmt.Errorf("%w: %s of %s", ErrUnboundTypeParam, p.Name, v.Origin.Name)
			}
			b[p] = p.Bound
		}
		return v.Origin, b, nil
	case *Record:
		for _, p := range v.TypeParams {
			if bound, ok := parent[p]; ok {
				b[p] = bound
				continue
			}
			if p.Bound != nil {
				b[p] = p.Bound
			}
		}
		return v, b, nil
	case *TypeParam:
		resolved, err := Substitute(v, parent)
		if err != nil {
			return nil, nil, err
		}
		if resolved == t {
			return t, b, nil
		}
		return Bind(resolved, parent)
	}
	return t, b, nil
}

// Substitute rewrites t, replacing type parameters with their bindings.
// A parameter without a binding falls back to its bound.
func Substitute(t Type, b Bindings) (Type, error) {
	switch v := t.(type) {
	case nil:
		return nil, nil
	case *TypeParam:
		if bound, ok := b[v]; ok {
			return bound, nil
		}
		if v.Bound != nil {
			return v.Bound, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnboundTypeParam, v.Name)
	case *Tuple:
		elems, err := substituteAll(v.Elems, b)
		if err != nil {
			return nil, err
		}
		return &Tuple{Elems: elems, Variadic: v.Variadic}, nil
	case *Sequence:
		elem, err := Substitute(v.Elem, b)
		if err != nil {
			return nil, err
		}
		return &Sequence{Elem: elem}, nil
	case *Mapping:
		k, err := Substitute(v.Key, b)
		if err != nil {
			return nil, err
		}
		val, err := Substitute(v.Value, b)
		if err != nil {
			return nil, err
		}
		return &Mapping{Key: k, Value: val}, nil
	case *Union:
		arms, err := substituteAll(v.Arms, b)
		if err != nil {
			return nil, err
		}
		return &Union{Arms: arms}, nil
	case *Generic:
		args, err := substituteAll(v.Args, b)
		if err != nil {
			return nil, err
		}
		return &Generic{Origin: v.Origin, Args: args}, nil
	case *Annotated:
		inner, err := Substitute(v.Type, b)
		if err != nil {
			return nil, err
		}
		cp := *v
		cp.Type = inner
		return &cp, nil
	}
	// Records are substituted lazily through Bind when decomposed, which
	// keeps recursive records finite.
	return t, nil
}

func substituteAll(ts []Type, b Bindings) ([]Type, error) {
	if ts == nil {
		return nil, nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		s, err := Substitute(t, b)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
