// File: lixenwraith/argtree/docs.go
package argtree

// DocLookup supplies help text for fields that do not declare any.
type DocLookup interface {
	// FieldDoc returns the documentation of field on owner, a *Record or
	// *Callable.
	FieldDoc(owner Type, field string) (string, bool)
}

// StaticDocs is a DocLookup keyed by owner type name and field name.
type StaticDocs map[string]map[string]string

func (d StaticDocs) FieldDoc(owner Type, field string) (string, bool) {
	fields, ok := d[typeName(owner)]
	if !ok {
		return "", false
	}
	doc, ok := fields[field]
	return doc, ok
}

// DocFunc adapts a function to DocLookup.
type DocFunc func(owner Type, field string) (string, bool)

func (f DocFunc) FieldDoc(owner Type, field string) (string, bool) {
	return f(owner, field)
}
