// File: lixenwraith/argtree/missing.go
package argtree

// sentinel is the unexported type behind the default-value sentinels so
// user values can never compare equal to one of them.
type sentinel struct{ name string }

func (s *sentinel) String() string { return s.name }

var (
	// MissingProp marks a field and every field nested below it as missing,
	// overriding any defaults declared further down the tree.
	MissingProp any = &sentinel{"MissingProp"}

	// MissingNonProp marks only the field itself as missing. Nested fields
	// keep their own declared defaults.
	MissingNonProp any = &sentinel{"MissingNonProp"}

	// Excluded removes a field from construction entirely. Used for the
	// fields of partial records that were not supplied.
	Excluded any = &sentinel{"Excluded"}
)

// Missing is the public spelling of the propagating sentinel. Setting a
// field of a default instance to Missing marks it as required again.
var Missing = MissingProp

// IsMissing reports whether v is one of the two missing sentinels.
func IsMissing(v any) bool {
	return v == MissingProp || v == MissingNonProp
}

// isConcrete reports whether v is a usable default value: not a sentinel
// and not nil.
func isConcrete(v any) bool {
	return v != nil && !IsMissing(v) && v != Excluded
}
