// File: lixenwraith/argtree/errors.go
package argtree

import (
	"errors"
	"fmt"
)

// Hard resolution errors. Returned wrapped in *ResolveError.
var (
	ErrMissingDefault      = errors.New("default value required to infer type")
	ErrUnsupportedType     = errors.New("unsupported type")
	ErrFixedWithoutDefault = errors.New("fixed or suppressed field has no default")
	ErrUnboundTypeParam    = errors.New("unbound type parameter")
	ErrCyclicType          = errors.New("cyclic type")
	ErrMultipleSubcommands = errors.New("multiple subcommand groups at the same level")
	ErrNameCollision       = errors.New("argument name collision")
	ErrNestedInPartial     = errors.New("nested type in partial record")
	ErrNotNested           = errors.New("type cannot be decomposed into arguments")
)

// Collection errors.
var (
	ErrUnknownArgument   = errors.New("unknown argument")
	ErrMissingArgument   = errors.New("missing required argument")
	ErrMissingSubcommand = errors.New("missing required subcommand")
	ErrInvalidValue      = errors.New("invalid value")
)

// ResolveError locates a failure in the type tree.
type ResolveError struct {
	Path string
	Type Type
	Err  error
}

func (e *ResolveError) Error() string {
	switch {
	case e.Path != "" && e.Type != nil:
		return fmt.Sprintf("%s (%s): %v", e.Path, e.Type.TypeName(), e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case e.Type != nil:
		return fmt.Sprintf("%s: %v", e.Type.TypeName(), e.Err)
	}
	return e.Err.Error()
}

func (e *ResolveError) Unwrap() error { return e.Err }

// resolveErr wraps err with location. An existing *ResolveError keeps its
// innermost location.
func resolveErr(path string, t Type, err error) error {
	var re *ResolveError
	if errors.As(err, &re) {
		return err
	}
	return &ResolveError{Path: path, Type: t, Err: err}
}

// resolveErrf wraps a sentinel with extra detail.
func resolveErrf(path string, t Type, sentinel error, format string, args ...any) error {
	return &ResolveError{Path: path, Type: t, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}
