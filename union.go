// File: lixenwraith/argtree/union.go
package argtree

import "reflect"

// SubcommandUnion reports whether t is a union of at least two records,
// ignoring a null arm. The returned arms exclude the null arm and keep
// declaration order.
func SubcommandUnion(t Type) (*Union, []Type, bool) {
	u, ok := unwrapType(t).(*Union)
	if !ok {
		return nil, nil, false
	}
	arms, ok := subcommandArms(u, nil)
	if !ok {
		return nil, nil, false
	}
	return u, arms, true
}

func subcommandArms(u *Union, env Bindings) ([]Type, bool) {
	arms := make([]Type, 0, len(u.Arms))
	for _, arm := range u.Arms {
		if isNull(arm) {
			continue
		}
		if _, isParam := unwrapType(arm).(*TypeParam); isParam {
			bound, err := Substitute(arm, env)
			if err != nil {
				return nil, false
			}
			arm = bound
		}
		if _, ok := originRecord(arm); !ok {
			return nil, false
		}
		arms = append(arms, arm)
	}
	return arms, len(arms) >= 2
}

func isNull(t Type) bool {
	return unwrapType(t) == Null
}

// hasNullArm reports whether the union accepts no value.
func hasNullArm(u *Union) bool {
	for _, arm := range u.Arms {
		if isNull(arm) {
			return true
		}
	}
	return false
}

// armTag is the subcommand name for a union arm.
func armTag(arm Type) string {
	_, _, _, sub := unwrapAnnotated(arm)
	if sub != nil && sub.Name != "" {
		return sub.Name
	}
	if g, ok := unwrapType(arm).(*Generic); ok {
		return g.TypeName()
	}
	rec, _ := originRecord(arm)
	return rec.Name
}

// armDescription is the help text for a union arm.
func armDescription(arm Type) string {
	_, _, _, sub := unwrapAnnotated(arm)
	if sub != nil && sub.Description != "" {
		return sub.Description
	}
	rec, _ := originRecord(arm)
	return rec.Doc
}

// matchArm returns the index of the first arm whose record def is an
// instance of, or -1.
func matchArm(def any, arms []Type) int {
	if !isConcrete(def) {
		return -1
	}
	for i, arm := range arms {
		if rec, ok := originRecord(arm); ok && instanceOf(def, rec) {
			return i
		}
	}
	return -1
}

// instanceOf reports whether v is a value of the record rec.
func instanceOf(v any, rec *Record) bool {
	if inst, ok := v.(*Instance); ok {
		return inst.Type == rec
	}
	if rec.Go == nil {
		return false
	}
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt == rec.Go
}

// armDefault narrows a union default to one arm.
func armDefault(def any, rec *Record) any {
	if def == MissingProp {
		return MissingProp
	}
	if instanceOf(def, rec) {
		return def
	}
	return MissingNonProp
}
