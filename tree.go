// File: lixenwraith/argtree/tree.go
package argtree

import "fmt"

// Role is what an original field path turned into.
type Role int

const (
	RoleLeaf Role = iota + 1
	RoleNested
	RoleSubcommand
)

func (r Role) String() string {
	switch r {
	case RoleLeaf:
		return "leaf"
	case RoleNested:
		return "nested"
	case RoleSubcommand:
		return "subcommand"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Node is an element of a field tree: *Leaf, *Group or *SubcommandGroup.
type Node interface {
	NodeName() string
}

// Leaf is a single argument. Its field name is the flattened path.
type Leaf struct {
	Field Field
}

// Group is an ordered collection of nodes produced by one nested type.
type Group struct {
	// Name is the flattened path of the group; empty at the root.
	Name        string
	Type        Type
	Description string
	Markers     MarkerSet
	Children    []Node
	// Subcommand is the single subcommand group of this subtree.
	Subcommand *SubcommandGroup
}

// SubcommandGroup is a choice between record variants.
type SubcommandGroup struct {
	Name        string
	Description string
	Required    bool
	// Default is the tag of the variant used when none is chosen.
	Default  string
	Variants []Variant
}

// Variant is one arm of a subcommand group.
type Variant struct {
	Tag     string
	Type    Type
	Default any
	Group   *Group
}

func (l *Leaf) NodeName() string            { return l.Field.Name }
func (g *Group) NodeName() string           { return g.Name }
func (s *SubcommandGroup) NodeName() string { return s.Name }

// Leaves returns all leaves of the group in order, descending into nested
// groups but not into subcommand variants.
func (g *Group) Leaves() []*Leaf {
	var out []*Leaf
	for _, c := range g.Children {
		switch n := c.(type) {
		case *Leaf:
			out = append(out, n)
		case *Group:
			out = append(out, n.Leaves()...)
		}
	}
	return out
}

// Leaf finds a leaf by flattened name.
func (g *Group) Leaf(name string) (*Leaf, bool) {
	for _, l := range g.Leaves() {
		if l.Field.Name == name {
			return l, true
		}
	}
	return nil, false
}

// Variant finds a variant by tag.
func (s *SubcommandGroup) Variant(tag string) (*Variant, bool) {
	for i := range s.Variants {
		if s.Variants[i].Tag == tag {
			return &s.Variants[i], true
		}
	}
	return nil, false
}

// Tags lists the variant tags in declaration order.
func (s *SubcommandGroup) Tags() []string {
	tags := make([]string, len(s.Variants))
	for i, v := range s.Variants {
		tags[i] = v.Tag
	}
	return tags
}

// Tree is a fully assembled field tree.
type Tree struct {
	Root     *Group
	Roles    map[string]Role
	Warnings []Warning
}

// Assemble decomposes t with default def into a field tree. The top-level
// type must be nested or a union of records.
func (r *Resolver) Assemble(t Type, def any) (*Tree, error) {
	a := &assembly{r: r, w: newWarnSink(r.opts.Logger)}

	d, err := r.resolve(t, def, nil, a.w, "")
	if err != nil {
		return nil, err
	}

	var (
		root  *Group
		roles map[string]Role
	)
	switch {
	case d.Shape == ShapeUnion:
		root = &Group{Type: d.Type, Markers: d.Markers}
		roles = make(map[string]Role)
		f := Field{Type: d.Type, Default: d.Default, Markers: d.Markers}
		arms, _ := subcommandArms(d.Type.(*Union), d.Bindings)
		if _, err := a.subcommand(root, f, d.Type.(*Union), arms, "", d.Bindings, roles); err != nil {
			return nil, err
		}
	case d.Nested():
		if root, roles, err = a.assembleDecomposed(d, "", 0); err != nil {
			return nil, err
		}
		if err := checkCollisions(root); err != nil {
			return nil, err
		}
	default:
		return nil, resolveErrf("", d.Type, ErrNotNested, "%s", d.Reason)
	}
	if err := checkSubcommandCollisions(root, nil); err != nil {
		return nil, err
	}

	return &Tree{Root: root, Roles: roles, Warnings: a.w.warnings}, nil
}

// assembly carries the state of one Assemble call.
type assembly struct {
	r *Resolver
	w *warnSink

	// stack holds the records on the recursion path. Type arguments are
	// not part of the key, so a record whose arguments grow at each level
	// still terminates.
	stack []*Record
}

func (a *assembly) assemble(t Type, def any, prefix string, inherited MarkerSet, env Bindings) (*Group, map[string]Role, error) {
	d, err := a.r.resolve(t, def, env, a.w, prefix)
	if err != nil {
		return nil, nil, err
	}
	if !d.Nested() {
		return nil, nil, resolveErrf(prefix, d.Type, ErrNotNested, "%s", d.Reason)
	}
	return a.assembleDecomposed(d, prefix, inherited)
}

func (a *assembly) assembleDecomposed(d *Decomposition, prefix string, inherited MarkerSet) (*Group, map[string]Role, error) {
	delim := a.r.opts.Delimiter
	markers := inherited.Union(d.Markers)

	if rec, ok := d.Type.(*Record); ok {
		for _, seen := range a.stack {
			if seen == rec {
				return nil, nil, resolveErrf(prefix, rec, ErrCyclicType, "%s contains itself", rec.Name)
			}
		}
		a.stack = append(a.stack, rec)
		defer func() { a.stack = a.stack[:len(a.stack)-1] }()
	}

	g := &Group{Name: prefix, Type: d.Type, Markers: markers, Description: typeDoc(d.Type)}
	roles := make(map[string]Role)

	for _, f := range d.Fields {
		f, err := f.WithMarkers(markers)
		if err != nil {
			return nil, nil, resolveErr(joinPath(prefix, f.Name, delim), f.Type, err)
		}
		path := joinPath(prefix, f.Name, delim)

		if u, ok := unwrapType(f.Type).(*Union); ok {
			if arms, ok := subcommandArms(u, d.Bindings); ok {
				narrowed, err := a.subcommand(g, f, u, arms, path, d.Bindings, roles)
				if err != nil {
					return nil, nil, err
				}
				if narrowed == nil {
					continue
				}
				f.Type = narrowed
			}
		}

		cd, err := a.r.resolve(f.Type, f.Default, d.Bindings, a.w, path)
		if err != nil {
			return nil, nil, err
		}
		if !cd.Nested() {
			f.Name = path
			g.Children = append(g.Children, &Leaf{Field: f})
			roles[path] = RoleLeaf
			continue
		}

		child, childRoles, err := a.assembleDecomposed(cd, path, f.Markers)
		if err != nil {
			return nil, nil, err
		}
		if f.Help != "" {
			child.Description = f.Help
		}
		if child.Subcommand != nil {
			if g.Subcommand != nil {
				return nil, nil, resolveErrf(path, f.Type, ErrMultipleSubcommands, "%s and %s", g.Subcommand.Name, child.Subcommand.Name)
			}
			g.Subcommand, child.Subcommand = child.Subcommand, nil
		}
		g.Children = append(g.Children, child)
		mergeRoles(roles, childRoles)
		roles[path] = RoleNested
	}
	return g, roles, nil
}

// subcommand turns a union field into the group's subcommand group. When the
// field avoids subcommands and its default matches an arm, the arm type is
// returned so the caller decomposes it as a plain nested record.
func (a *assembly) subcommand(g *Group, f Field, u *Union, arms []Type, path string, env Bindings, roles map[string]Role) (Type, error) {
	def := f.Default
	if f.Subcommand != nil && f.Subcommand.HasDefault {
		def = f.Subcommand.Default
	}
	idx := matchArm(def, arms)
	if f.Markers.Has(AvoidSubcommands) && idx >= 0 {
		return arms[idx], nil
	}
	if g.Subcommand != nil {
		return nil, resolveErrf(path, u, ErrMultipleSubcommands, "%s and %s", g.Subcommand.Name, path)
	}

	sg := &SubcommandGroup{Name: path, Description: f.Help, Required: !hasNullArm(u)}
	if f.Subcommand != nil && f.Subcommand.Description != "" {
		sg.Description = f.Subcommand.Description
	}
	if idx >= 0 {
		sg.Default = armTag(arms[idx])
	}

	prefix := path
	if f.Markers.Has(OmitSubcommandPrefixes) {
		prefix = g.Name
	}

	for _, arm := range arms {
		tag := armTag(arm)
		if _, dup := sg.Variant(tag); dup {
			return nil, resolveErrf(path, u, ErrNameCollision, "subcommand %q declared twice", tag)
		}
		rec, _ := originRecord(arm)
		ad := armDefault(def, rec)
		vg, vroles, err := a.assemble(arm, ad, prefix, f.Markers, env)
		if err != nil {
			return nil, err
		}
		if err := checkCollisions(vg); err != nil {
			return nil, err
		}
		vg.Description = armDescription(arm)
		sg.Variants = append(sg.Variants, Variant{Tag: tag, Type: arm, Default: ad, Group: vg})
		// Variants are alternatives, so the same path may appear in several.
		for k, v := range vroles {
			if _, ok := roles[k]; !ok {
				roles[k] = v
			}
		}
	}

	g.Subcommand = sg
	if path != "" {
		roles[path] = RoleSubcommand
	}
	a.w.debug("subcommand group", "path", path, "variants", len(sg.Variants), "required", sg.Required)
	return nil, nil
}

func mergeRoles(dst, src map[string]Role) {
	for k, v := range src {
		dst[k] = v
	}
}

// checkCollisions fails when two leaves of the group flatten to one name.
func checkCollisions(g *Group) error {
	seen := make(map[string]struct{})
	for _, l := range g.Leaves() {
		if _, dup := seen[l.Field.Name]; dup {
			return resolveErrf(l.Field.Name, l.Field.Type, ErrNameCollision, "%q", l.Field.Name)
		}
		seen[l.Field.Name] = struct{}{}
	}
	return nil
}

// checkSubcommandCollisions fails when a variant leaf flattens to the name of
// a leaf that is collected alongside it: one of g's own leaves, or a leaf of
// an enclosing level.
func checkSubcommandCollisions(g *Group, outer map[string]struct{}) error {
	if g.Subcommand == nil {
		return nil
	}
	names := make(map[string]struct{}, len(outer))
	for k := range outer {
		names[k] = struct{}{}
	}
	for _, l := range g.Leaves() {
		names[l.Field.Name] = struct{}{}
	}
	for _, v := range g.Subcommand.Variants {
		for _, l := range v.Group.Leaves() {
			if _, dup := names[l.Field.Name]; dup {
				return resolveErrf(l.Field.Name, l.Field.Type, ErrNameCollision, "%q in subcommand %q", l.Field.Name, v.Tag)
			}
		}
		if err := checkSubcommandCollisions(v.Group, names); err != nil {
			return err
		}
	}
	return nil
}

func typeDoc(t Type) string {
	switch v := t.(type) {
	case *Record:
		return v.Doc
	case *Callable:
		return v.Doc
	}
	return ""
}
