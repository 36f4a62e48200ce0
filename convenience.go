// File: lixenwraith/argtree/convenience.go
package argtree

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick reflects defaults, builds its schema and collects args in one call.
func Quick(defaults any, args []string) (*Result, error) {
	return NewBuilder().WithDefaults(defaults).WithArgs(args).BuildAndCollect()
}

// MustQuick is like Quick but panics on error
func MustQuick(defaults any, args []string) *Result {
	res, err := Quick(defaults, args)
	if err != nil {
		panic(fmt.Sprintf("argtree collection failed: %v", err))
	}
	return res
}

// Describe returns the help listing for the type of defaults.
func Describe(defaults any) (string, error) {
	s, err := NewBuilder().WithDefaults(defaults).WithArgs(nil).Build()
	if err != nil {
		return "", err
	}
	return s.Help(), nil
}

// Debug returns a listing of every leaf with its default, markers and
// requiredness, followed by the warnings raised during resolution.
func (t *Tree) Debug() string {
	var b strings.Builder
	b.WriteString("Field tree:\n")
	writeGroupDebug(&b, t.Root, "  ")
	if len(t.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range t.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}

func writeGroupDebug(b *strings.Builder, g *Group, indent string) {
	for _, l := range g.Leaves() {
		f := l.Field
		fmt.Fprintf(b, "%s%s (%s)", indent, f.Name, typeName(f.Type))
		if f.IsRequired() {
			b.WriteString(" required")
		} else {
			fmt.Fprintf(b, " default=%v", f.Default)
		}
		if f.Markers != 0 {
			fmt.Fprintf(b, " markers=%s", f.Markers)
		}
		b.WriteString("\n")
	}
	if sg := g.Subcommand; sg != nil {
		fmt.Fprintf(b, "%ssubcommand %q required=%t default=%q\n", indent, sg.Name, sg.Required, sg.Default)
		for _, v := range sg.Variants {
			fmt.Fprintf(b, "%s  %s:\n", indent, v.Tag)
			writeGroupDebug(b, v.Group, indent+"    ")
		}
	}
}

// DumpDefaults writes the concrete leaf defaults of the root group as TOML,
// in a form ReadDefaultsFile accepts back.
func (t *Tree) DumpDefaults(w io.Writer, delim string) error {
	if delim == "" {
		delim = "."
	}
	return toml.NewEncoder(w).Encode(leafDefaults(t, delim))
}

// Dump writes the root defaults to stdout in TOML format
func (s *Schema) Dump() error {
	return s.Tree.DumpDefaults(os.Stdout, s.resolver.Options().Delimiter)
}

// Paths lists every role path of the tree in sorted order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.Roles))
	for p := range t.Roles {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
