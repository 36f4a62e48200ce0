// File: lixenwraith/argtree/parser.go
package argtree

import (
	"fmt"
	"reflect"
	"strings"
)

// Argument is one rendered command line argument.
type Argument struct {
	// Name is the flattened field name.
	Name string
	// Flag is "--name" with underscores as dashes, or the bare name for
	// positional arguments.
	Flag       string
	Metavar    string
	Help       string
	Default    any
	Required   bool
	Positional bool
	// Hidden arguments are not shown in help.
	Hidden bool
	// Switch arguments are booleans that take no value.
	Switch bool
	// Multi arguments consume every following value token.
	Multi bool
	Field Field
}

// ParserSpec is the parser layout for one command level.
type ParserSpec struct {
	Name        string
	Description string
	Required    []Argument
	Optional    []Argument
	Fixed       []Argument
	Subparsers  *SubparsersSpec
}

// SubparsersSpec dispatches to one nested parser per variant tag.
type SubparsersSpec struct {
	Name        string
	Description string
	Required    bool
	Default     string
	Parsers     []*ParserSpec
}

// Parser returns the nested parser for tag.
func (s *SubparsersSpec) Parser(tag string) (*ParserSpec, bool) {
	for _, p := range s.Parsers {
		if p.Name == tag {
			return p, true
		}
	}
	return nil, false
}

// BuildParser lays out a field tree as a parser specification.
func BuildParser(tree *Tree) *ParserSpec {
	return buildParser(tree.Root, "")
}

func buildParser(g *Group, name string) *ParserSpec {
	p := &ParserSpec{Name: name, Description: g.Description}
	for _, l := range g.Leaves() {
		arg := newArgument(l.Field)
		switch {
		case l.Field.IsFixed():
			p.Fixed = append(p.Fixed, arg)
		case arg.Required:
			p.Required = append(p.Required, arg)
		default:
			p.Optional = append(p.Optional, arg)
		}
	}
	if sg := g.Subcommand; sg != nil {
		sp := &SubparsersSpec{
			Name:        sg.Name,
			Description: sg.Description,
			Required:    sg.Required,
			Default:     sg.Default,
		}
		for _, v := range sg.Variants {
			sp.Parsers = append(sp.Parsers, buildParser(v.Group, v.Tag))
		}
		p.Subparsers = sp
	}
	return p
}

func newArgument(f Field) Argument {
	arg := Argument{
		Name:       f.Name,
		Help:       f.Help,
		Default:    f.Default,
		Required:   f.IsRequired(),
		Positional: f.IsPositional(),
		Hidden:     f.Markers.Has(Suppress) || (f.Markers.Has(Fixed) && f.Markers.Has(SuppressFixed)),
		Multi:      isMultiValue(f.Type),
		Field:      f,
	}
	if arg.Positional {
		arg.Flag = f.Name
	} else {
		arg.Flag = FlagName(f.Name)
	}
	arg.Metavar = f.Arg.Metavar
	if arg.Metavar == "" {
		arg.Metavar = metavar(f.Type)
	}
	if isBoolType(f.Type) && !f.Markers.Has(FlagConversionOff) && !arg.Positional {
		arg.Switch = true
	}
	return arg
}

// FlagName renders a field name as a long flag.
func FlagName(name string) string {
	return "--" + strings.ReplaceAll(name, "_", "-")
}

func isBoolType(t Type) bool {
	gt := goType(t)
	return gt != nil && gt.Kind() == reflect.Bool
}

func metavar(t Type) string {
	t = unwrapType(t)
	switch v := t.(type) {
	case *Sequence:
		if v.Elem != nil {
			return metavar(v.Elem) + " [" + metavar(v.Elem) + " ...]"
		}
	case *Tuple:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = metavar(e)
		}
		return strings.Join(parts, " ")
	case *Union:
		return "{" + joinNames(v.Arms) + "}"
	}
	return strings.ToUpper(typeName(t))
}

// All returns every argument of this level in display order.
func (p *ParserSpec) All() []Argument {
	out := make([]Argument, 0, len(p.Required)+len(p.Optional)+len(p.Fixed))
	out = append(out, p.Required...)
	out = append(out, p.Optional...)
	return append(out, p.Fixed...)
}

// Lookup finds an argument by flattened name.
func (p *ParserSpec) Lookup(name string) (Argument, bool) {
	for _, a := range p.All() {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// Format renders a plain help listing for this level.
func (p *ParserSpec) Format() string {
	var b strings.Builder

	b.WriteString("usage: ")
	if p.Name != "" {
		b.WriteString(p.Name + " ")
	}
	b.WriteString("[OPTIONS]")
	for _, a := range p.Required {
		if a.Positional {
			b.WriteString(" " + strings.ToUpper(a.Name))
		}
	}
	if sp := p.Subparsers; sp != nil {
		tags := make([]string, len(sp.Parsers))
		for i, sub := range sp.Parsers {
			tags[i] = sub.Name
		}
		choice := "{" + strings.Join(tags, ",") + "}"
		if !sp.Required {
			choice = "[" + choice + "]"
		}
		b.WriteString(" " + choice)
	}
	b.WriteString("\n")

	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}

	writeSection(&b, "required arguments", p.Required)
	writeSection(&b, "optional arguments", p.Optional)
	writeSection(&b, "fixed arguments", p.Fixed)

	if sp := p.Subparsers; sp != nil {
		title := "optional subcommands"
		if sp.Required {
			title = "required subcommands"
		}
		b.WriteString("\n" + title + ":\n")
		if sp.Description != "" {
			b.WriteString("  " + sp.Description + "\n")
		}
		lines := make([][2]string, 0, len(sp.Parsers))
		for _, sub := range sp.Parsers {
			desc := firstLine(sub.Description)
			if sub.Name == sp.Default {
				desc = strings.TrimSpace(desc + " (default)")
			}
			lines = append(lines, [2]string{sub.Name, desc})
		}
		writeAligned(&b, lines)
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, args []Argument) {
	var lines [][2]string
	for _, a := range args {
		if a.Hidden {
			continue
		}
		left := a.Flag
		if !a.Switch && !a.Positional {
			left += " " + a.Metavar
		}
		help := a.Help
		if !a.Required && !IsMissing(a.Default) && a.Default != Excluded {
			help = strings.TrimSpace(fmt.Sprintf("%s (default: %v)", help, a.Default))
		}
		lines = append(lines, [2]string{left, help})
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n" + title + ":\n")
	writeAligned(b, lines)
}

func writeAligned(b *strings.Builder, lines [][2]string) {
	width := 0
	for _, l := range lines {
		width = max(width, len(l[0]))
	}
	for _, l := range lines {
		padding := strings.Repeat(" ", width-len(l[0]))
		fmt.Fprintf(b, "  %s%s  %s\n", l[0], padding, l[1])
	}
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}
