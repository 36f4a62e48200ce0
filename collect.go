// File: lixenwraith/argtree/collect.go
package argtree

import (
	"errors"
	"fmt"
	"strings"
)

// Result holds the leaf values collected for one command line.
type Result struct {
	// Values maps flattened leaf names to decoded values or defaults.
	Values map[string]any
	// Subcommands maps subcommand group names to the chosen tag.
	Subcommands map[string]string
	// Explicit records the leaves given on the command line.
	Explicit map[string]bool
	// Delimiter joins nested names. Defaults to ".".
	Delimiter string
}

// Collect matches args against the parser and decodes each leaf. Flags take
// the forms --name=value, --name value and, for switches, --name. Bare
// tokens fill positional arguments in order, then select a subcommand; the
// remaining tokens belong to the chosen subcommand.
func (p *ParserSpec) Collect(args []string, dec LeafDecoder) (*Result, error) {
	if dec == nil {
		dec = NewLeafDecoder()
	}
	c := &collector{
		dec: dec,
		res: &Result{
			Values:      make(map[string]any),
			Subcommands: make(map[string]string),
			Explicit:    make(map[string]bool),
			Delimiter:   ".",
		},
	}
	if err := c.level(p, args); err != nil {
		return nil, err
	}
	return c.res, nil
}

// ErrHelp is returned by Collect when help was requested.
var ErrHelp = errors.New("help requested")

// HelpError carries the parser level at which help was requested.
type HelpError struct {
	Parser *ParserSpec
}

func (e *HelpError) Error() string { return ErrHelp.Error() }
func (e *HelpError) Unwrap() error { return ErrHelp }

type collector struct {
	dec LeafDecoder
	res *Result
}

func (c *collector) level(p *ParserSpec, args []string) error {
	flags := make(map[string]Argument)
	fixed := make(map[string]Argument)
	var positional []Argument
	for _, a := range p.All() {
		switch {
		case a.Field.IsFixed():
			fixed[FlagName(a.Name)] = a
		case a.Positional:
			positional = append(positional, a)
		default:
			flags[a.Flag] = a
			flags["--"+a.Name] = a
		}
	}

	raw := make(map[string][]string)
	posIdx := 0
	i := 0
	for i < len(args) {
		tok := args[i]
		if tok == "--" {
			i++
			continue
		}
		if tok == "--help" || tok == "-h" {
			return &HelpError{Parser: p}
		}

		if strings.HasPrefix(tok, "--") {
			key, val, hasVal := strings.Cut(tok, "=")
			a, ok := flags[key]
			if !ok {
				if _, isFixed := fixed[key]; isFixed {
					return fmt.Errorf("%w: %s is fixed and cannot be set", ErrInvalidValue, key)
				}
				return fmt.Errorf("%w: %s", ErrUnknownArgument, key)
			}
			i++
			switch {
			case hasVal:
				raw[a.Name] = append(raw[a.Name], val)
			case a.Switch:
				raw[a.Name] = []string{"true"}
			case a.Multi:
				n := valueRun(args[i:])
				raw[a.Name] = append([]string(nil), args[i:i+n]...)
				i += n
			default:
				if i >= len(args) || strings.HasPrefix(args[i], "--") {
					return fmt.Errorf("%w: %s expects a value", ErrInvalidValue, key)
				}
				raw[a.Name] = []string{args[i]}
				i++
			}
			continue
		}

		if posIdx < len(positional) {
			a := positional[posIdx]
			posIdx++
			if a.Multi {
				n := valueRun(args[i:])
				raw[a.Name] = append([]string(nil), args[i:i+n]...)
				i += n
			} else {
				raw[a.Name] = []string{tok}
				i++
			}
			continue
		}

		if p.Subparsers != nil {
			if sub, ok := p.Subparsers.Parser(tok); ok {
				if err := c.finish(p, raw); err != nil {
					return err
				}
				c.res.Subcommands[p.Subparsers.Name] = tok
				return c.level(sub, args[i+1:])
			}
		}
		return fmt.Errorf("%w: %s", ErrUnknownArgument, tok)
	}

	if err := c.finish(p, raw); err != nil {
		return err
	}

	sp := p.Subparsers
	if sp == nil {
		return nil
	}
	switch {
	case sp.Default != "":
		sub, _ := sp.Parser(sp.Default)
		c.res.Subcommands[sp.Name] = sp.Default
		return c.level(sub, nil)
	case sp.Required:
		tags := make([]string, len(sp.Parsers))
		for i, sub := range sp.Parsers {
			tags[i] = sub.Name
		}
		return fmt.Errorf("%w: choose one of %s", ErrMissingSubcommand, strings.Join(tags, ", "))
	}
	return nil
}

// finish decodes the tokens collected for one level and fills defaults.
func (c *collector) finish(p *ParserSpec, raw map[string][]string) error {
	var missing []string
	for _, a := range p.All() {
		if vals, ok := raw[a.Name]; ok {
			v, err := c.dec.Decode(a.Field, vals)
			if err != nil {
				return err
			}
			c.res.Values[a.Name] = v
			c.res.Explicit[a.Name] = true
			continue
		}
		switch {
		case a.Required:
			missing = append(missing, a.Flag)
		case a.Default == Excluded || IsMissing(a.Default):
		default:
			c.res.Values[a.Name] = a.Default
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingArgument, strings.Join(missing, ", "))
	}
	return nil
}

// valueRun counts the leading tokens that are values rather than flags.
func valueRun(args []string) int {
	n := 0
	for n < len(args) && !strings.HasPrefix(args[n], "--") {
		n++
	}
	return n
}
