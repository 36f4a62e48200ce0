// File: lixenwraith/argtree/doc.go

// Package argtree turns structured type descriptions into trees of command
// line arguments. Records, tuples, sequences, mappings, tagged unions and
// callable signatures are decomposed recursively into leaf arguments and
// subcommand groups, with defaults, help text and markers propagated from
// parents to children.
//
// Features:
//   - Go structs reflected through `arg`, `help`, `default` and `metavar` tags
//   - Hand-built descriptors with generics, forward references and callables
//   - Tagged unions of records become subcommands
//   - Three kinds of missing defaults: propagating, non-propagating, excluded
//   - Defaults files in TOML, JSON or YAML, with discovery
//   - Builder pattern for easy initialization
//   - Thread-safe reflector with registered interface unions
//
// Quick Start:
//
//	type Server struct {
//	    Host string `arg:"host" help:"address to bind"`
//	    Port int    `arg:"port" default:"8080"`
//	}
//
//	res, err := argtree.Quick(Server{Host: "localhost"}, os.Args[1:])
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port, _ := res.Int64("port")
//
// Subcommands:
//
//	type Command interface{ isCommand() }
//
//	r := argtree.NewReflector()
//	argtree.RegisterUnion[Command](r, CommandOne{}, CommandTwo{})
//
//	type App struct {
//	    Command Command `arg:"command"`
//	}
//
// Nested names are joined with "." by default, so field A of the selected
// variant above is set with --command.a.
package argtree
