// FILE: lixenwraith/argtree/fixtures_test.go
package argtree

import (
	"io"
	"log/slog"
)

// quietResolver returns a resolver that discards log output.
func quietResolver() *Resolver {
	return NewResolver(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func pairRecord() *Record {
	return &Record{
		Name: "Pair",
		Doc:  "Two integers.",
		Fields: []RecordField{
			{Name: "a", Type: Int, Help: "first"},
			{Name: "b", Type: Int, Help: "second"},
		},
	}
}

func lineRecord(pair *Record) *Record {
	return &Record{
		Name: "Line",
		Fields: []RecordField{
			{Name: "point", Type: pair},
			{Name: "label", Type: String},
		},
	}
}

func commandRecords() (*Record, *Record) {
	one := &Record{Name: "CommandOne", Doc: "First command.", Fields: []RecordField{{Name: "a", Type: Int}}}
	two := &Record{Name: "CommandTwo", Doc: "Second command.", Fields: []RecordField{{Name: "b", Type: Int}}}
	return one, two
}

func leafNames(g *Group) []string {
	var names []string
	for _, l := range g.Leaves() {
		names = append(names, l.Field.Name)
	}
	return names
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
