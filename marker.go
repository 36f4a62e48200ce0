// File: lixenwraith/argtree/marker.go
package argtree

import (
	"strings"
)

// Marker is a flag that alters how a field is exposed. Markers attached to a
// group apply to every leaf below it and cannot be removed further down.
type Marker uint16

const (
	// Positional renders the field as a positional argument.
	Positional Marker = 1 << iota
	// Fixed prevents the field from being parsed; its default is used.
	Fixed
	// Suppress behaves like Fixed and also hides the field from help.
	Suppress
	// SuppressFixed hides fields that are marked Fixed.
	SuppressFixed
	// FlagConversionOff makes boolean fields take an explicit value.
	FlagConversionOff
	// AvoidSubcommands narrows a union with a matching default to that arm
	// instead of creating a subcommand group.
	AvoidSubcommands
	// ConsolidateSubcommandArgs moves subcommand arguments after the last
	// subcommand token.
	ConsolidateSubcommandArgs
	// OmitSubcommandPrefixes drops the union field's path from variant
	// argument names.
	OmitSubcommandPrefixes

	// positionalCall marks a parameter that must be passed positionally to
	// the underlying callable.
	positionalCall
)

var markerNames = []struct {
	m    Marker
	name string
}{
	{Positional, "positional"},
	{Fixed, "fixed"},
	{Suppress, "suppress"},
	{SuppressFixed, "suppressfixed"},
	{FlagConversionOff, "flagconversionoff"},
	{AvoidSubcommands, "avoidsubcommands"},
	{ConsolidateSubcommandArgs, "consolidatesubcommandargs"},
	{OmitSubcommandPrefixes, "omitsubcommandprefixes"},
	{positionalCall, "positionalcall"},
}

// MarkerSet is a set of markers.
type MarkerSet uint16

// Markers builds a set from individual markers.
func Markers(ms ...Marker) MarkerSet {
	var s MarkerSet
	for _, m := range ms {
		s |= MarkerSet(m)
	}
	return s
}

// Has reports whether m is in the set.
func (s MarkerSet) Has(m Marker) bool { return s&MarkerSet(m) != 0 }

// Union returns the union of both sets.
func (s MarkerSet) Union(o MarkerSet) MarkerSet { return s | o }

// With returns the set with m added.
func (s MarkerSet) With(m Marker) MarkerSet { return s | MarkerSet(m) }

// String lists the set members separated by "|".
func (s MarkerSet) String() string {
	var names []string
	for _, mn := range markerNames {
		if s.Has(mn.m) {
			names = append(names, mn.name)
		}
	}
	return strings.Join(names, "|")
}

func (m Marker) String() string {
	return MarkerSet(m).String()
}

// markerByName resolves a marker from its lowercase name as used in struct
// tags. The internal positional-call marker is not addressable by name.
func markerByName(name string) (Marker, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, mn := range markerNames {
		if mn.name == name && mn.m != positionalCall {
			return mn.m, true
		}
	}
	return 0, false
}
