package plan

import (
	"mapcheck/internal/analyze"
	"mapcheck/internal/common"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/match"
)

// Side identifies which type of a direction a member belongs to.
type Side int

const (
	SideDestination Side = iota
	SideSource
)

// String returns a human-readable representation of the side.
func (s Side) String() string {
	switch s {
	case SideDestination:
		return "destination"
	case SideSource:
		return "source"
	default:
		return common.UnknownStr
	}
}

// ResolvedRegistration is the classification of every direction of one
// registration.
type ResolvedRegistration struct {
	Registration *mapping.Registration
	Directions   []*ResolvedDirection
}

// Direction returns the resolved direction d, or nil.
func (r *ResolvedRegistration) Direction(d mapping.Direction) *ResolvedDirection {
	for _, rd := range r.Directions {
		if rd.Direction == d {
			return rd
		}
	}

	return nil
}

// ResolvedDirection is the member classification of one direction.
type ResolvedDirection struct {
	Registration *mapping.Registration
	Direction    mapping.Direction
	Source       analyze.TypeRef
	Dest         analyze.TypeRef
	Bindings     *mapping.BindingSet

	// Converted is set when a custom converter replaces member mapping.
	// Targets and Sources are empty in that case.
	Converted bool

	Targets []MemberMatch // One entry per writable destination member
	Sources []MemberMatch // One entry per readable source member
}

// Key returns "Source -> Dest".
func (d *ResolvedDirection) Key() string {
	return mapping.PairKey(d.Source, d.Dest)
}

// Target returns the classification of a destination member.
func (d *ResolvedDirection) Target(name string) (MemberMatch, bool) {
	return find(d.Targets, name)
}

// SourceMember returns the classification of a source member.
func (d *ResolvedDirection) SourceMember(name string) (MemberMatch, bool) {
	return find(d.Sources, name)
}

// TargetsIn returns destination members classified as cat.
func (d *ResolvedDirection) TargetsIn(cat diagnostic.Category) []MemberMatch {
	return filter(d.Targets, cat)
}

// SourcesIn returns source members classified as cat.
func (d *ResolvedDirection) SourcesIn(cat diagnostic.Category) []MemberMatch {
	return filter(d.Sources, cat)
}

// MemberMatch is the classification of one member.
type MemberMatch struct {
	Member   analyze.Member
	Side     Side
	Category diagnostic.Category

	// Counterpart is the opposite-side member the match was made with.
	// Set for convention, case-variant and flattening matches.
	Counterpart *analyze.Member

	// Suggestion is the closest unmatched opposite-side name, if any.
	Suggestion string

	// Compat is the compatibility of Counterpart's type with the member's
	// type. Zero when no counterpart exists.
	Compat match.TypeCompatibilityResult

	// Binding is the explicit configuration step that decided the member.
	Binding *mapping.BindingEntry

	Explanation string
}

// IsProblem returns true if the classification represents a problem.
func (m MemberMatch) IsProblem() bool {
	return m.Category.IsProblem()
}

// CounterpartName returns the counterpart's name, or "".
func (m MemberMatch) CounterpartName() string {
	if m.Counterpart == nil {
		return ""
	}

	return m.Counterpart.Name
}

func find(list []MemberMatch, name string) (MemberMatch, bool) {
	for _, m := range list {
		if m.Member.Name == name {
			return m, true
		}
	}

	return MemberMatch{}, false
}

func filter(list []MemberMatch, cat diagnostic.Category) []MemberMatch {
	var out []MemberMatch

	for _, m := range list {
		if m.Category == cat {
			out = append(out, m)
		}
	}

	return out
}
