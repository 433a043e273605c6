package mapping

import (
	"mapcheck/internal/analyze"
	"mapcheck/internal/common"
	"mapcheck/internal/source"
)

// Direction selects one side of a registration.
type Direction int

const (
	DirectionForward Direction = iota // CreateMap<S, D>: S -> D
	DirectionReverse                  // after ReverseMap: D -> S
)

// String returns a human-readable representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	default:
		return common.UnknownStr
	}
}

// BindingKind classifies one configuration step of a chain.
type BindingKind int

const (
	KindPassthrough       BindingKind = iota // recognised or foreign call with no effect on member matching
	KindMemberOption                         // ForMember without a value source (Condition, NullSubstitute...)
	KindExplicitMap                          // ForMember/ForPath with MapFrom or a converter
	KindIgnore                               // ForMember(..., o => o.Ignore())
	KindIgnoreSource                         // ForSourceMember(..., o => o.DoNotValidate())
	KindCtorParam                            // ForCtorParam
	KindIgnoreRemaining                      // ForAllOtherMembers(o => o.Ignore())
	KindCustomConstruct                      // ConstructUsing
	KindCustomConvert                        // ConvertUsing
)

// String returns a human-readable representation of the binding kind.
func (k BindingKind) String() string {
	switch k {
	case KindPassthrough:
		return "passthrough"
	case KindMemberOption:
		return "member-option"
	case KindExplicitMap:
		return "explicit-map"
	case KindIgnore:
		return "ignore"
	case KindIgnoreSource:
		return "ignore-source-validation"
	case KindCtorParam:
		return "ctor-param"
	case KindIgnoreRemaining:
		return "ignore-remaining"
	case KindCustomConstruct:
		return "custom-construct"
	case KindCustomConvert:
		return "custom-convert"
	default:
		return common.UnknownStr
	}
}

// BindingEntry is one configuration step found in a chain.
type BindingEntry struct {
	Kind       BindingKind
	Member     string              // Target member; source member for KindIgnoreSource; "" for whole-object steps
	Path       *analyze.MemberPath // Full ForPath path, nil otherwise
	SourceRefs []string            // Source members read by MapFrom
	Index      int                 // Position of the call in the chain
	Call       *analyze.Call
}

// Span returns the span of the originating call.
func (e BindingEntry) Span() source.Span {
	if e.Call == nil {
		return source.NoSpan
	}

	return e.Call.Span
}

// BindingSet is the ordered list of steps applying to one direction, plus the
// range of chain calls that belong to it.
type BindingSet struct {
	Direction Direction
	Entries   []BindingEntry
	Start     int // Index of the first call of this direction
	End       int // Index one past the last call of this direction
}

// Add appends an entry.
func (s *BindingSet) Add(e BindingEntry) {
	s.Entries = append(s.Entries, e)
}

// Len returns the number of entries.
func (s *BindingSet) Len() int {
	return len(s.Entries)
}

// Target returns the effective binding for a destination member. Later
// entries override earlier ones. Passthrough and member-option steps never
// count as a binding.
func (s *BindingSet) Target(member string) (BindingEntry, bool) {
	var (
		found BindingEntry
		ok    bool
	)

	for _, e := range s.Entries {
		if e.Member != member {
			continue
		}

		switch e.Kind {
		case KindExplicitMap, KindIgnore, KindCtorParam:
			found, ok = e, true
		}
	}

	return found, ok
}

// CtorParam returns the last ForCtorParam entry whose parameter name matches
// member ignoring case.
func (s *BindingSet) CtorParam(member string, equal func(a, b string) bool) (BindingEntry, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		e := s.Entries[i]
		if e.Kind == KindCtorParam && equal(e.Member, member) {
			return e, true
		}
	}

	return BindingEntry{}, false
}

// SourceIgnored reports whether validation of a source member was disabled.
func (s *BindingSet) SourceIgnored(member string) bool {
	for _, e := range s.Entries {
		if e.Kind == KindIgnoreSource && e.Member == member {
			return true
		}
	}

	return false
}

// SourceConsumed reports whether an effective explicit binding reads the
// source member. Bindings overridden by a later entry for the same target
// read nothing.
func (s *BindingSet) SourceConsumed(member string) bool {
	for _, e := range s.Entries {
		if e.Kind != KindExplicitMap && e.Kind != KindCtorParam {
			continue
		}

		if eff, ok := s.Target(e.Member); !ok || eff.Index != e.Index {
			continue
		}

		for _, ref := range e.SourceRefs {
			if ref == member {
				return true
			}
		}
	}

	return false
}

// Has reports whether the set contains an entry of the given kind.
func (s *BindingSet) Has(kind BindingKind) bool {
	_, ok := s.Last(kind)
	return ok
}

// Last returns the last entry of the given kind.
func (s *BindingSet) Last(kind BindingKind) (BindingEntry, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Kind == kind {
			return s.Entries[i], true
		}
	}

	return BindingEntry{}, false
}

// Registration is one CreateMap call site with its walked chain.
type Registration struct {
	Document    string
	Chain       *analyze.Chain
	Site        *analyze.Call // The CreateMap call
	Source      analyze.TypeRef
	Dest        analyze.TypeRef
	Forward     *BindingSet
	Reverse     *BindingSet   // nil without ReverseMap
	ReverseCall *analyze.Call // The ReverseMap call, nil without ReverseMap
	Partial     bool          // An unresolved call stopped the walk
	StopIndex   int           // Index of the unresolved call, -1 when complete
}

// HasReverse returns true if the chain declares the reverse direction.
func (r *Registration) HasReverse() bool {
	return r.Reverse != nil
}

// Directions returns the directions declared by the registration.
func (r *Registration) Directions() []Direction {
	if r.HasReverse() {
		return []Direction{DirectionForward, DirectionReverse}
	}

	return []Direction{DirectionForward}
}

// Pair returns the source and destination types of a direction.
func (r *Registration) Pair(d Direction) (analyze.TypeRef, analyze.TypeRef) {
	if d == DirectionReverse {
		return r.Dest, r.Source
	}

	return r.Source, r.Dest
}

// Bindings returns the binding set of a direction, or nil.
func (r *Registration) Bindings(d Direction) *BindingSet {
	if d == DirectionReverse {
		return r.Reverse
	}

	return r.Forward
}

// Span returns the reporting location of a direction: the CreateMap call for
// the forward direction and the ReverseMap call for the reverse direction.
func (r *Registration) Span(d Direction) source.Span {
	if d == DirectionReverse && r.ReverseCall != nil {
		return r.ReverseCall.Span
	}

	return r.Site.Span
}

// Key returns "Source -> Dest" for a direction.
func (r *Registration) Key(d Direction) string {
	src, dst := r.Pair(d)
	return PairKey(src, dst)
}

// PairKey formats a type pair for lookups and messages.
func PairKey(src, dst analyze.TypeRef) string {
	return src.Key() + " -> " + dst.Key()
}
