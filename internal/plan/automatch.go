package plan

import (
	"slices"
	"strings"

	"mapcheck/internal/analyze"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/match"
)

// memberIndex looks members up by exact and case-folded name.
type memberIndex struct {
	set    *analyze.MemberSet
	folded map[string][]string
}

func newMemberIndex(set *analyze.MemberSet) memberIndex {
	idx := memberIndex{set: set, folded: make(map[string][]string, set.Len())}

	for _, m := range set.Members {
		key := match.Fold(m.Name)
		idx.folded[key] = append(idx.folded[key], m.Name)
	}

	return idx
}

func (i memberIndex) exact(name string) (analyze.Member, bool) {
	return i.set.Get(name)
}

// caseVariant returns the first member whose name equals name ignoring case
// but not exactly.
func (i memberIndex) caseVariant(name string) (analyze.Member, bool) {
	for _, other := range i.folded[match.Fold(name)] {
		if other != name {
			return i.set.Get(other)
		}
	}

	return analyze.Member{}, false
}

// flattenedSource finds the source member that feeds a destination member by
// flattening ("CustomerName" from Customer.Name) or unflattening (Customer
// from "CustomerName").
func (c *directionContext) flattenedSource(dst analyze.Member) (analyze.Member, bool) {
	if !c.resolver.config.Flattening {
		return analyze.Member{}, false
	}

	for _, s := range c.src.set.Members {
		if !s.Readable() {
			continue
		}

		if c.flattens(s, dst.Name, analyze.Member.Readable) || c.flattens(dst, s.Name, analyze.Member.Writable) {
			return s, true
		}
	}

	return analyze.Member{}, false
}

// flattenedTarget finds the destination member a source member reaches by
// flattening or unflattening.
func (c *directionContext) flattenedTarget(src analyze.Member) (analyze.Member, bool) {
	if !c.resolver.config.Flattening {
		return analyze.Member{}, false
	}

	for _, d := range c.dst.set.Members {
		if !d.Writable() {
			continue
		}

		if c.flattens(src, d.Name, analyze.Member.Readable) || c.flattens(d, src.Name, analyze.Member.Writable) {
			return d, true
		}
	}

	return analyze.Member{}, false
}

// flattens reports whether flat names a member of outer's type prefixed by
// outer's name, e.g. outer Customer and flat "CustomerName".
func (c *directionContext) flattens(outer analyze.Member, flat string, usable func(analyze.Member) bool) bool {
	rest, ok := splitFlattened(flat, outer.Name)
	if !ok {
		return false
	}

	set := c.membersOf(outer.Type)
	if set == nil {
		return false
	}

	inner, ok := set.Get(rest)

	return ok && usable(inner)
}

// membersOf returns the member set of a nested type, or nil when the type
// cannot be analysed.
func (c *directionContext) membersOf(t analyze.TypeRef) *analyze.MemberSet {
	key := t.NonNullable().Key()
	if set, ok := c.nested[key]; ok {
		return set
	}

	set, err := analyze.ExtractMembers(c.env.Graph, t.NonNullable(), c.env.ScopeParams)
	if err != nil {
		set = nil
	}

	c.nested[key] = set

	return set
}

// splitFlattened returns the remainder of name after prefix when prefix ends
// on a word boundary of name.
func splitFlattened(name, prefix string) (string, bool) {
	if prefix == "" || len(name) <= len(prefix) || !strings.HasPrefix(name, prefix) {
		return "", false
	}

	head, full := match.Tokens(prefix), match.Tokens(name)
	if len(head) >= len(full) || !slices.Equal(head, full[:len(head)]) {
		return "", false
	}

	rest := strings.TrimLeft(name[len(prefix):], "_")

	return rest, rest != ""
}

// suggestCandidates attaches the closest unmatched opposite-side name to each
// unmatched member. Pools are computed before any member is updated.
func (r *Resolver) suggestCandidates(result *ResolvedDirection) {
	targetPool := unmatchedNames(result.Targets)
	sourcePool := unmatchedNames(result.Sources)

	for i := range result.Targets {
		r.suggest(&result.Targets[i], sourcePool)
	}

	for i := range result.Sources {
		r.suggest(&result.Sources[i], targetPool)
	}
}

func (r *Resolver) suggest(m *MemberMatch, pool []string) {
	if !m.Category.IsUnmatched() && m.Category != diagnostic.CategoryRequiredUnmapped {
		return
	}

	name, ok := match.Suggest(m.Member.Name, pool, r.config.Fuzzy)
	if !ok {
		return
	}

	m.Suggestion = name

	if m.Category == diagnostic.CategoryUnmatchedNoCandidate {
		m.Category = diagnostic.CategoryUnmatchedFuzzyCandidate
	}
}

func unmatchedNames(list []MemberMatch) []string {
	var names []string

	for _, m := range list {
		if m.Category.IsUnmatched() || m.Category == diagnostic.CategoryRequiredUnmapped {
			names = append(names, m.Member.Name)
		}
	}

	return names
}
