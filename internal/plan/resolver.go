package plan

import (
	"fmt"

	"mapcheck/internal/analyze"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/match"
)

// ResolutionConfig controls member matching.
type ResolutionConfig struct {
	Fuzzy match.FuzzyOptions

	// Flattening enables "CustomerName" <-> Customer.Name matching.
	Flattening bool
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() ResolutionConfig {
	return ResolutionConfig{
		Fuzzy:      match.DefaultFuzzyOptions(),
		Flattening: true,
	}
}

// Resolver classifies the members of registrations against one compilation.
type Resolver struct {
	graph  *analyze.TypeGraph
	pairs  *mapping.PairRegistry
	config ResolutionConfig
}

// NewResolver creates a new resolver. pairs may be nil, in which case no
// nested mapping is considered registered.
func NewResolver(graph *analyze.TypeGraph, pairs *mapping.PairRegistry, config ResolutionConfig) *Resolver {
	return &Resolver{
		graph:  graph,
		pairs:  pairs,
		config: config,
	}
}

// Resolve classifies every direction of a registration. An error wrapping
// analyze.ErrUnresolvable means the site must be skipped entirely.
func (r *Resolver) Resolve(reg *mapping.Registration) (*ResolvedRegistration, error) {
	scope := reg.Chain.ScopeTypeParams

	srcSet, err := analyze.ExtractMembers(r.graph, reg.Source, scope)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", reg.Source, err)
	}

	dstSet, err := analyze.ExtractMembers(r.graph, reg.Dest, scope)
	if err != nil {
		return nil, fmt.Errorf("destination %s: %w", reg.Dest, err)
	}

	result := &ResolvedRegistration{Registration: reg}

	for _, d := range reg.Directions() {
		from, to := srcSet, dstSet
		if d == mapping.DirectionReverse {
			from, to = dstSet, srcSet
		}

		result.Directions = append(result.Directions, r.resolveDirection(reg, d, from, to))
	}

	return result, nil
}

// resolveDirection classifies one direction.
func (r *Resolver) resolveDirection(
	reg *mapping.Registration,
	d mapping.Direction,
	srcSet, dstSet *analyze.MemberSet,
) *ResolvedDirection {
	src, dst := reg.Pair(d)

	result := &ResolvedDirection{
		Registration: reg,
		Direction:    d,
		Source:       src,
		Dest:         dst,
		Bindings:     reg.Bindings(d),
	}

	if result.Bindings.Has(mapping.KindCustomConvert) {
		result.Converted = true
		return result
	}

	ctx := &directionContext{
		resolver: r,
		env: match.Env{
			Graph:       r.graph,
			Pairs:       r.pairs,
			ScopeParams: reg.Chain.ScopeTypeParams,
		},
		bindings: result.Bindings,
		src:      newMemberIndex(srcSet),
		dst:      newMemberIndex(dstSet),
		nested:   make(map[string]*analyze.MemberSet),
	}

	for _, m := range dstSet.Members {
		if m.Writable() {
			result.Targets = append(result.Targets, ctx.classifyTarget(m))
		}
	}

	for _, m := range srcSet.Members {
		if m.Readable() {
			result.Sources = append(result.Sources, ctx.classifySource(m))
		}
	}

	r.suggestCandidates(result)

	return result
}

// directionContext holds the lookups shared by member classification of one
// direction.
type directionContext struct {
	resolver *Resolver
	env      match.Env
	bindings *mapping.BindingSet
	src      memberIndex
	dst      memberIndex
	nested   map[string]*analyze.MemberSet
}

// classifyTarget decides the category of one writable destination member.
// Explicit configuration wins over any name-based match.
func (c *directionContext) classifyTarget(m analyze.Member) MemberMatch {
	res := MemberMatch{Member: m, Side: SideDestination}

	if b, ok := c.bindings.Target(m.Name); ok {
		res.Binding = &b

		if b.Kind == mapping.KindIgnore {
			res.Category = diagnostic.CategoryIgnored
			res.Explanation = "ignored by ForMember"
		} else {
			res.Category = diagnostic.CategoryMatchedExplicitly
			res.Explanation = fmt.Sprintf("explicitly mapped by %s", b.Call.Name)
		}

		return res
	}

	if m.Positional || m.Mutability == analyze.MutabilityConstructorOnly {
		if b, ok := c.bindings.CtorParam(m.Name, match.EqualFold); ok {
			res.Binding = &b
			res.Category = diagnostic.CategoryMatchedExplicitly
			res.Explanation = "constructor parameter mapped by ForCtorParam"

			return res
		}

		if b, ok := c.bindings.Last(mapping.KindCustomConstruct); ok {
			res.Binding = &b
			res.Category = diagnostic.CategoryMatchedExplicitly
			res.Explanation = "constructed by ConstructUsing"

			return res
		}
	}

	if s, ok := c.src.exact(m.Name); ok && s.Readable() {
		return c.byConvention(res, s)
	}

	if s, ok := c.src.caseVariant(m.Name); ok && s.Readable() {
		compat := match.ScoreTypeCompatibility(c.env, s.Type, m.Type)
		if !compat.Compatibility.Compatible() {
			return c.byConvention(res, s)
		}

		res.Counterpart = &s
		res.Compat = compat
		res.Category = diagnostic.CategoryUnmatchedCaseVariant
		res.Explanation = fmt.Sprintf("source member %s differs only in case", s.Name)

		return res
	}

	if s, ok := c.flattenedSource(m); ok {
		res.Counterpart = &s
		res.Category = diagnostic.CategoryMatchedByFlattening
		res.Explanation = fmt.Sprintf("flattened from %s", s.Name)

		return res
	}

	if b, ok := c.bindings.Last(mapping.KindIgnoreRemaining); ok {
		res.Binding = &b
		res.Category = diagnostic.CategoryIgnored
		res.Explanation = "ignored by ForAllOtherMembers"

		return res
	}

	if m.Required {
		res.Category = diagnostic.CategoryRequiredUnmapped
		res.Explanation = "required member has no source"

		return res
	}

	res.Category = diagnostic.CategoryUnmatchedNoCandidate
	res.Explanation = "no source member found"

	return res
}

// byConvention records a name match and grades it by type compatibility.
func (c *directionContext) byConvention(res MemberMatch, s analyze.Member) MemberMatch {
	compat := match.ScoreTypeCompatibility(c.env, s.Type, res.Member.Type)

	res.Counterpart = &s
	res.Compat = compat
	res.Category = categoryFor(compat)
	res.Explanation = compat.Reason

	return res
}

// categoryFor maps a compatibility verdict onto a member category.
func categoryFor(compat match.TypeCompatibilityResult) diagnostic.Category {
	switch compat.Compatibility {
	case match.TypeIncompatible:
		return diagnostic.CategoryTypeIncompatible
	case match.TypeCollectionShapeMismatch:
		return diagnostic.CategoryCollectionShapeMismatch
	case match.TypeElementIncompatible:
		return diagnostic.CategoryCollectionElementMismatch
	case match.TypeNestedUnmapped:
		return diagnostic.CategoryNestedMappingMissing
	case match.TypeNullableToNonNullable:
		return diagnostic.CategoryNullabilityMismatch
	default:
		return diagnostic.CategoryMatchedByConvention
	}
}

// classifySource decides whether one readable source member reaches the
// destination. Only data loss is of interest; type problems are reported on
// the destination side.
func (c *directionContext) classifySource(m analyze.Member) MemberMatch {
	res := MemberMatch{Member: m, Side: SideSource}

	switch {
	case c.bindings.SourceIgnored(m.Name):
		res.Category = diagnostic.CategoryIgnored
		res.Explanation = "validation disabled by ForSourceMember"
	case c.bindings.SourceConsumed(m.Name):
		res.Category = diagnostic.CategoryMatchedExplicitly
		res.Explanation = "read by an explicit mapping"
	default:
		if d, ok := c.dst.exact(m.Name); ok {
			res.Counterpart = &d
			res.Category = diagnostic.CategoryMatchedByConvention
			res.Explanation = "destination member has the same name"

			return res
		}

		if d, ok := c.dst.caseVariant(m.Name); ok {
			res.Counterpart = &d
			res.Category = diagnostic.CategoryUnmatchedCaseVariant
			res.Explanation = fmt.Sprintf("destination member %s differs only in case", d.Name)

			return res
		}

		if d, ok := c.flattenedTarget(m); ok {
			res.Counterpart = &d
			res.Category = diagnostic.CategoryMatchedByFlattening
			res.Explanation = fmt.Sprintf("flattened into %s", d.Name)

			return res
		}

		res.Category = diagnostic.CategoryUnmatchedNoCandidate
		res.Explanation = "no destination member found"
	}

	return res
}
