package rules

import (
	"fmt"

	"mapcheck/internal/diagnostic"
	"mapcheck/internal/plan"
)

// memberArgs produces a member rule's positional message arguments.
type memberArgs func(rd *plan.ResolvedDirection, m plan.MemberMatch) []string

// targetDetector reports every destination member classified into the
// rule's category, at the span of the direction's registration call.
func targetDetector(args memberArgs) Detector {
	return func(site *Site, rule *Rule) []diagnostic.Finding {
		var out []diagnostic.Finding

		for _, rd := range site.Resolved.Directions {
			for _, m := range rd.Targets {
				if inCategory(rule.Category, m.Category) {
					out = append(out, memberFinding(site, rule, rd, m, args(rd, m)))
				}
			}
		}

		return out
	}
}

// sourceDetector reports source members whose value reaches no destination
// member.
func sourceDetector(site *Site, rule *Rule) []diagnostic.Finding {
	var out []diagnostic.Finding

	for _, rd := range site.Resolved.Directions {
		for _, m := range rd.Sources {
			if inCategory(rule.Category, m.Category) {
				out = append(out, memberFinding(site, rule, rd, m, []string{m.Member.Name, rd.Dest.String()}))
			}
		}
	}

	return out
}

func memberFinding(site *Site, rule *Rule, rd *plan.ResolvedDirection, m plan.MemberMatch, args []string) diagnostic.Finding {
	reg := rd.Registration

	f := site.newFinding(rule, rd.Direction, reg.Span(rd.Direction), []string{m.Member.Name}, args...)
	f.Category = m.Category

	if m.Suggestion != "" {
		f.Suggestion = m.Suggestion
		f.Message += fmt.Sprintf(". Did you mean '%s'?", m.Suggestion)
	}

	return f
}

// inCategory matches a member category against a rule's category. The
// unmatched rules cover members with and without a fuzzy suggestion.
func inCategory(rule, member diagnostic.Category) bool {
	if rule == diagnostic.CategoryUnmatchedNoCandidate {
		return member.IsUnmatched()
	}

	return rule == member
}

func typeArgs(_ *plan.ResolvedDirection, m plan.MemberMatch) []string {
	return []string{m.Member.Name, m.Compat.Source.String(), m.Compat.Target.String()}
}

func caseArgs(_ *plan.ResolvedDirection, m plan.MemberMatch) []string {
	return []string{m.Member.Name, m.CounterpartName()}
}

func ownerArgs(rd *plan.ResolvedDirection, m plan.MemberMatch) []string {
	return []string{m.Member.Name, rd.Dest.String(), rd.Source.String()}
}

func elementArgs(_ *plan.ResolvedDirection, m plan.MemberMatch) []string {
	if m.Compat.Element {
		return []string{m.Member.Name, m.Compat.SourceElem.String(), m.Compat.TargetElem.String()}
	}

	return typeArgs(nil, m)
}
