package rules

import (
	"fmt"

	"mapcheck/internal/analyze"
	"mapcheck/internal/config"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/plan"
	"mapcheck/internal/source"
)

// Site is one analysable registration call site with everything rules need.
type Site struct {
	Compilation  *analyze.Compilation
	Document     *analyze.Document
	Registration *mapping.Registration
	Resolved     *plan.ResolvedRegistration
	Pairs        *mapping.PairRegistry
	// Duplicates are the declarations of this site repeating an earlier one.
	Duplicates []mapping.Duplicate
	Config     *config.Config

	projections []projection
	lexed       bool
}

// Graph returns the compilation's type graph.
func (s *Site) Graph() *analyze.TypeGraph {
	return s.Compilation.Graph
}

// Location formats a span of a document as "path:line:col".
func (s *Site) Location(path string, span source.Span) string {
	doc := s.Compilation.Document(path)
	if doc == nil {
		return path
	}

	return fmt.Sprintf("%s:%s", path, source.PositionOf(doc.Text, span.Start))
}

// newFinding builds a finding of rule for one direction of the site.
func (s *Site) newFinding(
	rule *Rule,
	d mapping.Direction,
	span source.Span,
	members []string,
	args ...string,
) diagnostic.Finding {
	f := diagnostic.Finding{
		RuleID:       rule.ID,
		Severity:     rule.DefaultSeverity,
		Category:     rule.Category,
		Document:     s.Registration.Document,
		Registration: s.Registration,
		Direction:    d,
		Members:      members,
		Args:         args,
		Message:      rule.Format(args...),
		Span:         span,
	}

	if s.Document != nil {
		f.Position = source.PositionOf(s.Document.Text, span.Start)
	}

	return f
}
