package rules

import (
	"fmt"
	"sort"

	"mapcheck/internal/common"
	"mapcheck/internal/diagnostic"
)

// Scope tells what a rule reports on.
type Scope int

const (
	// ScopeMember rules report one finding per affected member.
	ScopeMember Scope = iota
	// ScopeChain rules report on configuration calls of the chain.
	ScopeChain
)

// String returns a human-readable representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeMember:
		return "member"
	case ScopeChain:
		return "chain"
	default:
		return common.UnknownStr
	}
}

// Detector finds the violations of one rule at one registration site.
// Detectors are pure functions of the site.
type Detector func(site *Site, rule *Rule) []diagnostic.Finding

// Rule is one catalog entry.
type Rule struct {
	ID              string
	Name            string
	Description     string
	DefaultSeverity diagnostic.Severity
	Category        diagnostic.Category
	Scope           Scope
	// Message is a fmt template over the finding's positional arguments.
	Message string
	// Fixable is set when the fix synthesizer has proposals for the rule.
	Fixable bool
	Detect  Detector
}

// Format renders the rule's message with positional arguments.
func (r *Rule) Format(args ...string) string {
	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a
	}

	return fmt.Sprintf(r.Message, values...)
}

// Catalog is the read-only table of rules, built once at startup.
type Catalog struct {
	rules []*Rule
	byID  map[string]*Rule
}

// NewCatalog builds a catalog. Rule ids must be unique.
func NewCatalog(rules ...*Rule) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Rule, len(rules))}

	for _, r := range rules {
		if r.ID == "" || r.Detect == nil {
			return nil, fmt.Errorf("rule %q: id and detector are required", r.ID)
		}

		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("rule %s registered twice", r.ID)
		}

		c.byID[r.ID] = r
		c.rules = append(c.rules, r)
	}

	sort.SliceStable(c.rules, func(i, j int) bool {
		return c.rules[i].ID < c.rules[j].ID
	})

	return c, nil
}

// Get returns a rule by id.
func (c *Catalog) Get(id string) (*Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Has returns true if a rule with the given id exists.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns all rules ordered by id.
func (c *Catalog) All() []*Rule {
	return append([]*Rule(nil), c.rules...)
}

// IDs returns all rule ids in ascending order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.rules))
	for i, r := range c.rules {
		ids[i] = r.ID
	}

	return ids
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// DefaultCatalog returns the catalog of every built-in rule.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtin()...)
	if err != nil {
		panic(err)
	}

	return c
}

func builtin() []*Rule {
	return []*Rule{
		{
			ID:              diagnostic.RuleTypeMismatch,
			Name:            "property-type-mismatch",
			Description:     "A member matched by name has a type that cannot be mapped to the destination type.",
			DefaultSeverity: diagnostic.SeverityError,
			Category:        diagnostic.CategoryTypeIncompatible,
			Scope:           ScopeMember,
			Message:         "Property '%[1]s' type mismatch: source is '%[2]s' but destination is '%[3]s'",
			Fixable:         true,
			Detect:          targetDetector(typeArgs),
		},
		{
			ID:              diagnostic.RuleNullableMismatch,
			Name:            "nullable-to-non-nullable",
			Description:     "A nullable source value is mapped into a non-nullable value-type member.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryNullabilityMismatch,
			Scope:           ScopeMember,
			Message:         "Property '%[1]s' maps nullable '%[2]s' to non-nullable '%[3]s'",
			Fixable:         true,
			Detect:          targetDetector(typeArgs),
		},
		{
			ID:              diagnostic.RuleCollectionShape,
			Name:            "collection-shape-incompatible",
			Description:     "Only one side of a member match is a collection.",
			DefaultSeverity: diagnostic.SeverityError,
			Category:        diagnostic.CategoryCollectionShapeMismatch,
			Scope:           ScopeMember,
			Message:         "Property '%[1]s' cannot map '%[2]s' to '%[3]s': incompatible collection shape",
			Fixable:         true,
			Detect:          targetDetector(typeArgs),
		},
		{
			ID:              diagnostic.RuleMissingDestination,
			Name:            "missing-destination-member",
			Description:     "A source member has no destination counterpart and its value would be lost.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryUnmatchedNoCandidate,
			Scope:           ScopeMember,
			Message:         "Source member '%[1]s' has no corresponding member on '%[2]s' and will not be mapped",
			Fixable:         true,
			Detect:          sourceDetector,
		},
		{
			ID:              diagnostic.RuleCaseMismatch,
			Name:            "case-only-mismatch",
			Description:     "A destination member differs from a source member only in letter case.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryUnmatchedCaseVariant,
			Scope:           ScopeMember,
			Message:         "Destination member '%[1]s' differs only in case from source member '%[2]s'",
			Fixable:         true,
			Detect:          targetDetector(caseArgs),
		},
		{
			ID:              diagnostic.RuleMissingSource,
			Name:            "missing-source-member",
			Description:     "A destination member has no source counterpart and is left unmapped.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryUnmatchedNoCandidate,
			Scope:           ScopeMember,
			Message:         "Destination member '%[1]s' on '%[2]s' has no corresponding source member on '%[3]s'",
			Fixable:         true,
			Detect:          targetDetector(ownerArgs),
		},
		{
			ID:              diagnostic.RuleRequiredUnmapped,
			Name:            "required-member-unmapped",
			Description:     "A required destination member has no source and no explicit configuration.",
			DefaultSeverity: diagnostic.SeverityError,
			Category:        diagnostic.CategoryRequiredUnmapped,
			Scope:           ScopeMember,
			Message:         "Required member '%[1]s' on '%[2]s' is not mapped from '%[3]s'",
			Fixable:         true,
			Detect:          targetDetector(ownerArgs),
		},
		{
			ID:              diagnostic.RuleNestedMappingMissing,
			Name:            "nested-mapping-missing",
			Description:     "A complex member or collection element has no registered mapping for its type pair.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryNestedMappingMissing,
			Scope:           ScopeMember,
			Message:         "Property '%[1]s' needs a mapping from '%[2]s' to '%[3]s'",
			Fixable:         true,
			Detect:          targetDetector(elementArgs),
		},
		{
			ID:              diagnostic.RuleCollectionElement,
			Name:            "collection-element-mismatch",
			Description:     "Collection element types cannot be mapped to each other.",
			DefaultSeverity: diagnostic.SeverityError,
			Category:        diagnostic.CategoryCollectionElementMismatch,
			Scope:           ScopeMember,
			Message:         "Collection '%[1]s' element type '%[2]s' cannot be mapped to '%[3]s'",
			Fixable:         true,
			Detect:          targetDetector(elementArgs),
		},
		{
			ID:              diagnostic.RuleExpensiveOperation,
			Name:            "expensive-operation-in-projection",
			Description:     "A value projection performs I/O, blocking waits, reflection or data access.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryPerformance,
			Scope:           ScopeChain,
			Message:         "Projection for '%[1]s' performs an expensive operation: %[2]s",
			Detect:          detectExpensive,
		},
		{
			ID:              diagnostic.RuleMultipleEnumeration,
			Name:            "multiple-enumeration",
			Description:     "A value projection enumerates the same source collection more than once.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryPerformance,
			Scope:           ScopeChain,
			Message:         "Projection for '%[1]s' enumerates source collection '%[2]s' %[3]s times",
			Detect:          detectMultipleEnumeration,
		},
		{
			ID:              diagnostic.RuleNonDeterministicValue,
			Name:            "non-deterministic-value",
			Description:     "A value projection reads the clock, random numbers or new identifiers.",
			DefaultSeverity: diagnostic.SeverityInfo,
			Category:        diagnostic.CategoryPerformance,
			Scope:           ScopeChain,
			Message:         "Projection for '%[1]s' uses non-deterministic value '%[2]s'",
			Detect:          detectNonDeterministic,
		},
		{
			ID:              diagnostic.RuleComplexQueryChain,
			Name:            "complex-query-chain",
			Description:     "A value projection chains more query operators than configured.",
			DefaultSeverity: diagnostic.SeverityInfo,
			Category:        diagnostic.CategoryPerformance,
			Scope:           ScopeChain,
			Message:         "Projection for '%[1]s' chains %[2]s query operators (limit %[3]s)",
			Detect:          detectComplexQuery,
		},
		{
			ID:              diagnostic.RuleDuplicateRegistration,
			Name:            "duplicate-registration",
			Description:     "The same source and destination pair is registered more than once.",
			DefaultSeverity: diagnostic.SeverityWarning,
			Category:        diagnostic.CategoryDuplicateRegistration,
			Scope:           ScopeChain,
			Message:         "Mapping '%[1]s' is already registered at %[2]s",
			Detect:          detectDuplicates,
		},
	}
}
