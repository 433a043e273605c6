package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mapcheck/internal/common"
	"mapcheck/internal/mapping"
	"mapcheck/internal/source"
)

// Stable rule identifiers.
const (
	RuleTypeMismatch          = "AM001"
	RuleNullableMismatch      = "AM002"
	RuleCollectionShape       = "AM003"
	RuleMissingDestination    = "AM004"
	RuleCaseMismatch          = "AM005"
	RuleMissingSource         = "AM006"
	RuleRequiredUnmapped      = "AM011"
	RuleNestedMappingMissing  = "AM020"
	RuleCollectionElement     = "AM021"
	RuleExpensiveOperation    = "AM031"
	RuleMultipleEnumeration   = "AM032"
	RuleNonDeterministicValue = "AM033"
	RuleComplexQueryChain     = "AM034"
	RuleDuplicateRegistration = "AM041"
)

var ruleIDs = []string{
	RuleTypeMismatch, RuleNullableMismatch, RuleCollectionShape,
	RuleMissingDestination, RuleCaseMismatch, RuleMissingSource,
	RuleRequiredUnmapped, RuleNestedMappingMissing, RuleCollectionElement,
	RuleExpensiveOperation, RuleMultipleEnumeration, RuleNonDeterministicValue,
	RuleComplexQueryChain, RuleDuplicateRegistration,
}

// RuleIDs returns every stable rule identifier in ascending order.
func RuleIDs() []string {
	return append([]string(nil), ruleIDs...)
}

// IsRuleID reports whether id is a known rule identifier.
func IsRuleID(id string) bool {
	for _, known := range ruleIDs {
		if known == id {
			return true
		}
	}

	return false
}

// Diagnostics holds findings bucketed by severity.
type Diagnostics struct {
	Errors   []Finding
	Warnings []Finding
	Infos    []Finding
}

// Finding is one diagnostic instance. It is immutable once reported.
type Finding struct {
	// RuleID is the stable rule identifier.
	RuleID string
	// Severity of the finding.
	Severity Severity
	// Category is the member classification that triggered the rule.
	Category Category
	// Document is the path of the reported document.
	Document string
	// Registration is the affected registration; nil for compilation-wide findings.
	Registration *mapping.Registration
	// Direction of the registration the finding belongs to.
	Direction mapping.Direction
	// Members are the affected member names.
	Members []string
	// Args are the positional message arguments.
	Args []string
	// Message is the formatted human-readable description.
	Message string
	// Span is the reporting location.
	Span source.Span
	// Position is the 1-based line and column of Span.Start.
	Position source.Position
	// Suggestion is a fuzzy counterpart for the member, if any.
	Suggestion string
}

// Severity represents the severity level of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// ParseSeverity parses "info", "warning" or "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// Member returns the first affected member, or "".
func (f Finding) Member() string {
	if len(f.Members) == 0 {
		return ""
	}

	return f.Members[0]
}

// String returns a formatted finding string.
func (f Finding) String() string {
	loc := f.Document
	if f.Position.Line > 0 {
		loc = fmt.Sprintf("%s:%s", f.Document, f.Position)
	}

	return fmt.Sprintf("%s: %s %s: %s", loc, f.Severity, f.RuleID, f.Message)
}

// Add stores a finding in the bucket of its severity.
func (d *Diagnostics) Add(f Finding) {
	switch f.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, f)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, f)
	default:
		d.Infos = append(d.Infos, f)
	}
}

// HasErrors returns true if there are any error findings.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Len returns the total number of findings.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// All returns every finding ordered by document, offset, rule and member.
func (d *Diagnostics) All() []Finding {
	all := make([]Finding, 0, d.Len())
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)
	all = append(all, d.Infos...)

	Sort(all)

	return all
}

// ByRule returns the findings reported by one rule, in All order.
func (d *Diagnostics) ByRule(id string) []Finding {
	var out []Finding

	for _, f := range d.All() {
		if f.RuleID == id {
			out = append(out, f)
		}
	}

	return out
}

// Error returns a combined error from all error findings, or nil.
func (d *Diagnostics) Error() error {
	if !d.HasErrors() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// Sort orders findings deterministically.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Document != b.Document {
			return a.Document < b.Document
		}

		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}

		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}

		return a.Member() < b.Member()
	})
}
