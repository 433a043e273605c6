package diagnostic

//go:generate go tool stringer -type=Category -linecomment -output=category_string.go

// Category is the classification of one member (or chain) by the matching
// engine. Categories from CategoryUnmatchedNoCandidate on are problems.
type Category int

const (
	CategoryMatchedByConvention    Category = iota // matched-by-convention
	CategoryMatchedExplicitly                      // matched-explicitly
	CategoryMatchedByFlattening                    // matched-by-flattening
	CategoryIgnored                                // ignored
	CategoryUnmatchedNoCandidate                   // unmatched-no-candidate
	CategoryUnmatchedFuzzyCandidate                // unmatched-fuzzy-candidate
	CategoryUnmatchedCaseVariant                   // unmatched-case-variant
	CategoryTypeIncompatible                       // type-incompatible
	CategoryNullabilityMismatch                    // nullability-mismatch
	CategoryCollectionShapeMismatch                // collection-shape-mismatch
	CategoryCollectionElementMismatch              // collection-element-mismatch
	CategoryNestedMappingMissing                   // nested-mapping-missing
	CategoryRequiredUnmapped                       // required-unmapped
	CategoryPerformance                            // performance-antipattern
	CategoryDuplicateRegistration                  // duplicate-registration
)

// IsProblem returns true for categories that lead to a finding.
func (c Category) IsProblem() bool {
	return c >= CategoryUnmatchedNoCandidate
}

// IsUnmatched returns true when no counterpart was found by name.
func (c Category) IsUnmatched() bool {
	return c == CategoryUnmatchedNoCandidate || c == CategoryUnmatchedFuzzyCandidate
}
