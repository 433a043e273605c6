package match

import (
	"sort"
	"unicode/utf8"
)

// Fuzzy matching defaults.
const (
	// DefaultMaxDistance is the largest edit distance accepted for a suggestion.
	DefaultMaxDistance = 2
	// DefaultShortNameLength is the longest name limited to distance 1.
	DefaultShortNameLength = 4
)

// FuzzyOptions bounds fuzzy name suggestions.
type FuzzyOptions struct {
	MaxDistance     int
	ShortNameLength int
}

// DefaultFuzzyOptions returns the default suggestion bounds.
func DefaultFuzzyOptions() FuzzyOptions {
	return FuzzyOptions{
		MaxDistance:     DefaultMaxDistance,
		ShortNameLength: DefaultShortNameLength,
	}
}

// Threshold returns the largest distance accepted for a candidate of name.
func (o FuzzyOptions) Threshold(name string) int {
	if utf8.RuneCountInString(name) <= o.ShortNameLength {
		return min(1, o.MaxDistance)
	}

	return o.MaxDistance
}

// Candidate is a possible counterpart for an unmatched member.
type Candidate struct {
	Name     string // Opposite-side member name
	Distance int    // Edit distance between normalised names
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// RankCandidates returns the members of pool whose edit distance to target
// is within the threshold, closest first. Names are compared in their
// normalised, case-folded form, so separators do not count as edits.
func RankCandidates(target string, pool []string, opts FuzzyOptions) CandidateList {
	var candidates CandidateList

	key := matchKey(target)
	limit := opts.Threshold(target)

	for _, name := range pool {
		if name == target {
			continue
		}

		d, ok := LevenshteinWithin(key, matchKey(name), limit)
		if !ok {
			continue
		}

		candidates = append(candidates, Candidate{Name: name, Distance: d})
	}

	sort.Sort(candidates)

	return candidates
}

// matchKey is the form names are compared in for fuzzy ranking.
func matchKey(name string) string {
	if n := NormalizeIdent(name); n != "" {
		return Fold(n)
	}

	return Fold(name)
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by distance ascending, then by name for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Distance != c[j].Distance {
		return c[i].Distance < c[j].Distance
	}

	return c[i].Name < c[j].Name
}

// Best returns the closest candidate, or nil if no candidates.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}

	return &c[0]
}

// IsAmbiguous returns true if the two closest candidates are equally close.
func (c CandidateList) IsAmbiguous() bool {
	return len(c) > 1 && c[0].Distance == c[1].Distance
}

// Unique returns the closest candidate when it is strictly closer than every
// other one. Returns nil if no clear winner exists.
func (c CandidateList) Unique() *Candidate {
	if c.IsAmbiguous() {
		return nil
	}

	return c.Best()
}

// Suggest returns the single best fuzzy counterpart for target among pool.
func Suggest(target string, pool []string, opts FuzzyOptions) (string, bool) {
	best := RankCandidates(target, pool, opts).Unique()
	if best == nil {
		return "", false
	}

	return best.Name, true
}
