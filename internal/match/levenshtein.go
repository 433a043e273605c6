package match

// LevenshteinWithin computes the edit distance between a and b: the minimum
// number of single-rune insertions, deletions or substitutions turning one
// into the other. It gives up as soon as the distance is certain to exceed
// limit; ok is false in that case and the returned distance is only a lower
// bound. A negative limit never gives up.
//
// Time complexity: O(len(a) * len(b))
// Space complexity: O(min(len(a), len(b))).
func LevenshteinWithin(a, b string, limit int) (int, bool) {
	return levenshtein([]rune(a), []rune(b), limit)
}

func levenshtein(a, b []rune, limit int) (int, bool) {
	if len(a) > len(b) {
		a, b = b, a
	}

	if limit >= 0 && len(b)-len(a) > limit {
		return len(b) - len(a), false
	}

	if len(a) == 0 {
		return len(b), limit < 0 || len(b) <= limit
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		rowMin := curr[0]

		for i := 1; i <= len(a); i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
			rowMin = min(rowMin, curr[i])
		}

		if limit >= 0 && rowMin > limit {
			return rowMin, false
		}

		prev, curr = curr, prev
	}

	d := prev[len(a)]

	return d, limit < 0 || d <= limit
}
