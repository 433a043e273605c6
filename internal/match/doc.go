// Package match provides the matching primitives used to pair members of two
// mapped types: identifier tokenisation and case folding, Levenshtein
// distance, fuzzy candidate ranking and type compatibility scoring.
//
// Key functions:
//   - Tokens / NormalizeIdent / Fold: identifier normalisation
//   - LevenshteinWithin: edit distance with an optional bound
//   - Suggest: the unique fuzzy counterpart within the distance threshold
//   - ScoreTypeCompatibility: the compatibility ladder between two type references
package match
