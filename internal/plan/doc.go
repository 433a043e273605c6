// Package plan classifies every member of a registration's source and
// destination types into a single diagnostic category, per direction.
//
// Resolution pipeline for one direction:
//  1. Extract source and destination member sets (unresolvable types skip the direction)
//  2. Apply the direction's explicit bindings (last write wins)
//  3. Match remaining destination members by exact name, then case variant, then flattening
//  4. Score type compatibility of every convention match
//  5. Attach a fuzzy suggestion to each unmatched member from the opposite side's unmatched pool
//
// Rules consume the resulting ResolvedDirection values and never re-derive
// matches on their own.
package plan
