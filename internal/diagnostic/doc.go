// Package diagnostic defines findings: what a rule reports about one
// registration, where, and how severe it is.
//
// Key capabilities:
//   - Stable rule identifiers (AM001...) consumers rely on for suppression
//   - Member categories produced by the matching engine
//   - Severity buckets with deterministic ordering
package diagnostic
