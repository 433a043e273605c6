// Package rules holds the rule catalog and the dispatcher that runs it.
//
// A Catalog is a read-only table built once at startup. Each Rule pairs a
// stable identifier with a default severity, a message template and a
// Detector. Member rules report the classification produced by the plan
// package. Chain rules inspect the configuration calls themselves: the
// projection lambdas and duplicate pair registrations.
//
// The Dispatcher walks every call chain of a compilation, resolves each
// registration once, and applies every enabled rule to it. Sites are
// independent and are analysed in parallel up to the configured worker
// count. A registration whose types cannot be resolved is skipped for all
// rules.
package rules
