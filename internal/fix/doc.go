// Package fix synthesizes code fixes for member findings.
//
// A Proposal is a named remediation made of text insertions. Edits are pure:
// each one carries the text it was anchored to so that it can be applied to
// a document that earlier proposals have already changed. Applying an edit
// twice leaves the document unchanged.
//
// Proposals for one finding come in a fixed order: ignore the member first,
// then create it on the other side, then bind it to a fuzzy candidate. Once a
// registration direction collects enough missing-member findings on one
// side, the per-member proposals move under two bulk proposals that ignore
// or create every member in a single edit.
//
// When no safe insertion point exists, for example because the chain holds
// a call the host could not resolve, the finding gets no proposals.
package fix
