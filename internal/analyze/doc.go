// Package analyze models the compilation handed over by the host and
// extracts the mappable shape of each type.
//
// The host (see internal/csharp) produces a Compilation: a TypeGraph of
// declared types and the fluent call chains found in every document.
// Nothing in this package parses source text beyond type and lambda
// expressions.
//
// Key types:
//   - TypeRef: a use-site type expression (name, generic args, rank, nullability)
//   - TypeSymbol / PropertySymbol: declared types and their properties
//   - MemberSet: the flattened public instance members of a type, base first
//   - Chain / Call: a fluent chain and its resolved calls
package analyze
