// Package csharp builds an analyze.Compilation from C# source text.
//
// It is a small host: tree-sitter supplies the syntax tree, and the package
// derives just enough of a semantic model from it. That model covers declared
// types with their properties and positional parameters. It also covers the
// fluent call chains of every document, with each call resolved against the
// mapping library vocabulary and the extension methods declared in the
// compilation.
//
// Calls that are neither library calls nor methods declared in the
// compilation are left unresolved.
package csharp
