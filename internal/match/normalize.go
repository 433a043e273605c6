package match

import (
	"strings"
	"unicode"

	"github.com/fatih/camelcase"
	"golang.org/x/text/cases"
)

// Tokens splits an identifier into its camel-case words, dropping separators.
// Examples:
//   - "OrderID" -> ["Order", "ID"]
//   - "customer_name" -> ["customer", "name"]
//   - "XMLParser" -> ["XML", "Parser"]
func Tokens(s string) []string {
	var tokens []string

	for _, part := range camelcase.Split(s) {
		if strings.IndexFunc(part, isWordRune) < 0 {
			continue
		}

		tokens = append(tokens, part)
	}

	return tokens
}

// TokenizeIdent splits an identifier into lowercase tokens.
func TokenizeIdent(s string) []string {
	tokens := Tokens(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

// NormalizeIdent normalizes an identifier for loose comparison:
// camel-case words are joined without separators and lowercased, so
// "customer_id", "CustomerId" and "CustomerID" all become "customerid".
func NormalizeIdent(s string) string {
	return strings.Join(TokenizeIdent(s), "")
}

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	// A Caser is stateful; build one per call.
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return a == b || Fold(a) == Fold(b)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
