package mapping

import (
	"errors"
	"fmt"
	"strings"

	"mapcheck/internal/analyze"
)

// ParsePath parses a dotted member path such as "Customer.Address.City".
func ParsePath(path string) (*analyze.MemberPath, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}

	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}

		if !isValidIdent(part) {
			return nil, fmt.Errorf("invalid path %q: invalid identifier %q", path, part)
		}
	}

	return analyze.ParseMemberPath(path), nil
}

// MemberSelector extracts the member path an argument selects. Accepted forms:
//   - lambda member access: d => d.Name, (d) => d.Customer.Name
//   - string literal: "Name"
//   - nameof: nameof(Dest.Name)
func MemberSelector(arg analyze.Argument) (*analyze.MemberPath, error) {
	text := strings.TrimSpace(arg.Text)

	lambda := arg.Lambda
	if lambda == nil {
		lambda = analyze.ParseLambda(text)
	}

	switch {
	case lambda != nil:
		param := lambda.Param(0)
		body := strings.TrimSpace(lambda.Body)

		if param == "" || !strings.HasPrefix(body, param+".") {
			return nil, fmt.Errorf("selector %q is not a member access", text)
		}

		return ParsePath(body[len(param)+1:])
	case len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"':
		return ParsePath(text[1 : len(text)-1])
	case strings.HasPrefix(text, "nameof(") && strings.HasSuffix(text, ")"):
		inner := strings.TrimSpace(text[len("nameof(") : len(text)-1])
		if i := strings.LastIndexByte(inner, '.'); i >= 0 {
			inner = inner[i+1:]
		}

		return ParsePath(inner)
	}

	return nil, fmt.Errorf("unsupported member selector %q", text)
}

// isValidIdent checks if a string is a valid C# identifier.
func isValidIdent(s string) bool {
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			// First character must be letter or underscore
			if !isLetter(r) && r != '_' {
				return false
			}
		} else {
			// Subsequent characters can be letter, digit, or underscore
			if !isLetter(r) && !isDigit(r) && r != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
