package common

import "strings"

// UnknownStr is the String() value of out-of-range enum constants.
const UnknownStr = "unknown"

// SplitTopLevel splits s on sep, ignoring separators nested inside (), <>, [] or {}
// and inside string literals. Parts are trimmed of surrounding whitespace.
func SplitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}

			if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			if c == '>' && i > 0 && s[i-1] == '=' {
				// lambda arrow
				continue
			}

			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	if tail := strings.TrimSpace(s[start:]); tail != "" || len(parts) > 0 {
		parts = append(parts, tail)
	}

	return parts
}

// IndexTopLevel returns the index of the first occurrence of token in s that is
// not nested inside brackets or string literals, or -1.
func IndexTopLevel(s, token string) int {
	var (
		depth int
		quote byte
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}

			if c == quote {
				quote = 0
			}

			continue
		}

		if depth == 0 && strings.HasPrefix(s[i:], token) {
			return i
		}

		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}

	return -1
}
