package common

import "strings"

// ShortName returns the last segment of a dotted, namespace-qualified name.
// Returns empty string if name is empty.
func ShortName(name string) string {
	if name == "" {
		return ""
	}

	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}

	return name
}

// Namespace returns everything before the last dot of a qualified name.
func Namespace(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}

	return ""
}
