package analyze

import (
	"strings"
)

// MemberPath builds a readable dotted path through members.
// Examples:
//   - "Order" for a type
//   - "Order.Customer.Name" for a nested member
//   - "Order.Lines[].Sku" for a member of collection elements
type MemberPath struct {
	parts []string
}

// NewMemberPath creates a new MemberPath from a root name.
func NewMemberPath(root string) *MemberPath {
	return &MemberPath{
		parts: []string{root},
	}
}

// ParseMemberPath splits "Customer.Address.City" into a path.
// Empty segments are dropped.
func ParseMemberPath(s string) *MemberPath {
	p := &MemberPath{}

	for _, part := range strings.Split(s, ".") {
		if part = strings.TrimSpace(part); part != "" {
			p.parts = append(p.parts, part)
		}
	}

	return p
}

// Member appends a member name to the path.
func (p *MemberPath) Member(name string) *MemberPath {
	return &MemberPath{
		parts: append(append([]string{}, p.parts...), name),
	}
}

// Elements marks the last segment as a collection "[]".
func (p *MemberPath) Elements() *MemberPath {
	if len(p.parts) == 0 {
		return &MemberPath{parts: []string{"[]"}}
	}

	newParts := make([]string, len(p.parts))
	copy(newParts, p.parts)
	newParts[len(newParts)-1] += "[]"

	return &MemberPath{parts: newParts}
}

// Segments returns the path segments.
func (p *MemberPath) Segments() []string {
	return append([]string(nil), p.parts...)
}

// Root returns the first segment, or "".
func (p *MemberPath) Root() string {
	if len(p.parts) == 0 {
		return ""
	}

	return p.parts[0]
}

// Len returns the number of segments.
func (p *MemberPath) Len() int {
	return len(p.parts)
}

// String returns the full path string.
func (p *MemberPath) String() string {
	return strings.Join(p.parts, ".")
}

// ResolvePath follows a member path from the given type and returns the type
// of the final member. ok is false when a segment does not exist or an
// intermediate type cannot be analysed.
func ResolvePath(g *TypeGraph, root TypeRef, path *MemberPath, scopeParams []string) (TypeRef, bool) {
	cur := root

	for _, seg := range path.parts {
		set, err := ExtractMembers(g, cur.NonNullable(), scopeParams)
		if err != nil {
			return TypeRef{}, false
		}

		m, found := set.Get(seg)
		if !found {
			return TypeRef{}, false
		}

		cur = m.Type
	}

	return cur, true
}
