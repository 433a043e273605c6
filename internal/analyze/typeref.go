package analyze

import (
	"errors"
	"fmt"
	"strings"

	"mapcheck/internal/common"
)

// TypeRef is a structural reference to a type as written at a use site:
// a name, optional generic arguments, array rank and nullability.
// Array types keep their element in Name/Args and record the rank separately.
type TypeRef struct {
	Name      string    // e.g. "List", "int", "Shop.Order"
	Args      []TypeRef // generic arguments
	ArrayRank int       // number of [] suffixes
	Nullable  bool      // trailing ? on the outermost type
}

// aliases maps framework type names onto their C# keyword spelling.
var aliases = map[string]string{
	"Boolean": "bool", "Byte": "byte", "SByte": "sbyte", "Int16": "short",
	"UInt16": "ushort", "Int32": "int", "UInt32": "uint", "Int64": "long",
	"UInt64": "ulong", "Single": "float", "Double": "double", "Decimal": "decimal",
	"Char": "char", "String": "string", "Object": "object",
}

// collectionNames are generic types whose single argument is an element type.
var collectionNames = map[string]struct{}{
	"List": {}, "IList": {}, "ICollection": {}, "IEnumerable": {},
	"IReadOnlyList": {}, "IReadOnlyCollection": {}, "HashSet": {}, "ISet": {},
	"Collection": {}, "ObservableCollection": {}, "ReadOnlyCollection": {},
	"Queue": {}, "Stack": {}, "LinkedList": {}, "SortedSet": {},
	"ImmutableList": {}, "ImmutableArray": {}, "IQueryable": {},
}

// ParseTypeRef parses a C#-style type expression such as "List<string>",
// "int?", "Order[]" or "Dictionary<string, List<int>>".
func ParseTypeRef(text string) (TypeRef, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TypeRef{}, errors.New("empty type expression")
	}

	var ref TypeRef

	for {
		if strings.HasSuffix(text, "[]") {
			ref.ArrayRank++
			text = strings.TrimSpace(strings.TrimSuffix(text, "[]"))

			continue
		}

		if strings.HasSuffix(text, "?") {
			// Element nullability of arrays (int?[]) is not tracked.
			if ref.ArrayRank == 0 {
				ref.Nullable = true
			}

			text = strings.TrimSpace(strings.TrimSuffix(text, "?"))

			continue
		}

		break
	}

	if open := strings.IndexByte(text, '<'); open >= 0 {
		if !strings.HasSuffix(text, ">") {
			return TypeRef{}, fmt.Errorf("unbalanced generic arguments in %q", text)
		}

		inner := text[open+1 : len(text)-1]
		text = strings.TrimSpace(text[:open])

		parts := common.SplitTopLevel(inner, ',')
		if len(parts) == 0 {
			parts = []string{""}
		}

		for _, part := range parts {
			if part == "" {
				// Open generic such as Source<> or Map<,>.
				ref.Args = append(ref.Args, TypeRef{})
				continue
			}

			arg, err := ParseTypeRef(part)
			if err != nil {
				return TypeRef{}, err
			}

			ref.Args = append(ref.Args, arg)
		}
	}

	if (text == "Nullable" || text == "System.Nullable") && len(ref.Args) == 1 {
		inner := ref.Args[0]
		inner.Nullable = true
		inner.ArrayRank += ref.ArrayRank

		return inner, nil
	}

	if !isTypeName(text) {
		return TypeRef{}, fmt.Errorf("invalid type name %q", text)
	}

	ref.Name = normalizeName(text)

	return ref, nil
}

// TypeRefOf parses text like ParseTypeRef but never fails: a type expression
// it cannot read (tuples, pointers) becomes an opaque reference named by its
// text, which matches itself and is opaque to everything else.
func TypeRefOf(text string) TypeRef {
	if ref, err := ParseTypeRef(text); err == nil {
		return ref
	}

	return TypeRef{Name: strings.Join(strings.Fields(text), " ")}
}

// MustParseTypeRef is ParseTypeRef for literals known to be valid.
func MustParseTypeRef(text string) TypeRef {
	ref, err := ParseTypeRef(text)
	if err != nil {
		panic(err)
	}

	return ref
}

func normalizeName(name string) string {
	name = strings.TrimPrefix(name, "global::")
	short := strings.TrimPrefix(name, "System.")

	if alias, ok := aliases[short]; ok {
		return alias
	}

	return name
}

func isTypeName(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_' || r == '.' || r == ':' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}

// String renders the reference in C# syntax.
func (t TypeRef) String() string {
	var b strings.Builder

	b.WriteString(t.Name)

	if len(t.Args) > 0 {
		b.WriteByte('<')

		for i, arg := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(arg.String())
		}

		b.WriteByte('>')
	}

	if t.ArrayRank == 0 && t.Nullable {
		b.WriteByte('?')
	}

	for range t.ArrayRank {
		b.WriteString("[]")
	}

	if t.ArrayRank > 0 && t.Nullable {
		b.WriteByte('?')
	}

	return b.String()
}

// Key identifies the type independent of nullability. Two references with the
// same key denote the same type.
func (t TypeRef) Key() string {
	return t.NonNullable().String()
}

// IsZero returns true for the empty reference (e.g. an open generic slot).
func (t TypeRef) IsZero() bool {
	return t.Name == "" && len(t.Args) == 0 && t.ArrayRank == 0
}

// NonNullable returns the reference without its outer nullable marker.
func (t TypeRef) NonNullable() TypeRef {
	t.Nullable = false
	return t
}

// ShortName returns the unqualified type name.
func (t TypeRef) ShortName() string {
	return common.ShortName(t.Name)
}

// IsOpen returns true if any generic slot is left unspecified (Source<>).
func (t TypeRef) IsOpen() bool {
	for _, arg := range t.Args {
		if arg.IsZero() || arg.IsOpen() {
			return true
		}
	}

	return false
}

// Mentions reports whether the reference uses any of the given type names,
// at any depth. Used to detect type parameters of an enclosing scope.
func (t TypeRef) Mentions(names []string) bool {
	for _, n := range names {
		if t.Name == n {
			return true
		}
	}

	for _, arg := range t.Args {
		if arg.Mentions(names) {
			return true
		}
	}

	return false
}

// IsCollection reports whether the reference is an array or a known
// single-argument collection type.
func (t TypeRef) IsCollection() bool {
	_, ok := t.Element()
	return ok
}

// Element returns the element type of an array or collection reference.
func (t TypeRef) Element() (TypeRef, bool) {
	if t.ArrayRank > 0 {
		elem := t
		elem.ArrayRank--
		elem.Nullable = false

		return elem, true
	}

	if _, ok := collectionNames[t.ShortName()]; ok && len(t.Args) == 1 {
		return t.Args[0], true
	}

	return TypeRef{}, false
}

// primitiveNames are the keyword and framework value types treated as scalars.
var primitiveNames = map[string]struct{}{
	"bool": {}, "byte": {}, "sbyte": {}, "short": {}, "ushort": {}, "int": {},
	"uint": {}, "long": {}, "ulong": {}, "float": {}, "double": {}, "decimal": {},
	"char": {}, "string": {}, "object": {}, "DateTime": {}, "DateTimeOffset": {},
	"TimeSpan": {}, "Guid": {}, "DateOnly": {}, "TimeOnly": {},
}

// IsPrimitive reports whether the reference is a scalar framework type.
func (t TypeRef) IsPrimitive() bool {
	if t.ArrayRank > 0 || len(t.Args) > 0 {
		return false
	}

	_, ok := primitiveNames[strings.TrimPrefix(t.Name, "System.")]

	return ok
}

// IsValueType reports whether the reference is a known non-reference scalar.
func (t TypeRef) IsValueType() bool {
	return t.IsPrimitive() && t.Name != "string" && t.Name != "object"
}
