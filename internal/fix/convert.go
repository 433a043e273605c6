package fix

import (
	"mapcheck/internal/analyze"
	"mapcheck/internal/match"
)

// parseable are the types with a static Parse(string) method.
var parseable = map[string]bool{
	"bool": true, "Guid": true, "DateTime": true, "DateTimeOffset": true,
	"TimeSpan": true, "DateOnly": true, "TimeOnly": true,
}

// convertMethods maps a target type onto its System.Convert method.
var convertMethods = map[string]string{
	"bool": "ToBoolean", "char": "ToChar", "byte": "ToByte", "sbyte": "ToSByte",
	"short": "ToInt16", "ushort": "ToUInt16", "int": "ToInt32", "uint": "ToUInt32",
	"long": "ToInt64", "ulong": "ToUInt64", "float": "ToSingle", "double": "ToDouble",
	"decimal": "ToDecimal", "DateTime": "ToDateTime",
}

// conversion returns an expression turning expr of type from into type to,
// or "" when no conversion is known.
func conversion(graph *analyze.TypeGraph, expr string, from, to analyze.TypeRef) string {
	src, dst := from.NonNullable(), to.NonNullable()
	if src.ArrayRank > 0 || dst.ArrayRank > 0 || len(src.Args) > 0 || len(dst.Args) > 0 {
		return ""
	}

	srcEnum, dstEnum := isEnum(graph, src), isEnum(graph, dst)

	switch {
	case match.IsStringType(dst.Name):
		return expr + ".ToString()"
	case match.IsStringType(src.Name) && (match.IsNumericType(dst.Name) && dst.Name != "char" || parseable[dst.Name]):
		return dst.Name + ".Parse(" + expr + ")"
	case match.IsStringType(src.Name) && dstEnum:
		return "Enum.Parse<" + dst.String() + ">(" + expr + ")"
	case match.IsNumericType(dst.Name) && (match.IsNumericType(src.Name) || srcEnum):
		return "(" + dst.Name + ")" + expr
	case dstEnum && match.IsNumericType(src.Name):
		return "(" + dst.String() + ")" + expr
	case (match.IsNumericType(src.Name) || src.Name == "bool") && convertMethods[dst.Name] != "":
		return "Convert." + convertMethods[dst.Name] + "(" + expr + ")"
	default:
		return ""
	}
}

// reshape converts between a single value and a collection of that value.
func reshape(expr string, from, to analyze.TypeRef) string {
	if elem, ok := to.Element(); ok && !from.IsCollection() && sameType(elem, from) {
		if to.ArrayRank > 0 {
			return "new[] { " + expr + " }"
		}

		return "new " + concreteCollection(to, elem) + " { " + expr + " }"
	}

	if elem, ok := from.Element(); ok && !to.IsCollection() && sameType(elem, to) {
		return expr + ".FirstOrDefault()"
	}

	return ""
}

// project converts every element of a collection.
func project(graph *analyze.TypeGraph, expr string, from, to analyze.TypeRef) string {
	srcElem, ok := from.Element()
	if !ok {
		return ""
	}

	dstElem, ok := to.Element()
	if !ok {
		return ""
	}

	conv := conversion(graph, "e", srcElem, dstElem)
	if conv == "" {
		return ""
	}

	return expr + ".Select(e => " + conv + ")" + materialize(to)
}

// materialize returns the LINQ call producing a collection assignable to t.
func materialize(t analyze.TypeRef) string {
	if t.ArrayRank > 0 {
		return ".ToArray()"
	}

	switch t.ShortName() {
	case "HashSet", "ISet":
		return ".ToHashSet()"
	default:
		return ".ToList()"
	}
}

// concreteCollection names a constructible type assignable to t.
func concreteCollection(t, elem analyze.TypeRef) string {
	switch t.ShortName() {
	case "List", "HashSet", "Collection", "ObservableCollection":
		return t.NonNullable().String()
	case "ISet":
		return "HashSet<" + elem.String() + ">"
	default:
		return "List<" + elem.String() + ">"
	}
}

func sameType(a, b analyze.TypeRef) bool {
	return a.NonNullable().Key() == b.NonNullable().Key()
}

func isEnum(graph *analyze.TypeGraph, t analyze.TypeRef) bool {
	sym := graph.Lookup(t)
	return sym != nil && sym.Kind == analyze.TypeKindEnum
}
