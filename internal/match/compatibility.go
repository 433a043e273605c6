package match

import (
	"fmt"

	"mapcheck/internal/analyze"
)

// TypeCompatibility represents the level of compatibility between a source
// member type and a destination member type. Higher is better; every level
// from TypeOpaque upwards is mappable without configuration.
type TypeCompatibility int

const (
	// TypeIncompatible means the mapper cannot convert the value.
	TypeIncompatible TypeCompatibility = iota
	// TypeCollectionShapeMismatch means one side is a collection and the other is not.
	TypeCollectionShapeMismatch
	// TypeElementIncompatible means both sides are collections with unconvertible elements.
	TypeElementIncompatible
	// TypeNestedUnmapped means both sides are complex types with no registered map between them.
	TypeNestedUnmapped
	// TypeNullableToNonNullable means a nullable value type flows into a non-nullable one.
	TypeNullableToNonNullable
	// TypeOpaque means at least one side is not declared in the compilation.
	TypeOpaque
	// TypeConvertible means a built-in conversion applies (narrowing, ToString, enums).
	TypeConvertible
	// TypeNestedMapped means both sides are complex types with a registered map.
	TypeNestedMapped
	// TypeAssignable means the source value can be assigned directly.
	TypeAssignable
	// TypeIdentical means the types are the same.
	TypeIdentical
)

const (
	VerdictIdentical             = "identical"
	VerdictAssignable            = "assignable"
	VerdictNestedMapped          = "nested_mapped"
	VerdictConvertible           = "convertible"
	VerdictOpaque                = "opaque"
	VerdictNullableToNonNullable = "nullable_to_non_nullable"
	VerdictNestedUnmapped        = "nested_unmapped"
	VerdictElementIncompatible   = "element_incompatible"
	VerdictCollectionShape       = "collection_shape_mismatch"
	VerdictIncompatible          = "incompatible"
)

// String returns a human-readable name for the compatibility level.
func (c TypeCompatibility) String() string {
	switch c {
	case TypeIdentical:
		return VerdictIdentical
	case TypeAssignable:
		return VerdictAssignable
	case TypeNestedMapped:
		return VerdictNestedMapped
	case TypeConvertible:
		return VerdictConvertible
	case TypeOpaque:
		return VerdictOpaque
	case TypeNullableToNonNullable:
		return VerdictNullableToNonNullable
	case TypeNestedUnmapped:
		return VerdictNestedUnmapped
	case TypeElementIncompatible:
		return VerdictElementIncompatible
	case TypeCollectionShapeMismatch:
		return VerdictCollectionShape
	case TypeIncompatible:
		return VerdictIncompatible
	default:
		return "unknown"
	}
}

// Compatible returns true if the mapper handles the pair without configuration.
func (c TypeCompatibility) Compatible() bool {
	return c >= TypeOpaque
}

// PairRegistry answers whether a map between two types has been registered
// anywhere in the compilation.
type PairRegistry interface {
	Registered(src, dst analyze.TypeRef) bool
}

// Env carries the lookups compatibility checks need.
type Env struct {
	Graph       *analyze.TypeGraph
	Pairs       PairRegistry // may be nil
	ScopeParams []string     // generic parameters visible at the registration
}

// TypeCompatibilityResult contains detailed information about type compatibility.
type TypeCompatibilityResult struct {
	Compatibility TypeCompatibility
	Reason        string          // Human-readable explanation
	Source        analyze.TypeRef // Source type as compared
	Target        analyze.TypeRef // Destination type as compared
	Element       bool            // The verdict concerns collection elements
	SourceElem    analyze.TypeRef // Source element type when Element is set
	TargetElem    analyze.TypeRef // Destination element type when Element is set
}

// ScoreTypeCompatibility determines the compatibility of mapping a value of
// type source into a member of type target. Collections are compared one
// element level deep.
func ScoreTypeCompatibility(env Env, source, target analyze.TypeRef) TypeCompatibilityResult {
	res := TypeCompatibilityResult{Source: source, Target: target}

	if source.Nullable && !target.Nullable && env.isValueType(target) {
		inner := ScoreTypeCompatibility(env, source.NonNullable(), target)
		if !inner.Compatibility.Compatible() {
			inner.Source = source
			return inner
		}

		res.Compatibility = TypeNullableToNonNullable
		res.Reason = fmt.Sprintf("%s may be null but %s is not nullable", source, target)

		return res
	}

	src, dst := source.NonNullable(), target.NonNullable()

	if src.Key() == dst.Key() {
		res.Compatibility = TypeIdentical
		res.Reason = "types are identical"

		if !source.Nullable && target.Nullable && env.isValueType(dst) {
			res.Compatibility = TypeAssignable
			res.Reason = "value is lifted to nullable"
		}

		return res
	}

	srcElem, srcColl := src.Element()
	dstElem, dstColl := dst.Element()

	switch {
	case srcColl && dstColl:
		return env.scoreElements(res, srcElem, dstElem)
	case srcColl && IsStringType(dst.Name) && dst.ArrayRank == 0:
		res.Compatibility = TypeConvertible
		res.Reason = "collection is converted with ToString()"

		return res
	case srcColl || dstColl:
		res.Compatibility = TypeCollectionShapeMismatch
		res.Reason = fmt.Sprintf("cannot map %s to %s: only one side is a collection", source, target)

		return res
	}

	c, reason := env.scoreScalar(src, dst)
	res.Compatibility = c
	res.Reason = reason

	return res
}

func (env Env) scoreElements(res TypeCompatibilityResult, srcElem, dstElem analyze.TypeRef) TypeCompatibilityResult {
	res.SourceElem = srcElem
	res.TargetElem = dstElem

	_, srcNested := srcElem.Element()
	_, dstNested := dstElem.Element()

	var c TypeCompatibility

	var reason string

	switch {
	case srcNested && dstNested:
		if srcElem.Key() == dstElem.Key() {
			c, reason = TypeAssignable, "nested collections share an element type"
		} else {
			c, reason = TypeOpaque, "nested collections are not inspected"
		}
	case srcNested || dstNested:
		c, reason = TypeIncompatible, "element shapes differ"
	default:
		c, reason = env.scoreScalar(srcElem.NonNullable(), dstElem.NonNullable())
	}

	switch c {
	case TypeIdentical, TypeAssignable:
		res.Compatibility = TypeAssignable
		res.Reason = "element types are assignable"
	case TypeIncompatible:
		res.Compatibility = TypeElementIncompatible
		res.Element = true
		res.Reason = fmt.Sprintf("element type %s cannot be mapped to %s", srcElem, dstElem)
	case TypeNestedUnmapped:
		res.Compatibility = TypeNestedUnmapped
		res.Element = true
		res.Reason = reason
	default:
		res.Compatibility = c
		res.Reason = reason
	}

	return res
}

func (env Env) scoreScalar(src, dst analyze.TypeRef) (TypeCompatibility, string) {
	if src.Key() == dst.Key() {
		return TypeIdentical, "types are identical"
	}

	if src.Mentions(env.ScopeParams) || dst.Mentions(env.ScopeParams) {
		return TypeOpaque, "generic parameter"
	}

	if env.Pairs != nil && env.Pairs.Registered(src, dst) {
		return TypeNestedMapped, fmt.Sprintf("map %s -> %s is registered", src, dst)
	}

	if dst.Name == "object" {
		return TypeAssignable, "everything is assignable to object"
	}

	if IsStringType(dst.Name) {
		return TypeConvertible, fmt.Sprintf("%s is converted with ToString()", src)
	}

	if IsNumericType(src.Name) && IsNumericType(dst.Name) {
		if widens(src.Name, dst.Name) {
			return TypeAssignable, "implicit numeric conversion"
		}

		return TypeConvertible, "explicit numeric conversion"
	}

	srcSym, dstSym := env.Graph.Lookup(src), env.Graph.Lookup(dst)
	srcEnum := srcSym != nil && srcSym.Kind == analyze.TypeKindEnum
	dstEnum := dstSym != nil && dstSym.Kind == analyze.TypeKindEnum

	switch {
	case srcEnum && (dstEnum || IsNumericType(dst.Name)):
		return TypeConvertible, "enum conversion"
	case dstEnum && (IsNumericType(src.Name) || IsStringType(src.Name)):
		return TypeConvertible, "enum conversion"
	case src.IsPrimitive() && dst.IsPrimitive():
		return TypeIncompatible, fmt.Sprintf("no conversion from %s to %s", src, dst)
	}

	srcComplex := srcSym != nil && srcSym.Kind.IsComplex()
	dstComplex := dstSym != nil && dstSym.Kind.IsComplex()

	switch {
	case srcComplex && dstComplex:
		if env.derives(srcSym, dstSym) {
			return TypeAssignable, fmt.Sprintf("%s derives from %s", src, dst)
		}

		return TypeNestedUnmapped, fmt.Sprintf("no map registered from %s to %s", src, dst)
	case (srcComplex && dst.IsPrimitive()) || (dstComplex && src.IsPrimitive()):
		return TypeIncompatible, fmt.Sprintf("no conversion from %s to %s", src, dst)
	}

	return TypeOpaque, "type is not declared in the compilation"
}

// derives reports whether src inherits from or implements dst.
func (env Env) derives(src, dst *analyze.TypeSymbol) bool {
	seen := map[analyze.TypeID]bool{}
	queue := []*analyze.TypeSymbol{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.ID == dst.ID {
			return true
		}

		if seen[cur.ID] {
			continue
		}

		seen[cur.ID] = true

		var parents []analyze.TypeRef
		if cur.Base != nil {
			parents = append(parents, *cur.Base)
		}

		parents = append(parents, cur.Interfaces...)

		for _, p := range parents {
			if sym := env.Graph.Lookup(p); sym != nil {
				queue = append(queue, sym)
			}
		}
	}

	return false
}

func (env Env) isValueType(t analyze.TypeRef) bool {
	if t.ArrayRank > 0 {
		return false
	}

	if t.IsValueType() {
		return true
	}

	sym := env.Graph.Lookup(t)

	return sym != nil && (sym.Kind == analyze.TypeKindStruct || sym.Kind == analyze.TypeKindEnum)
}

var numericNames = map[string]struct{}{
	"sbyte": {}, "byte": {}, "short": {}, "ushort": {}, "char": {},
	"int": {}, "uint": {}, "long": {}, "ulong": {},
	"float": {}, "double": {}, "decimal": {},
}

// implicitNumeric lists the C# implicit numeric conversions.
var implicitNumeric = map[string][]string{
	"sbyte":  {"short", "int", "long", "float", "double", "decimal"},
	"byte":   {"short", "ushort", "int", "uint", "long", "ulong", "float", "double", "decimal"},
	"short":  {"int", "long", "float", "double", "decimal"},
	"ushort": {"int", "uint", "long", "ulong", "float", "double", "decimal"},
	"char":   {"ushort", "int", "uint", "long", "ulong", "float", "double", "decimal"},
	"int":    {"long", "float", "double", "decimal"},
	"uint":   {"long", "ulong", "float", "double", "decimal"},
	"long":   {"float", "double", "decimal"},
	"ulong":  {"float", "double", "decimal"},
	"float":  {"double"},
}

func widens(from, to string) bool {
	for _, t := range implicitNumeric[from] {
		if t == to {
			return true
		}
	}

	return false
}

// IsNumericType checks if a type name is a built-in numeric type.
func IsNumericType(name string) bool {
	_, ok := numericNames[name]
	return ok
}

// IsStringType checks if a type name is the built-in string type.
func IsStringType(name string) bool {
	return name == "string"
}
