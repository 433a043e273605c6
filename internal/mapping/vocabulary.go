package mapping

import (
	"slices"

	"mapcheck/internal/analyze"
)

// LibraryContainer is the declaring type of the fluent configuration API.
const LibraryContainer = "AutoMapper.IMappingExpression"

// CallShape is the role of a chained call in a registration.
type CallShape int

const (
	ShapeUnknown CallShape = iota
	ShapeCreateMap
	ShapeForMember
	ShapeForPath
	ShapeForSourceMember
	ShapeForCtorParam
	ShapeForAllOtherMembers
	ShapeReverseMap
	ShapeConstructUsing
	ShapeConvertUsing
	ShapePassthrough
)

type signature struct {
	shape CallShape
	arity []int
}

// vocabulary lists the configuration calls by name and accepted arities.
// Only calls resolved to the library itself are classified; everything else
// passes through.
var vocabulary = map[string]signature{
	"CreateMap":          {shape: ShapeCreateMap, arity: []int{0, 1, 2, 3}},
	"ForMember":          {shape: ShapeForMember, arity: []int{2}},
	"ForPath":            {shape: ShapeForPath, arity: []int{2}},
	"ForSourceMember":    {shape: ShapeForSourceMember, arity: []int{2}},
	"ForCtorParam":       {shape: ShapeForCtorParam, arity: []int{2}},
	"ForAllOtherMembers": {shape: ShapeForAllOtherMembers, arity: []int{1}},
	"ForAllMembers":      {shape: ShapeForAllOtherMembers, arity: []int{1}},
	"ReverseMap":         {shape: ShapeReverseMap, arity: []int{0}},
	"ConstructUsing":     {shape: ShapeConstructUsing, arity: []int{1}},
	"ConvertUsing":       {shape: ShapeConvertUsing, arity: []int{0, 1, 2}},

	"BeforeMap":             {shape: ShapePassthrough, arity: []int{0, 1}},
	"AfterMap":              {shape: ShapePassthrough, arity: []int{0, 1}},
	"Include":               {shape: ShapePassthrough, arity: []int{0, 2}},
	"IncludeBase":           {shape: ShapePassthrough, arity: []int{0, 2}},
	"IncludeAllDerived":     {shape: ShapePassthrough, arity: []int{0}},
	"IncludeMembers":        {shape: ShapePassthrough, arity: []int{1}},
	"MaxDepth":              {shape: ShapePassthrough, arity: []int{1}},
	"PreserveReferences":    {shape: ShapePassthrough, arity: []int{0}},
	"ValidateMemberList":    {shape: ShapePassthrough, arity: []int{1}},
	"DisableCtorValidation": {shape: ShapePassthrough, arity: []int{0}},
	"AddTransform":          {shape: ShapePassthrough, arity: []int{1}},
	"AsProxy":               {shape: ShapePassthrough, arity: []int{0}},
	"UseDestinationValue":   {shape: ShapePassthrough, arity: []int{0}},

	"IgnoreAllPropertiesWithAnInaccessibleSetter":       {shape: ShapePassthrough, arity: []int{0}},
	"IgnoreAllSourcePropertiesWithAnInaccessibleSetter": {shape: ShapePassthrough, arity: []int{0}},
}

// Classify returns the role of a resolved call. A call whose target is not a
// library method, or whose arity does not match the library signature, is a
// passthrough even when it shares a library name. Unresolved calls are
// ShapeUnknown.
func Classify(call *analyze.Call) CallShape {
	if !call.IsResolved() {
		return ShapeUnknown
	}

	if !call.Method.Library {
		return ShapePassthrough
	}

	sig, ok := vocabulary[call.Name]
	if !ok {
		return ShapePassthrough
	}

	if !slices.Contains(sig.arity, call.Method.Arity) {
		return ShapePassthrough
	}

	return sig.shape
}

// IsLibraryName reports whether name belongs to the configuration vocabulary.
func IsLibraryName(name string) bool {
	_, ok := vocabulary[name]
	return ok
}

// LibraryArity returns the accepted arities of a configuration call.
func LibraryArity(name string) []int {
	return vocabulary[name].arity
}
