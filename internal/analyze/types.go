package analyze

import (
	"strings"

	"mapcheck/internal/common"
	"mapcheck/internal/source"
)

//go:generate go tool stringer -type=TypeKind,SetterKind,Mutability -linecomment -output=kind_string.go

// TypeID uniquely identifies a declared type by its namespace and name.
type TypeID struct {
	Namespace string // e.g., "Shop.Models"
	Name      string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.Namespace == "" {
		return t.Name
	}

	return t.Namespace + "." + t.Name
}

// TypeKind represents the kind of a declared type.
type TypeKind int

const (
	TypeKindUnknown      TypeKind = iota // unknown
	TypeKindClass                        // class
	TypeKindRecord                       // record
	TypeKindStruct                       // struct
	TypeKindInterface                    // interface
	TypeKindEnum                         // enum
	TypeKindGenericParam                 // generic parameter
)

// IsComplex returns true for kinds whose members take part in mapping.
func (k TypeKind) IsComplex() bool {
	switch k {
	case TypeKindClass, TypeKindRecord, TypeKindStruct, TypeKindInterface:
		return true
	default:
		return false
	}
}

// SetterKind describes the write accessor of a property.
type SetterKind int

const (
	SetterNone SetterKind = iota // none
	SetterSet                    // set
	SetterInit                   // init
)

// TypeSymbol describes a type declared in the compilation.
type TypeSymbol struct {
	ID         TypeID           // Unique identifier
	Kind       TypeKind         // Kind of type
	Base       *TypeRef         // Base class, if any
	Interfaces []TypeRef        // Implemented or inherited interfaces
	Properties []PropertySymbol // Declared properties, in source order
	Parameters []Parameter      // Positional (primary constructor) parameters
	TypeParams []string         // Declared generic parameters
	Document   string           // Path of the declaring document
	Span       source.Span      // Whole declaration
	BodySpan   source.Span      // The { ... } body, NoSpan when absent
	ParamsSpan source.Span      // The ( ... ) parameter list, NoSpan when absent
}

// IsPositional returns true for record-like types with a parameter list.
func (t *TypeSymbol) IsPositional() bool {
	return t.ParamsSpan.IsValid()
}

// HasBody returns true if the declaration has a { ... } member body.
func (t *TypeSymbol) HasBody() bool {
	return t.BodySpan.IsValid()
}

// Property returns the declared property with the given name, or nil.
func (t *TypeSymbol) Property(name string) *PropertySymbol {
	for i := range t.Properties {
		if t.Properties[i].Name == name {
			return &t.Properties[i]
		}
	}

	return nil
}

// UsesInitAccessors reports whether any declared property is init-only.
func (t *TypeSymbol) UsesInitAccessors() bool {
	for i := range t.Properties {
		if t.Properties[i].Setter == SetterInit {
			return true
		}
	}

	return false
}

// PropertySymbol describes a declared property.
type PropertySymbol struct {
	Name     string      // Property name
	Type     TypeRef     // Declared type
	Public   bool        // Declared (or implied) public
	Static   bool        // static modifier present
	Indexer  bool        // this[...] indexer
	Getter   bool        // has a get accessor
	Setter   SetterKind  // write accessor
	Required bool        // required modifier present
	Span     source.Span // Declaration span
}

// Parameter is a positional constructor parameter.
type Parameter struct {
	Name string
	Type TypeRef
}

// TypeGraph holds all types declared in a compilation.
type TypeGraph struct {
	// Types maps TypeID to TypeSymbol for all declared types.
	Types map[TypeID]*TypeSymbol
	// byName indexes types by unqualified name for use-site lookups.
	byName map[string][]*TypeSymbol
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:  make(map[TypeID]*TypeSymbol),
		byName: make(map[string][]*TypeSymbol),
	}
}

// Add registers a type symbol, replacing any previous one with the same ID.
func (g *TypeGraph) Add(t *TypeSymbol) {
	if old, ok := g.Types[t.ID]; ok {
		list := g.byName[t.ID.Name]
		for i, s := range list {
			if s == old {
				g.byName[t.ID.Name] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}

	g.Types[t.ID] = t
	g.byName[t.ID.Name] = append(g.byName[t.ID.Name], t)
}

// GetType returns the TypeSymbol for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeSymbol {
	return g.Types[id]
}

// Lookup resolves a use-site reference to a declared type.
// Qualified names must match exactly; unqualified names resolve when exactly
// one declared type carries that name. Generic arity must agree.
func (g *TypeGraph) Lookup(ref TypeRef) *TypeSymbol {
	if g == nil || ref.ArrayRank > 0 || ref.Name == "" {
		return nil
	}

	name := ref.Name
	if strings.Contains(name, ".") {
		if t := g.Types[TypeID{Namespace: common.Namespace(name), Name: common.ShortName(name)}]; t != nil {
			return t
		}

		name = common.ShortName(name)
	}

	var found *TypeSymbol

	for _, t := range g.byName[name] {
		if len(t.TypeParams) != len(ref.Args) {
			continue
		}

		if found != nil {
			return nil
		}

		found = t
	}

	return found
}

// Len returns the number of declared types.
func (g *TypeGraph) Len() int {
	return len(g.Types)
}
