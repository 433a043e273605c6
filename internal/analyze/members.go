package analyze

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnresolvable marks a type that cannot be analysed: open generics,
// type parameters, dynamic, or types the host could not resolve. It is
// distinct from a resolvable type that simply has no members.
var ErrUnresolvable = errors.New("type cannot be analyzed")

// Mutability describes how a member can be written.
type Mutability int

const (
	MutabilityReadOnly        Mutability = iota // read-only
	MutabilityReadWrite                         // read-write
	MutabilityInitOnly                          // init-only
	MutabilityConstructorOnly                   // constructor-only
	MutabilityWriteOnly                         // write-only
)

// Member is one mappable member of a type.
type Member struct {
	Name       string     // Member name, unique within its MemberSet
	Type       TypeRef    // Declared type with generic arguments substituted
	Origin     TypeID     // Declaring type (a base type for inherited members)
	Mutability Mutability // Write capability
	Required   bool       // required modifier present
	Positional bool       // Synthesised from a positional constructor parameter
}

// Readable reports whether the member can act as a mapping source.
func (m Member) Readable() bool {
	return m.Mutability != MutabilityWriteOnly
}

// Writable reports whether a mapping can populate the member.
func (m Member) Writable() bool {
	return m.Mutability != MutabilityReadOnly
}

// MemberSet is the flattened, override-resolved member table of one type.
type MemberSet struct {
	Type    TypeID
	Kind    TypeKind
	Symbol  *TypeSymbol
	Members []Member
	index   map[string]int
}

// Get returns the member with the given exact name.
func (s *MemberSet) Get(name string) (Member, bool) {
	if i, ok := s.index[name]; ok {
		return s.Members[i], true
	}

	return Member{}, false
}

// Len returns the number of members.
func (s *MemberSet) Len() int {
	return len(s.Members)
}

// Names returns member names in table order.
func (s *MemberSet) Names() []string {
	names := make([]string, len(s.Members))
	for i, m := range s.Members {
		names[i] = m.Name
	}

	return names
}

// Filter returns the members satisfying keep, in table order.
func (s *MemberSet) Filter(keep func(Member) bool) []Member {
	var out []Member

	for _, m := range s.Members {
		if keep(m) {
			out = append(out, m)
		}
	}

	return out
}

func (s *MemberSet) put(m Member) {
	if i, ok := s.index[m.Name]; ok {
		s.Members[i] = m
		return
	}

	s.index[m.Name] = len(s.Members)
	s.Members = append(s.Members, m)
}

// ExtractMembers builds the mappable member table for ref: public instance
// properties of the type and all of its base types (base first, derived
// declarations replacing same-named base members), plus positional record
// parameters. Indexers and static members never appear.
//
// scopeParams lists generic parameters visible at the use site; a reference
// mentioning any of them is unresolvable.
func ExtractMembers(g *TypeGraph, ref TypeRef, scopeParams []string) (*MemberSet, error) {
	switch {
	case ref.IsZero() || ref.IsOpen():
		return nil, fmt.Errorf("%w: open generic %s", ErrUnresolvable, ref)
	case ref.Mentions(scopeParams):
		return nil, fmt.Errorf("%w: %s uses a type parameter", ErrUnresolvable, ref)
	case ref.Name == "dynamic" || ref.Name == "object":
		return nil, fmt.Errorf("%w: %s has no static shape", ErrUnresolvable, ref)
	case ref.ArrayRank > 0 || ref.IsPrimitive():
		return nil, fmt.Errorf("%w: %s is not a complex type", ErrUnresolvable, ref)
	}

	sym := g.Lookup(ref)
	if sym == nil {
		return nil, fmt.Errorf("%w: %s is not declared in the compilation", ErrUnresolvable, ref)
	}

	if !sym.Kind.IsComplex() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrUnresolvable, ref, sym.Kind)
	}

	set := &MemberSet{
		Type:   sym.ID,
		Kind:   sym.Kind,
		Symbol: sym,
		index:  make(map[string]int),
	}

	for _, link := range lineage(g, sym, bindArgs(sym, ref.Args)) {
		addDeclared(set, link.sym, link.subst)
	}

	return set, nil
}

type lineageLink struct {
	sym   *TypeSymbol
	subst map[string]TypeRef
}

// lineage returns the inheritance chain root-first. Interfaces contribute all
// inherited interfaces; classes and records follow the base class chain.
// Bases that are not declared in the compilation end the walk.
func lineage(g *TypeGraph, sym *TypeSymbol, subst map[string]TypeRef) []lineageLink {
	if sym.Kind == TypeKindInterface {
		var out []lineageLink

		seen := map[TypeID]bool{}

		var visit func(s *TypeSymbol, sub map[string]TypeRef)
		visit = func(s *TypeSymbol, sub map[string]TypeRef) {
			if seen[s.ID] {
				return
			}

			seen[s.ID] = true

			for _, iface := range s.Interfaces {
				iface = substitute(iface, sub)
				if base := g.Lookup(iface); base != nil && base.Kind == TypeKindInterface {
					visit(base, bindArgs(base, iface.Args))
				}
			}

			out = append(out, lineageLink{sym: s, subst: sub})
		}

		visit(sym, subst)

		return out
	}

	chain := []lineageLink{{sym: sym, subst: subst}}
	seen := map[TypeID]bool{sym.ID: true}

	cur, curSubst := sym, subst
	for cur.Base != nil {
		baseRef := substitute(*cur.Base, curSubst)

		base := g.Lookup(baseRef)
		if base == nil || seen[base.ID] || !base.Kind.IsComplex() {
			break
		}

		seen[base.ID] = true
		curSubst = bindArgs(base, baseRef.Args)
		chain = append(chain, lineageLink{sym: base, subst: curSubst})
		cur = base
	}

	slices.Reverse(chain)

	return chain
}

func addDeclared(set *MemberSet, sym *TypeSymbol, subst map[string]TypeRef) {
	isRecord := sym.Kind == TypeKindRecord || (sym.Kind == TypeKindStruct && sym.IsPositional())

	positional := map[string]bool{}

	if isRecord {
		for _, p := range sym.Parameters {
			positional[p.Name] = true
			set.put(Member{
				Name:       p.Name,
				Type:       substitute(p.Type, subst),
				Origin:     sym.ID,
				Mutability: MutabilityInitOnly,
				Positional: true,
			})
		}
	}

	for _, p := range sym.Properties {
		if p.Static || p.Indexer {
			continue
		}

		if !p.Public && sym.Kind != TypeKindInterface {
			continue
		}

		m := Member{
			Name:       p.Name,
			Type:       substitute(p.Type, subst),
			Origin:     sym.ID,
			Mutability: mutabilityOf(p),
			Required:   p.Required,
		}

		if positional[p.Name] && m.Mutability == MutabilityReadOnly {
			m.Mutability = MutabilityConstructorOnly
			m.Positional = true
		}

		set.put(m)
	}
}

func mutabilityOf(p PropertySymbol) Mutability {
	switch {
	case p.Setter == SetterInit:
		return MutabilityInitOnly
	case p.Setter == SetterSet && p.Getter:
		return MutabilityReadWrite
	case p.Setter == SetterSet:
		return MutabilityWriteOnly
	default:
		return MutabilityReadOnly
	}
}

func bindArgs(sym *TypeSymbol, args []TypeRef) map[string]TypeRef {
	if len(sym.TypeParams) == 0 || len(args) != len(sym.TypeParams) {
		return nil
	}

	subst := make(map[string]TypeRef, len(args))
	for i, name := range sym.TypeParams {
		subst[name] = args[i]
	}

	return subst
}

// substitute replaces generic parameter names in ref using subst.
func substitute(ref TypeRef, subst map[string]TypeRef) TypeRef {
	if len(subst) == 0 {
		return ref
	}

	if repl, ok := subst[ref.Name]; ok && len(ref.Args) == 0 {
		repl.ArrayRank += ref.ArrayRank
		repl.Nullable = repl.Nullable || ref.Nullable

		return repl
	}

	if len(ref.Args) > 0 {
		args := make([]TypeRef, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = substitute(a, subst)
		}

		ref.Args = args
	}

	return ref
}
