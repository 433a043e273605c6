package mapping

import (
	"sort"

	"mapcheck/internal/analyze"
	"mapcheck/internal/source"
)

// Declaration is one place where a type pair is configured.
type Declaration struct {
	Registration *Registration
	Direction    Direction
}

// Span returns the reporting location of the declaration.
func (d Declaration) Span() source.Span {
	return d.Registration.Span(d.Direction)
}

// PairRegistry holds every type pair configured in a compilation, including
// the pairs created by ReverseMap.
type PairRegistry struct {
	pairs map[string][]Declaration
	order []string
}

// NewPairRegistry creates a new empty pair registry.
func NewPairRegistry() *PairRegistry {
	return &PairRegistry{
		pairs: make(map[string][]Declaration),
	}
}

// Add registers every direction of a registration.
func (r *PairRegistry) Add(reg *Registration) {
	for _, d := range reg.Directions() {
		key := reg.Key(d)
		if _, ok := r.pairs[key]; !ok {
			r.order = append(r.order, key)
		}

		r.pairs[key] = append(r.pairs[key], Declaration{Registration: reg, Direction: d})
	}
}

// Registered reports whether a map from src to dst exists. A registration of
// an open generic pair (typeof(Box<>)) covers every closed form.
func (r *PairRegistry) Registered(src, dst analyze.TypeRef) bool {
	if r == nil {
		return false
	}

	if _, ok := r.pairs[PairKey(src, dst)]; ok {
		return true
	}

	_, ok := r.pairs[PairKey(openForm(src), openForm(dst))]

	return ok
}

// Get returns the declarations of a pair in registration order.
func (r *PairRegistry) Get(src, dst analyze.TypeRef) []Declaration {
	return r.pairs[PairKey(src, dst)]
}

// Len returns the number of distinct pairs.
func (r *PairRegistry) Len() int {
	return len(r.pairs)
}

// Keys returns the distinct pair keys in first-registration order.
func (r *PairRegistry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Duplicates returns every declaration that repeats an earlier declaration
// of the same pair, keyed by the registration it repeats.
func (r *PairRegistry) Duplicates() []Duplicate {
	var out []Duplicate

	for _, key := range r.order {
		decls := r.pairs[key]
		for _, d := range decls[1:] {
			out = append(out, Duplicate{Key: key, First: decls[0], Repeat: d})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Repeat, out[j].Repeat
		if a.Registration.Document != b.Registration.Document {
			return a.Registration.Document < b.Registration.Document
		}

		return a.Span().Start < b.Span().Start
	})

	return out
}

// Duplicate is a repeated pair declaration.
type Duplicate struct {
	Key    string
	First  Declaration
	Repeat Declaration
}

func openForm(t analyze.TypeRef) analyze.TypeRef {
	if len(t.Args) == 0 {
		return t
	}

	t.Args = make([]analyze.TypeRef, len(t.Args))

	return t
}
