package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"mapcheck/internal/analyze"
	"mapcheck/internal/config"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/source"
)

// fixture builds a synthetic compilation: a type graph plus registration
// chains laid out one after another in a document.
type fixture struct {
	graph *analyze.TypeGraph
	docs  map[string][]*analyze.Chain
	order []string
	off   int
}

func newFixture() *fixture {
	return &fixture{graph: analyze.NewTypeGraph(), docs: map[string][]*analyze.Chain{}}
}

func prop(name, typ string) analyze.PropertySymbol {
	return analyze.PropertySymbol{
		Name:   name,
		Type:   analyze.MustParseTypeRef(typ),
		Public: true,
		Getter: true,
		Setter: analyze.SetterSet,
	}
}

func required(name, typ string) analyze.PropertySymbol {
	p := prop(name, typ)
	p.Required = true

	return p
}

func (f *fixture) class(name string, props ...analyze.PropertySymbol) *fixture {
	f.graph.Add(&analyze.TypeSymbol{
		ID:         analyze.TypeID{Namespace: "Shop", Name: name},
		Kind:       analyze.TypeKindClass,
		Properties: props,
		BodySpan:   source.NoSpan,
		ParamsSpan: source.NoSpan,
	})

	return f
}

func libCall(name string, args ...string) *analyze.Call {
	c := &analyze.Call{Name: name}
	for _, a := range args {
		c.Args = append(c.Args, analyze.Argument{Text: a, Lambda: analyze.ParseLambda(a)})
	}

	c.Method = &analyze.MethodSymbol{Name: name, Container: mapping.LibraryContainer, Library: true, Arity: len(args)}

	return c
}

func createMap(src, dst string) *analyze.Call {
	c := libCall("CreateMap")
	c.TypeArgs = []analyze.TypeRef{analyze.MustParseTypeRef(src), analyze.MustParseTypeRef(dst)}

	return c
}

// chain appends a registration chain to doc. Each call gets a distinct
// non-overlapping span.
func (f *fixture) chain(doc string, calls ...*analyze.Call) *analyze.Chain {
	if _, ok := f.docs[doc]; !ok {
		f.order = append(f.order, doc)
		f.docs[doc] = nil
	}

	start := f.off

	for i, c := range calls {
		c.Dot = -1
		if i > 0 {
			c.Dot = f.off
			f.off++
		}

		c.Span = source.Span{Start: f.off, End: f.off + 10}
		f.off += 10
	}

	ch := &analyze.Chain{Document: doc, Calls: calls, Span: source.Span{Start: start, End: f.off}}
	f.off += 2
	f.docs[doc] = append(f.docs[doc], ch)

	return ch
}

func (f *fixture) register(src, dst string, calls ...*analyze.Call) *analyze.Chain {
	return f.chain("Profile.cs", append([]*analyze.Call{createMap(src, dst)}, calls...)...)
}

func (f *fixture) compilation() *analyze.Compilation {
	comp := &analyze.Compilation{Graph: f.graph}
	text := strings.Repeat(strings.Repeat(" ", 39)+"\n", f.off/40+1)

	for _, path := range f.order {
		comp.Documents = append(comp.Documents, &analyze.Document{Path: path, Text: text, Chains: f.docs[path]})
	}

	return comp
}

func run(t *testing.T, f *fixture, cfg *config.Config) *Report {
	t.Helper()

	report, err := NewDispatcher(Options{Config: cfg}).RunAll(context.Background(), f.compilation())
	require.NoError(t, err)

	return report
}

// members returns the members reported by one rule, in report order.
func members(report *Report, id string) []string {
	var out []string
	for _, f := range report.Diagnostics.ByRule(id) {
		out = append(out, f.Member())
	}

	return out
}

func dump(report *Report) string {
	var lines []string
	for _, f := range report.Findings() {
		lines = append(lines, f.String())
	}

	return strings.Join(lines, "\n") + "\n" + spew.Sdump(len(report.Sites), report.Skipped)
}

func only(t *testing.T, report *Report, id string) diagnostic.Finding {
	t.Helper()

	list := report.Diagnostics.ByRule(id)
	require.Len(t, list, 1, dump(report))

	return list[0]
}
