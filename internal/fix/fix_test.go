package fix

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapcheck/internal/config"
	"mapcheck/internal/csharp"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/rules"
)

// workspace is a set of C# documents that is analysed, fixed and analysed
// again.
type workspace struct {
	t    *testing.T
	cfg  *config.Config
	docs map[string]string
}

func newWorkspace(t *testing.T, models, profile string) *workspace {
	t.Helper()

	return &workspace{
		t:    t,
		cfg:  config.Default(),
		docs: map[string]string{"Models.cs": models, "Profile.cs": profile},
	}
}

func (w *workspace) analyze() *rules.Report {
	w.t.Helper()

	paths := make([]string, 0, len(w.docs))
	for p := range w.docs {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	sources := make([]csharp.Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, csharp.Source{Path: p, Text: w.docs[p]})
	}

	comp, err := csharp.Parse(context.Background(), sources...)
	require.NoError(w.t, err)

	report, err := rules.NewDispatcher(rules.Options{Config: w.cfg}).RunAll(context.Background(), comp)
	require.NoError(w.t, err)

	return report
}

func (w *workspace) findings() []diagnostic.Finding {
	w.t.Helper()
	return w.analyze().Findings()
}

func (w *workspace) proposals() []*Proposal {
	w.t.Helper()
	return New(Options{Config: w.cfg}).ForReport(w.analyze())
}

// propose returns the proposals for the finding of rule on member.
func (w *workspace) propose(rule, member string) []*Proposal {
	w.t.Helper()

	report := w.analyze()

	for _, f := range report.Findings() {
		if f.RuleID != rule || f.Member() != member {
			continue
		}

		for _, site := range report.Sites {
			if site.Registration == f.Registration {
				return New(Options{Config: w.cfg}).Propose(site, f)
			}
		}
	}

	require.Failf(w.t, "finding not reported", "%s on %s:\n%s", rule, member, spew.Sdump(report.Findings()))

	return nil
}

func (w *workspace) apply(p *Proposal) {
	w.t.Helper()

	docs, err := p.Apply(w.docs)
	require.NoError(w.t, err)

	w.docs = docs
}

func titles(props []*Proposal) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.Title)
	}

	return out
}

func kinds(props []*Proposal) []Kind {
	out := make([]Kind, 0, len(props))
	for _, p := range props {
		out = append(out, p.Kind)
	}

	return out
}

const singleLineProfile = `using AutoMapper;

namespace Shop;

public class ShopProfile : Profile
{
    public ShopProfile()
    {
        CreateMap<Source, Destination>();
    }
}
`

func TestPropose_MissingMemberOrder(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
    public string Adress { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public string Address { get; set; }
}
`, singleLineProfile)

	props := w.propose(diagnostic.RuleMissingSource, "Address")
	require.Len(t, props, 3)
	assert.Equal(t, []Kind{KindIgnore, KindCreate, KindBind}, kinds(props))
	assert.Equal(t, []string{
		"Ignore destination member 'Address'",
		"Create member 'Address' on Source",
		"Map 'Address' from 'Adress'",
	}, titles(props))

	lost := w.propose(diagnostic.RuleMissingDestination, "Adress")
	assert.Equal(t, []string{
		"Ignore source member 'Adress'",
		"Create member 'Adress' on Destination",
		"Map 'Address' from 'Adress'",
	}, titles(lost))

	w.apply(props[2])

	assert.Contains(t, w.docs["Profile.cs"],
		"        CreateMap<Source, Destination>()\n"+
			"            .ForMember(d => d.Address, o => o.MapFrom(s => s.Adress));")
	assert.Empty(t, w.findings(), "the binding resolves both sides")
}

func TestPropose_NoFuzzyCandidate(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public string Comment { get; set; }
}
`, singleLineProfile)

	props := w.propose(diagnostic.RuleMissingSource, "Comment")
	assert.Equal(t, []Kind{KindIgnore, KindCreate}, kinds(props))

	w.apply(props[0])
	assert.Empty(t, w.findings())
}

func TestApply_ForwardFixStaysBeforeReverseMap(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Order
{
    public int Id { get; set; }
}

public class OrderDto
{
    public int Id { get; set; }
    public string Extra { get; set; }
}
`, `using AutoMapper;

namespace Shop;

public class ShopProfile : Profile
{
    public ShopProfile()
    {
        CreateMap<Order, OrderDto>()
            .ReverseMap();
    }
}
`)

	forward := w.propose(diagnostic.RuleMissingSource, "Extra")
	require.NotEmpty(t, forward)
	require.Len(t, forward[0].Edits, 1)
	assert.Less(t, forward[0].Edits[0].Offset, strings.Index(w.docs["Profile.cs"], ".ReverseMap"))

	w.apply(forward[0])

	reverse := w.propose(diagnostic.RuleMissingDestination, "Extra")
	require.NotEmpty(t, reverse)
	assert.Equal(t, KindIgnore, reverse[0].Kind)

	w.apply(reverse[0])

	assert.Contains(t, w.docs["Profile.cs"], `        CreateMap<Order, OrderDto>()
            .ForMember(d => d.Extra, o => o.Ignore())
            .ReverseMap()
            .ForSourceMember(s => s.Extra, o => o.DoNotValidate());`)
	assert.Empty(t, w.findings())
}

func TestApply_IdempotentAndStale(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public string Extra { get; set; }
    public string Notes { get; set; }
}
`, singleLineProfile)

	props := w.proposals()
	require.Len(t, props, 4)
	assert.Equal(t, []Kind{KindIgnore, KindCreate, KindIgnore, KindCreate}, kinds(props))

	w.apply(props[0])
	once := w.docs["Profile.cs"]

	w.apply(props[0])
	assert.Equal(t, once, w.docs["Profile.cs"], "applying twice changes nothing")

	// Offsets of the second proposal predate the first edit.
	w.apply(props[2])
	assert.Empty(t, w.findings())
}

const bulkModels = `namespace Shop;

public class Source
{
    public int Id { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public string A { get; set; }
    public int B { get; set; }
    public decimal? C { get; set; }
    public List<int> D { get; set; }
}
`

func TestProposeAll_Bulk(t *testing.T) {
	w := newWorkspace(t, bulkModels, singleLineProfile)

	props := w.proposals()
	require.Len(t, props, 2, spew.Sdump(titles(props)))

	ignoreAll, createAll := props[0], props[1]

	assert.Equal(t, KindIgnoreAll, ignoreAll.Kind)
	assert.Equal(t, "Ignore all 4 unmapped members", ignoreAll.Title)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ignoreAll.Members)
	assert.Len(t, ignoreAll.Edits, 1)
	assert.Len(t, ignoreAll.Findings, 4)
	assert.Len(t, ignoreAll.Children, 4)

	assert.Equal(t, KindCreateAll, createAll.Kind)
	assert.Equal(t, "Create all 4 missing members on Source", createAll.Title)
	assert.Len(t, createAll.Edits, 1)
	assert.Len(t, createAll.Children, 4)

	for _, c := range createAll.Children {
		assert.Equal(t, KindCreate, c.Kind)
	}

	t.Run("ignore all", func(t *testing.T) {
		w := newWorkspace(t, bulkModels, singleLineProfile)
		w.apply(ignoreAll)

		assert.Contains(t, w.docs["Profile.cs"], `        CreateMap<Source, Destination>()
            .ForMember(d => d.A, o => o.Ignore())
            .ForMember(d => d.B, o => o.Ignore())
            .ForMember(d => d.C, o => o.Ignore())
            .ForMember(d => d.D, o => o.Ignore());`)
		assert.Empty(t, w.findings())
	})

	t.Run("create all", func(t *testing.T) {
		w := newWorkspace(t, bulkModels, singleLineProfile)
		w.apply(createAll)

		assert.Contains(t, w.docs["Models.cs"], `public class Source
{
    public int Id { get; set; }
    public string A { get; set; }
    public int B { get; set; }
    public decimal? C { get; set; }
    public List<int> D { get; set; }
}`)
		assert.Empty(t, w.findings())
	})
}

func TestProposeAll_BelowThreshold(t *testing.T) {
	w := newWorkspace(t, bulkModels, singleLineProfile)
	w.cfg.Fix.BulkThreshold = 5

	props := w.proposals()
	assert.Len(t, props, 8)

	for _, p := range props {
		assert.False(t, p.Kind.IsBulk())
		assert.Empty(t, p.Children)
	}
}

func TestCreate_PositionalInSourceOrder(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
    public string Zeta { get; set; }
    public int Alpha { get; set; }
    public decimal Mid { get; set; }
    public bool Beta { get; set; }
}

public record Destination(int Id);
`, singleLineProfile)

	props := w.proposals()
	require.Len(t, props, 2)
	require.Equal(t, KindCreateAll, props[1].Kind)

	w.apply(props[1])

	assert.Contains(t, w.docs["Models.cs"],
		"public record Destination(int Id, string Zeta, int Alpha, decimal Mid, bool Beta);")
	assert.Empty(t, w.findings())
}

func TestCreate_MultilinePositional(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public record Source(
    int Id,
    string Name);

public class Destination
{
    public int Id { get; set; }
    public string Name { get; set; }
    public string Email { get; set; }
}
`, singleLineProfile)

	props := w.propose(diagnostic.RuleMissingSource, "Email")
	require.Len(t, props, 2)
	require.Equal(t, KindCreate, props[1].Kind)

	w.apply(props[1])

	assert.Contains(t, w.docs["Models.cs"], `public record Source(
    int Id,
    string Name,
    string Email);`)
	assert.Empty(t, w.findings())
}

func TestCreate_FollowsInitAccessors(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
    public string Notes { get; set; }
}

public class Destination
{
    public int Id { get; init; }
}
`, singleLineProfile)

	props := w.propose(diagnostic.RuleMissingDestination, "Notes")
	require.Len(t, props, 2)
	require.Equal(t, KindCreate, props[1].Kind)

	w.apply(props[1])

	assert.Contains(t, w.docs["Models.cs"], `public class Destination
{
    public int Id { get; init; }
    public string Notes { get; init; }
}`)
	assert.Empty(t, w.findings())
}

func TestCreate_InlineBody(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source {}

public class Destination
{
    public string Code { get; set; }
}
`, singleLineProfile)

	props := w.propose(diagnostic.RuleMissingSource, "Code")
	require.Len(t, props, 2)

	w.apply(props[1])

	assert.Contains(t, w.docs["Models.cs"], "public class Source { public string Code { get; set; } }")
	assert.Empty(t, w.findings())
}

func TestPropose_MemberFixes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		dest     string
		rule     string
		member   string
		kind     Kind
		fragment string
	}{
		{
			name:     "type conversion",
			source:   "public string Age { get; set; }",
			dest:     "public int Age { get; set; }",
			rule:     diagnostic.RuleTypeMismatch,
			member:   "Age",
			kind:     KindConvert,
			fragment: ".ForMember(d => d.Age, o => o.MapFrom(s => int.Parse(s.Age)))",
		},
		{
			name:     "nullable",
			source:   "public int? Count { get; set; }",
			dest:     "public int Count { get; set; }",
			rule:     diagnostic.RuleNullableMismatch,
			member:   "Count",
			kind:     KindConvert,
			fragment: ".ForMember(d => d.Count, o => o.MapFrom(s => s.Count ?? default))",
		},
		{
			name:     "collection shape",
			source:   "public int Code { get; set; }",
			dest:     "public List<int> Code { get; set; }",
			rule:     diagnostic.RuleCollectionShape,
			member:   "Code",
			kind:     KindConvert,
			fragment: ".ForMember(d => d.Code, o => o.MapFrom(s => new List<int> { s.Code }))",
		},
		{
			name:     "collection element",
			source:   "public List<string> Numbers { get; set; }",
			dest:     "public int[] Numbers { get; set; }",
			rule:     diagnostic.RuleCollectionElement,
			member:   "Numbers",
			kind:     KindConvert,
			fragment: ".ForMember(d => d.Numbers, o => o.MapFrom(s => s.Numbers.Select(e => int.Parse(e)).ToArray()))",
		},
		{
			name:     "case variant",
			source:   "public string firstName { get; set; }",
			dest:     "public string FirstName { get; set; }",
			rule:     diagnostic.RuleCaseMismatch,
			member:   "FirstName",
			kind:     KindBind,
			fragment: ".ForMember(d => d.FirstName, o => o.MapFrom(s => s.firstName))",
		},
		{
			name:     "nested mapping",
			source:   "public Customer Customer { get; set; }",
			dest:     "public CustomerDto Customer { get; set; }",
			rule:     diagnostic.RuleNestedMappingMissing,
			member:   "Customer",
			kind:     KindNestedMap,
			fragment: "\n        CreateMap<Customer, CustomerDto>();",
		},
		{
			name:     "nested collection element",
			source:   "public List<Customer> Customers { get; set; }",
			dest:     "public List<CustomerDto> Customers { get; set; }",
			rule:     diagnostic.RuleNestedMappingMissing,
			member:   "Customers",
			kind:     KindNestedMap,
			fragment: "\n        CreateMap<Customer, CustomerDto>();",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorkspace(t, `namespace Shop;

public class Customer
{
    public string Name { get; set; }
}

public class CustomerDto
{
    public string Name { get; set; }
}

public class Source
{
    `+tt.source+`
}

public class Destination
{
    `+tt.dest+`
}
`, singleLineProfile)

			props := w.propose(tt.rule, tt.member)
			require.Len(t, props, 2)
			assert.Equal(t, KindIgnore, props[0].Kind)
			assert.Equal(t, tt.kind, props[1].Kind)
			require.Len(t, props[1].Edits, 1)
			assert.Equal(t, tt.fragment, strings.TrimPrefix(props[1].Edits[0].Fragment, "\n            "))

			w.apply(props[1])
			assert.Empty(t, w.findings(), spew.Sdump(w.docs["Profile.cs"]))
		})
	}
}

func TestPropose_NoConversion(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Customer
{
    public string Name { get; set; }
}

public class Source
{
    public Customer Owner { get; set; }
}

public class Destination
{
    public int Owner { get; set; }
}
`, singleLineProfile)

	props := w.propose(diagnostic.RuleTypeMismatch, "Owner")
	assert.Equal(t, []Kind{KindIgnore}, kinds(props))
}

func TestPropose_PartialChain(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public string Extra { get; set; }
}
`, `using AutoMapper;

namespace Shop;

public class ShopProfile : Profile
{
    public ShopProfile()
    {
        CreateMap<Source, Destination>().Unknown();
    }
}
`)

	assert.NotEmpty(t, w.findings(), "the finding is still reported")
	assert.Empty(t, w.proposals())
}

func TestPropose_ChainRulesHaveNoFixes(t *testing.T) {
	w := newWorkspace(t, `namespace Shop;

public class Source
{
    public int Id { get; set; }
}

public class Destination
{
    public int Id { get; set; }
}
`, `using AutoMapper;

namespace Shop;

public class ShopProfile : Profile
{
    public ShopProfile()
    {
        CreateMap<Source, Destination>();
        CreateMap<Source, Destination>();
    }
}
`)

	require.Len(t, w.findings(), 1)
	assert.Empty(t, w.proposals())
}
