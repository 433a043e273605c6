package csharp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapcheck/internal/analyze"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/rules"
)

const modelsSource = `namespace Shop.Models;

public interface IEntity
{
    int Id { get; }
}

public abstract class Entity : IEntity
{
    public int Id { get; set; }
}

public class Order : Entity
{
    public string Customer { get; set; }
    public required decimal Total { get; init; }
    public List<OrderLine> Lines { get; set; }
    public static int Count { get; set; }
    private string Secret { get; set; }
    public string Label => Customer;
}

public record OrderDto(int Id, string Customer, decimal? Total);

public record struct Point(int X, int Y);

public enum Status { Open, Closed }
`

const profileSource = `using AutoMapper;

namespace Shop.Mapping
{
    public static class MappingExtensions
    {
        public static IMappingExpression<S, D> ReverseMap<S, D>(this IMappingExpression<S, D> e, bool audit) => e;
    }

    public class OrderProfile : Profile
    {
        public OrderProfile()
        {
            CreateMap<Order, OrderDto>()
                .ForMember(d => d.Customer, o => o.MapFrom(s => s.Customer.Trim()))
                .ReverseMap(true)
                .ReverseMap();
        }
    }

    public class GenericProfile<T> : Profile
    {
        public void Configure(IMapperConfigurationExpression cfg)
        {
            cfg.CreateMap<T, OrderDto>().Unknown();
        }
    }
}
`

func parse(t *testing.T, sources ...Source) *analyze.Compilation {
	t.Helper()

	comp, err := Parse(context.Background(), sources...)
	require.NoError(t, err)

	return comp
}

func registrations(t *testing.T, doc *analyze.Document) []*analyze.Chain {
	t.Helper()

	var out []*analyze.Chain

	for _, c := range doc.Chains {
		if first := c.First(); first != nil && first.Name == "CreateMap" {
			out = append(out, c)
		}
	}

	return out
}

func TestParse_Types(t *testing.T) {
	comp := parse(t, Source{Path: "Models.cs", Text: modelsSource})
	g := comp.Graph

	order := g.GetType(analyze.TypeID{Namespace: "Shop.Models", Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, analyze.TypeKindClass, order.Kind)
	assert.Equal(t, "Models.cs", order.Document)
	require.NotNil(t, order.Base)
	assert.Equal(t, "Entity", order.Base.Name)
	assert.True(t, order.HasBody())
	assert.False(t, order.IsPositional())

	total := order.Property("Total")
	require.NotNil(t, total)
	assert.True(t, total.Public)
	assert.True(t, total.Required)
	assert.Equal(t, analyze.SetterInit, total.Setter)
	assert.Equal(t, "decimal", total.Type.Name)

	lines := order.Property("Lines")
	require.NotNil(t, lines)
	elem, ok := lines.Type.Element()
	require.True(t, ok)
	assert.Equal(t, "OrderLine", elem.Name)

	assert.True(t, order.Property("Count").Static)
	assert.False(t, order.Property("Secret").Public)

	label := order.Property("Label")
	require.NotNil(t, label)
	assert.True(t, label.Getter)
	assert.Equal(t, analyze.SetterNone, label.Setter)

	entity := g.GetType(analyze.TypeID{Namespace: "Shop.Models", Name: "Entity"})
	require.NotNil(t, entity)
	assert.Nil(t, entity.Base)
	require.Len(t, entity.Interfaces, 1)
	assert.Equal(t, "IEntity", entity.Interfaces[0].Name)

	iface := g.GetType(analyze.TypeID{Namespace: "Shop.Models", Name: "IEntity"})
	require.NotNil(t, iface)
	assert.Equal(t, analyze.TypeKindInterface, iface.Kind)
	assert.True(t, iface.Property("Id").Public)

	dto := g.GetType(analyze.TypeID{Namespace: "Shop.Models", Name: "OrderDto"})
	require.NotNil(t, dto)
	assert.Equal(t, analyze.TypeKindRecord, dto.Kind)
	assert.True(t, dto.IsPositional())
	require.Len(t, dto.Parameters, 3)
	assert.Equal(t, "Customer", dto.Parameters[1].Name)
	assert.True(t, dto.Parameters[2].Type.Nullable)

	point := g.GetType(analyze.TypeID{Namespace: "Shop.Models", Name: "Point"})
	require.NotNil(t, point)
	assert.Equal(t, analyze.TypeKindStruct, point.Kind)

	status := g.GetType(analyze.TypeID{Namespace: "Shop.Models", Name: "Status"})
	require.NotNil(t, status)
	assert.Equal(t, analyze.TypeKindEnum, status.Kind)
}

func TestParse_InheritedMembers(t *testing.T) {
	comp := parse(t, Source{Path: "Models.cs", Text: modelsSource})

	set, err := analyze.ExtractMembers(comp.Graph, analyze.MustParseTypeRef("Order"), nil)
	require.NoError(t, err)

	_, ok := set.Get("Id")
	assert.True(t, ok, "inherited member")

	_, ok = set.Get("Count")
	assert.False(t, ok, "static member")

	_, ok = set.Get("Secret")
	assert.False(t, ok, "private member")
}

func TestParse_UnreadableMemberTypes(t *testing.T) {
	models := `namespace Shop;

public class Source
{
    public int Id { get; set; }
    public (int, string) Pair { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public (int, string) Pair { get; set; }
    public (string Name, int Age) Other { get; set; }
}

public record Summary(int Id, (int Lo, int Hi) Range);
`
	profile := `using AutoMapper;

namespace Shop;

public class ShopProfile : Profile
{
    public ShopProfile()
    {
        CreateMap<Source, Destination>();
    }
}
`
	comp := parse(t, Source{Path: "Models.cs", Text: models}, Source{Path: "Profile.cs", Text: profile})

	set, err := analyze.ExtractMembers(comp.Graph, analyze.MustParseTypeRef("Destination"), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len(), "members with tuple types are kept")

	pair, ok := set.Get("Pair")
	require.True(t, ok)
	assert.Equal(t, "(int, string)", pair.Type.String())

	summary := comp.Graph.GetType(analyze.TypeID{Namespace: "Shop", Name: "Summary"})
	require.NotNil(t, summary)
	require.Len(t, summary.Parameters, 2)
	assert.Equal(t, "Range", summary.Parameters[1].Name)

	report, err := rules.NewDispatcher(rules.Options{}).RunAll(context.Background(), comp)
	require.NoError(t, err)

	findings := report.Findings()
	require.Len(t, findings, 1, "Pair maps onto itself, Other has no source")
	assert.Equal(t, diagnostic.RuleMissingSource, findings[0].RuleID)
	assert.Equal(t, "Other", findings[0].Member())
}

func TestParse_Chains(t *testing.T) {
	comp := parse(t,
		Source{Path: "Models.cs", Text: modelsSource},
		Source{Path: "Profile.cs", Text: profileSource},
	)

	doc := comp.Document("Profile.cs")
	require.NotNil(t, doc)

	regs := registrations(t, doc)
	require.Len(t, regs, 2)

	chain := regs[0]
	assert.Equal(t, "Profile.cs", chain.Document)
	assert.Empty(t, chain.Receiver)
	require.Len(t, chain.Calls, 4)

	names := make([]string, len(chain.Calls))
	for i, c := range chain.Calls {
		names[i] = c.Name
	}

	assert.Equal(t, []string{"CreateMap", "ForMember", "ReverseMap", "ReverseMap"}, names)

	first := chain.Calls[0]
	assert.Equal(t, -1, first.Dot)
	require.Len(t, first.TypeArgs, 2)
	assert.Equal(t, "Order", first.TypeArgs[0].Name)
	assert.Equal(t, "OrderDto", first.TypeArgs[1].Name)
	assert.True(t, first.Method.Library)

	forMember := chain.Calls[1]
	require.Len(t, forMember.Args, 2)
	assert.Equal(t, "d => d.Customer", forMember.Args[0].Text)
	require.NotNil(t, forMember.Args[1].Lambda)
	assert.Equal(t, "o", forMember.Args[1].Lambda.Param(0))
	assert.Equal(t, ".", doc.Text[forMember.Dot:forMember.Dot+1])
	assert.Equal(t, "ForMember", doc.Text[forMember.Span.Start:forMember.Span.Start+len("ForMember")])
	assert.Equal(t, byte(')'), doc.Text[forMember.Span.End-1])

	shadow := chain.Calls[2]
	require.NotNil(t, shadow.Method)
	assert.False(t, shadow.Method.Library)
	assert.Equal(t, "Shop.Mapping.MappingExtensions", shadow.Method.Container)
	assert.Equal(t, mapping.ShapePassthrough, mapping.Classify(shadow))

	assert.True(t, chain.Calls[3].Method.Library)
	assert.Equal(t, mapping.ShapeReverseMap, mapping.Classify(chain.Calls[3]))

	generic := regs[1]
	assert.Equal(t, "cfg.", generic.Receiver)
	assert.Equal(t, []string{"T"}, generic.ScopeTypeParams)
	require.Len(t, generic.Calls, 2)
	assert.Nil(t, generic.Calls[1].Method, "undeclared call stays unresolved")
}

func TestParse_WalkRegistration(t *testing.T) {
	comp := parse(t,
		Source{Path: "Models.cs", Text: modelsSource},
		Source{Path: "Profile.cs", Text: profileSource},
	)

	regs := registrations(t, comp.Document("Profile.cs"))
	require.NotEmpty(t, regs)

	reg, err := mapping.Walk("Profile.cs", regs[0])
	require.NoError(t, err)
	require.NotNil(t, reg.Reverse, "the library ReverseMap switches direction")
	assert.Equal(t, 3, reg.Reverse.Start)
	assert.Equal(t, 3, reg.Forward.End, "the ReverseMap(true) extension stays in the forward direction")

	b, ok := reg.Forward.Target("Customer")
	require.True(t, ok)
	assert.Equal(t, mapping.KindExplicitMap, b.Kind)
	assert.Equal(t, []string{"Customer"}, b.SourceRefs)
}

func TestParse_ReceiverInvocation(t *testing.T) {
	src := `class Setup
{
    void Run()
    {
        Config().CreateMap<A, B>().ReverseMap();
    }
}
`
	comp := parse(t, Source{Path: "Setup.cs", Text: src})

	regs := registrations(t, comp.Document("Setup.cs"))
	require.Len(t, regs, 1)
	assert.Equal(t, "Config().", regs[0].Receiver)
	assert.Len(t, regs[0].Calls, 2)
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()

	write := func(rel, text string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	}

	write("Models/Order.cs", modelsSource)
	write("Mapping/OrderProfile.cs", profileSource)
	write("bin/Debug/Generated.cs", "class Generated { public int X { get; set; } }")
	write("README.md", "# not C#")
	write("Generated/Client.g.cs", "class Client { public int Y { get; set; } }")
	write("Legacy.cs", "class Legacy { public int Z { get; set; } }")
	write(".gitignore", "Generated/\n/Legacy.cs\n")

	sources, err := ReadDir(dir)
	require.NoError(t, err)

	comp := parse(t, sources...)
	require.Len(t, comp.Documents, 2)

	assert.Equal(t, "Mapping/OrderProfile.cs", comp.Documents[0].Path)
	assert.Equal(t, "Models/Order.cs", comp.Documents[1].Path)
	assert.Nil(t, comp.Graph.GetType(analyze.TypeID{Name: "Generated"}))
	assert.Nil(t, comp.Graph.GetType(analyze.TypeID{Name: "Client"}), "ignored by .gitignore")
	assert.Nil(t, comp.Graph.GetType(analyze.TypeID{Name: "Legacy"}), "ignored by .gitignore")
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, Source{Path: "Models.cs", Text: modelsSource})
	require.Error(t, err)
}
