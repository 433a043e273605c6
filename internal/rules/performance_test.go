package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapcheck/internal/analyze"
	"mapcheck/internal/config"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
)

func orderFixture() *fixture {
	return newFixture().
		class("Order",
			prop("Id", "int"),
			prop("Total", "decimal"),
			prop("Lines", "List<OrderLine>"),
			prop("Customer", "string")).
		class("OrderDto",
			prop("Id", "int"),
			prop("Total", "decimal"),
			prop("Lines", "List<OrderLine>"),
			prop("Customer", "string"))
}

func forMember(target, mapFrom string) *analyze.Call {
	return libCall("ForMember", "d => d."+target, "o => o.MapFrom("+mapFrom+")")
}

func TestExpensiveOperation(t *testing.T) {
	tests := []struct {
		name   string
		lambda string
		labels []string
	}{
		{"repository", "s => _orderRepository.Find(s.Id).Total", []string{"database access"}},
		{"blocking wait", "s => _client.GetTotalAsync(s.Id).Result", []string{"blocking wait on a task"}},
		{"file", `s => decimal.Parse(File.ReadAllText("total.txt"))`, []string{"file system access"}},
		{"http and sleep", "s => Sleep(s, httpClient.GetStringAsync(url), Thread.Sleep(10))",
			[]string{"HTTP request", "thread sleep"}},
		{"reflection", `s => (decimal)s.GetType().GetProperty("Total").GetValue(s)`, []string{"reflection"}},
		{"inside string literal", `s => s.Total + decimal.Parse("File.Open(x)".Length.ToString())`, nil},
		{"plain", "s => s.Total * 2", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := orderFixture()
			call := forMember("Total", tt.lambda)
			f.register("Order", "OrderDto", call)

			report := run(t, f, nil)
			findings := report.Diagnostics.ByRule(diagnostic.RuleExpensiveOperation)

			var labels []string
			for _, got := range findings {
				labels = append(labels, got.Args[1])
				assert.Equal(t, "Total", got.Args[0])
				assert.Equal(t, call.Span, got.Span)
			}

			assert.ElementsMatch(t, tt.labels, labels, dump(report))
		})
	}
}

func TestMultipleEnumeration(t *testing.T) {
	f := orderFixture()
	f.register("Order", "OrderDto",
		forMember("Total", "s => s.Lines.Sum(l => l.Price) / s.Lines.Count()"),
		forMember("Id", "s => s.Customer.Select(c => c).Count() + s.Customer.Count()"),
		forMember("Customer", "src => src.Lines.First().Name + other.Lines.Count() + other.Lines.Any()"))

	report := run(t, f, nil)

	got := only(t, report, diagnostic.RuleMultipleEnumeration)
	assert.Equal(t, []string{"Total", "Lines", "2"}, got.Args)
	assert.Equal(t, []string{"Lines"}, got.Members)
}

func TestNonDeterministicValue(t *testing.T) {
	f := orderFixture().class("Stamp", prop("Id", "string"))
	f.register("Order", "OrderDto",
		forMember("Customer", "s => s.Customer + DateTime.Now.ToString() + DateTime . Now.Ticks"),
		forMember("Id", "s => new Random().Next()"))
	f.register("Order", "Stamp",
		libCall("ConstructUsing", "s => new Stamp { Id = Guid.NewGuid().ToString() }"))

	report := run(t, f, nil)

	var values []string
	for _, got := range report.Diagnostics.ByRule(diagnostic.RuleNonDeterministicValue) {
		values = append(values, got.Args[0]+"="+got.Args[1])
		assert.Equal(t, diagnostic.SeverityInfo, got.Severity)
	}

	assert.Equal(t, []string{
		"Customer=DateTime.Now",
		"Id=new Random",
		"Stamp=Guid.NewGuid()",
	}, values, dump(report))
}

func TestComplexQueryChain(t *testing.T) {
	query := "s => s.Lines.Where(l => l.Qty > 0).Select(l => l.Price).Distinct().OrderBy(p => p).Skip(1).Take(3).Sum()"

	t.Run("over the limit", func(t *testing.T) {
		f := orderFixture()
		f.register("Order", "OrderDto", forMember("Total", query))

		got := only(t, run(t, f, nil), diagnostic.RuleComplexQueryChain)
		assert.Equal(t, []string{"Total", "7", "5"}, got.Args)
	})

	t.Run("raised limit", func(t *testing.T) {
		cfg := config.Default()
		cfg.Performance.MaxQueryOperators = 7

		f := orderFixture()
		f.register("Order", "OrderDto", forMember("Total", query))

		report := run(t, f, cfg)
		assert.Empty(t, report.Diagnostics.ByRule(diagnostic.RuleComplexQueryChain))
	})
}

func TestDuplicateRegistration(t *testing.T) {
	f := orderFixture()
	f.register("Order", "OrderDto", libCall("ReverseMap"))
	second := f.register("OrderDto", "Order")

	report := run(t, f, nil)

	got := only(t, report, diagnostic.RuleDuplicateRegistration)
	assert.Equal(t, second.Calls[0].Span, got.Span)
	assert.Equal(t, "OrderDto -> Order", got.Args[0])
	assert.Equal(t, "Profile.cs:1:12", got.Args[1], "the ReverseMap declaration comes first")
}

func TestProjections(t *testing.T) {
	reg, err := mapping.Walk("Profile.cs", &analyze.Chain{Calls: []*analyze.Call{
		createMap("Order", "OrderDto"),
		forMember("Total", "src => src.Total"),
		libCall("ForMember", "d => d.Id", "o => o.Ignore()"),
		libCall("ReverseMap"),
		libCall("ForCtorParam", `"id"`, "opt => opt.MapFrom((s, ctx) => s.Id)"),
		libCall("ConvertUsing", "x => new Order()"),
	}})
	require.NoError(t, err)

	got := projections(reg)
	require.Len(t, got, 3)

	assert.Equal(t, "Total", got[0].target)
	assert.Equal(t, "src", got[0].param)
	assert.Equal(t, "src.Total)", got[0].body[len(got[0].body)-len("src.Total)"):])
	assert.Equal(t, mapping.DirectionForward, got[0].direction)

	assert.Equal(t, "s", got[1].param)
	assert.Equal(t, mapping.DirectionReverse, got[1].direction)

	assert.Equal(t, "Order", got[2].target)
	assert.Equal(t, "x", got[2].param)

	site := &Site{Registration: reg}
	first := site.projected()
	assert.Equal(t, got, first)

	reg.Forward.Entries = nil
	assert.Equal(t, first, site.projected(), "a site lexes its projections once")
}

func TestMaskLiterals(t *testing.T) {
	blank := func(n int) string { return strings.Repeat(" ", n) }

	tests := []struct {
		in, want string
	}{
		{`s.Name + "File.Open()"`, `s.Name + "` + blank(11) + `"`},
		{`'x' + s.Id`, `' ' + s.Id`},
		{`"a\"b" + c`, `"` + blank(4) + `" + c`},
		{`@"C:\dir" + d`, `@"` + blank(6) + `" + d`},
		{`no literals`, `no literals`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := maskLiterals(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.in))
		})
	}
}
