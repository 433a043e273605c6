package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapcheck/internal/analyze"
	"mapcheck/internal/config"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/telemetry/metrics"
)

// mixedFixture has one clean registration, one with a missing source member
// and one that uses a type parameter of the enclosing profile.
func mixedFixture() *fixture {
	f := newFixture().
		class("Order", prop("Id", "int")).
		class("OrderDto", prop("Id", "int")).
		class("Invoice", prop("Id", "int")).
		class("InvoiceDto", prop("Id", "int"), prop("Number", "string"))

	f.register("Order", "OrderDto")
	f.chain("Billing.cs", createMap("Invoice", "InvoiceDto"))

	generic := f.register("T", "OrderDto")
	generic.ScopeTypeParams = []string{"T"}

	return f
}

func TestDispatcher_RunAll(t *testing.T) {
	report := run(t, mixedFixture(), nil)

	assert.Len(t, report.Sites, 2)
	assert.Equal(t, 1, report.Skipped)

	got := only(t, report, diagnostic.RuleMissingSource)
	assert.Equal(t, "Billing.cs", got.Document)
	assert.Equal(t, []string{"Number"}, got.Members)
	assert.Equal(t, 1, report.Diagnostics.Len(), dump(report))
}

func TestDispatcher_RunDocument(t *testing.T) {
	f := mixedFixture()
	comp := f.compilation()
	d := NewDispatcher(Options{})

	report, err := d.RunDocument(context.Background(), comp, "Profile.cs")
	require.NoError(t, err)
	assert.Zero(t, report.Diagnostics.Len(), dump(report))
	assert.Len(t, report.Sites, 1)
	assert.Equal(t, 1, report.Skipped)

	report, err = d.RunDocument(context.Background(), comp, "Billing.cs")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Diagnostics.Len())

	_, err = d.RunDocument(context.Background(), comp, "Missing.cs")
	require.Error(t, err)
}

func TestDispatcher_DuplicatesAcrossDocuments(t *testing.T) {
	f := newFixture().
		class("Order", prop("Id", "int")).
		class("OrderDto", prop("Id", "int"))
	f.register("Order", "OrderDto")
	f.chain("Other.cs", createMap("Order", "OrderDto"))

	report, err := NewDispatcher(Options{}).RunDocument(context.Background(), f.compilation(), "Other.cs")
	require.NoError(t, err)

	got := only(t, report, diagnostic.RuleDuplicateRegistration)
	assert.Equal(t, "Other.cs", got.Document)
	assert.Equal(t, "Profile.cs:1:1", got.Args[1])
}

func TestDispatcher_Config(t *testing.T) {
	f := newFixture().
		class("Source", prop("firstName", "string"), prop("Id", "int")).
		class("Destination", prop("FirstName", "string"), prop("Id", "int"), prop("Extra", "string"))
	f.register("Source", "Destination")

	cfg := config.Default()
	cfg.Rules = map[string]config.RuleConfig{
		diagnostic.RuleCaseMismatch:  {Disabled: true},
		diagnostic.RuleMissingSource: {Severity: "error"},
	}

	report := run(t, f, cfg)

	assert.Empty(t, report.Diagnostics.ByRule(diagnostic.RuleCaseMismatch))

	got := only(t, report, diagnostic.RuleMissingSource)
	assert.Equal(t, diagnostic.SeverityError, got.Severity)
	assert.Len(t, report.Diagnostics.Errors, 1)
}

func TestDispatcher_RuleFault(t *testing.T) {
	catalog, err := NewCatalog(&Rule{
		ID:     "X001",
		Detect: func(*Site, *Rule) []diagnostic.Finding { panic("boom") },
	})
	require.NoError(t, err)

	_, err = NewDispatcher(Options{Catalog: catalog}).RunAll(context.Background(), mixedFixture().compilation())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleFault))
	assert.Contains(t, err.Error(), "X001")
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDispatcher(Options{}).RunAll(ctx, mixedFixture().compilation())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcher_Metrics(t *testing.T) {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	d := NewDispatcher(Options{Metrics: collector})

	_, err := d.RunAll(context.Background(), mixedFixture().compilation())
	require.NoError(t, err)

	assert.Equal(t, 2.0, counterSum(t, collector, "mapcheck_sites_analyzed_total"))
	assert.Equal(t, 1.0, counterSum(t, collector, "mapcheck_sites_skipped_total"))
	assert.Equal(t, 1.0, counterSum(t, collector, "mapcheck_findings_total"))
}

func TestDispatcher_Parallel(t *testing.T) {
	f := newFixture().
		class("Source", prop("A", "int")).
		class("Destination", prop("B", "int"))

	for range 32 {
		f.register("Source", "Destination")
	}

	cfg := config.Default()
	cfg.Workers = 4

	report := run(t, f, cfg)

	assert.Len(t, report.Sites, 32)
	assert.Len(t, report.Diagnostics.ByRule(diagnostic.RuleMissingSource), 32)
	assert.Len(t, report.Diagnostics.ByRule(diagnostic.RuleDuplicateRegistration), 31)

	for i := 1; i < len(report.Sites); i++ {
		assert.Less(t, report.Sites[i-1].Registration.Site.Span.Start, report.Sites[i].Registration.Site.Span.Start)
	}
}

func TestDispatcher_EmptyCompilation(t *testing.T) {
	report, err := NewDispatcher(Options{}).RunAll(context.Background(), &analyze.Compilation{Graph: analyze.NewTypeGraph()})
	require.NoError(t, err)
	assert.Zero(t, report.Diagnostics.Len())
	assert.Empty(t, report.Sites)
}

func counterSum(t *testing.T, c *metrics.Collector, name string) float64 {
	t.Helper()

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	var sum float64

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}

		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}

	return sum
}
