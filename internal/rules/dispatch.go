package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mapcheck/internal/analyze"
	"mapcheck/internal/config"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/plan"
	"mapcheck/internal/telemetry/logging"
	"mapcheck/internal/telemetry/metrics"
)

// ErrRuleFault wraps a panic raised by a rule detector. It aborts the run.
var ErrRuleFault = errors.New("rule fault")

// Options configures a Dispatcher. Zero values select defaults.
type Options struct {
	Catalog *Catalog
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Dispatcher runs the rule catalog over every registration site of a
// compilation.
type Dispatcher struct {
	catalog *Catalog
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		catalog: opts.Catalog,
		config:  opts.Config,
		logger:  logging.OrDiscard(opts.Logger),
		metrics: opts.Metrics,
	}

	if d.catalog == nil {
		d.catalog = DefaultCatalog()
	}

	if d.config == nil {
		d.config = config.Default()
	}

	return d
}

// Catalog returns the dispatcher's rule catalog.
func (d *Dispatcher) Catalog() *Catalog {
	return d.catalog
}

// Report is the outcome of one run.
type Report struct {
	Diagnostics diagnostic.Diagnostics
	// Sites are the analysed registration sites in document order.
	Sites []*Site
	// Skipped counts registration sites excluded from every rule.
	Skipped int
}

// Findings returns every finding in deterministic order.
func (r *Report) Findings() []diagnostic.Finding {
	return r.Diagnostics.All()
}

// RunAll analyses every registration site of the compilation.
func (d *Dispatcher) RunAll(ctx context.Context, comp *analyze.Compilation) (*Report, error) {
	return d.run(ctx, comp, func(*mapping.Registration) bool { return true })
}

// RunDocument analyses the registration sites of one document. Every
// document is still walked so that nested-pair and duplicate checks see the
// whole compilation.
func (d *Dispatcher) RunDocument(ctx context.Context, comp *analyze.Compilation, path string) (*Report, error) {
	if comp.Document(path) == nil {
		return nil, fmt.Errorf("document %s not in compilation", path)
	}

	return d.run(ctx, comp, func(reg *mapping.Registration) bool { return reg.Document == path })
}

// run walks every chain, builds the pair registry, then analyses the
// selected sites in parallel.
func (d *Dispatcher) run(ctx context.Context, comp *analyze.Compilation, selected func(*mapping.Registration) bool) (*Report, error) {
	report := &Report{}

	regs, err := d.collect(ctx, comp, report)
	if err != nil {
		return nil, err
	}

	pairs := mapping.NewPairRegistry()
	for _, reg := range regs {
		pairs.Add(reg)
	}

	duplicates := make(map[*mapping.Registration][]mapping.Duplicate)
	for _, dup := range pairs.Duplicates() {
		duplicates[dup.Repeat.Registration] = append(duplicates[dup.Repeat.Registration], dup)
	}

	resolver := plan.NewResolver(comp.Graph, pairs, plan.ResolutionConfig{
		Fuzzy:      d.config.FuzzyOptions(),
		Flattening: true,
	})

	var targets []*mapping.Registration

	for _, reg := range regs {
		if selected(reg) {
			targets = append(targets, reg)
		}
	}

	sites := make([]*Site, len(targets))
	results := make([][]diagnostic.Finding, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(d.config.Workers, len(targets))))

	for i, reg := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			resolved, err := resolver.Resolve(reg)
			if err != nil {
				if errors.Is(err, analyze.ErrUnresolvable) {
					d.logger.Debug("skipping registration",
						"document", reg.Document, "site", reg.Site.Span.String(), "reason", err.Error())
					d.metrics.SiteSkipped(metrics.ReasonUnresolvable)

					return nil
				}

				return err
			}

			site := &Site{
				Compilation:  comp,
				Document:     comp.Document(reg.Document),
				Registration: reg,
				Resolved:     resolved,
				Pairs:        pairs,
				Duplicates:   duplicates[reg],
				Config:       d.config,
			}

			findings, err := d.RunSite(site)
			if err != nil {
				return err
			}

			sites[i] = site
			results[i] = findings

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, site := range sites {
		if site == nil {
			report.Skipped++
			continue
		}

		report.Sites = append(report.Sites, site)

		for _, f := range results[i] {
			report.Diagnostics.Add(f)
		}
	}

	return report, nil
}

// collect walks every chain of every document in order. Cancellation is
// checked between chains.
func (d *Dispatcher) collect(ctx context.Context, comp *analyze.Compilation, report *Report) ([]*mapping.Registration, error) {
	var regs []*mapping.Registration

	for _, doc := range comp.Documents {
		for _, chain := range doc.Chains {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			reg, err := mapping.Walk(doc.Path, chain)

			switch {
			case errors.Is(err, mapping.ErrNotRegistration):
				continue
			case errors.Is(err, analyze.ErrUnresolvable):
				d.logger.Debug("skipping registration", "document", doc.Path, "reason", err.Error())
				d.metrics.SiteSkipped(metrics.ReasonUnresolvable)
				report.Skipped++

				continue
			case err != nil:
				return nil, fmt.Errorf("%s: %w", doc.Path, err)
			}

			regs = append(regs, reg)
		}
	}

	return regs, nil
}

// RunSite applies every enabled rule to one site. A panicking detector is
// converted into an error wrapping ErrRuleFault.
func (d *Dispatcher) RunSite(site *Site) ([]diagnostic.Finding, error) {
	start := time.Now()

	var out []diagnostic.Finding

	for _, rule := range d.catalog.All() {
		if !d.config.Enabled(rule.ID) {
			continue
		}

		findings, err := d.detect(site, rule)
		if err != nil {
			return nil, err
		}

		severity := d.config.Severity(rule.ID, rule.DefaultSeverity)

		for _, f := range findings {
			f.Severity = severity
			out = append(out, f)
			d.metrics.Finding(rule.ID)
		}
	}

	d.logger.Debug("analyzed registration",
		"document", site.Registration.Document,
		"site", site.Registration.Site.Span.String(),
		"pair", site.Registration.Key(mapping.DirectionForward),
		"findings", len(out))
	d.metrics.SiteAnalyzed(time.Since(start))

	return out, nil
}

func (d *Dispatcher) detect(site *Site, rule *Rule) (findings []diagnostic.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s at %s: %v", ErrRuleFault, rule.ID,
				site.Location(site.Registration.Document, site.Registration.Site.Span), r)
		}
	}()

	return rule.Detect(site, rule), nil
}
