package fix

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"mapcheck/internal/analyze"
	"mapcheck/internal/config"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/plan"
	"mapcheck/internal/rules"
)

// Options configures a Synthesizer.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
}

// Synthesizer proposes fixes for the findings of analysed sites.
type Synthesizer struct {
	threshold int
	logger    *slog.Logger
}

// New creates a Synthesizer. Nil options fall back to defaults.
func New(opts Options) *Synthesizer {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Synthesizer{threshold: cfg.Fix.BulkThreshold, logger: logger}
}

// ForReport returns the top-level proposals for every finding of a report,
// site by site.
func (s *Synthesizer) ForReport(report *rules.Report) []*Proposal {
	bySite := map[*mapping.Registration][]diagnostic.Finding{}

	for _, f := range report.Findings() {
		if f.Registration != nil {
			bySite[f.Registration] = append(bySite[f.Registration], f)
		}
	}

	var out []*Proposal

	for _, site := range report.Sites {
		out = append(out, s.ProposeAll(site, bySite[site.Registration])...)
	}

	return out
}

// cluster is the set of missing-member findings on one side of one direction.
type cluster struct {
	direction mapping.Direction
	side      plan.Side
	findings  []diagnostic.Finding
}

// ProposeAll returns the proposals for the findings of one site, in finding
// order. Missing-member findings on one side of a direction are replaced by
// bulk proposals once they reach the bulk threshold.
func (s *Synthesizer) ProposeAll(site *rules.Site, findings []diagnostic.Finding) []*Proposal {
	type key struct {
		direction mapping.Direction
		side      plan.Side
	}

	clusters := map[key]*cluster{}

	for _, f := range findings {
		side, ok := clusterSide(f.RuleID)
		if !ok || f.Registration != site.Registration {
			continue
		}

		k := key{f.Direction, side}
		if clusters[k] == nil {
			clusters[k] = &cluster{direction: f.Direction, side: side}
		}

		clusters[k].findings = append(clusters[k].findings, f)
	}

	var out []*Proposal

	done := map[key]bool{}

	for _, f := range findings {
		side, ok := clusterSide(f.RuleID)
		k := key{f.Direction, side}

		if ok && clusters[k] != nil && len(clusters[k].findings) >= s.threshold {
			if !done[k] {
				done[k] = true
				out = append(out, s.bulk(site, clusters[k])...)
			}

			continue
		}

		out = append(out, s.Propose(site, f)...)
	}

	return out
}

// clusterSide returns the side whose missing members a rule reports.
func clusterSide(ruleID string) (plan.Side, bool) {
	switch ruleID {
	case diagnostic.RuleMissingSource, diagnostic.RuleRequiredUnmapped:
		return plan.SideDestination, true
	case diagnostic.RuleMissingDestination:
		return plan.SideSource, true
	default:
		return 0, false
	}
}

// Propose returns the ordered proposals for one finding of site: the ignore
// proposal first, then creation on the other side, then a binding.
func (s *Synthesizer) Propose(site *rules.Site, f diagnostic.Finding) []*Proposal {
	b := s.builder(site, f)
	if b == nil {
		return nil
	}

	switch f.RuleID {
	case diagnostic.RuleMissingSource, diagnostic.RuleRequiredUnmapped:
		return b.collect(b.ignore, b.createOnSource, b.bindSuggestion)
	case diagnostic.RuleMissingDestination:
		return b.collect(b.ignoreSource, b.createOnDest, b.bindSuggestion)
	case diagnostic.RuleCaseMismatch:
		return b.collect(b.ignore, b.bindCounterpart)
	case diagnostic.RuleTypeMismatch:
		return b.collect(b.ignore, b.convert)
	case diagnostic.RuleNullableMismatch:
		return b.collect(b.ignore, b.coalesce)
	case diagnostic.RuleCollectionShape:
		return b.collect(b.ignore, b.reshape)
	case diagnostic.RuleNestedMappingMissing:
		return b.collect(b.ignore, b.nestedMap)
	case diagnostic.RuleCollectionElement:
		return b.collect(b.ignore, b.project)
	default:
		return nil
	}
}

// builder gathers what proposals for one member finding need.
type builder struct {
	s     *Synthesizer
	site  *rules.Site
	f     diagnostic.Finding
	rd    *plan.ResolvedDirection
	doc   *analyze.Document
	match plan.MemberMatch
}

func (s *Synthesizer) builder(site *rules.Site, f diagnostic.Finding) *builder {
	if f.Registration == nil || f.Registration != site.Registration || len(f.Members) == 0 {
		return nil
	}

	if f.Registration.Partial {
		s.logger.Debug("no fixes for a partially walked chain",
			"rule", f.RuleID, "document", f.Document, "stop", f.Registration.StopIndex)

		return nil
	}

	rd := site.Resolved.Direction(f.Direction)
	if rd == nil {
		return nil
	}

	b := &builder{s: s, site: site, f: f, rd: rd, doc: site.Compilation.Document(f.Registration.Document)}

	var ok bool
	if f.RuleID == diagnostic.RuleMissingDestination {
		b.match, ok = rd.SourceMember(f.Member())
	} else {
		b.match, ok = rd.Target(f.Member())
	}

	if !ok {
		return nil
	}

	return b
}

type proposer func() (*Proposal, error)

// collect runs proposers in order and keeps those that produced a proposal.
// A proposer that finds no safe edit is skipped.
func (b *builder) collect(proposers ...proposer) []*Proposal {
	var out []*Proposal

	for _, p := range proposers {
		prop, err := p()
		if err != nil {
			b.s.logger.Debug("fix not offered",
				"rule", b.f.RuleID, "member", b.f.Member(), "document", b.f.Document, "reason", err.Error())

			continue
		}

		if prop != nil {
			out = append(out, prop)
		}
	}

	return out
}

func (b *builder) proposal(kind Kind, title string, edits ...Edit) *Proposal {
	return &Proposal{
		Title:     title,
		Kind:      kind,
		Direction: b.f.Direction,
		Members:   []string{b.f.Member()},
		Findings:  []diagnostic.Finding{b.f},
		Edits:     edits,
	}
}

// chainProposal renders one template and appends it to the direction.
func (b *builder) chainProposal(kind Kind, title, tmpl string, data memberData) (*Proposal, error) {
	call, err := render(tmpl, data)
	if err != nil {
		return nil, err
	}

	edit, err := chainEdit(b.doc, b.f.Registration, b.f.Direction, call)
	if err != nil {
		return nil, err
	}

	return b.proposal(kind, title, edit), nil
}

func (b *builder) member() string {
	return b.match.Member.Name
}

func (b *builder) ignore() (*Proposal, error) {
	return b.chainProposal(KindIgnore,
		fmt.Sprintf("Ignore destination member '%s'", b.member()),
		"ignore", memberData{Member: b.member()})
}

func (b *builder) ignoreSource() (*Proposal, error) {
	return b.chainProposal(KindIgnore,
		fmt.Sprintf("Ignore source member '%s'", b.member()),
		"ignoreSource", memberData{Member: b.member()})
}

func (b *builder) createOnSource() (*Proposal, error) {
	return b.create(b.rd.Source)
}

func (b *builder) createOnDest() (*Proposal, error) {
	return b.create(b.rd.Dest)
}

// create declares the member on the type opposite to the one holding it.
func (b *builder) create(owner analyze.TypeRef) (*Proposal, error) {
	sym := b.site.Graph().Lookup(owner)

	edit, err := declareEdit(b.site.Compilation, sym, []declaration{{Name: b.member(), Type: b.match.Member.Type}})
	if err != nil {
		return nil, err
	}

	return b.proposal(KindCreate, fmt.Sprintf("Create member '%s' on %s", b.member(), owner), edit), nil
}

// bindSuggestion maps the member onto its fuzzy candidate. It offers
// nothing without a suggestion.
func (b *builder) bindSuggestion() (*Proposal, error) {
	sugg := b.match.Suggestion
	if sugg == "" {
		return nil, nil
	}

	target, from := b.member(), sugg
	if b.match.Side == plan.SideSource {
		target, from = sugg, b.member()
	}

	return b.chainProposal(KindBind,
		fmt.Sprintf("Map '%s' from '%s'", target, from),
		"mapFrom", memberData{Member: target, Expr: sourceExpr(from)})
}

func (b *builder) bindCounterpart() (*Proposal, error) {
	from := b.match.CounterpartName()
	if from == "" {
		return nil, nil
	}

	return b.chainProposal(KindBind,
		fmt.Sprintf("Map '%s' from '%s'", b.member(), from),
		"mapFrom", memberData{Member: b.member(), Expr: sourceExpr(from)})
}

// mapWith binds the member to expr, an expression over its counterpart.
func (b *builder) mapWith(kind Kind, title string, expr func(from string) string) (*Proposal, error) {
	from := b.match.CounterpartName()
	if from == "" {
		return nil, nil
	}

	e := expr(sourceExpr(from))
	if e == "" {
		return nil, nil
	}

	return b.chainProposal(kind, title, "mapFrom", memberData{Member: b.member(), Expr: e})
}

func (b *builder) convert() (*Proposal, error) {
	c := b.match.Compat

	return b.mapWith(KindConvert,
		fmt.Sprintf("Convert '%s' from %s to %s", b.member(), c.Source, c.Target),
		func(from string) string { return conversion(b.site.Graph(), from, c.Source, c.Target) })
}

func (b *builder) coalesce() (*Proposal, error) {
	return b.mapWith(KindConvert,
		fmt.Sprintf("Map '%s' with a default for null", b.member()),
		func(from string) string { return from + " ?? default" })
}

func (b *builder) reshape() (*Proposal, error) {
	c := b.match.Compat

	title := fmt.Sprintf("Wrap '%s' in a collection", b.member())
	if c.Source.IsCollection() {
		title = fmt.Sprintf("Take the first element for '%s'", b.member())
	}

	return b.mapWith(KindConvert, title,
		func(from string) string { return reshape(from, c.Source, c.Target) })
}

func (b *builder) project() (*Proposal, error) {
	c := b.match.Compat

	return b.mapWith(KindConvert,
		fmt.Sprintf("Convert the elements of '%s' to %s", b.member(), c.TargetElem),
		func(from string) string { return project(b.site.Graph(), from, c.Source, c.Target) })
}

// nestedMap registers the member's type pair after the registration.
func (b *builder) nestedMap() (*Proposal, error) {
	c := b.match.Compat

	src, dst := c.Source.NonNullable(), c.Target.NonNullable()
	if c.Element {
		src, dst = c.SourceElem.NonNullable(), c.TargetElem.NonNullable()
	}

	chain := b.f.Registration.Chain

	stmt, err := render("createMap", createMapData{Receiver: receiverOf(chain), Source: src.String(), Dest: dst.String()})
	if err != nil {
		return nil, err
	}

	edit, err := statementEdit(b.doc, chain, stmt)
	if err != nil {
		return nil, err
	}

	return b.proposal(KindNestedMap, fmt.Sprintf("Add CreateMap<%s, %s>()", src, dst), edit), nil
}

// bulk builds the two grouping proposals for a cluster: ignore every member
// and create every member, each as one edit, with the per-member proposals
// nested beneath them.
func (s *Synthesizer) bulk(site *rules.Site, c *cluster) []*Proposal {
	rd := site.Resolved.Direction(c.direction)
	if rd == nil {
		return nil
	}

	findings := orderBySide(rd, c)

	var (
		builders []*builder
		members  []string
	)

	for _, f := range findings {
		if b := s.builder(site, f); b != nil {
			builders = append(builders, b)
			members = append(members, b.member())
		}
	}

	if len(builders) == 0 {
		return nil
	}

	var out []*Proposal

	if p, err := s.ignoreAll(site, c, builders); err == nil {
		out = append(out, p)
	} else {
		s.logger.Debug("bulk ignore not offered", "members", members, "reason", err.Error())
	}

	if p, err := s.createAll(site, rd, c, builders); err == nil {
		out = append(out, p)
	} else {
		s.logger.Debug("bulk create not offered", "members", members, "reason", err.Error())
	}

	return out
}

func (s *Synthesizer) ignoreAll(site *rules.Site, c *cluster, builders []*builder) (*Proposal, error) {
	tmpl, side := "ignore", "unmapped members"
	if c.side == plan.SideSource {
		tmpl, side = "ignoreSource", "unmapped source members"
	}

	group := &Proposal{Kind: KindIgnoreAll, Direction: c.direction}

	var calls []string

	for _, b := range builders {
		call, err := render(tmpl, memberData{Member: b.member()})
		if err != nil {
			return nil, err
		}

		calls = append(calls, call)
		group.Members = append(group.Members, b.member())
		group.Findings = append(group.Findings, b.f)

		if c.side == plan.SideSource {
			group.Children = append(group.Children, b.collect(b.ignoreSource)...)
		} else {
			group.Children = append(group.Children, b.collect(b.ignore)...)
		}
	}

	reg := site.Registration

	edit, err := chainEdit(site.Compilation.Document(reg.Document), reg, c.direction, calls...)
	if err != nil {
		return nil, err
	}

	group.Title = fmt.Sprintf("Ignore all %d %s", len(builders), side)
	group.Edits = []Edit{edit}

	return group, nil
}

func (s *Synthesizer) createAll(site *rules.Site, rd *plan.ResolvedDirection, c *cluster, builders []*builder) (*Proposal, error) {
	owner := rd.Source
	if c.side == plan.SideSource {
		owner = rd.Dest
	}

	group := &Proposal{Kind: KindCreateAll, Direction: c.direction}

	decls := make([]declaration, 0, len(builders))

	for _, b := range builders {
		decls = append(decls, declaration{Name: b.member(), Type: b.match.Member.Type})
		group.Members = append(group.Members, b.member())
		group.Findings = append(group.Findings, b.f)

		if c.side == plan.SideSource {
			group.Children = append(group.Children, b.collect(b.createOnDest, b.bindSuggestion)...)
		} else {
			group.Children = append(group.Children, b.collect(b.createOnSource, b.bindSuggestion)...)
		}
	}

	edit, err := declareEdit(site.Compilation, site.Graph().Lookup(owner), decls)
	if err != nil {
		return nil, err
	}

	group.Title = fmt.Sprintf("Create all %d missing members on %s", len(builders), owner)
	group.Edits = []Edit{edit}

	return group, nil
}

// orderBySide sorts cluster findings by the position of their member in the
// member list of its side.
func orderBySide(rd *plan.ResolvedDirection, c *cluster) []diagnostic.Finding {
	list := rd.Targets
	if c.side == plan.SideSource {
		list = rd.Sources
	}

	pos := make(map[string]int, len(list))
	for i, m := range list {
		pos[m.Member.Name] = i
	}

	out := append([]diagnostic.Finding(nil), c.findings...)
	sort.SliceStable(out, func(i, j int) bool {
		return pos[out[i].Member()] < pos[out[j].Member()]
	})

	return out
}
