package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mapcheck/internal/diagnostic"
	"mapcheck/internal/fix"
)

const (
	strategyFirst  = "first"
	strategyIgnore = "ignore"
	strategyCreate = "create"
	strategyBind   = "bind"
)

var strategyKinds = map[string][]fix.Kind{
	strategyIgnore: {fix.KindIgnoreAll, fix.KindIgnore},
	strategyCreate: {fix.KindCreateAll, fix.KindCreate, fix.KindNestedMap},
	strategyBind:   {fix.KindBind, fix.KindConvert},
}

type fixFlags struct {
	strategy string
	rules    []string
	max      int
	dryRun   bool
}

func newFixCmd(global *globalFlags) *cobra.Command {
	var flags fixFlags

	cmd := &cobra.Command{
		Use:   "fix [dir | file.cs...]",
		Short: "Apply fixes one at a time",
		Long: `Apply fixes to the analysed sources.

Each step re-analyses the sources and applies a single proposal, so later
fixes see the effect of earlier ones. The "first" strategy takes the first
proposal of every finding; the other strategies only take proposals of
their kind.`,
		Example: `  mapcheck fix --strategy ignore --rule AM006 ./src
  mapcheck fix --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, global, &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.strategy, "strategy", "s", strategyFirst, "which proposals to apply: first, ignore, create, bind")
	f.StringSliceVarP(&flags.rules, "rule", "r", nil, "only fix findings of these rules")
	f.IntVar(&flags.max, "max", 100, "maximum number of fixes to apply")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the fixes without writing files")

	return cmd
}

func runFix(cmd *cobra.Command, global *globalFlags, flags *fixFlags, args []string) error {
	if _, ok := strategyKinds[flags.strategy]; !ok && flags.strategy != strategyFirst {
		return fmt.Errorf("unknown strategy %q", flags.strategy)
	}

	for _, id := range flags.rules {
		if !diagnostic.IsRuleID(id) {
			return fmt.Errorf("unknown rule %q", id)
		}
	}

	s, err := openSession(global, args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	synth := fix.New(fix.Options{Config: s.cfg, Logger: s.logger})
	out := cmd.OutOrStdout()

	tried := map[string]bool{}
	changed := map[string]bool{}
	applied := 0

	for applied < flags.max {
		report, err := s.analyze(cmd.Context())
		if err != nil {
			return err
		}

		p := chooseProposal(synth.ForReport(report), flags, tried)
		if p == nil {
			break
		}

		tried[proposalKey(p)] = true

		docs, err := p.Apply(s.documents())
		if err != nil {
			s.logger.Debug("proposal not applied", "title", p.Title, "error", err)
			continue
		}

		paths := s.update(docs)
		if len(paths) == 0 {
			continue
		}

		for _, path := range paths {
			changed[path] = true
		}

		applied++

		fmt.Fprintf(out, "%s %s (%s)\n", fixColor("fixed"), p.Title, strings.Join(p.Documents(), ", "))
	}

	paths := make([]string, 0, len(changed))
	for path := range changed {
		paths = append(paths, path)
	}

	slices.Sort(paths)

	if !flags.dryRun {
		if err := s.write(paths); err != nil {
			return err
		}
	}

	report, err := s.analyze(cmd.Context())
	if err != nil {
		return err
	}

	remaining := report.Findings()

	verb := "changed"
	if flags.dryRun {
		verb = "would change"
	}

	fmt.Fprintf(out, "\n%d fixes applied, %d files %s, %d findings remaining\n", applied, len(paths), verb, len(remaining))

	return s.flushMetrics()
}

// chooseProposal returns the first untried proposal that fits the strategy
// and rule filter. Top-level proposals are preferred over their children.
func chooseProposal(proposals []*fix.Proposal, flags *fixFlags, tried map[string]bool) *fix.Proposal {
	var candidates []*fix.Proposal

	for _, p := range proposals {
		if flags.strategy == strategyFirst {
			candidates = append(candidates, p)
			continue
		}

		p.Walk(func(c *fix.Proposal) {
			if slices.Contains(strategyKinds[flags.strategy], c.Kind) {
				candidates = append(candidates, c)
			}
		})
	}

	// bulk proposals first, in the order they were offered
	slices.SortStableFunc(candidates, func(a, b *fix.Proposal) int {
		switch {
		case a.Kind.IsBulk() && !b.Kind.IsBulk():
			return -1
		case !a.Kind.IsBulk() && b.Kind.IsBulk():
			return 1
		default:
			return 0
		}
	})

	for _, p := range candidates {
		if tried[proposalKey(p)] || !matchesRules(p, flags.rules) {
			continue
		}

		return p
	}

	return nil
}

func matchesRules(p *fix.Proposal, ids []string) bool {
	if len(ids) == 0 {
		return true
	}

	for _, f := range p.Findings {
		if slices.Contains(ids, f.RuleID) {
			return true
		}
	}

	return false
}

// proposalKey identifies a proposal across re-analysis, where offsets and
// registration pointers change.
func proposalKey(p *fix.Proposal) string {
	parts := []string{p.Kind.String(), p.Title, strings.Join(p.Documents(), ",")}

	if len(p.Findings) > 0 && p.Findings[0].Registration != nil {
		parts = append(parts, p.Findings[0].Registration.Key(p.Direction))
	}

	return strings.Join(parts, "\x00")
}
