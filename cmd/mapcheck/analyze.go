package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mapcheck/internal/diagnostic"
	"mapcheck/internal/fix"
	"mapcheck/internal/rules"
)

const (
	formatText = "text"
	formatJSON = "json"

	failOnNone = "none"
)

// errFindings is returned when findings reach the --fail-on severity.
var errFindings = errors.New("findings reported")

var (
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoColor    = color.New(color.FgCyan).SprintFunc()
	fixColor     = color.New(color.FgGreen).SprintFunc()
)

type analyzeFlags struct {
	format string
	failOn string
	fixes  bool
}

func newAnalyzeCmd(global *globalFlags) *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [dir | file.cs...]",
		Short: "Report mapping findings",
		Long: `Analyze C# sources and report every finding of the enabled rules.

With no arguments the current directory is analysed. The exit status is 1
when a finding reaches the --fail-on severity and 2 on any other error.`,
		Example: `  mapcheck analyze ./src
  mapcheck analyze --format json Profiles/OrderProfile.cs Models/Order.cs
  mapcheck analyze --fixes --fail-on warning`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, global, &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", formatText, "output format: text, json")
	f.StringVar(&flags.failOn, "fail-on", "error", "lowest severity that fails the run: error, warning, info, none")
	f.BoolVar(&flags.fixes, "fixes", false, "list the available fixes")

	return cmd
}

func runAnalyze(cmd *cobra.Command, global *globalFlags, flags *analyzeFlags, args []string) error {
	if flags.format != formatText && flags.format != formatJSON {
		return fmt.Errorf("unknown format %q", flags.format)
	}

	failOn, fail, err := parseFailOn(flags.failOn)
	if err != nil {
		return err
	}

	s, err := openSession(global, args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	report, err := s.analyze(cmd.Context())
	if err != nil {
		return err
	}

	var proposals []*fix.Proposal
	if flags.fixes {
		proposals = fix.New(fix.Options{Config: s.cfg, Logger: s.logger}).ForReport(report)
	}

	out := cmd.OutOrStdout()

	if flags.format == formatJSON {
		err = writeJSONReport(out, report, proposals)
	} else {
		writeTextReport(out, report, proposals)
	}

	if err != nil {
		return err
	}

	if err := s.flushMetrics(); err != nil {
		return err
	}

	if fail {
		if n := countAtLeast(report.Findings(), failOn); n > 0 {
			return fmt.Errorf("%w: %d at %s or above", errFindings, n, failOn)
		}
	}

	return nil
}

func parseFailOn(s string) (diagnostic.Severity, bool, error) {
	if strings.EqualFold(s, failOnNone) {
		return 0, false, nil
	}

	sev, err := diagnostic.ParseSeverity(s)
	if err != nil {
		return 0, false, fmt.Errorf("--fail-on: %w", err)
	}

	return sev, true, nil
}

func countAtLeast(findings []diagnostic.Finding, sev diagnostic.Severity) int {
	n := 0

	for _, f := range findings {
		if f.Severity >= sev {
			n++
		}
	}

	return n
}

func severityLabel(s diagnostic.Severity) string {
	switch s {
	case diagnostic.SeverityError:
		return errorColor(s)
	case diagnostic.SeverityWarning:
		return warningColor(s)
	default:
		return infoColor(s)
	}
}

func writeTextReport(w io.Writer, report *rules.Report, proposals []*fix.Proposal) {
	findings := report.Findings()

	for _, f := range findings {
		fmt.Fprintf(w, "%s:%s: %s %s: %s\n", f.Document, f.Position, severityLabel(f.Severity), f.RuleID, f.Message)
	}

	if len(proposals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fixes:")

		for _, p := range proposals {
			writeProposal(w, p, "  ")
		}
	}

	d := report.Diagnostics

	fmt.Fprintf(w, "\n%d registrations, %d errors, %d warnings, %d info",
		len(report.Sites), len(d.Errors), len(d.Warnings), len(d.Infos))

	if report.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", report.Skipped)
	}

	fmt.Fprintln(w)
}

func writeProposal(w io.Writer, p *fix.Proposal, indent string) {
	fmt.Fprintf(w, "%s%s %s\n", indent, fixColor("*"), p.Title)

	for _, c := range p.Children {
		writeProposal(w, c, indent+"  ")
	}
}

type jsonFinding struct {
	Rule       string   `json:"rule"`
	Severity   string   `json:"severity"`
	Category   string   `json:"category"`
	Document   string   `json:"document"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Members    []string `json:"members,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

type jsonProposal struct {
	Title    string         `json:"title"`
	Kind     string         `json:"kind"`
	Members  []string       `json:"members,omitempty"`
	Children []jsonProposal `json:"children,omitempty"`
}

type jsonReport struct {
	Findings []jsonFinding  `json:"findings"`
	Fixes    []jsonProposal `json:"fixes,omitempty"`
	Sites    int            `json:"registrations"`
	Skipped  int            `json:"skipped"`
}

func writeJSONReport(w io.Writer, report *rules.Report, proposals []*fix.Proposal) error {
	out := jsonReport{
		Findings: []jsonFinding{},
		Sites:    len(report.Sites),
		Skipped:  report.Skipped,
	}

	for _, f := range report.Findings() {
		out.Findings = append(out.Findings, jsonFinding{
			Rule:       f.RuleID,
			Severity:   f.Severity.String(),
			Category:   f.Category.String(),
			Document:   f.Document,
			Line:       f.Position.Line,
			Column:     f.Position.Column,
			Members:    f.Members,
			Message:    f.Message,
			Suggestion: f.Suggestion,
		})
	}

	for _, p := range proposals {
		out.Fixes = append(out.Fixes, toJSONProposal(p))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func toJSONProposal(p *fix.Proposal) jsonProposal {
	jp := jsonProposal{Title: p.Title, Kind: p.Kind.String(), Members: p.Members}
	for _, c := range p.Children {
		jp.Children = append(jp.Children, toJSONProposal(c))
	}

	return jp
}
