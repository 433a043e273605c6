package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mapcheck/internal/config"
	"mapcheck/internal/rules"
)

type jsonRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Scope       string `json:"scope"`
	Fixable     bool   `json:"fixable"`
	Enabled     bool   `json:"enabled"`
}

func newRulesCmd(global *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "rules [dir]",
		Short: "List the rule catalog",
		Long: `List every rule with its effective severity.

Severities and disabled rules come from the configuration file found in the
given directory, or the current one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, err := loadConfig(global, dir)
			if err != nil {
				return err
			}

			catalog := rules.DefaultCatalog()

			switch format {
			case formatText:
				return writeRulesTable(cmd, catalog, cfg)
			case formatJSON:
				return writeRulesJSON(cmd, catalog, cfg)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json")

	return cmd
}

func writeRulesTable(cmd *cobra.Command, catalog *rules.Catalog, cfg *config.Config) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tSEVERITY\tSCOPE\tFIX\tNAME")

	for _, r := range catalog.All() {
		sev := cfg.Severity(r.ID, r.DefaultSeverity).String()
		if !cfg.Enabled(r.ID) {
			sev = "off"
		}

		fixable := "-"
		if r.Fixable {
			fixable = "yes"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, sev, r.Scope, fixable, r.Name)
	}

	return w.Flush()
}

func writeRulesJSON(cmd *cobra.Command, catalog *rules.Catalog, cfg *config.Config) error {
	out := make([]jsonRule, 0, catalog.Len())

	for _, r := range catalog.All() {
		out = append(out, jsonRule{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Severity:    cfg.Severity(r.ID, r.DefaultSeverity).String(),
			Category:    r.Category.String(),
			Scope:       r.Scope.String(),
			Fixable:     r.Fixable,
			Enabled:     cfg.Enabled(r.ID),
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
