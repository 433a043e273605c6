package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	workers   int
	metrics   string
	noColor   bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "mapcheck",
		Short: "Check object-mapping profiles for unmapped and mismatched members",
		Long: `mapcheck inspects CreateMap registrations in C# sources.

For every registration it compares the members of the source and destination
types, taking ForMember, ForSourceMember, ForCtorParam, ConstructUsing,
ConvertUsing and ReverseMap configuration into account, and reports:
  - members that are never mapped or whose values are lost
  - type, nullability and collection mismatches
  - nested types without a registered map
  - expensive or non-deterministic projections
  - duplicate registrations`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "config file (default: .mapcheck.yaml, .mapcheck.yml or .mapcheck.toml in the target directory)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text, json")
	pf.IntVarP(&flags.workers, "workers", "j", 0, "registration sites analysed in parallel")
	pf.StringVar(&flags.metrics, "metrics", "", "write Prometheus metrics to this file")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newAnalyzeCmd(&flags))
	cmd.AddCommand(newFixCmd(&flags))
	cmd.AddCommand(newRulesCmd(&flags))

	return cmd
}
