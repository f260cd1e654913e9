package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxhq/mclint/core"
	"github.com/oxhq/mclint/rules"
)

func newRulesCmd() *cobra.Command {
	var (
		dialect   string
		rulesFile string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active best-practice rule table",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := rules.DefaultRuleSet()
			if rulesFile != "" {
				if err := rules.LoadTOML(set, rulesFile); err != nil {
					return fmt.Errorf("load rules file: %w", err)
				}
			}

			defs := set.All()
			if dialect != "" {
				defs = set.ForDialect(core.Dialect(dialect))
			}

			for _, def := range defs {
				label := severityLabel(def.Severity)
				fmt.Printf("%s  %s  %s\n", bold(def.ID), label, def.Message)
				fmt.Printf("    dialects: %v\n", def.Dialects)
				if def.Suggestion != "" {
					fmt.Printf("    %s %s\n", cyan("fix:"), def.Suggestion)
				}
			}
			fmt.Printf("\n%d rules\n", len(defs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dialect, "dialect", "d", "", "only rules applying to this dialect")
	cmd.Flags().StringVar(&rulesFile, "rules-file", "", "TOML file with additional rules")

	return cmd
}

func severityLabel(s core.Severity) string {
	switch s {
	case core.SeverityError:
		return red(string(s))
	case core.SeverityWarning:
		return yellow(string(s))
	}
	return cyan(string(s))
}
