package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"treelint/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rules",
	Long:  "List every registered rule with its diagnostic code and effective severity under the resolved configuration.",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	registry := rules.Default()
	cfg, err := resolveConfig(cmd, ".", registry)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rule := range registry.All() {
		state := "enabled"
		if !cfg.RuleEnabled(rule.ID()) {
			state = "disabled"
		}
		fmt.Fprintf(out, "%-24s %s %-8s %s\n",
			rule.ID(), rule.Code().ID(), cfg.RuleSeverity(rule), state)
	}
	return nil
}
