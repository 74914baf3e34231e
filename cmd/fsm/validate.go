package main

import (
	"fmt"

	"github.com/aretw0/fsm/internal/cli"
	"github.com/aretw0/fsm/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the machine definition for consistency",
		Long: `Crawls the machine from its initial state and reports transitions to missing
states. Unreachable states and a missing "normal" reset target are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			cfg.Strict = false

			def, err := cli.LoadDefinition(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			report, err := validator.ValidateGraph(def)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, w := range report.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%s is valid ✅ (%d states, initial %q)\n",
				cfg.File, def.States.Len(), def.Initial)
			return nil
		},
	}
}
