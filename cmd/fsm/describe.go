package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/fsm/internal/cli"
	"github.com/aretw0/fsm/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Render a summary table of the machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := cli.LoadDefinition(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}

			markdown := tui.DescribeMarkdown(filepath.Base(a.cfg.File), def)
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}

			render := tui.NewRenderer(!isTerminal(os.Stdout))
			out, err := render(markdown)
			if err != nil {
				return fmt.Errorf("failed to render: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "Print markdown without rendering")
	return cmd
}
