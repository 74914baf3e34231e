package main

import (
	"fmt"

	"github.com/aretw0/fsm/internal/cli"
	"github.com/aretw0/fsm/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the machine as a Mermaid diagram",
		Long: `Outputs a Mermaid diagram (graph TD) of the transition table.
With --session the current state and history of a stored machine are highlighted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			if sessionID == "" {
				def, err := cli.LoadDefinition(cmd.Context(), a.cfg)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, nil))
				return nil
			}

			mgr, closer, err := cli.NewManager(cmd.Context(), a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			defer closer.Close()

			snap, err := mgr.Get(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session %q: %w", sessionID, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(mgr.Config(), &graph.GraphOverlay{
				History: snap.Undo,
				Current: snap.Current,
			}))
			return nil
		},
	}
	cmd.Flags().String("session", "", "Highlight the state of this stored machine")
	return cmd
}
