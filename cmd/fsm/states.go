package main

import (
	"fmt"

	"github.com/aretw0/fsm"
	"github.com/aretw0/fsm/internal/cli"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/spf13/cobra"
)

func newStatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "states",
		Short: "List the states of the machine",
		Long:  `Lists states in definition order. With --event only states that define a transition for it are listed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := cli.LoadDefinition(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			sm, err := fsm.New(def, fsm.WithLogger(a.logger))
			if err != nil {
				return err
			}

			var events []domain.EventID
			if ev, _ := cmd.Flags().GetString("event"); ev != "" {
				events = append(events, domain.EventID(ev))
			}
			for _, id := range sm.States(events...) {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringP("event", "e", "", "Only list states handling this event")
	return cmd
}
