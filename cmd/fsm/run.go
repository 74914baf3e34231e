package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/fsm"
	"github.com/aretw0/fsm/internal/cli"
	"github.com/aretw0/fsm/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a machine interactively",
		Long: `Starts a REPL on stdin. The machine is persisted in the configured store under
the --session ID, so a file or redis store resumes where the last run stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr, closer, err := cli.NewManager(ctx, a.cfg, a.logger, nil)
			if err != nil {
				return err
			}
			defer closer.Close()

			interactive := isTerminal(os.Stdin) && isTerminal(os.Stdout)
			if interactive {
				tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(fsm.Version))
			}

			repl := &cli.REPL{
				Manager:   mgr,
				MachineID: sessionID,
				Out:       cmd.OutOrStdout(),
				Style:     tui.NewStyler(interactive),
			}
			return repl.Run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringP("session", "s", "default", "Machine ID to open or resume")
	return cmd
}
