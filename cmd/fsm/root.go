package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/fsm/internal/config"
	"github.com/aretw0/fsm/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries the configuration resolved before any command runs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "fsm",
		Short: "fsm runs finite state machines with undo and redo",
		Long: `fsm loads a state machine definition (YAML or JSON) and lets you drive it
interactively, over HTTP or as an MCP tool server. Every transition is kept in
a linear history that can be undone and redone.

Settings are read from FSM_* environment variables; flags take precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.StringP("file", "f", "", "Machine definition file (env FSM_FILE, default machine.yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn or error (env FSM_LOG_LEVEL)")
	pf.Bool("strict", false, "Reject definitions with unknown initial or target states (env FSM_STRICT)")
	pf.String("store", "", "Snapshot store: memory, file or redis (env FSM_STORE)")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newStatesCmd(a),
		newGraphCmd(a),
		newDescribeCmd(a),
		newRunCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup merges environment configuration with explicit flags and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.File, _ = flags.GetString("file")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(level)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
