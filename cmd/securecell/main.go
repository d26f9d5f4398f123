package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/securecell/cmd/securecell/commands"
	"github.com/systmms/securecell/internal/config"
	scerrors "github.com/systmms/securecell/internal/errors"
	"github.com/systmms/securecell/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", scerrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "securecell",
		Short: "Inspect and exercise lockable secret cells",
		Long: `securecell holds secrets in lockable cells that wipe their storage
on release. Use it to load a secret under a lock policy, list the
policies, or stress a cell from many goroutines.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(
		commands.NewStressCommand(cfg),
		commands.NewInspectCommand(cfg),
		commands.NewPoliciesCommand(cfg),
		commands.NewConfigCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
