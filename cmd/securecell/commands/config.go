package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/securecell/internal/config"
)

func NewConfigCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with the securecell configuration file",
	}

	cmd.AddCommand(newConfigValidateCommand(cfg))
	return cmd
}

func newConfigValidateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file against its schema",
		Long: `Validate the file given by --config (default securecell.yaml).

Unlike other commands, a missing file is an error here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			def := cfg.Definition
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (policy: %s, metrics: %t)\n",
				cfg.Path, def.Policy, def.Metrics.Enabled)
			return nil
		},
	}
}
