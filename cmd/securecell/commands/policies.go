package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/securecell/internal/config"
	"github.com/systmms/securecell/pkg/cell"
)

func NewPoliciesCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List lock policies",
		Long: `Display the lock policies a cell can be created with.

The policy decides where the value lives while the cell is locked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := ""
			if def, err := loadDefinition(cfg); err == nil {
				current = def.Policy
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "POLICY\tDEFAULT\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "------\t-------\t-----------\n")
			for _, p := range cell.Policies() {
				mark := ""
				if p.String() == current {
					mark = "*"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p, mark, p.Description())
			}
			return w.Flush()
		},
	}

	return cmd
}
