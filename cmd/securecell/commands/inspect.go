package commands

import (
	"bytes"
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/securecell/internal/config"
	scerrors "github.com/systmms/securecell/internal/errors"
	"github.com/systmms/securecell/internal/logging"
	"github.com/systmms/securecell/internal/secure"
	"github.com/systmms/securecell/internal/source"
	"github.com/systmms/securecell/pkg/cell"
)

func NewInspectCommand(cfg *config.Config) *cobra.Command {
	var (
		policyName string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect <source-uri>",
		Short: "Load a secret into a cell and report its state",
		Long: `Load a secret into a cell, lock and unlock it once, and print the
cell's identity, size and state. The value itself is never printed.

Source URIs:
  env:NAME                 environment variable
  keyring:service/account  OS keyring entry
  literal:value            inline value, for testing`,
		Example: `  securecell inspect env:API_TOKEN --policy sealed
  securecell inspect keyring:myapp/deploy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cfg)
			if err != nil {
				return err
			}
			policy, err := resolvePolicy(def, policyName, cmd.Flags().Changed("policy"))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c, err := source.LoadURI(ctx, args[0], cell.WithPolicy(policy), cell.WithLogger(cfg.Logger))
			if err != nil {
				return err
			}
			defer c.Reset()

			snap := c.Snapshot()
			length := len(snap.Value)
			secure.WipeBytes(snap.Value)

			roundTrip := "ok"
			if err := lockRoundTrip(c); err != nil {
				roundTrip = err.Error()
			}

			name := args[0]
			if src, err := source.Parse(args[0]); err == nil {
				name = src.Name()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Source:\t%s\n", name)
			_, _ = fmt.Fprintf(w, "Identity:\t%s\n", c.Identity())
			_, _ = fmt.Fprintf(w, "Policy:\t%s\n", c.Policy())
			_, _ = fmt.Fprintf(w, "Size:\t%d bytes (header), %d bytes (value)\n", snap.Size, length)
			_, _ = fmt.Fprintf(w, "Locked:\t%t\n", c.IsLocked())
			_, _ = fmt.Fprintf(w, "Empty:\t%t\n", c.IsEmpty())
			_, _ = fmt.Fprintf(w, "Value:\t%s\n", logging.Secret(""))
			_, _ = fmt.Fprintf(w, "Lock round trip:\t%s\n", roundTrip)
			if err := w.Flush(); err != nil {
				return err
			}

			cfg.Logger.Debug("Inspected %s with policy %s", name, policy)
			return nil
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", "", "Lock policy (flag, swap, sealed); defaults to the config file")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for fetching the secret")

	return cmd
}

// lockRoundTrip locks the cell, checks the value is hidden, and unlocks it.
func lockRoundTrip(c *cell.Cell[[]byte]) error {
	before := c.Snapshot()
	defer secure.WipeBytes(before.Value)

	if err := c.Lock(); err != nil {
		return err
	}
	if !c.Snapshot().Null {
		return fmt.Errorf("value visible while locked")
	}
	if err := c.Unlock(); err != nil {
		return err
	}

	after := c.Snapshot()
	defer secure.WipeBytes(after.Value)
	if !bytes.Equal(after.Value, before.Value) {
		return fmt.Errorf("value changed across lock round trip")
	}
	return nil
}

func policyFlagError(value string, err error) error {
	return scerrors.UserError{
		Message:    fmt.Sprintf("invalid --policy %q", value),
		Suggestion: "Run 'securecell policies' to list lock policies",
		Err:        err,
	}
}
