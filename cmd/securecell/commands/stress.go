package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/systmms/securecell/internal/config"
	"github.com/systmms/securecell/internal/metrics"
	"github.com/systmms/securecell/internal/stress"
	"github.com/systmms/securecell/pkg/cell"
)

func NewStressCommand(cfg *config.Config) *cobra.Command {
	var (
		policyName  string
		writers     int
		togglers    int
		readers     int
		iterations  int
		duration    time.Duration
		metricsPort int
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer one cell from many goroutines",
		Long: `Run writers (Allocate), togglers (Lock/Unlock) and readers (Snapshot)
against a single cell and verify that no reader ever observes a torn value.

Defaults come from the stress section of the config file. With
--metrics-port, or metrics.enabled in the config, cell metrics are served
in Prometheus format while the run is in progress.`,
		Example: `  securecell stress --policy sealed --duration 5s
  securecell stress --writers 16 --iterations 10000 --metrics-port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cfg)
			if err != nil {
				return err
			}
			policy, err := resolvePolicy(def, policyName, cmd.Flags().Changed("policy"))
			if err != nil {
				return err
			}

			run := stress.Config{
				Writers:    def.Stress.Writers,
				Togglers:   def.Stress.Togglers,
				Readers:    def.Stress.Readers,
				Iterations: def.Stress.Iterations,
				Duration:   def.Stress.Duration,
				Policy:     policy,
			}
			flags := cmd.Flags()
			if flags.Changed("writers") {
				run.Writers = writers
			}
			if flags.Changed("togglers") {
				run.Togglers = togglers
			}
			if flags.Changed("readers") {
				run.Readers = readers
			}
			if flags.Changed("iterations") {
				run.Iterations = iterations
			}
			if flags.Changed("duration") {
				run.Duration = duration
			}

			srvCfg := def.ServerConfig()
			if flags.Changed("metrics-port") {
				srvCfg.Enabled = true
				srvCfg.Port = metricsPort
			}

			reg := prometheus.NewRegistry()
			cellMetrics := metrics.NewCellMetrics(reg)

			srv := metrics.NewServer(srvCfg, reg)
			if err := srv.Start(); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Stop(ctx); err != nil {
					cfg.Logger.Warn("Metrics server shutdown: %v", err)
				}
			}()
			if srvCfg.Enabled {
				cfg.Logger.Info("Serving metrics on %s%s", srv.Addr(), srvCfg.Path)
			}

			cfg.Logger.Debug("Stress run: policy=%s writers=%d togglers=%d readers=%d iterations=%d duration=%s",
				run.Policy, run.Writers, run.Togglers, run.Readers, run.Iterations, run.Duration)

			report, runErr := stress.Run(cmd.Context(), run,
				cell.WithObserver(cellMetrics),
				cell.WithLogger(cfg.Logger),
			)
			if err := printReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if runErr != nil {
				cfg.Logger.Error("Stress run failed: %v", runErr)
				return runErr
			}

			cfg.Logger.Info("No torn values in %d snapshots", report.Snapshots)
			return nil
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", "", "Lock policy (flag, swap, sealed); defaults to the config file")
	cmd.Flags().IntVar(&writers, "writers", 4, "Goroutines calling Allocate")
	cmd.Flags().IntVar(&togglers, "togglers", 2, "Goroutines calling Lock and Unlock")
	cmd.Flags().IntVar(&readers, "readers", 2, "Goroutines calling Snapshot")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Operations per goroutine (0 means until --duration)")
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "Run length")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port during the run")

	return cmd
}

func printReport(out io.Writer, r stress.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Policy:\t%s\n", r.Policy)
	_, _ = fmt.Fprintf(w, "Cell:\t%s\n", r.Identity)
	_, _ = fmt.Fprintf(w, "Elapsed:\t%s\n", r.Elapsed.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "Allocations:\t%d (rejected while locked: %d)\n", r.Allocations, r.Rejected)
	_, _ = fmt.Fprintf(w, "Lock cycles:\t%d (seal errors: %d)\n", r.Locks, r.SealErrors)
	_, _ = fmt.Fprintf(w, "Snapshots:\t%d (null: %d)\n", r.Snapshots, r.NullSnapshots)
	_, _ = fmt.Fprintf(w, "Torn values:\t%d\n", r.Torn)
	_, _ = fmt.Fprintf(w, "Final state:\tlocked=%t\n", r.FinalLocked)
	return w.Flush()
}
