// Command positions reports Aave V3 lending positions for a list of wallets.
//
// Usage:
//
//	positions                       report every address in addresses.json
//	positions --interval 250ms      faster pacing between addresses
//	positions --report              also write reports/positions-*.json
//	positions check                 only verify the market contracts exist
//	positions addresses             print the address list
//
// The RPC endpoint comes from config/positions.yaml, or RPC_URL (which may be
// set in a .env file). Without either the public Base endpoint is used.
//
// Flow of the default command:
//
//	env.Load -> config.LoadOrDefault -> addresses.Load -> chain.Dial
//	  -> portfolio.Runner.Run
//	       contract checks (concurrent, abort if any missing)
//	       for each address: pace, fetch reserves + user reserves, format,
//	                         render, fold into cumulative totals
//	       cumulative report
//
// Ctrl+C cancels the root context; the run stops after the in-flight call.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmagro/aave-positions/internal/commands"
	"github.com/dmagro/aave-positions/internal/env"
	"github.com/dmagro/aave-positions/internal/logging"
	"github.com/dmagro/aave-positions/internal/portfolio"
)

const defaultConfigPath = "config/positions.yaml"

func rootCmd(opts *commands.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Report Aave V3 positions for a list of addresses",
		Long: `Fetch every configured address's supply and borrow positions from the
Aave V3 UiPoolDataProvider, print per-address holdings and account metrics,
and finish with totals across all addresses.

Example:
  positions --config config/positions.yaml --interval 500ms --report`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.IntervalSet = cmd.Flags().Changed("interval")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunPositions(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", defaultConfigPath, "Path to config file")
	flags.StringVar(&opts.AddressesFile, "addresses", "", "Path to address list (overrides addresses_file)")
	flags.DurationVar(&opts.Interval, "interval", 0, "Delay between address fetches (overrides pacing.interval)")
	flags.BoolVar(&opts.Report, "report", false, "Write a JSON report to the reports directory")
	flags.StringVar(&opts.ReportDir, "report-dir", "reports", "Directory for JSON reports")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable coloured output")

	cmd.AddCommand(checkCmd(opts), addressesCmd(opts))
	return cmd
}

func main() {
	if err := env.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	logger := logging.New(os.Stderr, env.ParseLogLevel(slog.LevelInfo), env.Get("LOG_FORMAT", "text"))
	opts := &commands.Options{Stdout: os.Stdout, Logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(opts).ExecuteContext(ctx); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, "Interrupted")
		case errors.Is(err, portfolio.ErrContractsMissing):
			fmt.Fprintf(os.Stderr, "Error: %v. Please verify the contract addresses.\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
