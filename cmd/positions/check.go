package main

import (
	"github.com/spf13/cobra"

	"github.com/dmagro/aave-positions/internal/commands"
)

func checkCmd(opts *commands.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Aave market contracts are deployed",
		Long: `Query bytecode for the UI pool data provider, the pool addresses provider
and the pool. Exits non-zero when any of them is missing.

Example:
  positions check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunCheck(cmd.Context(), opts)
		},
	}
}

func addressesCmd(opts *commands.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "addresses",
		Short: "Print the address list a run would process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.ListAddresses(opts)
		},
	}
}
