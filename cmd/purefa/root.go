package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "purefa",
		Short:         "purefa converges FlashArray state from declarative plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Preview changes without mutating the array")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
