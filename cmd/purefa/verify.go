package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/model"
)

type verifyOptions struct {
	PlanPath string
	Verbose  bool
	JSON     bool
}

var verifyCmdRunner = runVerify

func newVerifyCmd(root *rootFlags) *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <plan-file>",
		Short: "Check array state against the plan without making changes",
		Long: `Verify performs read-only evaluation to determine whether the array
matches the declared plan. Returns exit code 0 when every task is
converged, exit code 1 when changes are pending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.PlanPath = args[0]
			opts.Verbose = root.verbose

			return verifyCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")

	return cmd
}

func runVerify(opts verifyOptions) error {
	plan, err := config.ParsePlan(opts.PlanPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing plan: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := newRunLogger(opts.Verbose)
	if err != nil {
		return err
	}

	// Verification is a forced dry run; no task ever reaches Apply.
	results, execErr := converge(ctx, plan, log, true)

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		renderResults(os.Stdout, results)
	}

	if execErr != nil {
		return execErr
	}

	if !model.Summarize(results).AllConverged() {
		os.Exit(1)
	}
	return nil
}
