package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/engine"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/logger"
	"github.com/mvachon/purefa/internal/model"
)

type applyOptions struct {
	PlanPath string
	DryRun   bool
	Verbose  bool
}

var applyCmdRunner = runApply

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge the array to the declared plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose

			return applyCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.PlanPath, "plan", "p", "", "Path to plan file")
	cmd.MarkFlagRequired("plan") //nolint:errcheck

	return cmd
}

func runApply(opts applyOptions) error {
	plan, err := config.ParsePlan(opts.PlanPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	effectiveDryRun := opts.DryRun || plan.Settings.DryRun
	effectiveVerbose := opts.Verbose || plan.Settings.Verbose

	log, err := newRunLogger(effectiveVerbose)
	if err != nil {
		return err
	}

	results, err := converge(ctx, plan, log, effectiveDryRun)
	renderResults(os.Stdout, results)

	summary := model.Summarize(results)
	if err != nil {
		return err
	}

	if effectiveDryRun && !summary.AllConverged() {
		log.Info("dry run complete; changes are pending")
		return nil
	}

	log.Info("run complete")
	return nil
}

// converge logs in, builds the registry, and executes the plan.
func converge(ctx context.Context, plan *config.Plan, log *logger.Logger, dryRun bool) ([]model.TaskResult, error) {
	client, err := flasharray.NewClient(flasharray.Options{
		Endpoint:  plan.Connection.Endpoint,
		APIToken:  plan.Connection.APIToken,
		VerifyTLS: plan.Connection.VerifyTLS,
		Timeout:   time.Duration(plan.Connection.TimeoutSecs) * time.Second,
		UserAgent: fmt.Sprintf("purefa/%s", version),
	})
	if err != nil {
		return nil, err
	}

	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	log.WithFields(map[string]any{
		"endpoint":     plan.Connection.Endpoint,
		"rest_version": client.RESTVersion(),
	}).Info("logged in")

	registry, err := buildRegistry(client)
	if err != nil {
		return nil, err
	}

	execCtx := &engine.ExecutionContext{
		Plan:            plan,
		Registry:        registry,
		DryRun:          dryRun,
		ContinueOnError: plan.Settings.ContinueOnError,
		Logger:          log,
		Context:         ctx,
	}

	return engine.Execute(execCtx)
}

func newRunLogger(verbose bool) (*logger.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Options{
		Level:         level,
		HumanReadable: term.IsTerminal(int(os.Stderr.Fd())),
		RunID:         uuid.NewString(),
	})
}
