package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daqi-oss/intentd/internal/facade"
)

var (
	execPlanID    string
	execTimeoutMs int64
)

var dryRunCmd = &cobra.Command{
	Use:   "dry-run [input]",
	Short: "Simulate an execution plan without dispatching any real action",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		f, err := buildFacade(cfg)
		if err != nil {
			return err
		}

		req, err := buildPlanRequest(args)
		if err != nil {
			return err
		}

		resp, err := f.DryRun(context.Background(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute [input]",
	Short: "Execute a plan for real, dispatching every action",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		f, err := buildFacade(cfg)
		if err != nil {
			return err
		}

		req, err := buildPlanRequest(args)
		if err != nil {
			return err
		}
		req.TimeoutMs = execTimeoutMs

		resp, err := f.ExecutePlan(context.Background(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

func buildPlanRequest(args []string) (facade.PlanRequest, error) {
	if execPlanID != "" {
		return facade.PlanRequest{PlanID: execPlanID, HasPlanID: true}, nil
	}
	if len(args) == 1 {
		return facade.PlanRequest{Input: args[0], HasInput: true}, nil
	}
	return facade.PlanRequest{}, errMissingInputOrPlanID
}

var errMissingInputOrPlanID = &usageError{"provide either an input argument or --plan-id"}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func init() {
	dryRunCmd.Flags().StringVar(&execPlanID, "plan-id", "", "execute a previously parsed plan by id instead of fresh input")
	executeCmd.Flags().StringVar(&execPlanID, "plan-id", "", "execute a previously parsed plan by id instead of fresh input")
	executeCmd.Flags().Int64Var(&execTimeoutMs, "timeout-ms", 0, "per-intent dispatch timeout in milliseconds (default 2000)")
}
