package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/promoforge/promoforge/internal/engine"
	"github.com/promoforge/promoforge/internal/types"
)

var (
	executeKey  string
	executeWait bool
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run, inspect, cancel, and retry plan executions",
}

var executeRunCmd = &cobra.Command{
	Use:   "run <plan-id>",
	Short: "Execute an approved plan",
	Long: `Creates an execution for an approved plan and runs its steps.
Repeating the command with the same --key returns the existing
execution instead of running the plan again.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecuteRun,
}

var executeStatusCmd = &cobra.Command{
	Use:   "status <execution-id>",
	Short: "Show one execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecuteStatus,
}

var executeCancelCmd = &cobra.Command{
	Use:   "cancel <execution-id>",
	Short: "Cancel a queued or running execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecuteCancel,
}

var executeRetryCmd = &cobra.Command{
	Use:   "retry <execution-id>",
	Short: "Retry the failed steps of a failed execution",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecuteRetry,
}

var executeResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume executions left running by a previous process",
	RunE:  runExecuteResume,
}

func init() {
	executeRunCmd.Flags().StringVar(&executeKey, "key", "", "idempotency key")
	executeRunCmd.Flags().BoolVar(&executeWait, "wait", true, "wait for the execution to finish")
	executeRunCmd.MarkFlagRequired("key")

	executeRetryCmd.Flags().BoolVar(&executeWait, "wait", true, "wait for the execution to finish")

	executeCmd.AddCommand(executeRunCmd)
	executeCmd.AddCommand(executeStatusCmd)
	executeCmd.AddCommand(executeCancelCmd)
	executeCmd.AddCommand(executeRetryCmd)
	executeCmd.AddCommand(executeResumeCmd)
}

func runExecuteRun(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	planID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	exec, err := a.engine.ExecutePlan(cmd.Context(), uid, planID, executeKey)
	if err != nil {
		return err
	}

	if executeWait {
		exec, err = waitForExecution(cmd.Context(), a, uid, exec.ID)
		if err != nil {
			return err
		}
	}
	return printJSON(exec)
}

func runExecuteStatus(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	execID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	exec, err := a.engine.GetExecution(cmd.Context(), uid, execID)
	if err != nil {
		return err
	}
	return printJSON(exec)
}

func runExecuteCancel(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	execID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	exec, err := a.engine.CancelExecution(cmd.Context(), uid, execID)
	if err != nil {
		return err
	}
	return printJSON(exec)
}

func runExecuteRetry(cmd *cobra.Command, args []string) error {
	uid, err := userID()
	if err != nil {
		return err
	}
	execID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	exec, err := a.engine.RetryFailedSteps(cmd.Context(), uid, execID)
	if err != nil {
		return err
	}

	if executeWait {
		exec, err = waitForExecution(cmd.Context(), a, uid, exec.ID)
		if err != nil {
			return err
		}
	}
	return printJSON(exec)
}

func runExecuteResume(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	resumed, err := a.engine.Resume(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(map[string]int{"resumed": resumed})
}

// waitForExecution polls until the execution reaches a terminal status.
// The run loop is detached; this keeps the CLI process alive so the steps
// actually run before the process exits.
func waitForExecution(ctx context.Context, a *app, uid, execID types.ID) (*engine.Execution, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			exec, err := a.engine.GetExecution(ctx, uid, execID)
			if err != nil {
				return nil, err
			}
			if exec.Status.IsTerminal() {
				return exec, nil
			}
		}
	}
}
