package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/promoforge/promoforge/internal/plan"
)

// runLoop drives an execution's steps sequentially in index order. Every
// transition is persisted before the next step begins, so a restart resumes
// from the last persisted step. Cancellation is cooperative: the loop
// learns it lost the record when a guarded update reports zero rows, and
// halts without touching the store again.
func (e *Engine) runLoop(ctx context.Context, exec *Execution, p *plan.Plan) {
	ctx, span := e.tracer.Start(ctx, "engine.run",
		trace.WithAttributes(
			attribute.String("execution_id", exec.ID.String()),
			attribute.Int("steps", len(exec.Steps)),
		))
	defer span.End()

	ok, err := e.executions.MarkRunning(ctx, exec.ID)
	if err != nil {
		e.logger.Error("failed to mark execution running", "execution_id", exec.ID, "error", err)
		return
	}
	if !ok {
		e.logger.Info("execution no longer runnable, loop exiting", "execution_id", exec.ID)
		return
	}
	exec.Status = StatusRunning

	limiter := rate.NewLimiter(rate.Every(e.stepDelay), 1)

	postByIndex := make(map[int]plan.PlanPost, len(p.Posts))
	for _, post := range p.Posts {
		postByIndex[post.Index] = post
	}

	for i := range exec.Steps {
		step := &exec.Steps[i]
		if step.Status == StepComplete {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			e.logger.Error("step pacing interrupted", "execution_id", exec.ID, "error", err)
			return
		}

		// Step-start and cancellation observation are one guarded write: if
		// the record is no longer running, the step never starts.
		step.Status = StepRunning
		if !e.persistProgress(ctx, exec) {
			return
		}

		post, found := postByIndex[step.Index]
		if !found {
			step.Status = StepFailed
			step.Error = fmt.Sprintf("plan has no post at index %d", step.Index)
			if !e.persistProgress(ctx, exec) {
				return
			}
			continue
		}

		result, err := e.runner.RunPost(ctx, exec, p, post)
		if err != nil {
			e.logger.Error("step failed",
				"execution_id", exec.ID, "step", step.Index, "error", err)
			step.Status = StepFailed
			step.Error = err.Error()
		} else {
			step.Status = StepComplete
			step.Result = result
			exec.GeneratedArtifactIDs = append(exec.GeneratedArtifactIDs, result.GeneratedArtifactID)
			exec.CopyIDs = append(exec.CopyIDs, result.CopyID)
			exec.QueueItemIDs = append(exec.QueueItemIDs, result.QueueItemID)
		}

		if !e.persistProgress(ctx, exec) {
			return
		}
	}

	e.finish(ctx, exec)
}

// persistProgress writes the step array under the running guard. False
// means the execution was cancelled (or failed) externally and the loop
// must stop immediately.
func (e *Engine) persistProgress(ctx context.Context, exec *Execution) bool {
	ok, err := e.executions.UpdateProgress(ctx, exec)
	if err != nil {
		e.logger.Error("failed to persist execution progress",
			"execution_id", exec.ID, "error", err)
		return false
	}
	if !ok {
		e.logger.Info("execution cancelled externally, loop exiting",
			"execution_id", exec.ID)
		return false
	}
	return true
}

// finish records the terminal status: failed iff any step failed, complete
// otherwise. The plan's status mirrors the execution's.
func (e *Engine) finish(ctx context.Context, exec *Execution) {
	failed := 0
	for _, step := range exec.Steps {
		if step.Status == StepFailed {
			failed++
		}
	}

	status := StatusComplete
	errorMessage := ""
	if failed > 0 {
		status = StatusFailed
		errorMessage = fmt.Sprintf("%d of %d steps failed", failed, len(exec.Steps))
	}

	if err := e.executions.Finish(ctx, exec, status, errorMessage); err != nil {
		e.logger.Error("failed to finish execution", "execution_id", exec.ID, "error", err)
		return
	}
	if exec.Status != status {
		// Cancelled while finishing; the cancel path owns the plan status.
		return
	}

	planStatus := plan.StatusCompleted
	if status == StatusFailed {
		planStatus = plan.StatusFailed
	}
	if err := e.plans.UpdateStatus(ctx, exec.PlanID, planStatus); err != nil {
		e.logger.Warn("failed to mirror plan status",
			"plan_id", exec.PlanID, "status", planStatus, "error", err)
	}

	e.logger.Info("execution finished",
		"execution_id", exec.ID,
		"status", status,
		"failed_steps", failed,
	)
}
