package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/promoforge/promoforge/internal/plan"
	"github.com/promoforge/promoforge/internal/types"
)

// DefaultStepDelay is the fixed pacing between consecutive steps.
const DefaultStepDelay = 2 * time.Second

// Engine owns the execution lifecycle: idempotent creation, the detached
// run loop, cancellation, retry of failed steps, and restart recovery.
// Exactly one run loop is ever active per execution; both launch paths
// transition the persisted status before starting work.
type Engine struct {
	executions ExecutionStore
	plans      plan.Store
	runner     StepRunner
	logger     *slog.Logger
	tracer     trace.Tracer
	stepDelay  time.Duration
}

// EngineOption is a functional option for configuring Engine.
type EngineOption func(*Engine)

// WithEngineLogger configures the engine logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithStepDelay configures the fixed inter-step pacing.
func WithStepDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.stepDelay = d }
}

// NewEngine creates an execution engine.
func NewEngine(executions ExecutionStore, plans plan.Store, runner StepRunner, opts ...EngineOption) *Engine {
	e := &Engine{
		executions: executions,
		plans:      plans,
		runner:     runner,
		logger:     slog.Default(),
		tracer:     otel.Tracer("promoforge/engine"),
		stepDelay:  DefaultStepDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutePlan creates an execution for an approved plan and launches its
// run loop, returning as soon as the record is durable. Repeating the call
// with the same idempotency key returns the existing execution without
// creating or running anything.
func (e *Engine) ExecutePlan(ctx context.Context, userID, planID types.ID, idempotencyKey string) (*Execution, error) {
	if idempotencyKey == "" {
		return nil, types.NewError(types.EXECUTION_INVALID_STATE, "idempotency key is required")
	}

	existing, err := e.executions.GetByPlanAndKey(ctx, userID, planID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p, err := e.plans.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if p.Status != plan.StatusApproved {
		return nil, types.NewError(types.PLAN_NOT_APPROVED,
			fmt.Sprintf("plan is %s, only approved plans can be executed", p.Status))
	}

	exec := &Execution{
		PlanID:         planID,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Status:         StatusQueued,
		Steps:          stepsFromPosts(p.Posts),
	}

	if err := e.executions.Create(ctx, exec); err != nil {
		// Lost the creation race: the winner's record is the execution.
		if types.HasCode(err, types.DB_CONSTRAINT_FAILED) {
			return e.executions.GetByPlanAndKey(ctx, userID, planID, idempotencyKey)
		}
		return nil, err
	}

	if err := e.plans.UpdateStatus(ctx, planID, plan.StatusExecuting); err != nil {
		e.logger.Warn("failed to mark plan executing", "plan_id", planID, "error", err)
	}

	e.launch(ctx, exec, p)

	return exec, nil
}

// GetExecution retrieves an execution scoped to its owner.
func (e *Engine) GetExecution(ctx context.Context, userID, execID types.ID) (*Execution, error) {
	return e.executions.GetByID(ctx, userID, execID)
}

// CancelExecution cancels a queued or running execution. The run loop
// observes the transition at the next step boundary; a step already in
// flight finishes on its own first.
func (e *Engine) CancelExecution(ctx context.Context, userID, execID types.ID) (*Execution, error) {
	exec, err := e.executions.GetByID(ctx, userID, execID)
	if err != nil {
		return nil, err
	}

	ok, err := e.executions.Cancel(ctx, userID, execID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewError(types.EXECUTION_INVALID_STATE,
			fmt.Sprintf("execution is %s and cannot be cancelled", exec.Status))
	}

	if err := e.plans.UpdateStatus(ctx, exec.PlanID, plan.StatusCancelled); err != nil {
		e.logger.Warn("failed to mark plan cancelled", "plan_id", exec.PlanID, "error", err)
	}

	e.logger.Info("execution cancelled", "execution_id", execID)

	return e.executions.GetByID(ctx, userID, execID)
}

// RetryFailedSteps resets a failed execution's failed steps to pending and
// relaunches the run loop. Complete steps keep their results and are
// skipped on the re-run.
func (e *Engine) RetryFailedSteps(ctx context.Context, userID, execID types.ID) (*Execution, error) {
	exec, err := e.executions.GetByID(ctx, userID, execID)
	if err != nil {
		return nil, err
	}
	if exec.Status != StatusFailed {
		return nil, types.NewError(types.EXECUTION_INVALID_STATE,
			fmt.Sprintf("execution is %s, only failed executions can be retried", exec.Status))
	}

	steps := make([]Step, len(exec.Steps))
	copy(steps, exec.Steps)
	retried := 0
	for i := range steps {
		if steps[i].Status == StepFailed {
			steps[i].Status = StepPending
			steps[i].Result = nil
			steps[i].Error = ""
			retried++
		}
	}
	if retried == 0 {
		return nil, types.NewError(types.EXECUTION_INVALID_STATE, "execution has no failed steps")
	}

	ok, err := e.executions.ResetForRetry(ctx, userID, execID, steps)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewError(types.EXECUTION_INVALID_STATE, "execution is no longer failed")
	}

	if err := e.plans.UpdateStatus(ctx, exec.PlanID, plan.StatusExecuting); err != nil {
		e.logger.Warn("failed to mark plan executing", "plan_id", exec.PlanID, "error", err)
	}

	exec.Status = StatusRunning
	exec.Steps = steps
	exec.ErrorMessage = ""

	p, err := e.plans.Get(ctx, userID, exec.PlanID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("retrying failed steps", "execution_id", execID, "steps", retried)
	e.launch(ctx, exec, p)

	return exec, nil
}

// Resume relaunches the run loop for every execution left running by a
// previous process. Called once at startup; completed steps are skipped,
// so recovery continues from the last persisted step.
func (e *Engine) Resume(ctx context.Context) (int, error) {
	execs, err := e.executions.ListByStatus(ctx, StatusRunning)
	if err != nil {
		return 0, err
	}

	for _, exec := range execs {
		p, err := e.plans.Get(ctx, exec.UserID, exec.PlanID)
		if err != nil {
			e.logger.Error("cannot resume execution, plan unavailable",
				"execution_id", exec.ID, "plan_id", exec.PlanID, "error", err)
			continue
		}
		e.logger.Info("resuming execution", "execution_id", exec.ID)
		e.launch(ctx, exec, p)
	}

	return len(execs), nil
}

// launch starts the detached run loop. The loop outlives the caller's
// request context; durability comes from the store, not the context tree.
func (e *Engine) launch(ctx context.Context, exec *Execution, p *plan.Plan) {
	runCtx := context.WithoutCancel(ctx)
	go e.runLoop(runCtx, exec, p)
}

// stepsFromPosts copies plan posts into pending steps, ordered by index.
func stepsFromPosts(posts []plan.PlanPost) []Step {
	ordered := make([]plan.PlanPost, len(posts))
	copy(ordered, posts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	steps := make([]Step, len(ordered))
	for i, post := range ordered {
		steps[i] = Step{
			Index:  post.Index,
			Action: fmt.Sprintf("generate %s post for %s", post.ContentType, post.Channel),
			Status: StepPending,
		}
	}
	return steps
}
