// Package engine drives approved plans to completion. An Execution is the
// durable, resumable record of actually running a plan's posts: it is
// created exactly once per (plan, idempotency key) pair, persisted after
// every step, and never deleted.
package engine

import (
	"context"
	"time"

	"github.com/promoforge/promoforge/internal/types"
)

// Status is an execution's lifecycle state.
// Cancellation is its own terminal state rather than a flavor of failed;
// CancelMessage is stored on the record for audit text only and is never
// matched against.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCancelled
}

// CancelMessage is recorded as the error message of a cancelled execution.
const CancelMessage = "Cancelled by user"

// StepStatus is one step's lifecycle state.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepRunning  StepStatus = "running"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
)

// StepResult is the payload of one successfully executed step.
type StepResult struct {
	GeneratedArtifactID types.ID `json:"generated_artifact_id"`
	CopyID              types.ID `json:"copy_id"`
	QueueItemID         types.ID `json:"queue_item_id"`
	ArtifactURL         string   `json:"artifact_url"`
}

// Step is one post's unit of work within an execution, 1:1 with the plan
// post at the same index. Once complete a step is never re-run except by
// explicit retry, which only targets failed steps.
type Step struct {
	Index  int         `json:"index"`
	Action string      `json:"action"`
	Status StepStatus  `json:"status"`
	Result *StepResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Execution is the durable audit trail of running one plan. Steps are
// copied from the plan's posts at creation time; later plan mutation does
// not affect an in-flight execution.
type Execution struct {
	ID                   types.ID   `json:"id"`
	PlanID               types.ID   `json:"plan_id"`
	UserID               types.ID   `json:"user_id"`
	IdempotencyKey       string     `json:"idempotency_key"`
	Status               Status     `json:"status"`
	Steps                []Step     `json:"steps"`
	GeneratedArtifactIDs []types.ID `json:"generated_artifact_ids,omitempty"`
	CopyIDs              []types.ID `json:"copy_ids,omitempty"`
	QueueItemIDs         []types.ID `json:"queue_item_ids,omitempty"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ExecutionStore persists executions. The conditional mutations return
// false instead of an error when the guarding status no longer holds, which
// is how the run loop observes cooperative cancellation: persisting a step
// transition and re-checking the status are one atomic record update.
type ExecutionStore interface {
	// Create inserts a new execution. A unique constraint on
	// (plan_id, idempotency_key) backs idempotent creation.
	Create(ctx context.Context, exec *Execution) error

	// GetByID retrieves an execution scoped to its owner.
	GetByID(ctx context.Context, userID, execID types.ID) (*Execution, error)

	// GetByPlanAndKey retrieves the execution for an idempotency pair,
	// or nil when none exists.
	GetByPlanAndKey(ctx context.Context, userID, planID types.ID, key string) (*Execution, error)

	// MarkRunning transitions queued|running → running and stamps
	// started_at. Returns false when the execution is in any other state.
	MarkRunning(ctx context.Context, execID types.ID) (bool, error)

	// UpdateProgress persists the step array and accumulated id lists,
	// guarded on status = running. Returns false when the execution was
	// cancelled or failed externally; the run loop must then halt.
	UpdateProgress(ctx context.Context, exec *Execution) (bool, error)

	// Finish transitions running → status (complete|failed) and stamps
	// completed_at, persisting the final step array and id lists.
	Finish(ctx context.Context, exec *Execution, status Status, errorMessage string) error

	// Cancel transitions queued|running → cancelled with CancelMessage.
	// Returns false when the execution is already terminal.
	Cancel(ctx context.Context, userID, execID types.ID) (bool, error)

	// ResetForRetry transitions failed → running, clears the error, and
	// replaces the step array (failed steps reset to pending). Returns
	// false when the execution is not failed.
	ResetForRetry(ctx context.Context, userID, execID types.ID, steps []Step) (bool, error)

	// ListByStatus returns all executions in the given status, for the
	// restart supervisor.
	ListByStatus(ctx context.Context, status Status) ([]*Execution, error)
}
