package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promoforge/promoforge/internal/engine"
	"github.com/promoforge/promoforge/internal/types"
)

// ExecutionDAO implements engine.ExecutionStore over SQLite. The state
// machine lives in the SQL: every transition is a conditional UPDATE whose
// WHERE clause names the statuses it may leave, and callers learn the
// outcome from rows affected. SQLite serializes writers, so a cancel and a
// step update can never both win.
type ExecutionDAO struct {
	db *DB
}

// NewExecutionDAO creates a new execution DAO.
func NewExecutionDAO(db *DB) *ExecutionDAO {
	return &ExecutionDAO{db: db}
}

func executionNotFound(id types.ID) error {
	return types.NewError(types.EXECUTION_NOT_FOUND, fmt.Sprintf("execution not found: %s", id))
}

// Create inserts a new execution. A UNIQUE(plan_id, idempotency_key)
// violation surfaces as DB_CONSTRAINT_FAILED so the engine can fall back
// to returning the existing record.
func (d *ExecutionDAO) Create(ctx context.Context, exec *engine.Execution) error {
	if exec.ID.IsZero() {
		exec.ID = types.NewID()
	}

	steps, err := json.Marshal(exec.Steps)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal steps", err)
	}

	query := `
		INSERT INTO executions (
			id, plan_id, user_id, idempotency_key, status, steps,
			artifact_ids, copy_ids, queue_item_ids, error_message,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	_, err = d.db.ExecContext(ctx, query,
		exec.ID, exec.PlanID, exec.UserID, exec.IdempotencyKey, exec.Status,
		string(steps), marshalIDs(exec.GeneratedArtifactIDs), marshalIDs(exec.CopyIDs),
		marshalIDs(exec.QueueItemIDs), exec.ErrorMessage,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return types.WrapError(types.DB_CONSTRAINT_FAILED, "execution already exists for idempotency key", err)
		}
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create execution", err)
	}

	return nil
}

const executionColumns = `
	id, plan_id, user_id, idempotency_key, status, steps,
	artifact_ids, copy_ids, queue_item_ids, error_message,
	started_at, completed_at, created_at, updated_at
`

// GetByID retrieves an execution scoped to its owner.
func (d *ExecutionDAO) GetByID(ctx context.Context, userID, execID types.ID) (*engine.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = ? AND user_id = ?`

	exec, err := scanExecution(d.db.QueryRowContext(ctx, query, execID, userID))
	if err == sql.ErrNoRows {
		return nil, executionNotFound(execID)
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get execution", err)
	}
	return exec, nil
}

// GetByPlanAndKey retrieves the execution for an idempotency pair, or nil
// when none exists.
func (d *ExecutionDAO) GetByPlanAndKey(ctx context.Context, userID, planID types.ID, key string) (*engine.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions
		WHERE plan_id = ? AND idempotency_key = ? AND user_id = ?`

	exec, err := scanExecution(d.db.QueryRowContext(ctx, query, planID, key, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get execution by key", err)
	}
	return exec, nil
}

// MarkRunning transitions queued|running → running and stamps started_at
// on the first transition only.
func (d *ExecutionDAO) MarkRunning(ctx context.Context, execID types.ID) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE executions
		SET status = ?, started_at = COALESCE(started_at, CURRENT_TIMESTAMP),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)`,
		engine.StatusRunning, execID, engine.StatusQueued, engine.StatusRunning,
	)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to mark execution running", err)
	}
	return rowsAffected(result)
}

// UpdateProgress persists steps and accumulated id lists, guarded on
// status = running. False means the execution was cancelled or failed
// out from under the run loop.
func (d *ExecutionDAO) UpdateProgress(ctx context.Context, exec *engine.Execution) (bool, error) {
	steps, err := json.Marshal(exec.Steps)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to marshal steps", err)
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE executions
		SET steps = ?, artifact_ids = ?, copy_ids = ?, queue_item_ids = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		string(steps), marshalIDs(exec.GeneratedArtifactIDs), marshalIDs(exec.CopyIDs),
		marshalIDs(exec.QueueItemIDs), exec.ID, engine.StatusRunning,
	)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to update execution progress", err)
	}
	return rowsAffected(result)
}

// Finish transitions running → complete|failed and stamps completed_at.
func (d *ExecutionDAO) Finish(ctx context.Context, exec *engine.Execution, status engine.Status, errorMessage string) error {
	steps, err := json.Marshal(exec.Steps)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal steps", err)
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE executions
		SET status = ?, steps = ?, artifact_ids = ?, copy_ids = ?, queue_item_ids = ?,
		    error_message = ?, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		status, string(steps), marshalIDs(exec.GeneratedArtifactIDs), marshalIDs(exec.CopyIDs),
		marshalIDs(exec.QueueItemIDs), errorMessage, exec.ID, engine.StatusRunning,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to finish execution", err)
	}

	// A cancelled execution loses the race on purpose; not an error.
	if ok, err := rowsAffected(result); err != nil {
		return err
	} else if !ok {
		return nil
	}

	exec.Status = status
	exec.ErrorMessage = errorMessage
	return nil
}

// Cancel transitions queued|running → cancelled.
func (d *ExecutionDAO) Cancel(ctx context.Context, userID, execID types.ID) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE executions
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND status IN (?, ?)`,
		engine.StatusCancelled, engine.CancelMessage,
		execID, userID, engine.StatusQueued, engine.StatusRunning,
	)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to cancel execution", err)
	}
	return rowsAffected(result)
}

// ResetForRetry transitions failed → running with a fresh step array.
func (d *ExecutionDAO) ResetForRetry(ctx context.Context, userID, execID types.ID, steps []engine.Step) (bool, error) {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to marshal steps", err)
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE executions
		SET status = ?, steps = ?, error_message = '', completed_at = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND status = ?`,
		engine.StatusRunning, string(stepsJSON), execID, userID, engine.StatusFailed,
	)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to reset execution", err)
	}
	return rowsAffected(result)
}

// ListByStatus returns all executions in the given status, oldest first.
func (d *ExecutionDAO) ListByStatus(ctx context.Context, status engine.Status) ([]*engine.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE status = ? ORDER BY created_at ASC`

	rows, err := d.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list executions", err)
	}
	defer rows.Close()

	var execs []*engine.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan execution", err)
		}
		execs = append(execs, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating executions", err)
	}

	return execs, nil
}

func rowsAffected(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	return affected > 0, nil
}

func marshalIDs(ids []types.ID) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalIDs(raw sql.NullString) []types.ID {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var ids []types.ID
	if err := json.Unmarshal([]byte(raw.String), &ids); err != nil {
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func scanExecution(row scanner) (*engine.Execution, error) {
	var exec engine.Execution
	var stepsJSON string
	var artifactIDs, copyIDs, queueItemIDs, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&exec.ID, &exec.PlanID, &exec.UserID, &exec.IdempotencyKey, &exec.Status,
		&stepsJSON, &artifactIDs, &copyIDs, &queueItemIDs, &errorMessage,
		&startedAt, &completedAt, &exec.CreatedAt, &exec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stepsJSON), &exec.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	exec.GeneratedArtifactIDs = unmarshalIDs(artifactIDs)
	exec.CopyIDs = unmarshalIDs(copyIDs)
	exec.QueueItemIDs = unmarshalIDs(queueItemIDs)
	exec.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		exec.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		exec.CompletedAt = &t
	}

	return &exec, nil
}
