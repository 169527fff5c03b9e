package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/engine"
	"github.com/promoforge/promoforge/internal/types"
)

func createTestExecution(t *testing.T, dao *ExecutionDAO, userID, planID types.ID, key string) *engine.Execution {
	t.Helper()
	exec := &engine.Execution{
		PlanID:         planID,
		UserID:         userID,
		IdempotencyKey: key,
		Status:         engine.StatusQueued,
		Steps: []engine.Step{
			{Index: 0, Action: "generate image post for instagram", Status: engine.StepPending},
			{Index: 1, Action: "generate image post for instagram", Status: engine.StepPending},
		},
	}
	require.NoError(t, dao.Create(context.Background(), exec))
	return exec
}

func TestExecutionDAO_CreateAndGetByPlanAndKey(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)

	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	got, err := dao.GetByPlanAndKey(context.Background(), userID, p.ID, "key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, exec.ID, got.ID)
	assert.Equal(t, engine.StatusQueued, got.Status)
	assert.Len(t, got.Steps, 2)
	assert.Nil(t, got.StartedAt)

	// Unknown key is nil, not an error.
	missing, err := dao.GetByPlanAndKey(context.Background(), userID, p.ID, "other-key")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestExecutionDAO_DuplicateKeyIsConstraintFailure(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)

	createTestExecution(t, dao, userID, p.ID, "key-1")

	dup := &engine.Execution{
		PlanID:         p.ID,
		UserID:         userID,
		IdempotencyKey: "key-1",
		Status:         engine.StatusQueued,
		Steps:          []engine.Step{},
	}
	err := dao.Create(context.Background(), dup)
	assert.True(t, types.HasCode(err, types.DB_CONSTRAINT_FAILED))
}

func TestExecutionDAO_GetByIDScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	_, err := dao.GetByID(context.Background(), types.NewID(), exec.ID)
	assert.True(t, types.HasCode(err, types.EXECUTION_NOT_FOUND))
}

func TestExecutionDAO_MarkRunning(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	ok, err := dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := dao.GetByID(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusRunning, got.Status)
	require.NotNil(t, got.StartedAt)
	first := *got.StartedAt

	// Re-marking an already-running execution succeeds without restamping.
	ok, err = dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = dao.GetByID(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.StartedAt)

	// A cancelled execution cannot come back.
	ok, err = dao.Cancel(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecutionDAO_UpdateProgressGuardedOnRunning(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	exec.Steps[0].Status = engine.StepComplete
	exec.Steps[0].Result = &engine.StepResult{
		GeneratedArtifactID: types.NewID(),
		ArtifactURL:         "file:///artifacts/a.png",
	}
	exec.GeneratedArtifactIDs = []types.ID{exec.Steps[0].Result.GeneratedArtifactID}

	// Still queued: the guard rejects the write.
	ok, err := dao.UpdateProgress(context.Background(), exec)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = dao.UpdateProgress(context.Background(), exec)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := dao.GetByID(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StepComplete, got.Steps[0].Status)
	require.NotNil(t, got.Steps[0].Result)
	assert.Equal(t, "file:///artifacts/a.png", got.Steps[0].Result.ArtifactURL)
	assert.Len(t, got.GeneratedArtifactIDs, 1)

	// Cancelled out from under the loop: the next write loses.
	ok, err = dao.Cancel(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = dao.UpdateProgress(context.Background(), exec)
	require.NoError(t, err)
	assert.False(t, ok, "progress after cancellation must not persist")
}

func TestExecutionDAO_FinishYieldsToCancel(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	ok, err := dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	exec.Status = engine.StatusRunning

	ok, err = dao.Cancel(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Finish after cancel is a silent no-op; the in-memory status stays
	// running so the loop can tell it lost.
	require.NoError(t, dao.Finish(context.Background(), exec, engine.StatusComplete, ""))
	assert.Equal(t, engine.StatusRunning, exec.Status)

	got, err := dao.GetByID(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCancelled, got.Status)
	assert.Equal(t, engine.CancelMessage, got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)
}

func TestExecutionDAO_FinishStampsTerminalState(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	ok, err := dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	require.True(t, ok)

	exec.Steps[0].Status = engine.StepComplete
	exec.Steps[1].Status = engine.StepFailed
	exec.Steps[1].Error = "generation failed"
	require.NoError(t, dao.Finish(context.Background(), exec, engine.StatusFailed, "1 of 2 steps failed"))
	assert.Equal(t, engine.StatusFailed, exec.Status)

	got, err := dao.GetByID(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, got.Status)
	assert.Equal(t, "1 of 2 steps failed", got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)
}

func TestExecutionDAO_CancelRejectsTerminal(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	ok, err := dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, dao.Finish(context.Background(), exec, engine.StatusComplete, ""))

	ok, err = dao.Cancel(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecutionDAO_ResetForRetry(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)
	exec := createTestExecution(t, dao, userID, p.ID, "key-1")

	// Only failed executions reset.
	ok, err := dao.ResetForRetry(context.Background(), userID, exec.ID, exec.Steps)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = dao.MarkRunning(context.Background(), exec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	exec.Steps[0].Status = engine.StepComplete
	exec.Steps[1].Status = engine.StepFailed
	exec.Steps[1].Error = "boom"
	require.NoError(t, dao.Finish(context.Background(), exec, engine.StatusFailed, "1 of 2 steps failed"))

	steps := make([]engine.Step, len(exec.Steps))
	copy(steps, exec.Steps)
	steps[1].Status = engine.StepPending
	steps[1].Error = ""

	ok, err = dao.ResetForRetry(context.Background(), userID, exec.ID, steps)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := dao.GetByID(context.Background(), userID, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusRunning, got.Status)
	assert.Empty(t, got.ErrorMessage)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, engine.StepComplete, got.Steps[0].Status)
	assert.Equal(t, engine.StepPending, got.Steps[1].Status)
}

func TestExecutionDAO_ListByStatus(t *testing.T) {
	db := openTestDB(t)
	dao := NewExecutionDAO(db)
	userID := types.NewID()
	p := createTestPlan(t, db, userID)

	queued := createTestExecution(t, dao, userID, p.ID, "key-1")
	running := createTestExecution(t, dao, userID, p.ID, "key-2")
	ok, err := dao.MarkRunning(context.Background(), running.ID)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := dao.ListByStatus(context.Background(), engine.StatusRunning)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, running.ID, got[0].ID)
	assert.NotEqual(t, queued.ID, got[0].ID)
}
