package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/plan"
	"github.com/promoforge/promoforge/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())
	return db
}

// createTestPlan seeds an approved plan; executions reference plans by
// foreign key, so execution tests need one on file.
func createTestPlan(t *testing.T, db *DB, userID types.ID) *plan.Plan {
	t.Helper()
	p := &plan.Plan{
		UserID:        userID,
		Status:        plan.StatusApproved,
		Objective:     "launch the fall line",
		Channel:       "instagram",
		Currency:      "USD",
		EstimatedCost: cost.Micros(240_000),
		Posts: []plan.PlanPost{
			{Index: 0, Prompt: "mug on a desk", Channel: "instagram", ContentType: plan.ContentImage},
			{Index: 1, Prompt: "tote on the go", Channel: "instagram", ContentType: plan.ContentImage},
		},
	}
	require.NoError(t, NewPlanDAO(db).Create(context.Background(), p))
	return p
}

func TestOpen_EnablesWAL(t *testing.T) {
	db := openTestDB(t)

	var mode string
	require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestHealth(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Health(context.Background()))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db)

	version, err := m.CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	// Re-running applies nothing and fails nothing.
	require.NoError(t, m.Migrate(context.Background()))
	version, err = m.CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	userID := types.NewID()

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(),
			`INSERT INTO usage_rows (id, user_id, estimated_cost_micros) VALUES (?, ?, ?)`,
			types.NewID(), userID, 100)
		require.NoError(t, err)
		return assert.AnError
	})
	assert.Error(t, err)

	rows, err := NewContentDAO(db).RecentUsage(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
