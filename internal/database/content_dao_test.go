package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/content"
	"github.com/promoforge/promoforge/internal/copywriter"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/types"
)

func TestContentDAO_RecordArtifact(t *testing.T) {
	db := openTestDB(t)
	dao := NewContentDAO(db)

	a := &content.Artifact{
		UserID:   types.NewID(),
		URL:      "file:///artifacts/a.png",
		Prompt:   "mug on a desk",
		MIMEType: "image/png",
	}
	require.NoError(t, dao.RecordArtifact(context.Background(), a))
	assert.False(t, a.ID.IsZero(), "an id is assigned on insert")
}

func TestContentDAO_RecordCopy(t *testing.T) {
	db := openTestDB(t)
	dao := NewContentDAO(db)

	c := &content.CopyRecord{
		UserID:      types.NewID(),
		ExecutionID: types.NewID(),
		Channel:     "instagram",
		Copy: copywriter.Copy{
			Caption:  "Fresh out of the kiln",
			Hashtags: []string{"handmade", "ceramics"},
		},
	}
	require.NoError(t, dao.RecordCopy(context.Background(), c))
	assert.False(t, c.ID.IsZero())
}

func TestContentDAO_RecentUsageWindow(t *testing.T) {
	db := openTestDB(t)
	dao := NewContentDAO(db)
	userID := types.NewID()

	require.NoError(t, dao.RecordUsage(context.Background(), userID, cost.Micros(80_000)))
	require.NoError(t, dao.RecordUsage(context.Background(), userID, cost.Micros(160_000)))

	// A row aged out of the window by hand.
	old := time.Now().Add(-48 * time.Hour).UTC()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO usage_rows (id, user_id, estimated_cost_micros, created_at)
		VALUES (?, ?, ?, ?)`,
		types.NewID(), userID, 999_000, old,
	)
	require.NoError(t, err)

	rows, err := dao.RecentUsage(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, rows, 2, "rows older than the window are excluded")
	for _, row := range rows {
		assert.NotEqual(t, cost.Micros(999_000), row.EstimatedCostMicros)
		assert.False(t, row.CreatedAt.IsZero())
	}

	all, err := dao.RecentUsage(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
