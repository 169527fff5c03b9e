package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/promoforge/promoforge/internal/content"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/types"
)

// ContentDAO implements content.Recorder over SQLite.
type ContentDAO struct {
	db *DB
}

// NewContentDAO creates a new content DAO.
func NewContentDAO(db *DB) *ContentDAO {
	return &ContentDAO{db: db}
}

// RecordArtifact inserts a generated artifact record.
func (d *ContentDAO) RecordArtifact(ctx context.Context, artifact *content.Artifact) error {
	if artifact.ID.IsZero() {
		artifact.ID = types.NewID()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, user_id, url, prompt, conversation_state, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		artifact.ID, artifact.UserID, artifact.URL, artifact.Prompt,
		artifact.ConversationState, artifact.MIMEType,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to record artifact", err)
	}
	return nil
}

// RecordCopy inserts a copy record, payload stored as JSON.
func (d *ContentDAO) RecordCopy(ctx context.Context, record *content.CopyRecord) error {
	if record.ID.IsZero() {
		record.ID = types.NewID()
	}

	payload, err := json.Marshal(record.Copy)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal copy payload", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO copies (id, user_id, execution_id, channel, payload, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		record.ID, record.UserID, record.ExecutionID, record.Channel, string(payload),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to record copy", err)
	}
	return nil
}

// RecordUsage appends a usage row for the adaptive cost estimator.
func (d *ContentDAO) RecordUsage(ctx context.Context, userID types.ID, estimated cost.Micros) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO usage_rows (id, user_id, estimated_cost_micros, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		types.NewID(), userID, int64(estimated),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to record usage", err)
	}
	return nil
}

// RecentUsage returns usage rows newer than the window, newest first.
func (d *ContentDAO) RecentUsage(ctx context.Context, window time.Duration) ([]cost.UsageRow, error) {
	cutoff := time.Now().Add(-window).UTC()

	rows, err := d.db.QueryContext(ctx, `
		SELECT estimated_cost_micros, created_at FROM usage_rows
		WHERE created_at >= ? ORDER BY created_at DESC`,
		cutoff,
	)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to query usage rows", err)
	}
	defer rows.Close()

	var usage []cost.UsageRow
	for rows.Next() {
		var row cost.UsageRow
		var micros int64
		if err := rows.Scan(&micros, &row.CreatedAt); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan usage row", err)
		}
		row.EstimatedCostMicros = cost.Micros(micros)
		usage = append(usage, row)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating usage rows", err)
	}

	return usage, nil
}
