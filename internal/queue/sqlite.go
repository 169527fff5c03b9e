package queue

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/promoforge/promoforge/internal/types"
)

// executor is the subset of database access the queue needs, satisfied by
// the shared *database.DB wrapper.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteQueue implements ReviewQueue over the queue_items table.
type SQLiteQueue struct {
	db executor
}

// NewSQLiteQueue creates a review queue backed by SQLite.
func NewSQLiteQueue(db executor) *SQLiteQueue {
	return &SQLiteQueue{db: db}
}

// Submit inserts a pending queue item.
func (q *SQLiteQueue) Submit(ctx context.Context, item *Item) error {
	if item.ID.IsZero() {
		item.ID = types.NewID()
	}
	if item.Status == "" {
		item.Status = "pending"
	}

	hashtags, err := json.Marshal(item.Hashtags)
	if err != nil {
		return types.WrapError(types.QUEUE_SUBMIT_FAILED, "failed to marshal hashtags", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO queue_items (id, user_id, caption, channel, artifact_url, hashtags, scheduled_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		item.ID, item.UserID, item.Caption, item.Channel, item.ArtifactURL,
		string(hashtags), item.ScheduledDate, item.Status,
	)
	if err != nil {
		return types.WrapError(types.QUEUE_SUBMIT_FAILED, "failed to submit queue item", err)
	}
	return nil
}

// List returns a user's queue items, newest first.
func (q *SQLiteQueue) List(ctx context.Context, userID types.ID) ([]*Item, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, caption, channel, artifact_url, hashtags, scheduled_date, status, created_at
		FROM queue_items WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list queue items", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var item Item
		var hashtags sql.NullString
		var scheduled sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Caption, &item.Channel, &item.ArtifactURL,
			&hashtags, &scheduled, &item.Status, &item.CreatedAt,
		); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan queue item", err)
		}
		if hashtags.Valid && hashtags.String != "" {
			if err := json.Unmarshal([]byte(hashtags.String), &item.Hashtags); err != nil {
				return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to unmarshal hashtags", err)
			}
		}
		if scheduled.Valid {
			t := scheduled.Time
			item.ScheduledDate = &t
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating queue items", err)
	}

	return items, nil
}
