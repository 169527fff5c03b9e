// Package queue is the downstream review queue. Finished posts land here
// with status pending; publishing is a separate concern and not handled by
// the engine.
package queue

import (
	"context"
	"time"

	"github.com/promoforge/promoforge/internal/types"
)

// Item is one post awaiting review.
type Item struct {
	ID            types.ID   `json:"id"`
	UserID        types.ID   `json:"user_id"`
	Caption       string     `json:"caption"`
	Channel       string     `json:"channel"`
	ArtifactURL   string     `json:"artifact_url"`
	Hashtags      []string   `json:"hashtags,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ReviewQueue accepts finished posts for human review.
type ReviewQueue interface {
	Submit(ctx context.Context, item *Item) error
	List(ctx context.Context, userID types.ID) ([]*Item, error)
}
