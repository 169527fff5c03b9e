// Package content holds the durable records produced by generation:
// stored artifacts, marketing copy, and per-call usage rows.
package content

import (
	"context"
	"time"

	"github.com/promoforge/promoforge/internal/copywriter"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/types"
)

// Artifact is a persisted generated image. ConversationState is the
// provider-side continuation token for multi-turn edits, opaque here.
type Artifact struct {
	ID                types.ID  `json:"id"`
	UserID            types.ID  `json:"user_id"`
	URL               string    `json:"url"`
	Prompt            string    `json:"prompt"`
	ConversationState string    `json:"conversation_state,omitempty"`
	MIMEType          string    `json:"mime_type,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// CopyRecord is a persisted copy payload for one channel.
type CopyRecord struct {
	ID          types.ID        `json:"id"`
	UserID      types.ID        `json:"user_id"`
	ExecutionID types.ID        `json:"execution_id,omitempty"`
	Channel     string          `json:"channel"`
	Copy        copywriter.Copy `json:"copy"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Recorder persists generation byproducts and serves the usage window the
// adaptive cost estimator reads.
type Recorder interface {
	RecordArtifact(ctx context.Context, artifact *Artifact) error
	RecordCopy(ctx context.Context, record *CopyRecord) error
	RecordUsage(ctx context.Context, userID types.ID, estimated cost.Micros) error

	// RecentUsage returns usage rows newer than the window, newest first.
	RecentUsage(ctx context.Context, window time.Duration) ([]cost.UsageRow, error)
}
