// Package plan holds the campaign plan model, the LLM-backed plan builder
// with its deterministic fallbacks, and the approval scorer.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/types"
)

// Status is a plan's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// SuggestionType classifies a content suggestion.
type SuggestionType string

const (
	SuggestionSinglePost    SuggestionType = "single_post"
	SuggestionContentSeries SuggestionType = "content_series"
	SuggestionCampaign      SuggestionType = "campaign"
	SuggestionGapFill       SuggestionType = "gap_fill"
)

// ContentType is the media shape of one post.
type ContentType string

const (
	ContentImage    ContentType = "image"
	ContentCarousel ContentType = "carousel"
	ContentVideo    ContentType = "video"
)

// MaxPosts bounds a plan's size. More catalog items mean more posts in a
// connected series, never one oversized composite.
const MaxPosts = 12

// MaxRevisions bounds how often a plan can be revised before execution.
const MaxRevisions = 5

// Suggestion is one proposed content idea. Suggestions are ephemeral and
// never persisted; a plan records only the suggestion id it came from.
type Suggestion struct {
	ID           types.ID       `json:"id"`
	Type         SuggestionType `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	CatalogItems []types.ID     `json:"catalog_items"`
	Channel      string         `json:"channel"`
	Confidence   int            `json:"confidence"`
	Reasoning    string         `json:"reasoning,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
}

// ClarifyingQuestion asks the caller for information the builder lacked.
type ClarifyingQuestion struct {
	Field    string `json:"field"`
	Question string `json:"question"`
}

// ContentMixEntry counts posts of one content type within a plan.
type ContentMixEntry struct {
	Type  ContentType `json:"type"`
	Count int         `json:"count"`
}

// ScoreCriterion is one scored approval criterion, 0-25.
type ScoreCriterion struct {
	Criterion string `json:"criterion"`
	Score     int    `json:"score"`
	Max       int    `json:"max"`
}

// PlanPost is one post slot within a plan. It never exists outside one.
type PlanPost struct {
	Index          int         `json:"index"`
	CatalogItemIDs []types.ID  `json:"catalog_item_ids"`
	Prompt         string      `json:"prompt"`
	Channel        string      `json:"channel"`
	ContentType    ContentType `json:"content_type"`
	HookAngle      string      `json:"hook_angle,omitempty"`
	ScheduledDate  *time.Time  `json:"scheduled_date,omitempty"`
}

// Plan is a scored multi-post campaign specification awaiting execution.
// It is mutable until execution starts; after that only the status and
// revision counter move.
type Plan struct {
	ID             types.ID          `json:"id"`
	UserID         types.ID          `json:"user_id"`
	SuggestionID   types.ID          `json:"suggestion_id,omitempty"`
	Status         Status            `json:"status"`
	Objective      string            `json:"objective"`
	Cadence        string            `json:"cadence,omitempty"`
	Channel        string            `json:"channel,omitempty"`
	ContentMix     []ContentMixEntry `json:"content_mix,omitempty"`
	ApprovalScore  int               `json:"approval_score"`
	ScoreBreakdown []ScoreCriterion  `json:"score_breakdown,omitempty"`
	EstimatedCost  cost.Micros       `json:"estimated_cost_micros"`
	Currency       string            `json:"currency"`
	Posts          []PlanPost        `json:"posts"`
	RevisionCount  int               `json:"revision_count"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Validate enforces the plan invariants: at most MaxPosts posts, dense
// unique post indices starting at zero, and a score breakdown that sums
// exactly to the approval score.
func (p *Plan) Validate() error {
	if len(p.Posts) > MaxPosts {
		return types.NewError(types.PLAN_INVALID,
			fmt.Sprintf("plan has %d posts, maximum is %d", len(p.Posts), MaxPosts))
	}

	seen := make(map[int]bool, len(p.Posts))
	for _, post := range p.Posts {
		if post.Index < 0 || post.Index >= len(p.Posts) {
			return types.NewError(types.PLAN_INVALID,
				fmt.Sprintf("post index %d out of range for %d posts", post.Index, len(p.Posts)))
		}
		if seen[post.Index] {
			return types.NewError(types.PLAN_INVALID,
				fmt.Sprintf("duplicate post index %d", post.Index))
		}
		seen[post.Index] = true
	}

	if len(p.ScoreBreakdown) > 0 {
		sum := 0
		for _, c := range p.ScoreBreakdown {
			sum += c.Score
		}
		if sum != p.ApprovalScore {
			return types.NewError(types.PLAN_INVALID,
				fmt.Sprintf("score breakdown sums to %d, approval score is %d", sum, p.ApprovalScore))
		}
	}

	return nil
}

// CanRevise reports whether the plan accepts another revision.
func (p *Plan) CanRevise() bool {
	return (p.Status == StatusDraft || p.Status == StatusApproved) &&
		p.RevisionCount < MaxRevisions
}

// Store persists plans. All reads and writes are user-scoped; a plan owned
// by a different user is reported as not found.
type Store interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, userID, planID types.ID) (*Plan, error)
	List(ctx context.Context, userID types.ID, status Status) ([]*Plan, error)
	Update(ctx context.Context, p *Plan) error
	UpdateStatus(ctx context.Context, planID types.ID, status Status) error
}
