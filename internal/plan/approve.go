package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/promoforge/promoforge/internal/types"
)

// Approve transitions a draft plan to approved, making it executable.
// Approval is the caller's decision; the approval score is advisory and
// never blocks it.
func (b *Builder) Approve(ctx context.Context, userID, planID types.ID) (*Plan, error) {
	p, err := b.store.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusDraft {
		return nil, types.NewError(types.PLAN_INVALID,
			fmt.Sprintf("plan is %s, only draft plans can be approved", p.Status))
	}

	p.Status = StatusApproved
	p.UpdatedAt = time.Now()

	if err := b.store.Update(ctx, p); err != nil {
		return nil, err
	}

	b.logger.Info("plan approved", "plan_id", p.ID, "approval_score", p.ApprovalScore)

	return p, nil
}

// Rescore re-runs the approval scorer against the plan's current content and
// persists the new score. Useful after out-of-band edits or when the scoring
// model was unavailable at build time.
func (b *Builder) Rescore(ctx context.Context, userID, planID types.ID) (*Plan, error) {
	p, err := b.store.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusDraft && p.Status != StatusApproved {
		return nil, types.NewError(types.PLAN_INVALID,
			fmt.Sprintf("plan is %s and can no longer be rescored", p.Status))
	}

	total, breakdown := b.scorer.ScorePlan(ctx, p)
	p.ApprovalScore = total
	p.ScoreBreakdown = breakdown
	p.UpdatedAt = time.Now()

	if err := b.store.Update(ctx, p); err != nil {
		return nil, err
	}

	b.logger.Info("plan rescored", "plan_id", p.ID, "approval_score", total)

	return p, nil
}
