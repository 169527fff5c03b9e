package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/types"
)

// reviseResponse is the strict response contract for the revision call.
type reviseResponse struct {
	Objective string `json:"objective"`
	Cadence   string `json:"cadence"`
	Posts     []struct {
		Index     int    `json:"index"`
		Prompt    string `json:"prompt"`
		HookAngle string `json:"hook_angle"`
	} `json:"posts"`
}

// Revise applies free-text feedback to a draft or approved plan, re-scores
// it, and persists the result. Revisions are bounded by MaxRevisions and
// rejected once execution has started. A failed revision model call leaves
// the plan content unchanged but still counts the revision and re-scores.
func (b *Builder) Revise(ctx context.Context, userID, planID types.ID, feedback string) (*Plan, error) {
	p, err := b.store.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusDraft && p.Status != StatusApproved {
		return nil, types.NewError(types.PLAN_INVALID,
			fmt.Sprintf("plan in status %s cannot be revised", p.Status))
	}
	if p.RevisionCount >= MaxRevisions {
		return nil, types.NewError(types.PLAN_REVISION_LIMIT,
			fmt.Sprintf("plan already revised %d times", p.RevisionCount))
	}

	b.applyRevision(ctx, p, feedback)

	p.RevisionCount++
	p.EstimatedCost = b.estimatePlanCost(ctx, p)

	total, breakdown := b.scorer.ScorePlan(ctx, p)
	p.ApprovalScore = total
	p.ScoreBreakdown = breakdown
	p.UpdatedAt = time.Now()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := b.store.Update(ctx, p); err != nil {
		return nil, err
	}

	b.logger.Info("plan revised",
		"plan_id", p.ID,
		"revision", p.RevisionCount,
		"approval_score", p.ApprovalScore,
	)

	return p, nil
}

// applyRevision mutates the plan with the model's revision. Enrichment-tier
// failure handling: a broken call or response leaves the plan as it was.
func (b *Builder) applyRevision(ctx context.Context, p *Plan, feedback string) {
	resp, err := b.model.GenerateText(ctx, llm.TextRequest{
		System:      reviseSystemPrompt,
		Prompt:      buildRevisePrompt(p, feedback),
		Temperature: 0.6,
		MaxTokens:   2500,
	})
	if err != nil {
		b.logger.Warn("revision model call failed, keeping plan unchanged", "plan_id", p.ID, "error", err)
		return
	}

	parsed, err := llm.ExtractJSONAs[reviseResponse](resp.Text)
	if err != nil {
		b.logger.Warn("revision response unparsable, keeping plan unchanged", "plan_id", p.ID, "error", err)
		return
	}

	if parsed.Objective != "" {
		p.Objective = parsed.Objective
	}
	if parsed.Cadence != "" {
		p.Cadence = parsed.Cadence
	}
	for _, rp := range parsed.Posts {
		if rp.Index < 0 || rp.Index >= len(p.Posts) {
			continue
		}
		if rp.Prompt != "" {
			p.Posts[rp.Index].Prompt = rp.Prompt
		}
		if rp.HookAngle != "" {
			p.Posts[rp.Index].HookAngle = rp.HookAngle
		}
	}
}

const reviseSystemPrompt = `You revise marketing plans based on user feedback. Change only what the feedback asks for. Respond only with the JSON object requested.`

func buildRevisePrompt(p *Plan, feedback string) string {
	prompt := fmt.Sprintf(`## Current plan

Objective: %s
Cadence: %s

Posts:
`, p.Objective, p.Cadence)

	for _, post := range p.Posts {
		prompt += fmt.Sprintf("- index %d: %s (hook: %s)\n", post.Index, post.Prompt, post.HookAngle)
	}

	prompt += fmt.Sprintf(`
## Feedback

%s

Revise the plan. Include only the posts you changed, keyed by index.

Respond with JSON only:
{
  "objective": "string (empty to keep)",
  "cadence": "string (empty to keep)",
  "posts": [{"index": 0, "prompt": "string", "hook_angle": "string"}]
}`, feedback)

	return prompt
}
