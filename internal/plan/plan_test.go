package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promoforge/promoforge/internal/types"
)

func validPlan() *Plan {
	return &Plan{
		ID:        types.NewID(),
		UserID:    types.NewID(),
		Status:    StatusDraft,
		Objective: "Promote the spring collection",
		Cadence:   "3 posts per week",
		Channel:   "instagram",
		Posts: []PlanPost{
			{Index: 0, Prompt: "hero shot", Channel: "instagram", ContentType: ContentImage},
			{Index: 1, Prompt: "lifestyle shot", Channel: "instagram", ContentType: ContentImage},
		},
		ApprovalScore: 45,
		ScoreBreakdown: []ScoreCriterion{
			{Criterion: CriterionBrandAlignment, Score: 20, Max: CriterionMax},
			{Criterion: CriterionChannelFit, Score: 20, Max: CriterionMax},
			{Criterion: CriterionContentDiversity, Score: 5, Max: CriterionMax},
			{Criterion: CriterionCadence, Score: 0, Max: CriterionMax},
		},
		Currency: "USD",
	}
}

func TestPlanValidate_Valid(t *testing.T) {
	assert.NoError(t, validPlan().Validate())
}

func TestPlanValidate_TooManyPosts(t *testing.T) {
	p := validPlan()
	p.Posts = make([]PlanPost, MaxPosts+1)
	for i := range p.Posts {
		p.Posts[i] = PlanPost{Index: i, Prompt: "x", ContentType: ContentImage}
	}

	err := p.Validate()
	assert.True(t, types.HasCode(err, types.PLAN_INVALID))
}

func TestPlanValidate_ExactlyMaxPostsAllowed(t *testing.T) {
	p := validPlan()
	p.Posts = make([]PlanPost, MaxPosts)
	for i := range p.Posts {
		p.Posts[i] = PlanPost{Index: i, Prompt: "x", ContentType: ContentImage}
	}

	assert.NoError(t, p.Validate())
}

func TestPlanValidate_DuplicateIndex(t *testing.T) {
	p := validPlan()
	p.Posts[1].Index = 0

	err := p.Validate()
	assert.True(t, types.HasCode(err, types.PLAN_INVALID))
}

func TestPlanValidate_SparseIndices(t *testing.T) {
	p := validPlan()
	p.Posts[1].Index = 5

	err := p.Validate()
	assert.True(t, types.HasCode(err, types.PLAN_INVALID))
}

func TestPlanValidate_BreakdownMustSumToScore(t *testing.T) {
	p := validPlan()
	p.ApprovalScore = 90

	err := p.Validate()
	assert.True(t, types.HasCode(err, types.PLAN_INVALID))
}

func TestPlanValidate_EmptyBreakdownSkipsSumCheck(t *testing.T) {
	p := validPlan()
	p.ScoreBreakdown = nil
	p.ApprovalScore = 90

	assert.NoError(t, p.Validate())
}

func TestCanRevise(t *testing.T) {
	p := validPlan()
	assert.True(t, p.CanRevise())

	p.Status = StatusApproved
	assert.True(t, p.CanRevise())

	p.Status = StatusExecuting
	assert.False(t, p.CanRevise())

	p.Status = StatusDraft
	p.RevisionCount = MaxRevisions
	assert.False(t, p.CanRevise())
}
