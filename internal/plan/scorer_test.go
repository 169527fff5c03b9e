package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/llm/providers"
)

func TestScorePlan_ModelPath(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return &llm.TextResult{
			Text: `{"brand_alignment": 22, "channel_fit": 18, "content_diversity": 15, "cadence": 20}`,
		}, nil
	}
	scorer := NewScorer(mock, nil)

	total, breakdown := scorer.ScorePlan(context.Background(), validPlan())

	assert.Equal(t, 75, total)
	assert.Len(t, breakdown, 4)
}

func TestScorePlan_ClampsOutOfRangeCriteria(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return &llm.TextResult{
			Text: `{"brand_alignment": 90, "channel_fit": -10, "content_diversity": 25, "cadence": 12}`,
		}, nil
	}
	scorer := NewScorer(mock, nil)

	total, breakdown := scorer.ScorePlan(context.Background(), validPlan())

	byName := make(map[string]int, len(breakdown))
	for _, c := range breakdown {
		byName[c.Criterion] = c.Score
	}
	assert.Equal(t, 25, byName[CriterionBrandAlignment])
	assert.Equal(t, 0, byName[CriterionChannelFit])
	assert.Equal(t, 62, total)
}

func TestScorePlan_MissingCriterionScoresZero(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return &llm.TextResult{Text: `{"brand_alignment": 20}`}, nil
	}
	scorer := NewScorer(mock, nil)

	total, breakdown := scorer.ScorePlan(context.Background(), validPlan())

	assert.Equal(t, 20, total)
	assert.Len(t, breakdown, 4)
}

func TestScorePlan_ModelFailureFallsBackToHeuristic(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return nil, errors.New("model unreachable")
	}
	scorer := NewScorer(mock, nil)

	p := validPlan()
	total, breakdown := scorer.ScorePlan(context.Background(), p)

	wantTotal, wantBreakdown := HeuristicScore(p)
	assert.Equal(t, wantTotal, total)
	assert.Equal(t, wantBreakdown, breakdown)
}

func TestScorePlan_UnparsableResponseFallsBackToHeuristic(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return &llm.TextResult{Text: "I would rate this plan quite highly."}, nil
	}
	scorer := NewScorer(mock, nil)

	p := validPlan()
	total, _ := scorer.ScorePlan(context.Background(), p)

	wantTotal, _ := HeuristicScore(p)
	assert.Equal(t, wantTotal, total)
}
