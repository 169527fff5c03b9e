package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicScore_RichPlan(t *testing.T) {
	p := &Plan{
		Objective: "Launch the spring collection with a connected series",
		Cadence:   "3 posts per week for two weeks",
		Channel:   "instagram",
		Posts: []PlanPost{
			{Index: 0, ContentType: ContentImage},
			{Index: 1, ContentType: ContentCarousel},
			{Index: 2, ContentType: ContentVideo},
		},
	}

	total, breakdown := HeuristicScore(p)

	byName := make(map[string]int, len(breakdown))
	for _, c := range breakdown {
		byName[c.Criterion] = c.Score
	}

	assert.Equal(t, 20, byName[CriterionBrandAlignment])
	assert.Equal(t, 20, byName[CriterionCadence])
	assert.Equal(t, 20, byName[CriterionChannelFit])
	assert.Equal(t, 25, byName[CriterionContentDiversity], "3 distinct types x 10 capped at 25")
	assert.Equal(t, 85, total)
}

func TestHeuristicScore_ThinPlan(t *testing.T) {
	p := &Plan{
		Objective: "sell",
		Cadence:   "soon",
		Channel:   "myspace",
		Posts:     []PlanPost{{Index: 0, ContentType: ContentImage}},
	}

	total, breakdown := HeuristicScore(p)

	byName := make(map[string]int, len(breakdown))
	for _, c := range breakdown {
		byName[c.Criterion] = c.Score
	}

	assert.Equal(t, 10, byName[CriterionBrandAlignment])
	assert.Equal(t, 10, byName[CriterionCadence])
	assert.Equal(t, 5, byName[CriterionChannelFit], "unsupported channel")
	assert.Equal(t, 10, byName[CriterionContentDiversity])
	assert.Equal(t, 35, total)
}

func TestHeuristicScore_BreakdownSumsToTotal(t *testing.T) {
	p := &Plan{Objective: "a longer objective here", Channel: "tiktok"}

	total, breakdown := HeuristicScore(p)

	sum := 0
	for _, c := range breakdown {
		sum += c.Score
		assert.Equal(t, CriterionMax, c.Max)
		assert.GreaterOrEqual(t, c.Score, 0)
		assert.LessOrEqual(t, c.Score, CriterionMax)
	}
	assert.Equal(t, total, sum)
}

func TestClampCriterion(t *testing.T) {
	assert.Equal(t, 0, clampCriterion(-5))
	assert.Equal(t, 0, clampCriterion(0))
	assert.Equal(t, 17, clampCriterion(17))
	assert.Equal(t, CriterionMax, clampCriterion(25))
	assert.Equal(t, CriterionMax, clampCriterion(99))
}
