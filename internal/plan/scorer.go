package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/promoforge/promoforge/internal/llm"
)

// Scorer scores a candidate plan 0-100 across four weighted criteria.
// The model path uses a strict JSON contract with per-criterion clamping;
// any failure falls back to the pure heuristic. The scorer never errors.
type Scorer struct {
	model  llm.ModelService
	logger *slog.Logger
}

// NewScorer creates a plan scorer.
func NewScorer(model llm.ModelService, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{model: model, logger: logger}
}

// scoreResponse is the strict response contract for the scoring call.
type scoreResponse struct {
	BrandAlignment   *int `json:"brand_alignment"`
	ChannelFit       *int `json:"channel_fit"`
	ContentDiversity *int `json:"content_diversity"`
	Cadence          *int `json:"cadence"`
}

// ScorePlan returns the total approval score and its per-criterion
// breakdown. Missing or out-of-range criteria are clamped into [0,25];
// a failed model call or unparsable response uses the heuristic instead.
func (s *Scorer) ScorePlan(ctx context.Context, p *Plan) (int, []ScoreCriterion) {
	resp, err := s.model.GenerateText(ctx, llm.TextRequest{
		System:      scorerSystemPrompt,
		Prompt:      buildScorePrompt(p),
		Temperature: 0.2,
		MaxTokens:   500,
	})
	if err != nil {
		s.logger.Warn("scoring model call failed, using heuristic", "plan_id", p.ID, "error", err)
		return HeuristicScore(p)
	}

	parsed, err := llm.ExtractJSONAs[scoreResponse](resp.Text)
	if err != nil {
		s.logger.Warn("score response unparsable, using heuristic", "plan_id", p.ID, "error", err)
		return HeuristicScore(p)
	}

	criterion := func(v *int) int {
		if v == nil {
			return 0
		}
		return clampCriterion(*v)
	}

	breakdown := []ScoreCriterion{
		{Criterion: CriterionBrandAlignment, Score: criterion(parsed.BrandAlignment), Max: CriterionMax},
		{Criterion: CriterionChannelFit, Score: criterion(parsed.ChannelFit), Max: CriterionMax},
		{Criterion: CriterionContentDiversity, Score: criterion(parsed.ContentDiversity), Max: CriterionMax},
		{Criterion: CriterionCadence, Score: criterion(parsed.Cadence), Max: CriterionMax},
	}

	total := 0
	for _, c := range breakdown {
		total += c.Score
	}

	return total, breakdown
}

const scorerSystemPrompt = `You are a strict marketing plan reviewer. Score the plan on four independent criteria, each 0-25. Respond only with the JSON object requested.`

func buildScorePrompt(p *Plan) string {
	var b strings.Builder

	b.WriteString("## Plan\n\n")
	fmt.Fprintf(&b, "Objective: %s\nCadence: %s\nChannel: %s\nPosts: %d\n",
		p.Objective, p.Cadence, p.Channel, len(p.Posts))

	for _, post := range p.Posts {
		fmt.Fprintf(&b, "- post %d (%s, %s): %s\n", post.Index, post.Channel, post.ContentType, post.Prompt)
	}

	b.WriteString(`
Score each criterion 0-25:
- brand_alignment: does the plan serve a coherent brand objective?
- channel_fit: are the posts shaped for their channels?
- content_diversity: does the mix avoid repetition?
- cadence: is the posting rhythm realistic and specific?

Respond with JSON only:
{"brand_alignment": 0, "channel_fit": 0, "content_diversity": 0, "cadence": 0}`)

	return b.String()
}
