package plan

// Approval criteria names. Each criterion scores 0-25; the total is 0-100.
const (
	CriterionBrandAlignment   = "brand_alignment"
	CriterionChannelFit       = "channel_fit"
	CriterionContentDiversity = "content_diversity"
	CriterionCadence          = "cadence"
)

// CriterionMax is the per-criterion score ceiling.
const CriterionMax = 25

// supportedChannels is the channel-fit whitelist used by the heuristic.
var supportedChannels = map[string]bool{
	"instagram": true,
	"facebook":  true,
	"twitter":   true,
	"linkedin":  true,
	"tiktok":    true,
	"pinterest": true,
}

// HeuristicScore scores a plan without any model call. It is the fallback
// when the scoring model is unreachable, and it is deliberately coarse:
// non-trivial free text earns the text criteria, whitelist membership earns
// channel fit, and distinct content types earn diversity.
func HeuristicScore(p *Plan) (int, []ScoreCriterion) {
	brand := 10
	if len(p.Objective) > 10 {
		brand = 20
	}

	cadence := 10
	if len(p.Cadence) > 5 {
		cadence = 20
	}

	channelFit := 5
	if supportedChannels[p.Channel] {
		channelFit = 20
	}

	distinct := make(map[ContentType]bool)
	for _, post := range p.Posts {
		distinct[post.ContentType] = true
	}
	diversity := len(distinct) * 10
	if diversity > CriterionMax {
		diversity = CriterionMax
	}

	breakdown := []ScoreCriterion{
		{Criterion: CriterionBrandAlignment, Score: brand, Max: CriterionMax},
		{Criterion: CriterionChannelFit, Score: channelFit, Max: CriterionMax},
		{Criterion: CriterionContentDiversity, Score: diversity, Max: CriterionMax},
		{Criterion: CriterionCadence, Score: cadence, Max: CriterionMax},
	}

	total := 0
	for _, c := range breakdown {
		total += c.Score
	}

	return total, breakdown
}

// clampCriterion forces a model-supplied score into [0, CriterionMax].
func clampCriterion(score int) int {
	if score < 0 {
		return 0
	}
	if score > CriterionMax {
		return CriterionMax
	}
	return score
}
