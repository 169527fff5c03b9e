package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/promoforge/promoforge/internal/catalog"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/types"
)

// Builder proposes content suggestions and expands an accepted suggestion
// into a fully specified plan. Both stages are LLM-backed with deterministic
// fallbacks: a model failure degrades the output, it never blocks the caller.
type Builder struct {
	model       llm.ModelService
	catalog     catalog.Store
	store       Store
	scorer      *Scorer
	usage       UsageSource
	adaptive    cost.AdaptiveConfig
	usageWindow time.Duration
	logger      *slog.Logger
}

// UsageSource reads recent generation cost observations for adaptive plan
// pricing.
type UsageSource interface {
	RecentUsage(ctx context.Context, window time.Duration) ([]cost.UsageRow, error)
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger configures the logger for the builder.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithAdaptiveCost prices plan previews from recent usage history instead of
// the static tier table alone. Before any history exists the tier table still
// applies.
func WithAdaptiveCost(src UsageSource, cfg cost.AdaptiveConfig, window time.Duration) BuilderOption {
	return func(b *Builder) {
		b.usage = src
		b.adaptive = cfg
		b.usageWindow = window
	}
}

// NewBuilder creates a plan builder.
func NewBuilder(model llm.ModelService, cat catalog.Store, store Store, scorer *Scorer, opts ...BuilderOption) *Builder {
	b := &Builder{
		model:   model,
		catalog: cat,
		store:   store,
		scorer:  scorer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// suggestionResponse is the strict response contract for the suggestion call.
type suggestionResponse struct {
	Suggestions []struct {
		Type        string   `json:"type"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		ItemIDs     []string `json:"item_ids"`
		Channel     string   `json:"channel"`
		Confidence  int      `json:"confidence"`
		Reasoning   string   `json:"reasoning"`
		Tags        []string `json:"tags"`
	} `json:"suggestions"`
}

// GenerateSuggestions proposes exactly limit ranked content suggestions for
// the given catalog items. On any model failure or unparsable response it
// returns the deterministic template suggestions instead of an error.
func (b *Builder) GenerateSuggestions(ctx context.Context, userID types.ID, itemIDs []types.ID, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 6
	}

	items, err := b.catalog.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		b.logger.Warn("catalog lookup failed, using fallback suggestions", "error", err)
		return FallbackSuggestions(nil, limit), nil
	}

	rels, err := b.catalog.GetItemRelationships(ctx, itemIDs)
	if err != nil {
		b.logger.Warn("relationship lookup failed, continuing without", "error", err)
		rels = nil
	}

	resp, err := b.model.GenerateText(ctx, llm.TextRequest{
		System:      suggestionSystemPrompt,
		Prompt:      buildSuggestionPrompt(items, rels, limit),
		Temperature: 0.8,
		MaxTokens:   2000,
	})
	if err != nil {
		b.logger.Warn("suggestion model call failed, using fallback", "error", err)
		return FallbackSuggestions(items, limit), nil
	}

	parsed, err := llm.ExtractJSONAs[suggestionResponse](resp.Text)
	if err != nil || len(parsed.Suggestions) == 0 {
		b.logger.Warn("suggestion response unparsable, using fallback", "error", err)
		return FallbackSuggestions(items, limit), nil
	}

	known := make(map[types.ID]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	suggestions := make([]Suggestion, 0, limit)
	for _, raw := range parsed.Suggestions {
		if len(suggestions) == limit {
			break
		}

		sType := SuggestionType(raw.Type)
		switch sType {
		case SuggestionSinglePost, SuggestionContentSeries, SuggestionCampaign, SuggestionGapFill:
		default:
			sType = SuggestionSinglePost
		}

		var sItems []types.ID
		for _, rawID := range raw.ItemIDs {
			if id, err := types.ParseID(rawID); err == nil && known[id] {
				sItems = append(sItems, id)
			}
		}

		confidence := raw.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 100 {
			confidence = 100
		}

		suggestions = append(suggestions, Suggestion{
			ID:           types.NewID(),
			Type:         sType,
			Title:        raw.Title,
			Description:  raw.Description,
			CatalogItems: sItems,
			Channel:      raw.Channel,
			Confidence:   confidence,
			Reasoning:    raw.Reasoning,
			Tags:         raw.Tags,
		})
	}

	// The model may come up short; top up from templates so the caller
	// always receives exactly limit suggestions.
	if len(suggestions) < limit {
		for _, s := range FallbackSuggestions(items, limit-len(suggestions)) {
			suggestions = append(suggestions, s)
		}
	}

	return suggestions, nil
}

// planBriefResponse is the strict response contract for the plan-brief call.
type planBriefResponse struct {
	Objective  string `json:"objective"`
	Cadence    string `json:"cadence"`
	Channel    string `json:"channel"`
	ContentMix []struct {
		Type  string `json:"type"`
		Count int    `json:"count"`
	} `json:"content_mix"`
	Posts []struct {
		ItemIDs     []string `json:"item_ids"`
		Prompt      string   `json:"prompt"`
		Channel     string   `json:"channel"`
		ContentType string   `json:"content_type"`
		HookAngle   string   `json:"hook_angle"`
	} `json:"posts"`
	ClarifyingQuestions []struct {
		Field    string `json:"field"`
		Question string `json:"question"`
	} `json:"clarifying_questions"`
}

// BuildPlanPreview expands an accepted suggestion plus clarifying answers
// into a fully specified plan, scores it, and persists it immediately so a
// crash between building and the caller's next action cannot lose it.
// Unparsable model output falls back to the fixed 3-post deterministic plan.
func (b *Builder) BuildPlanPreview(ctx context.Context, userID types.ID, suggestion Suggestion, answers map[string]string) (*Plan, []ClarifyingQuestion, error) {
	items, err := b.catalog.GetItemsByIDs(ctx, suggestion.CatalogItems)
	if err != nil {
		b.logger.Warn("catalog lookup failed during preview", "error", err)
		items = nil
	}

	p, questions := b.buildFromModel(ctx, userID, suggestion, items, answers)
	if p == nil {
		p = FallbackPlan(userID, suggestion)
		questions = nil
	}

	p.EstimatedCost = b.estimatePlanCost(ctx, p)
	if p.Currency == "" {
		p.Currency = "USD"
	}

	total, breakdown := b.scorer.ScorePlan(ctx, p)
	p.ApprovalScore = total
	p.ScoreBreakdown = breakdown

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		// A model-produced plan that violates invariants is discarded the
		// same way an unparsable one is.
		b.logger.Warn("model plan failed validation, using fallback", "error", err)
		p = FallbackPlan(userID, suggestion)
		p.EstimatedCost = b.estimatePlanCost(ctx, p)
		total, breakdown = b.scorer.ScorePlan(ctx, p)
		p.ApprovalScore = total
		p.ScoreBreakdown = breakdown
		p.CreatedAt = now
		p.UpdatedAt = now
		questions = nil
	}

	if err := b.store.Create(ctx, p); err != nil {
		return nil, nil, err
	}

	b.logger.Info("plan preview created",
		"plan_id", p.ID,
		"user_id", userID,
		"posts", len(p.Posts),
		"approval_score", p.ApprovalScore,
	)

	return p, questions, nil
}

// buildFromModel attempts the single plan-brief model call. A nil plan
// signals the caller to use the deterministic fallback.
func (b *Builder) buildFromModel(ctx context.Context, userID types.ID, suggestion Suggestion, items []catalog.Item, answers map[string]string) (*Plan, []ClarifyingQuestion) {
	resp, err := b.model.GenerateText(ctx, llm.TextRequest{
		System:      planBriefSystemPrompt,
		Prompt:      buildPlanBriefPrompt(suggestion, items, answers),
		Temperature: 0.6,
		MaxTokens:   3000,
	})
	if err != nil {
		b.logger.Warn("plan brief model call failed", "error", err)
		return nil, nil
	}

	parsed, err := llm.ExtractJSONAs[planBriefResponse](resp.Text)
	if err != nil {
		b.logger.Warn("plan brief response unparsable", "error", err)
		return nil, nil
	}

	if parsed.Objective == "" || len(parsed.Posts) == 0 || len(parsed.Posts) > MaxPosts {
		b.logger.Warn("plan brief response incomplete",
			"objective", parsed.Objective != "",
			"posts", len(parsed.Posts),
		)
		return nil, nil
	}

	posts := make([]PlanPost, 0, len(parsed.Posts))
	for i, raw := range parsed.Posts {
		if raw.Prompt == "" {
			return nil, nil
		}

		cType := ContentType(raw.ContentType)
		switch cType {
		case ContentImage, ContentCarousel, ContentVideo:
		default:
			cType = ContentImage
		}

		channel := raw.Channel
		if channel == "" {
			channel = parsed.Channel
		}

		var itemIDs []types.ID
		for _, rawID := range raw.ItemIDs {
			if id, err := types.ParseID(rawID); err == nil {
				itemIDs = append(itemIDs, id)
			}
		}

		posts = append(posts, PlanPost{
			Index:          i,
			CatalogItemIDs: itemIDs,
			Prompt:         raw.Prompt,
			Channel:        channel,
			ContentType:    cType,
			HookAngle:      raw.HookAngle,
		})
	}

	mix := make([]ContentMixEntry, 0, len(parsed.ContentMix))
	for _, m := range parsed.ContentMix {
		mix = append(mix, ContentMixEntry{Type: ContentType(m.Type), Count: m.Count})
	}

	var questions []ClarifyingQuestion
	for _, q := range parsed.ClarifyingQuestions {
		questions = append(questions, ClarifyingQuestion{Field: q.Field, Question: q.Question})
	}

	return &Plan{
		ID:           types.NewID(),
		UserID:       userID,
		SuggestionID: suggestion.ID,
		Status:       StatusDraft,
		Objective:    parsed.Objective,
		Cadence:      parsed.Cadence,
		Channel:      parsed.Channel,
		ContentMix:   mix,
		Currency:     "USD",
		Posts:        posts,
	}, questions
}

// estimatePlanCost prices one generation per post. With a usage source
// configured, each post is priced at the recency-weighted mean of recent
// generations; the tier table covers the no-source and no-history cases.
func (b *Builder) estimatePlanCost(ctx context.Context, p *Plan) cost.Micros {
	tiered := tierPlanCost(p)
	if b.usage == nil {
		return tiered
	}

	rows, err := b.usage.RecentUsage(ctx, b.usageWindow)
	if err != nil {
		b.logger.Warn("usage history lookup failed, using tier estimate", "error", err)
		return tiered
	}

	est := cost.EstimateAdaptive(rows, time.Now(), b.adaptive)
	if est.UsedFallback {
		return tiered
	}

	b.logger.Debug("adaptive plan estimate",
		"mean_micros", int64(est.MeanMicros),
		"p90_micros", int64(est.P90Micros),
		"sample_weight", est.SampleWeight,
	)
	return est.MeanMicros * cost.Micros(len(p.Posts))
}

// tierPlanCost prices one generation per post at the default tier.
func tierPlanCost(p *Plan) cost.Micros {
	var total cost.Micros
	for _, post := range p.Posts {
		total += cost.EstimateGeneration(cost.GenerationSpec{
			Resolution: cost.Resolution2K,
			ImageCount: len(post.CatalogItemIDs),
		})
	}
	return total
}

const suggestionSystemPrompt = `You are a marketing strategist for small product businesses. You propose concrete, differentiated content ideas grounded in the catalog you are shown. Respond only with the JSON object requested.`

func buildSuggestionPrompt(items []catalog.Item, rels []catalog.Relationship, limit int) string {
	var b strings.Builder

	b.WriteString("## Catalog\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s: %s (category: %s)\n", item.ID, item.Name, item.Description, item.Category)
	}

	if len(rels) > 0 {
		b.WriteString("\n## Item relationships\n\n")
		for _, rel := range rels {
			fmt.Fprintf(&b, "- %s %s %s\n", rel.FromID, rel.Kind, rel.ToID)
		}
	}

	fmt.Fprintf(&b, `
Propose exactly %d content suggestions, ranked by confidence. Types: single_post, content_series, campaign, gap_fill.

Respond with JSON only:
{
  "suggestions": [
    {
      "type": "single_post | content_series | campaign | gap_fill",
      "title": "string",
      "description": "string",
      "item_ids": ["catalog item ids from above"],
      "channel": "instagram | facebook | twitter | linkedin | tiktok | pinterest",
      "confidence": 0,
      "reasoning": "string",
      "tags": ["string"]
    }
  ]
}`, limit)

	return b.String()
}

const planBriefSystemPrompt = `You are a campaign planner. You turn one accepted content idea into a concrete multi-post plan. When several products are involved you must plan a connected series of discrete posts, one focus per post, never a single oversized composite image. Respond only with the JSON object requested.`

func buildPlanBriefPrompt(suggestion Suggestion, items []catalog.Item, answers map[string]string) string {
	var b strings.Builder

	b.WriteString("## Accepted suggestion\n\n")
	fmt.Fprintf(&b, "Type: %s\nTitle: %s\nDescription: %s\nChannel: %s\n",
		suggestion.Type, suggestion.Title, suggestion.Description, suggestion.Channel)

	if len(items) > 0 {
		b.WriteString("\n## Products involved\n\n")
		for _, item := range items {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", item.ID, item.Name, item.Description)
		}
	}

	if len(answers) > 0 {
		b.WriteString("\n## Clarifying answers\n\n")
		for field, answer := range answers {
			fmt.Fprintf(&b, "- %s: %s\n", field, answer)
		}
	}

	fmt.Fprintf(&b, `
Produce a complete plan: objective, cadence, channel, content mix, and 1-%d posts. Each post needs a concrete image generation prompt. If information is missing, include clarifying_questions (the plan is still required).

Respond with JSON only:
{
  "objective": "string",
  "cadence": "string",
  "channel": "string",
  "content_mix": [{"type": "image | carousel | video", "count": 0}],
  "posts": [
    {
      "item_ids": ["catalog item ids"],
      "prompt": "string (image generation prompt)",
      "channel": "string",
      "content_type": "image | carousel | video",
      "hook_angle": "string"
    }
  ],
  "clarifying_questions": [{"field": "string", "question": "string"}]
}`, MaxPosts)

	return b.String()
}
