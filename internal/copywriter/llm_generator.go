package copywriter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/types"
)

// LLMGenerator implements Generator with one structured model call.
type LLMGenerator struct {
	model  llm.ModelService
	logger *slog.Logger
}

// NewLLMGenerator creates an LLM-backed copy generator.
func NewLLMGenerator(model llm.ModelService, logger *slog.Logger) *LLMGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{model: model, logger: logger}
}

// copyResponse is the strict response contract for the copy call.
type copyResponse struct {
	Headline string   `json:"headline"`
	Hook     string   `json:"hook"`
	Body     string   `json:"body"`
	CTA      string   `json:"cta"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// GenerateCopy produces copy for the request, clamped to the channel's
// character budgets. A model failure or unparsable response is a hard error.
func (g *LLMGenerator) GenerateCopy(ctx context.Context, req Request) (*Copy, error) {
	limits := LimitsFor(req.Channel)

	resp, err := g.model.GenerateText(ctx, llm.TextRequest{
		System:      copySystemPrompt,
		Prompt:      buildCopyPrompt(req, limits),
		Temperature: 0.7,
		MaxTokens:   1200,
	})
	if err != nil {
		return nil, types.WrapError(types.COPY_GENERATION_FAILED,
			fmt.Sprintf("copy generation failed for channel %s", req.Channel), err)
	}

	parsed, err := llm.ExtractJSONAs[copyResponse](resp.Text)
	if err != nil {
		return nil, types.WrapError(types.COPY_GENERATION_FAILED,
			"copy response was not valid JSON", err)
	}

	if parsed.Caption == "" {
		return nil, types.NewError(types.COPY_GENERATION_FAILED, "copy response missing caption")
	}

	result := Clamp(Copy{
		Headline: parsed.Headline,
		Hook:     parsed.Hook,
		Body:     parsed.Body,
		CTA:      parsed.CTA,
		Caption:  parsed.Caption,
		Hashtags: parsed.Hashtags,
	}, limits)

	g.logger.Debug("copy generated",
		"channel", req.Channel,
		"caption_len", len(result.Caption),
		"hashtags", len(result.Hashtags),
	)

	return &result, nil
}

const copySystemPrompt = `You are a senior social media copywriter. You write copy that converts while staying strictly inside platform character limits. Respond only with the JSON object requested.`

func buildCopyPrompt(req Request, limits Limits) string {
	var b strings.Builder

	b.WriteString("Write copy for one social media post.\n\n")
	fmt.Fprintf(&b, "Channel: %s\nContent type: %s\nObjective: %s\n", req.Channel, req.ContentType, req.Objective)
	if req.HookAngle != "" {
		fmt.Fprintf(&b, "Hook angle: %s\n", req.HookAngle)
	}
	if req.BrandVoice != "" {
		fmt.Fprintf(&b, "Brand voice: %s\n", req.BrandVoice)
	}
	if len(req.ItemNames) > 0 {
		fmt.Fprintf(&b, "Products: %s\n", strings.Join(req.ItemNames, ", "))
	}
	for _, d := range req.ItemDescriptions {
		fmt.Fprintf(&b, "- %s\n", d)
	}

	fmt.Fprintf(&b, "\nHard limits: caption at most %d characters, body at most %d characters.\n",
		limits.CaptionMax, limits.BodyMax)

	b.WriteString(`
Respond with JSON only:
{
  "headline": "string",
  "hook": "string (first line, scroll-stopping)",
  "body": "string",
  "cta": "string (call to action)",
  "caption": "string (ready to publish, within the caption limit)",
  "hashtags": ["string (no # prefix)"]
}`)

	return b.String()
}
