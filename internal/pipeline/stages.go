package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/types"
)

// Fragment is one enrichment stage's contribution to the final prompt.
// Higher priority fragments are assembled first.
type Fragment struct {
	Label    string
	Priority int
	Text     string
	Images   [][]byte
}

// Fixed assembly priorities. Product context leads because the subject must
// dominate the prompt; templates trail as generic filler.
const (
	priorityProduct   = 90
	priorityBrand     = 80
	priorityStyle     = 70
	priorityVisual    = 60
	priorityKnowledge = 50
	priorityPatterns  = 40
	priorityTemplate  = 30
)

// DefaultStageTimeout bounds each optional enrichment stage. An unreachable
// enrichment source degrades the prompt, it never stalls generation.
const DefaultStageTimeout = 5 * time.Second

// KnowledgeRetriever supplies retrieved knowledge snippets relevant to the
// prompt. Optional; nil skips the stage.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]string, error)
}

// PatternProvider supplies learned stylistic patterns for a user and
// channel. Optional; nil skips the stage.
type PatternProvider interface {
	LearnedPatterns(ctx context.Context, userID types.ID, channel string) ([]string, error)
}

// promptTemplates are the named composition templates resolvable by a
// request. Unknown names skip the stage.
var promptTemplates = map[string]string{
	"product_hero":  "Composition: single hero shot, product centered, generous negative space, studio lighting.",
	"lifestyle":     "Composition: product in a lived-in scene with natural light and a human touchpoint.",
	"flat_lay":      "Composition: top-down flat lay on a clean surface, items arranged on a loose grid.",
	"seasonal_push": "Composition: seasonal backdrop matching the campaign moment, product in the foreground.",
}

// stageFn produces a fragment or reports that the stage has nothing to add.
type stageFn func(ctx context.Context) (*Fragment, error)

// runStage executes one optional enrichment stage under its own timeout.
// An error or empty result logs and returns nil; no stage failure is fatal.
func runStage(ctx context.Context, logger *slog.Logger, name string, timeout time.Duration, fn stageFn) *Fragment {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	frag, err := fn(stageCtx)
	if err != nil {
		logger.Warn("enrichment stage failed, omitting", "stage", name, "error", err)
		return nil
	}
	if frag == nil || (frag.Text == "" && len(frag.Images) == 0) {
		return nil
	}
	return frag
}

// collectContext runs every optional enrichment stage and returns the
// surviving fragments in stage order. Assembly ordering happens later.
func (p *Pipeline) collectContext(ctx context.Context, req Request) []Fragment {
	var fragments []Fragment
	add := func(f *Fragment) {
		if f != nil {
			fragments = append(fragments, *f)
		}
	}

	add(runStage(ctx, p.logger, "product_context", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.productStage(ctx, req)
	}))
	add(runStage(ctx, p.logger, "brand_context", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.brandStage(ctx, req)
	}))
	add(runStage(ctx, p.logger, "style_directives", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.styleStage(ctx, req)
	}))
	add(runStage(ctx, p.logger, "visual_analysis", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.visualStage(ctx, req)
	}))
	add(runStage(ctx, p.logger, "knowledge", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.knowledgeStage(ctx, req)
	}))
	add(runStage(ctx, p.logger, "learned_patterns", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.patternsStage(ctx, req)
	}))
	add(runStage(ctx, p.logger, "template", p.stageTimeout, func(ctx context.Context) (*Fragment, error) {
		return p.templateStage(req)
	}))

	return fragments
}

func (p *Pipeline) productStage(ctx context.Context, req Request) (*Fragment, error) {
	if len(req.CatalogItemIDs) == 0 {
		return nil, nil
	}

	items, err := p.catalog.GetItemsByIDs(ctx, req.CatalogItemIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Products featured:")
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s", item.Name)
		if item.Description != "" {
			fmt.Fprintf(&b, ": %s", item.Description)
		}
	}

	return &Fragment{Label: "product_context", Priority: priorityProduct, Text: b.String()}, nil
}

func (p *Pipeline) brandStage(ctx context.Context, req Request) (*Fragment, error) {
	profile, err := p.brands.GetBrandProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	var parts []string
	if profile.Voice != "" {
		parts = append(parts, "Brand voice: "+profile.Voice+".")
	}
	if len(profile.Colors) > 0 {
		parts = append(parts, "Brand colors: "+strings.Join(profile.Colors, ", ")+".")
	}
	if len(parts) == 0 {
		return nil, nil
	}

	return &Fragment{Label: "brand_context", Priority: priorityBrand, Text: strings.Join(parts, " ")}, nil
}

func (p *Pipeline) styleStage(ctx context.Context, req Request) (*Fragment, error) {
	profile, err := p.brands.GetBrandProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.StyleNotes == "" {
		return nil, nil
	}

	return &Fragment{Label: "style_directives", Priority: priorityStyle, Text: "Style: " + profile.StyleNotes}, nil
}

// visualStage turns the presence of reference imagery into style directives
// with a cheap model call. The directives are derived from the request text;
// the images themselves ride along untouched as conditioning inputs for
// providers that accept them.
func (p *Pipeline) visualStage(ctx context.Context, req Request) (*Fragment, error) {
	if len(req.ReferenceImages) == 0 {
		return nil, nil
	}

	frag := &Fragment{Label: "visual_analysis", Priority: priorityVisual, Images: req.ReferenceImages}

	resp, err := p.model.GenerateText(ctx, llm.TextRequest{
		System:      "You write style directives for an image generation prompt. One sentence, concrete visual attributes only.",
		Prompt:      fmt.Sprintf("A product image is being generated for: %s. The user attached %d reference image(s) as conditioning input. Suggest lighting, palette, and composition directives that fit the request.", req.Prompt, len(req.ReferenceImages)),
		Temperature: 0.2,
		MaxTokens:   120,
	})
	if err != nil {
		// Keep the images, drop the directives.
		return frag, nil
	}

	frag.Text = "Visual direction: " + strings.TrimSpace(resp.Text)
	return frag, nil
}

func (p *Pipeline) knowledgeStage(ctx context.Context, req Request) (*Fragment, error) {
	if p.knowledge == nil {
		return nil, nil
	}

	snippets, err := p.knowledge.Retrieve(ctx, req.Prompt, 3)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, nil
	}

	return &Fragment{
		Label:    "knowledge",
		Priority: priorityKnowledge,
		Text:     "Context: " + strings.Join(snippets, " "),
	}, nil
}

func (p *Pipeline) patternsStage(ctx context.Context, req Request) (*Fragment, error) {
	if p.patterns == nil {
		return nil, nil
	}

	patterns, err := p.patterns.LearnedPatterns(ctx, req.UserID, req.Channel)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	return &Fragment{
		Label:    "learned_patterns",
		Priority: priorityPatterns,
		Text:     "What has worked before: " + strings.Join(patterns, " "),
	}, nil
}

func (p *Pipeline) templateStage(req Request) (*Fragment, error) {
	if req.Template == "" {
		return nil, nil
	}

	text, ok := promptTemplates[req.Template]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", req.Template)
	}

	return &Fragment{Label: "template", Priority: priorityTemplate, Text: text}, nil
}
