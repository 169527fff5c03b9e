// Package pipeline turns one post prompt into one persisted artifact. The
// enrichment stages are individually optional and fault-tolerant; prompt
// assembly, the quality gate, generation, and persistence are mandatory.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promoforge/promoforge/internal/brand"
	"github.com/promoforge/promoforge/internal/catalog"
	"github.com/promoforge/promoforge/internal/content"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/storage"
	"github.com/promoforge/promoforge/internal/types"
)

// Request describes one generation unit of work.
type Request struct {
	UserID          types.ID
	Prompt          string
	CatalogItemIDs  []types.ID
	Channel         string
	ContentType     string
	Template        string
	ReferenceImages [][]byte
	Resolution      string
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	ArtifactID        types.ID
	ArtifactURL       string
	FinalPrompt       string
	Attempts          int
	EstimatedCost     cost.Micros
	ConversationState string
}

// Pipeline orchestrates enrichment, assembly, gating, generation with the
// critic loop, and persistence.
type Pipeline struct {
	model     llm.ModelService
	catalog   catalog.Store
	brands    brand.Store
	artifacts storage.ArtifactStore
	recorder  content.Recorder
	knowledge KnowledgeRetriever
	patterns  PatternProvider
	logger    *slog.Logger
	tracer    trace.Tracer

	criticThreshold  int
	criticMaxRetries int
	stageTimeout     time.Duration
	gateRefine       bool
}

// Option is a functional option for configuring Pipeline.
type Option func(*Pipeline)

// WithLogger configures the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithKnowledge enables the retrieved-knowledge enrichment stage.
func WithKnowledge(k KnowledgeRetriever) Option {
	return func(p *Pipeline) { p.knowledge = k }
}

// WithPatterns enables the learned-patterns enrichment stage.
func WithPatterns(pp PatternProvider) Option {
	return func(p *Pipeline) { p.patterns = pp }
}

// WithCritic tunes the critic threshold and extra-attempt budget.
func WithCritic(threshold, maxRetries int) Option {
	return func(p *Pipeline) {
		p.criticThreshold = threshold
		p.criticMaxRetries = maxRetries
	}
}

// WithStageTimeout bounds each optional enrichment stage.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.stageTimeout = d }
}

// WithGateRefinement enables the optional model pass over the gate score.
func WithGateRefinement(enabled bool) Option {
	return func(p *Pipeline) { p.gateRefine = enabled }
}

// New creates a generation pipeline.
func New(model llm.ModelService, cat catalog.Store, brands brand.Store, artifacts storage.ArtifactStore, recorder content.Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		model:            model,
		catalog:          cat,
		brands:           brands,
		artifacts:        artifacts,
		recorder:         recorder,
		logger:           slog.Default(),
		tracer:           otel.Tracer("promoforge/pipeline"),
		criticThreshold:  DefaultCriticThreshold,
		criticMaxRetries: DefaultCriticMaxRetries,
		stageTimeout:     DefaultStageTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate runs the full sub-pipeline for one request. It returns
// *InsufficientInputError when the gate aborts; every other error is a hard
// failure of generation, storage, or recording.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate",
		trace.WithAttributes(
			attribute.String("channel", req.Channel),
			attribute.Int("catalog_items", len(req.CatalogItemIDs)),
		))
	defer span.End()

	fragments := p.collectContext(ctx, req)
	finalPrompt, images := Assemble(req.Prompt, fragments)

	gate := p.evaluateGate(ctx, finalPrompt, fragments)
	span.SetAttributes(attribute.Int("gate_score", gate.Score))
	switch {
	case gate.Score < GateAbortBelow:
		p.logger.Info("quality gate aborted generation",
			"score", gate.Score, "suggestions", strings.Join(gate.Suggestions, "; "))
		return nil, &InsufficientInputError{
			Score:       gate.Score,
			Breakdown:   gate.Breakdown,
			Suggestions: gate.Suggestions,
		}
	case gate.Score < GateWarnBelow:
		p.logger.Warn("quality gate score is marginal, proceeding", "score", gate.Score)
	}

	image, prompt, attempts, err := p.generateWithCritic(ctx, finalPrompt, images, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("attempts", attempts))

	url, err := p.artifacts.SaveArtifact(ctx, image.Data, formatFromMIME(image.MIMEType))
	if err != nil {
		return nil, err
	}

	artifact := &content.Artifact{
		UserID:            req.UserID,
		URL:               url,
		Prompt:            prompt,
		ConversationState: image.ConversationState,
		MIMEType:          image.MIMEType,
	}
	if err := p.recorder.RecordArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	estimated := cost.EstimateGeneration(cost.GenerationSpec{
		Resolution: req.Resolution,
		ImageCount: len(images),
	})
	if err := p.recorder.RecordUsage(ctx, req.UserID, estimated); err != nil {
		return nil, err
	}

	p.logger.Info("artifact generated",
		"artifact_id", artifact.ID,
		"attempts", attempts,
		"estimated_cost_micros", int64(estimated),
	)

	return &Result{
		ArtifactID:        artifact.ID,
		ArtifactURL:       url,
		FinalPrompt:       prompt,
		Attempts:          attempts,
		EstimatedCost:     estimated,
		ConversationState: image.ConversationState,
	}, nil
}

// generateWithCritic runs the generation call under the critic loop. A
// failing critique with a revised prompt re-runs generation only, up to the
// extra-attempt budget; the last artifact is accepted regardless of its
// final score once the budget is spent.
func (p *Pipeline) generateWithCritic(ctx context.Context, prompt string, images [][]byte, req Request) (*llm.ImageResult, string, int, error) {
	extra := 0
	for {
		image, err := p.model.GenerateImage(ctx, llm.ImageRequest{
			Prompt:      prompt,
			InputImages: images,
			Resolution:  req.Resolution,
		})
		if err != nil {
			return nil, "", extra + 1, err
		}

		if extra >= p.criticMaxRetries {
			return image, prompt, extra + 1, nil
		}

		crit := p.critique(ctx, prompt, req)
		if crit.Passed || crit.RevisedPrompt == "" {
			return image, prompt, extra + 1, nil
		}

		p.logger.Info("critic requested regeneration",
			"score", crit.Score, "attempt", extra+1, "issues", strings.Join(crit.Issues, "; "))
		prompt = crit.RevisedPrompt
		extra++
	}
}

func formatFromMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
