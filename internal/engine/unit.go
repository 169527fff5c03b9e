package engine

import (
	"context"
	"log/slog"

	"github.com/promoforge/promoforge/internal/brand"
	"github.com/promoforge/promoforge/internal/catalog"
	"github.com/promoforge/promoforge/internal/content"
	"github.com/promoforge/promoforge/internal/copywriter"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/pipeline"
	"github.com/promoforge/promoforge/internal/plan"
	"github.com/promoforge/promoforge/internal/queue"
)

// StepRunner executes one plan post end to end. The engine records any
// returned error as a single failed step and moves on.
type StepRunner interface {
	RunPost(ctx context.Context, exec *Execution, pl *plan.Plan, post plan.PlanPost) (*StepResult, error)
}

// PostRunner is the production StepRunner: generation through the pipeline,
// platform copy, a persisted copy record, and a review-queue submission.
// Pure composition; it holds no state of its own between posts.
type PostRunner struct {
	pipeline *pipeline.Pipeline
	catalog  catalog.Store
	brands   brand.Store
	copy     copywriter.Generator
	recorder content.Recorder
	queue    queue.ReviewQueue
	logger   *slog.Logger
}

// NewPostRunner creates the production per-post runner.
func NewPostRunner(
	pipe *pipeline.Pipeline,
	cat catalog.Store,
	brands brand.Store,
	copyGen copywriter.Generator,
	recorder content.Recorder,
	reviewQueue queue.ReviewQueue,
	logger *slog.Logger,
) *PostRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostRunner{
		pipeline: pipe,
		catalog:  cat,
		brands:   brands,
		copy:     copyGen,
		recorder: recorder,
		queue:    reviewQueue,
		logger:   logger,
	}
}

// RunPost drives one post through generation, copywriting, and queue
// submission. Any error anywhere in the chain is one step failure.
func (r *PostRunner) RunPost(ctx context.Context, exec *Execution, pl *plan.Plan, post plan.PlanPost) (*StepResult, error) {
	result, err := r.pipeline.Generate(ctx, pipeline.Request{
		UserID:         exec.UserID,
		Prompt:         post.Prompt,
		CatalogItemIDs: post.CatalogItemIDs,
		Channel:        post.Channel,
		ContentType:    string(post.ContentType),
		Resolution:     cost.Resolution2K,
	})
	if err != nil {
		return nil, err
	}

	items, err := r.catalog.GetItemsByIDs(ctx, post.CatalogItemIDs)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	descriptions := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
		if item.Description != "" {
			descriptions = append(descriptions, item.Description)
		}
	}

	var voice string
	if profile, err := r.brands.GetBrandProfile(ctx, exec.UserID); err == nil && profile != nil {
		voice = profile.Voice
	}

	generated, err := r.copy.GenerateCopy(ctx, copywriter.Request{
		Channel:          post.Channel,
		ContentType:      string(post.ContentType),
		Objective:        pl.Objective,
		HookAngle:        post.HookAngle,
		ItemNames:        names,
		ItemDescriptions: descriptions,
		BrandVoice:       voice,
	})
	if err != nil {
		return nil, err
	}

	record := &content.CopyRecord{
		UserID:      exec.UserID,
		ExecutionID: exec.ID,
		Channel:     post.Channel,
		Copy:        *generated,
	}
	if err := r.recorder.RecordCopy(ctx, record); err != nil {
		return nil, err
	}

	item := &queue.Item{
		UserID:        exec.UserID,
		Caption:       generated.Caption,
		Channel:       post.Channel,
		ArtifactURL:   result.ArtifactURL,
		Hashtags:      generated.Hashtags,
		ScheduledDate: post.ScheduledDate,
	}
	if err := r.queue.Submit(ctx, item); err != nil {
		return nil, err
	}

	r.logger.Info("post executed",
		"execution_id", exec.ID,
		"post_index", post.Index,
		"artifact_id", result.ArtifactID,
		"attempts", result.Attempts,
	)

	return &StepResult{
		GeneratedArtifactID: result.ArtifactID,
		CopyID:              record.ID,
		QueueItemID:         item.ID,
		ArtifactURL:         result.ArtifactURL,
	}, nil
}
