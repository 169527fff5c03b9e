package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/promoforge/promoforge/internal/brand"
	"github.com/promoforge/promoforge/internal/catalog"
	"github.com/promoforge/promoforge/internal/config"
	"github.com/promoforge/promoforge/internal/copywriter"
	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/database"
	"github.com/promoforge/promoforge/internal/engine"
	"github.com/promoforge/promoforge/internal/llm/providers"
	"github.com/promoforge/promoforge/internal/pipeline"
	"github.com/promoforge/promoforge/internal/plan"
	"github.com/promoforge/promoforge/internal/queue"
	"github.com/promoforge/promoforge/internal/storage"
	"github.com/promoforge/promoforge/internal/types"
)

var (
	configFile  string
	userFlag    string
	catalogFile string
	brandFile   string
)

var rootCmd = &cobra.Command{
	Use:   "promoforge",
	Short: "PromoForge - campaign plan execution engine",
	Long: `PromoForge proposes marketing content ideas from a product catalog,
expands an accepted idea into a scored multi-post plan, and durably
executes the plan: image generation, copywriting, review-queue submission.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "promoforge.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user id (defaults to $PROMOFORGE_USER)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "catalog items JSON file")
	rootCmd.PersistentFlags().StringVar(&brandFile, "brand", "", "brand profile JSON file")

	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(configCmd)
}

// app holds the wired engine components for one CLI invocation.
type app struct {
	cfg     *config.Config
	db      *database.DB
	logger  *slog.Logger
	tracer  *sdktrace.TracerProvider
	builder *plan.Builder
	engine  *engine.Engine
	plans   *database.PlanDAO
	queue   *queue.SQLiteQueue
}

// newApp loads config and wires every component. Callers must Close.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	tracer := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracer)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Health(ctx); err != nil {
		db.Close()
		return nil, err
	}

	model, err := providers.New(cfg.Model)
	if err != nil {
		db.Close()
		return nil, err
	}

	catalogStore, err := loadCatalog(catalogFile)
	if err != nil {
		db.Close()
		return nil, err
	}
	brandStore, err := loadBrand(brandFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	artifacts, err := storage.NewDiskStore(cfg.Artifacts.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}

	plans := database.NewPlanDAO(db)
	executions := database.NewExecutionDAO(db)
	recorder := database.NewContentDAO(db)
	reviewQueue := queue.NewSQLiteQueue(db)

	scorer := plan.NewScorer(model, logger)
	builder := plan.NewBuilder(model, catalogStore, plans, scorer,
		plan.WithBuilderLogger(logger),
		plan.WithAdaptiveCost(recorder, cost.AdaptiveConfig{
			PriorMeanMicros: cost.Micros(cfg.Cost.PriorMeanMicros),
			HalfLife:        cfg.Cost.HalfLife,
		}, cfg.Cost.Window),
	)

	pipe := pipeline.New(model, catalogStore, brandStore, artifacts, recorder,
		pipeline.WithLogger(logger),
		pipeline.WithCritic(cfg.Engine.CriticThreshold, cfg.Engine.CriticMaxRetries),
		pipeline.WithStageTimeout(cfg.Engine.StageTimeout),
		pipeline.WithGateRefinement(cfg.Engine.GateRefine),
	)

	copyGen := copywriter.NewLLMGenerator(model, logger)
	runner := engine.NewPostRunner(pipe, catalogStore, brandStore, copyGen, recorder, reviewQueue, logger)

	eng := engine.NewEngine(executions, plans, runner,
		engine.WithEngineLogger(logger),
		engine.WithStepDelay(cfg.Engine.StepDelay),
	)

	return &app{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		tracer:  tracer,
		builder: builder,
		engine:  eng,
		plans:   plans,
		queue:   reviewQueue,
	}, nil
}

func (a *app) Close() {
	if a.tracer != nil {
		a.tracer.Shutdown(context.Background())
	}
	if a.db != nil {
		a.db.Close()
	}
}

// userID resolves the acting user from the flag or environment.
func userID() (types.ID, error) {
	raw := userFlag
	if raw == "" {
		raw = os.Getenv("PROMOFORGE_USER")
	}
	if raw == "" {
		return types.ID(""), fmt.Errorf("no user id: pass --user or set PROMOFORGE_USER")
	}
	return types.ParseID(raw)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadCatalog builds the in-memory catalog store, seeded from a JSON file
// of items when one is given.
func loadCatalog(path string) (*catalog.MemoryStore, error) {
	store := catalog.NewMemoryStore()
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var items []catalog.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	for _, item := range items {
		store.PutItem(item)
	}
	return store, nil
}

// loadBrand builds the in-memory brand store, seeded from a JSON profile
// when one is given.
func loadBrand(path string) (*brand.MemoryStore, error) {
	store := brand.NewMemoryStore()
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read brand file: %w", err)
	}
	var profile brand.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse brand file: %w", err)
	}
	store.PutProfile(profile)
	return store, nil
}

// printJSON renders a result to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
