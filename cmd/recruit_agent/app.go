package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/cache"
	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/fetch"
	"github.com/jonathan/talent-pipeline/internal/lifecycle"
	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/notify"
	"github.com/jonathan/talent-pipeline/internal/screening"
)

// app holds the wired components shared by the serve and screen commands.
type app struct {
	store    db.Store
	manager  *lifecycle.Manager
	screener *screening.Service
	closers  []func() error
}

// openStore connects to Postgres, or returns an empty in-memory store.
func openStore(ctx context.Context, cfg *config.Config, memory bool) (db.Store, func() error, error) {
	if memory {
		return db.NewMemoryStore(), func() error { return nil }, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return database, func() error { database.Close(); return nil }, nil
}

// newApp wires storage, the classifier, the extraction cache, the notifier
// and the lifecycle manager from cfg.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, memory bool) (*app, error) {
	a := &app{}

	store, closeStore, err := openStore(ctx, cfg, memory)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	llmConfig := llm.DefaultConfig().
		WithModel(llm.TaskExtraction, cfg.Models.Extraction).
		WithModel(llm.TaskEvaluation, cfg.Models.Evaluation).
		WithModel(llm.TaskJDGeneration, cfg.Models.JDGeneration)
	client, err := llm.NewClient(ctx, llmConfig, cfg.GeminiAPIKey)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	orchestratorOpts := []screening.Option{screening.WithLogger(log)}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		a.closers = append(a.closers, redisCache.Close)
		orchestratorOpts = append(orchestratorOpts, screening.WithExtractionCache(redisCache, cfg.Redis.TTL))
	}

	orchestrator := screening.NewOrchestrator(
		fetch.NewHTTPFetcher(nil),
		screening.NewLLMClassifier(client, log),
		orchestratorOpts...,
	)
	a.screener = screening.NewService(store, orchestrator, log)

	a.manager = lifecycle.NewManager(store,
		lifecycle.WithNotifier(notify.New(cfg.SMTP, log)),
		lifecycle.WithGenerator(lifecycle.NewLLMGenerator(client, log)),
		lifecycle.WithPublicBaseURL(cfg.PublicBaseURL),
		lifecycle.WithLogger(log),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
