// Package app builds the services shared by the server and the CLI from
// configuration.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/stockbox/backend/config"
	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/infrastructure/archive"
	"github.com/stockbox/backend/internal/infrastructure/gemini"
	"github.com/stockbox/backend/internal/infrastructure/store"
	"github.com/stockbox/backend/internal/usecase"
)

// App holds the wired services and the resources they own.
type App struct {
	Pipeline  *usecase.PipelineService
	Inventory *usecase.InventoryService
	closers   []func() error
}

// New wires the model client, repository, optional archive and services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	repo, err := a.openRepository(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var imageArchive domain.ImageArchive
	if cfg.Archive.Enabled {
		s3Archive, err := archive.NewS3Archive(ctx, archive.Options{
			Bucket:        cfg.Archive.Bucket,
			Endpoint:      cfg.Archive.Endpoint,
			Region:        cfg.Archive.Region,
			AccessKey:     cfg.Archive.AccessKey,
			SecretKey:     cfg.Archive.SecretKey,
			PublicBaseURL: cfg.Archive.PublicBaseURL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		imageArchive = s3Archive
		log.Printf("Archive: uploads stored in bucket %q", cfg.Archive.Bucket)
	}

	a.Pipeline = usecase.NewPipelineService(NewGeminiClient(cfg), repo, imageArchive, PipelineConfig(cfg))
	a.Inventory = usecase.NewInventoryService(repo)
	return a, nil
}

// Close releases the resources opened by New.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) openRepository(ctx context.Context, cfg config.DatabaseConfig) (domain.InventoryRepository, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := store.OpenPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		log.Printf("Store: postgres")
		return store.NewPostgresRepository(db), nil
	case "memory", "":
		log.Printf("Store: in-memory (lists are lost on restart)")
		return store.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewGeminiClient builds the model client from configuration.
func NewGeminiClient(cfg *config.Config) *gemini.Client {
	client := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model)
	client.SetTimeout(cfg.Gemini.Timeout)
	client.SetRequestsPerMinute(cfg.Gemini.RequestsPerMinute)

	policy := gemini.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Retry.MaxAttempts
	if cfg.Retry.BaseDelay > 0 {
		policy.Backoff = gemini.LinearBackoff(cfg.Retry.BaseDelay)
	}
	client.SetRetryPolicy(policy)

	// Enable debug mode in development environment
	if cfg.IsDevelopment() {
		client.SetDebug(true)
		log.Printf("Gemini client debug mode enabled")
	}

	if cfg.Gemini.APIKey != "" {
		log.Printf("Gemini API configured: model %s", cfg.Gemini.Model)
	} else {
		log.Printf("WARNING: Gemini API key NOT CONFIGURED - AI-backed calls will fail")
	}
	return client
}

// PipelineConfig maps configuration onto the pipeline defaults.
func PipelineConfig(cfg *config.Config) usecase.PipelineConfig {
	return usecase.PipelineConfig{
		Stores:          cfg.Stores,
		FallbackItems:   cfg.Pipeline.FallbackItems,
		TargetInventory: cfg.Pipeline.TargetInventory,
		PriceSearchOnly: cfg.Pipeline.PriceSearchOnly,
		Generation: domain.GenerationConfig{
			Model:           cfg.Gemini.Model,
			Temperature:     cfg.Gemini.Temperature,
			TopK:            cfg.Gemini.TopK,
			TopP:            cfg.Gemini.TopP,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		},
	}
}
