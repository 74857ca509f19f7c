// Package bootstrap wires infrastructure into the use cases shared by the
// api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ratatutor/backend/internal/config"
	"github.com/ratatutor/backend/internal/core/ports"
	"github.com/ratatutor/backend/internal/core/usecase"
	"github.com/ratatutor/backend/internal/infrastructure/chunking"
	"github.com/ratatutor/backend/internal/infrastructure/extractor/office"
	"github.com/ratatutor/backend/internal/infrastructure/llm/openrouter"
	"github.com/ratatutor/backend/internal/infrastructure/queue/nats"
	"github.com/ratatutor/backend/internal/infrastructure/repository/postgres"
	"github.com/ratatutor/backend/internal/infrastructure/resilience"
	"github.com/ratatutor/backend/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	MaterialUC  ports.MaterialService
	TutorUC     ports.TutorService
	GenerateUC  ports.GenerationService
	PreflightUC ports.AttachmentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	materials := postgres.NewMaterialRepository(db)
	conversations := postgres.NewConversationRepository(db)
	content := postgres.NewContentRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	model := openrouter.New(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, openrouter.Options{
		CallTimeout:        time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		RequestsPerMinute:  cfg.LLMRequestsPerMinute,
		ResilienceExecutor: executor,
	})

	extractor := office.NewExtractor(storage)
	chunker := chunking.NewSplitter(cfg.ChunkSize)
	materialText := usecase.NewMaterialText(extractor, chunker, cfg.WholeDocLimit, cfg.ExcerptChunks)

	materialUC := usecase.NewMaterialUseCase(materials, storage, queue)
	tutorUC := usecase.NewTutorUseCase(conversations, materials, materialText, model, cfg.LLMMaxTokens)
	generateUC := usecase.NewGenerateUseCase(materials, content, materialText, model, cfg.LLMMaxTokens)
	preflightUC := usecase.NewPreflightUseCase(materials, extractor)

	return &App{
		Config: cfg,

		Queue:       queue,
		MaterialUC:  materialUC,
		TutorUC:     tutorUC,
		GenerateUC:  generateUC,
		PreflightUC: preflightUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
