package app

import (
	"context"
	"fmt"

	"github.com/oshokin/media-cache/internal/client/catalog"
	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/service/media"
)

// newService builds the media service for cfg.
func newService(cfg *config.Config) (*media.ServiceImpl, error) {
	catalogClient, err := catalog.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog client: %w", err)
	}

	service, err := media.NewService(cfg, catalogClient, media.NewExecPlayer(cfg.ParsedPlayerCommand))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media service: %w", err)
	}

	return service, nil
}

// loadService builds the media service and loads the catalog. Any failure is fatal.
func loadService(ctx context.Context, cfg *config.Config) *media.ServiceImpl {
	service, err := newService(cfg)
	if err != nil {
		logger.Fatalf(ctx, "%v", err)
	}

	if _, err = service.Load(ctx); err != nil {
		service.Close()
		logger.Fatalf(ctx, "Failed to load catalog: %v", err)
	}

	return service
}

// finish prints the session summary, also after a panic.
func finish(ctx context.Context, service media.Service) {
	if r := recover(); r != nil {
		logger.Errorf(ctx, "Panic recovered: %v", r)
	}

	service.PrintSummary(ctx)
	service.Close()
}
