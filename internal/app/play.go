package app

import (
	"context"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/service/media"
)

// ExecutePlayCommand opens the local copy of an item in the configured player.
func ExecutePlayCommand(ctx context.Context, cfg *config.Config, id string) {
	service := loadService(ctx, cfg)
	defer finish(ctx, service)

	playItem(ctx, service, id)
}

func playItem(ctx context.Context, service media.Service, id string) {
	err := service.Play(ctx, id)
	if err != nil && media.IsRejected(err) {
		logger.Warnf(ctx, "Cannot play item %s: %v", id, err)
	}
}
