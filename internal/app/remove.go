package app

import (
	"context"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/service/media"
)

// ExecuteRemoveCommand deletes the local copies of the given items.
func ExecuteRemoveCommand(ctx context.Context, cfg *config.Config, ids []string) {
	service := loadService(ctx, cfg)
	defer finish(ctx, service)

	removeItems(ctx, service, ids)
}

func removeItems(ctx context.Context, service media.Service, ids []string) {
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}

		err := service.RemoveDownload(ctx, id)
		if err != nil && media.IsRejected(err) {
			logger.Warnf(ctx, "Skipping item %s: %v", id, err)
		}
	}
}
