package app

import (
	"context"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
)

// ExecuteConfigSetCommand writes a single key into the configuration file.
func ExecuteConfigSetCommand(ctx context.Context, configFilename, key, value string) {
	if configFilename == "" {
		configFilename = config.DefaultConfigFilename
	}

	if err := config.SetConfigValue(configFilename, key, value); err != nil {
		logger.Fatalf(ctx, "Failed to update configuration: %v", err)
	}

	logger.Infof(ctx, "Set %s in %s", key, configFilename)
}
