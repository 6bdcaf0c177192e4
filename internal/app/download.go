package app

import (
	"context"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/service/media"
	"github.com/oshokin/media-cache/internal/utils"
)

// DownloadOptions selects the items of a download command.
type DownloadOptions struct {
	// IDs are the item ids given on the command line.
	IDs []string
	// InputFile is a text file with one id per line.
	InputFile string
	// All selects every item that is not downloaded yet.
	All bool
}

// ExecuteDownloadCommand downloads the selected items, at most max_concurrent_downloads at once.
func ExecuteDownloadCommand(ctx context.Context, cfg *config.Config, opts DownloadOptions) {
	service := loadService(ctx, cfg)
	defer finish(ctx, service)

	ids, err := collectDownloadIDs(service.Items(), opts)
	if err != nil {
		logger.Errorf(ctx, "Failed to collect ids: %v", err)

		return
	}

	if len(ids) == 0 {
		logger.Info(ctx, "Nothing to download")

		return
	}

	if showProgressBars(cfg) {
		reporter := newProgressReporter(service, os.Stderr)
		defer reporter.Stop()
	}

	downloadItems(ctx, service, ids, int(cfg.MaxConcurrentDownloads))
}

// collectDownloadIDs merges the ids from the command line, the input file and --all,
// keeping the first occurrence of each id.
func collectDownloadIDs(items []media.Item, opts DownloadOptions) ([]string, error) {
	ids := slices.Clone(opts.IDs)

	if opts.InputFile != "" {
		fileIDs, err := utils.ReadUniqueLinesFromFile(opts.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}

		ids = append(ids, fileIDs...)
	}

	if opts.All {
		for i := range items {
			if !items[i].Downloaded {
				ids = append(ids, items[i].ID)
			}
		}
	}

	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}

		result = append(result, id)
	}

	return result, nil
}

// downloadItems runs the downloads with bounded concurrency and waits for all of them.
// Failures are reported by the service; rejected ids are only logged.
func downloadItems(ctx context.Context, service media.Service, ids []string, maxConcurrent int) {
	group := new(errgroup.Group)
	group.SetLimit(max(maxConcurrent, 1))

	for _, id := range ids {
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			err := service.StartDownload(ctx, id)
			if err != nil && media.IsRejected(err) {
				logger.Warnf(ctx, "Skipping item %s: %v", id, err)
			}

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // Workers never return errors.
}

// showProgressBars reports whether progress bars can be drawn without interleaving
// with log lines or other bars.
func showProgressBars(cfg *config.Config) bool {
	return cfg.MaxConcurrentDownloads == 1 &&
		logger.Level() <= zap.InfoLevel &&
		term.IsTerminal(int(os.Stderr.Fd())) //nolint:gosec // File descriptors fit in int.
}
