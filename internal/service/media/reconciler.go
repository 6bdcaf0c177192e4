package media

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/media-cache/internal/client/catalog"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/utils"
)

// ExistenceChecker reports whether a complete local copy exists at path.
type ExistenceChecker func(path string) (bool, error)

// Reconciler combines catalog entries with the state of the filesystem.
type Reconciler struct {
	// resolver maps titles to local paths.
	resolver PathResolver
	// exists checks a single local path.
	exists ExistenceChecker
	// maxConcurrent bounds the number of parallel checks.
	maxConcurrent int
	// stats receives failed checks, may be nil.
	stats *SessionStatistics
}

// NewReconciler creates a reconciler. A nil checker checks for a non-empty regular file.
func NewReconciler(
	resolver PathResolver,
	exists ExistenceChecker,
	maxConcurrent int,
	stats *SessionStatistics,
) *Reconciler {
	if exists == nil {
		exists = utils.IsNonEmptyFile
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Reconciler{
		resolver:      resolver,
		exists:        exists,
		maxConcurrent: maxConcurrent,
		stats:         stats,
	}
}

// Reconcile resolves the local path of every entry and checks it concurrently.
// The result keeps the catalog order and is returned only once every check finished.
// A failed check marks the item as not downloaded; only cancellation fails the whole call.
func (r *Reconciler) Reconcile(ctx context.Context, entries []*catalog.Entry) ([]Item, error) {
	items := make([]Item, len(entries))

	group := new(errgroup.Group)
	group.SetLimit(r.maxConcurrent)

	for i, entry := range entries {
		items[i] = Item{
			ID:           entry.ID,
			Title:        entry.Title,
			Description:  entry.Description,
			ThumbnailURL: entry.ThumbnailURL,
			SourceURL:    entry.SourceURL,
			LocalPath:    r.resolver.Resolve(entry.Title),
		}

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			items[i].Downloaded = r.check(ctx, &items[i])

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("reconciliation interrupted: %w", err)
	}

	return items, nil
}

// check never claims an item is available when its status is unknown.
func (r *Reconciler) check(ctx context.Context, item *Item) bool {
	exists, err := r.exists(item.LocalPath)
	if err == nil {
		return exists
	}

	opErr := newOperationError(OperationCheck, item, ErrExistenceCheck, err)

	logger.WarnKV(ctx, "Existence check failed, treating item as not downloaded",
		"item_id", item.ID,
		"path", item.LocalPath,
		"error", err)

	if r.stats != nil {
		r.stats.recordFailure(opErr)
	}

	return false
}
