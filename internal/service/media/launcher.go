package media

import (
	"context"

	"github.com/oshokin/media-cache/internal/logger"
)

// Launcher hands downloaded items to the player. It trusts the downloaded flag
// and does not check the file again: a file removed behind our back surfaces as
// a playback failure and is corrected by the next reconciliation.
type Launcher struct {
	store    *Store
	player   Player
	notifier Notifier
	stats    *SessionStatistics
}

// NewLauncher creates a playback launcher.
func NewLauncher(store *Store, player Player, notifier Notifier, stats *SessionStatistics) *Launcher {
	if notifier == nil {
		notifier = NewMultiNotifier()
	}

	if stats == nil {
		stats = NewSessionStatistics()
	}

	return &Launcher{
		store:    store,
		player:   player,
		notifier: notifier,
		stats:    stats,
	}
}

// Play opens the local copy of id in the player.
// An item whose file is being removed is rejected with ErrOperationInProgress.
func (l *Launcher) Play(ctx context.Context, id string) error {
	ctx = logger.WithKV(ctx, "item_id", id)

	item, ok := l.store.Item(id)
	if !ok {
		err := ErrItemNotFound
		if !l.store.Loaded() {
			err = ErrCatalogNotLoaded
		}

		return newOperationError(OperationPlay, &Item{ID: id}, nil, err)
	}

	if item.State == StateRemoving {
		return newOperationError(OperationPlay, &item, nil, ErrOperationInProgress)
	}

	if !item.Downloaded {
		l.notifier.Notify(ctx, failureNotification(OperationPlay, &item, messageDownloadFirst, nil))

		return newOperationError(OperationPlay, &item, nil, ErrNotDownloaded)
	}

	uri := FileURI(item.LocalPath)

	logger.Infof(ctx, "Playing '%s' from %s", item.Title, uri)

	if err := l.player.Open(ctx, uri); err != nil {
		opErr := newOperationError(OperationPlay, &item, ErrPlayback, err)

		if !isCanceled(err) {
			logger.Errorf(ctx, "Failed to play '%s': %v", item.Title, err)
		}

		l.stats.recordFailure(opErr)
		l.notifier.Notify(ctx, failureNotification(OperationPlay, &item, messagePlaybackFailed, err))

		return opErr
	}

	l.stats.recordSuccess(OperationPlay, 0)

	return nil
}
