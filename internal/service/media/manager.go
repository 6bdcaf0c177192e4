package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oshokin/media-cache/internal/client/catalog"
	"github.com/oshokin/media-cache/internal/logger"
)

// Manager owns the download and removal lifecycle of items.
// It is the only writer of the downloaded flag and of the transfer progress.
type Manager struct {
	// client opens the source streams.
	client catalog.Client
	// store holds the shared state.
	store *Store
	// notifier receives terminal outcomes.
	notifier Notifier
	// stats accumulates the session counters.
	stats *SessionStatistics
	// downloadTimeout bounds a single transfer, 0 disables it.
	downloadTimeout time.Duration
	// speedLimit caps the transfer rate in bytes per second, 0 disables it.
	speedLimit int64
	// progressStep is the minimum percent delta between two progress events.
	progressStep int
}

// ManagerSettings are the tunables of a Manager.
type ManagerSettings struct {
	// DownloadTimeout bounds a single transfer, 0 disables it.
	DownloadTimeout time.Duration
	// SpeedLimit caps the transfer rate in bytes per second, 0 disables it.
	SpeedLimit int64
	// ProgressStep is the minimum percent delta between two progress events.
	ProgressStep int
}

// NewManager creates a lifecycle manager.
func NewManager(
	client catalog.Client,
	store *Store,
	notifier Notifier,
	stats *SessionStatistics,
	settings ManagerSettings,
) *Manager {
	if notifier == nil {
		notifier = NewMultiNotifier()
	}

	if stats == nil {
		stats = NewSessionStatistics()
	}

	return &Manager{
		client:          client,
		store:           store,
		notifier:        notifier,
		stats:           stats,
		downloadTimeout: settings.DownloadTimeout,
		speedLimit:      settings.SpeedLimit,
		progressStep:    settings.ProgressStep,
	}
}

// StartDownload transfers the source video of id to its local path and blocks until
// the transfer reached a terminal state. A second call for the same id while the first
// one is in flight fails at once with ErrOperationInProgress, so one transfer runs at most.
// On failure the item returns to not downloaded and no file is left at the local path.
func (m *Manager) StartDownload(ctx context.Context, id string) error {
	ctx = logger.WithKV(ctx, "item_id", id)

	transferCtx, cancel := m.transferContext(ctx)
	defer cancel()

	item, err := m.store.begin(id, OperationDownload, cancel)
	if err != nil {
		return newOperationError(OperationDownload, &Item{ID: id, Title: item.Title}, nil, err)
	}

	logger.Infof(ctx, "Downloading '%s' to '%s'", item.Title, item.LocalPath)

	bytesWritten, err := m.download(transferCtx, &item)
	if err != nil {
		m.store.end(id, OperationDownload, false)

		return m.downloadFailed(ctx, &item, err)
	}

	m.store.end(id, OperationDownload, true)
	m.stats.recordSuccess(OperationDownload, bytesWritten)
	m.notifier.Notify(ctx, successNotification(OperationDownload, &item, fmt.Sprintf(messageDownloaded, item.Title)))

	return nil
}

// RemoveDownload deletes the local copy of id. When the deletion fails, for example
// because the file was already removed externally, the downloaded flag is left as is.
func (m *Manager) RemoveDownload(ctx context.Context, id string) error {
	ctx = logger.WithKV(ctx, "item_id", id)

	item, err := m.store.begin(id, OperationRemove, nil)
	if err != nil {
		return newOperationError(OperationRemove, &Item{ID: id, Title: item.Title}, nil, err)
	}

	if err = os.Remove(item.LocalPath); err != nil {
		m.store.end(id, OperationRemove, false)

		opErr := newOperationError(OperationRemove, &item, ErrRemoval, err)

		logger.Errorf(ctx, "Failed to remove '%s': %v", item.LocalPath, err)
		m.stats.recordFailure(opErr)
		m.notifier.Notify(ctx, failureNotification(OperationRemove, &item, messageRemoveFailed, err))

		return opErr
	}

	m.store.end(id, OperationRemove, true)
	m.stats.recordSuccess(OperationRemove, 0)
	m.notifier.Notify(ctx, successNotification(OperationRemove, &item, fmt.Sprintf(messageRemoved, item.Title)))

	return nil
}

// CancelDownload aborts the in-flight download of id.
// The download then ends like any failed transfer.
func (m *Manager) CancelDownload(_ context.Context, id string) error {
	if err := m.store.cancel(id); err != nil {
		item, _ := m.store.Item(id)

		return newOperationError(OperationDownload, &Item{ID: id, Title: item.Title}, nil, err)
	}

	return nil
}

func (m *Manager) transferContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.downloadTimeout > 0 {
		return context.WithTimeout(ctx, m.downloadTimeout)
	}

	return context.WithCancel(ctx)
}

func (m *Manager) download(ctx context.Context, item *Item) (int64, error) {
	stream, err := m.client.OpenStream(ctx, item.SourceURL)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream: %w", err)
	}

	defer stream.Body.Close() //nolint:errcheck // Error on close is not critical here.

	tracker := newProgressTracker(stream.TotalBytes, m.progressStep, func(percent int) {
		m.store.setProgress(item.ID, percent)
	})

	return transferToFile(ctx, &transferRequest{
		stream:          stream,
		destinationPath: item.LocalPath,
		speedLimit:      m.speedLimit,
		progress:        tracker,
	})
}

func (m *Manager) downloadFailed(ctx context.Context, item *Item, err error) error {
	opErr := newOperationError(OperationDownload, item, ErrTransfer, err)

	message := messageDownloadFailed

	switch {
	case isCanceled(err) && ctx.Err() == nil:
		// Only the transfer context was canceled: an explicit cancel request.
		message = messageDownloadCancel

		logger.Infof(ctx, "Download of '%s' canceled", item.Title)
	case isCanceled(err):
		logger.Infof(ctx, "Download of '%s' interrupted", item.Title)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Errorf(ctx, "Download of '%s' timed out after %s", item.Title, m.downloadTimeout)
	default:
		logger.Errorf(ctx, "Download of '%s' failed: %v", item.Title, err)
	}

	m.stats.recordFailure(opErr)
	m.notifier.Notify(ctx, failureNotification(OperationDownload, item, message, err))

	return opErr
}
