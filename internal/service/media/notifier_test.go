package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/media-cache/internal/logger"
)

// TestLogNotifier tests the level and the fields of notification log lines.
func TestLogNotifier(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithKV(logger.ToContext(t.Context(), zap.New(core).Sugar()), "item_id", "7")

	item := &Item{ID: "7", Title: "Seventh"}
	notifier := NewLogNotifier()

	notifier.Notify(ctx, successNotification(OperationDownload, item, "Seventh downloaded."))
	notifier.Notify(ctx, failureNotification(OperationRemove, item, messageRemoveFailed, errors.New("permission denied")))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Seventh downloaded.", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "permission denied", entries[1].ContextMap()["error"])

	for _, entry := range entries {
		itemIDs := 0

		for _, field := range entry.Context {
			if field.Key == "item_id" {
				itemIDs++
			}
		}

		assert.Equal(t, 1, itemIDs, "item_id must appear once in %q", entry.Message)
		assert.Equal(t, "Seventh", entry.ContextMap()["title"])
	}
}

// TestMultiNotifier tests fan-out in order and skipping of nil notifiers.
func TestMultiNotifier(t *testing.T) {
	t.Parallel()

	first, second := new(recordingNotifier), new(recordingNotifier)
	notifier := NewMultiNotifier(first, nil, second)

	notifier.Notify(t.Context(), Notification{Level: NotificationSuccess, ItemID: "1", Message: "done"})

	assert.Len(t, first.all(), 1)
	assert.Len(t, second.all(), 1)
}
