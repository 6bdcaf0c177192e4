package media

import (
	"context"

	"github.com/oshokin/media-cache/internal/logger"
)

// Notifier delivers user-facing notifications.
type Notifier interface {
	// Notify delivers a single notification.
	Notify(ctx context.Context, notification Notification)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

// NewLogNotifier creates a notifier backed by the process logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs a success at info level and a failure at warn level.
// The item id comes from the context logger of the operation.
func (n *LogNotifier) Notify(ctx context.Context, notification Notification) {
	kvs := []any{
		"operation", notification.Operation,
		"title", notification.Title,
	}

	if notification.Error != "" {
		kvs = append(kvs, "error", notification.Error)
	}

	if notification.Level == NotificationFailure {
		logger.WarnKV(ctx, notification.Message, kvs...)

		return
	}

	logger.InfoKV(ctx, notification.Message, kvs...)
}

// multiNotifier fans a notification out to several notifiers in order.
type multiNotifier []Notifier

// NewMultiNotifier creates a notifier delivering to every non-nil notifier.
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	result := make(multiNotifier, 0, len(notifiers))

	for _, notifier := range notifiers {
		if notifier != nil {
			result = append(result, notifier)
		}
	}

	return result
}

// Notify implements Notifier.
func (m multiNotifier) Notify(ctx context.Context, notification Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, notification)
	}
}

func successNotification(op Operation, item *Item, message string) Notification {
	return Notification{
		Level:     NotificationSuccess,
		Operation: op,
		ItemID:    item.ID,
		Title:     item.Title,
		Message:   message,
	}
}

func failureNotification(op Operation, item *Item, message string, err error) Notification {
	notification := Notification{
		Level:     NotificationFailure,
		Operation: op,
		Message:   message,
	}

	if item != nil {
		notification.ItemID = item.ID
		notification.Title = item.Title
	}

	if err != nil {
		notification.Error = err.Error()
	}

	return notification
}
