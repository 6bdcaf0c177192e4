package media

import "time"

// ItemState is the lifecycle state of a cached item.
type ItemState string

const (
	// StateNotDownloaded means no local copy exists.
	StateNotDownloaded ItemState = "not_downloaded"
	// StateDownloading means a transfer is in flight.
	StateDownloading ItemState = "downloading"
	// StateDownloaded means a complete local copy exists.
	StateDownloaded ItemState = "downloaded"
	// StateRemoving means the local copy is being deleted.
	StateRemoving ItemState = "removing"
)

// Operation names a user-initiated action on an item.
type Operation string

const (
	// OperationLoad is a catalog load followed by reconciliation.
	OperationLoad Operation = "load"
	// OperationCheck is a single existence check during reconciliation.
	OperationCheck Operation = "check"
	// OperationDownload is a transfer of the source video to the local path.
	OperationDownload Operation = "download"
	// OperationRemove is a deletion of the local copy.
	OperationRemove Operation = "remove"
	// OperationPlay is a hand-off of the local copy to the player.
	OperationPlay Operation = "play"
)

// Item is a catalog entry combined with its local availability.
type Item struct {
	// ID is the catalog identifier.
	ID string `json:"id"`
	// Title is the display title.
	Title string `json:"title"`
	// Description is the free-form description.
	Description string `json:"description"`
	// ThumbnailURL is the preview image URL.
	ThumbnailURL string `json:"thumbnail_url"`
	// SourceURL is the URL the video is downloaded from.
	SourceURL string `json:"source_url"`
	// LocalPath is derived from the title and the platform.
	LocalPath string `json:"local_path"`
	// Downloaded is the cached fact that a complete file exists at LocalPath.
	Downloaded bool `json:"downloaded"`
	// State is the current lifecycle state.
	State ItemState `json:"state"`
	// Progress is the transfer percent while downloading, 0 otherwise.
	Progress int `json:"progress"`
}

// EventKind identifies the type of an Event.
type EventKind string

const (
	// EventCatalogLoaded is published once a reconciled catalog replaced the item set.
	EventCatalogLoaded EventKind = "catalog_loaded"
	// EventCatalogFailed is published when a catalog load failed and the item set was cleared.
	EventCatalogFailed EventKind = "catalog_failed"
	// EventStateChanged is published when an item's state or downloaded flag changed.
	EventStateChanged EventKind = "state_changed"
	// EventProgress is published for throttled transfer progress.
	EventProgress EventKind = "progress"
	// EventNotification is published for every terminal user-facing outcome.
	EventNotification EventKind = "notification"
)

// Event is a single change delivered to Store subscribers.
type Event struct {
	// Kind is the type of the event.
	Kind EventKind `json:"kind"`
	// ItemID is set for item-scoped events.
	ItemID string `json:"item_id,omitempty"`
	// Item is the item after the change.
	Item *Item `json:"item,omitempty"`
	// Progress is the transfer percent of a progress event.
	Progress int `json:"progress,omitempty"`
	// Count is the number of items of a catalog_loaded event.
	Count int `json:"count,omitempty"`
	// Error describes a catalog_failed event.
	Error string `json:"error,omitempty"`
	// Notification is the payload of a notification event.
	Notification *Notification `json:"notification,omitempty"`
	// Time is when the event was published.
	Time time.Time `json:"time"`
}

// NotificationLevel tells whether an operation succeeded.
type NotificationLevel string

const (
	// NotificationSuccess reports a successful operation.
	NotificationSuccess NotificationLevel = "success"
	// NotificationFailure reports a failed operation.
	NotificationFailure NotificationLevel = "failure"
)

// Notification is a discrete user-facing message about a terminal outcome.
type Notification struct {
	// Level is success or failure.
	Level NotificationLevel `json:"level"`
	// Operation is the operation the message is about.
	Operation Operation `json:"operation"`
	// ItemID is the affected item, empty for catalog loads.
	ItemID string `json:"item_id,omitempty"`
	// Title is the title of the affected item.
	Title string `json:"title,omitempty"`
	// Message is the text shown to the user.
	Message string `json:"message"`
	// Error is the underlying failure, if any.
	Error string `json:"error,omitempty"`
}

// Notification texts.
const (
	messageLoadFailed     = "Failed to load videos from API."
	messageRemoved        = "%s has been removed."
	messageRemoveFailed   = "Could not remove the video."
	messageDownloaded     = "%s downloaded."
	messageDownloadFailed = "Download failed."
	messageDownloadCancel = "Download canceled."
	messageDownloadFirst  = "Please download first."
	messagePlaybackFailed = "Cannot play video"
)
