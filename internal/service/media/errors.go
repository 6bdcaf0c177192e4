package media

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCatalogFetch indicates that the catalog could not be fetched or parsed.
	ErrCatalogFetch = errors.New("catalog fetch failed")
	// ErrExistenceCheck indicates that the local copy of an item could not be checked.
	ErrExistenceCheck = errors.New("existence check failed")
	// ErrTransfer indicates that a download failed.
	ErrTransfer = errors.New("transfer failed")
	// ErrRemoval indicates that a local copy could not be deleted.
	ErrRemoval = errors.New("removal failed")
	// ErrPlayback indicates that the player could not open the local copy.
	ErrPlayback = errors.New("playback failed")
	// ErrItemNotFound indicates that the id is not part of the loaded catalog.
	ErrItemNotFound = errors.New("item not found")
	// ErrAlreadyDownloaded indicates a download request for an item that is already cached.
	ErrAlreadyDownloaded = errors.New("item is already downloaded")
	// ErrNotDownloaded indicates a remove or play request for an item that is not cached.
	ErrNotDownloaded = errors.New("item is not downloaded")
	// ErrOperationInProgress indicates that another operation holds the item.
	ErrOperationInProgress = errors.New("operation already in progress")
	// ErrNotInProgress indicates a cancel request for an item without a running download.
	ErrNotInProgress = errors.New("no download in progress")
	// ErrIncompleteDownload indicates that fewer bytes than announced were received.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrEmptyDownload indicates that the source delivered no data.
	ErrEmptyDownload = errors.New("empty download")
	// ErrCatalogNotLoaded indicates an item request before a successful catalog load.
	ErrCatalogNotLoaded = errors.New("catalog is not loaded")
)

// OperationError names the item and the operation a failure belongs to.
type OperationError struct {
	// Op is the failed operation.
	Op Operation
	// ItemID is the affected item, empty for catalog loads.
	ItemID string
	// ItemTitle is the title of the affected item.
	ItemTitle string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	if e.ItemTitle == "" {
		return fmt.Sprintf("%s item %s: %v", e.Op, e.ItemID, e.Err)
	}

	return fmt.Sprintf("%s '%s' (id %s): %v", e.Op, e.ItemTitle, e.ItemID, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

func newOperationError(op Operation, item *Item, kind, cause error) *OperationError {
	opErr := &OperationError{Op: op, Err: cause}

	if kind != nil {
		opErr.Err = fmt.Errorf("%w: %w", kind, cause)
	}

	if item != nil {
		opErr.ItemID = item.ID
		opErr.ItemTitle = item.Title
	}

	return opErr
}

// isCanceled reports whether err was caused by a canceled context.
// Those are expected during shutdown and are not logged as errors.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
