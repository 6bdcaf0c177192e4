package media

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// subscriberBufferSize is the number of events a subscriber may lag behind before events are dropped.
const subscriberBufferSize = 64

// Store is the shared cache state: the reconciled item set, the per-item busy
// markers and the transfer progress. Readers always get copies, so they see
// either the state before or after a change, never a half-updated item.
// Every change is published to subscribers while the lock is held, which keeps
// the event order identical to the order of the changes.
type Store struct {
	mu sync.RWMutex
	// records holds the item set keyed by id; dynamic fields are kept apart.
	records map[string]*Item
	// order is the catalog order of the ids.
	order []string
	// loaded is set once a catalog load succeeded.
	loaded bool
	// lastErr is the error of the last failed catalog load.
	lastErr error
	// progress holds the transfer percent of in-flight downloads.
	progress map[string]int
	// busy holds the operation currently owning an id.
	busy map[string]*busyMarker
	// generations counts the successful operations per id.
	generations Generations
	// subscribers receive every published event.
	subscribers map[chan Event]struct{}
	// closed is set once Close was called.
	closed bool
}

// busyMarker is the per-id exclusive lock of an operation.
type busyMarker struct {
	// op is the operation holding the id.
	op Operation
	// cancel aborts the operation, nil if it cannot be canceled.
	cancel context.CancelFunc
}

// Generations maps an id to the number of successful operations that changed its downloaded flag.
type Generations map[string]uint64

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records:     make(map[string]*Item),
		progress:    make(map[string]int),
		busy:        make(map[string]*busyMarker),
		generations: make(Generations),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Replace atomically swaps the item set for a freshly reconciled one.
// In-flight operations keep their busy markers, progress and downloaded flag.
func (s *Store) Replace(items []Item) {
	s.ReplaceSince(items, nil)
}

// ReplaceSince is Replace for an item set reconciled after generations was taken.
// An id changed by an operation since then keeps its current downloaded flag,
// because the reconciled value may predate that change. A nil generations skips the check.
func (s *Store) ReplaceSince(items []Item, generations Generations) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]*Item, len(items))
	order := make([]string, 0, len(items))

	for i := range items {
		record := items[i]
		record.State = ""
		record.Progress = 0

		if current, ok := s.records[record.ID]; ok && s.changedLocked(record.ID, generations) {
			record.Downloaded = current.Downloaded
		}

		records[record.ID] = &record
		order = append(order, record.ID)
	}

	s.records = records
	s.order = order
	s.loaded = true
	s.lastErr = nil

	s.publishLocked(Event{Kind: EventCatalogLoaded, Count: len(order)})
}

// Generations returns a snapshot of the per-id operation counters.
func (s *Store) Generations() Generations {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.generations)
}

// Fail records a failed catalog load. No stale items are kept.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Item)
	s.order = nil
	s.loaded = false
	s.lastErr = err

	event := Event{Kind: EventCatalogFailed}
	if err != nil {
		event.Error = err.Error()
	}

	s.publishLocked(event)
}

// Loaded reports whether a catalog load succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// Err returns the error of the last failed catalog load.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

// Items returns a copy of the item set in catalog order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.viewLocked(id))
	}

	return items
}

// Item returns a copy of a single item.
func (s *Store) Item(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.records[id]; !ok {
		return Item{}, false
	}

	return s.viewLocked(id), true
}

// Progress returns the percent of every in-flight download that reported progress.
func (s *Store) Progress() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	progress := make(map[string]int, len(s.progress))
	for id, percent := range s.progress {
		if percent > 0 {
			progress[id] = percent
		}
	}

	return progress
}

// Busy returns the ids currently held by an operation, sorted.
func (s *Store) Busy() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.busy))
	for id := range s.busy {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// begin checks the preconditions of op and marks id busy.
func (s *Store) begin(id string, op Operation, cancel context.CancelFunc) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		if !s.loaded {
			return Item{}, ErrCatalogNotLoaded
		}

		return Item{}, ErrItemNotFound
	}

	if _, isBusy := s.busy[id]; isBusy {
		return s.viewLocked(id), ErrOperationInProgress
	}

	switch {
	case op == OperationDownload && record.Downloaded:
		return s.viewLocked(id), ErrAlreadyDownloaded
	case op == OperationRemove && !record.Downloaded:
		return s.viewLocked(id), ErrNotDownloaded
	}

	s.busy[id] = &busyMarker{op: op, cancel: cancel}
	delete(s.progress, id)

	item := s.viewLocked(id)
	s.publishLocked(Event{Kind: EventStateChanged, ItemID: id, Item: &item})

	return item, nil
}

// setProgress records the transfer percent of an in-flight download.
func (s *Store) setProgress(id string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marker, ok := s.busy[id]
	if !ok || marker.op != OperationDownload {
		return
	}

	s.progress[id] = percent

	event := Event{Kind: EventProgress, ItemID: id, Progress: percent}

	if _, exists := s.records[id]; exists {
		item := s.viewLocked(id)
		event.Item = &item
	}

	s.publishLocked(event)
}

// end releases id and, when the operation succeeded, applies its outcome
// to the downloaded flag. Progress is cleared in every case.
func (s *Store) end(id string, op Operation, succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.busy, id)
	delete(s.progress, id)

	record, ok := s.records[id]
	if !ok {
		// The catalog was reloaded without this item meanwhile.
		return
	}

	if succeeded {
		s.generations[id]++

		switch op {
		case OperationDownload:
			record.Downloaded = true
		case OperationRemove:
			record.Downloaded = false
		case OperationLoad, OperationCheck, OperationPlay:
		}
	}

	item := s.viewLocked(id)
	s.publishLocked(Event{Kind: EventStateChanged, ItemID: id, Item: &item})
}

// cancel aborts the in-flight download of id.
func (s *Store) cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marker, ok := s.busy[id]
	if !ok || marker.op != OperationDownload || marker.cancel == nil {
		return ErrNotInProgress
	}

	marker.cancel()

	return nil
}

// Notify publishes a notification event. Store implements Notifier.
func (s *Store) Notify(_ context.Context, notification Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.publishLocked(Event{Kind: EventNotification, ItemID: notification.ItemID, Notification: &notification})
}

// Subscribe returns a channel of events and a function to stop the subscription.
// A subscriber that falls behind loses events instead of blocking the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBufferSize)

	s.mu.Lock()

	if s.closed {
		close(ch)
		s.mu.Unlock()

		return ch, func() {}
	}

	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// changedLocked reports whether the downloaded flag of id is owned by an operation
// that is in flight or finished after generations was taken.
func (s *Store) changedLocked(id string, generations Generations) bool {
	if _, isBusy := s.busy[id]; isBusy {
		return true
	}

	return generations != nil && s.generations[id] != generations[id]
}

func (s *Store) viewLocked(id string) Item {
	item := *s.records[id]
	item.Progress = 0

	marker, isBusy := s.busy[id]

	switch {
	case isBusy && marker.op == OperationDownload:
		item.State = StateDownloading
		item.Progress = s.progress[id]
	case isBusy && marker.op == OperationRemove:
		item.State = StateRemoving
	case item.Downloaded:
		item.State = StateDownloaded
	default:
		item.State = StateNotDownloaded
	}

	return item
}

func (s *Store) publishLocked(event Event) {
	if s.closed {
		return
	}

	event.Time = time.Now()

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop the event.
		}
	}
}
