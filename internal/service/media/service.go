package media

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/oshokin/media-cache/internal/client/catalog"
	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
)

// Service is the entry point used by the command line and the HTTP API.
type Service interface {
	// Load fetches the catalog, reconciles it with the filesystem and publishes the result.
	Load(ctx context.Context) ([]Item, error)
	// Items returns the current item set in catalog order.
	Items() []Item
	// Item returns a single item.
	Item(id string) (Item, error)
	// Progress returns the percent of every in-flight download that reported progress.
	Progress() map[string]int
	// StartDownload downloads an item and blocks until the transfer ends.
	StartDownload(ctx context.Context, id string) error
	// RemoveDownload deletes the local copy of an item.
	RemoveDownload(ctx context.Context, id string) error
	// CancelDownload aborts the in-flight download of an item.
	CancelDownload(ctx context.Context, id string) error
	// Play hands the local copy of an item to the player.
	Play(ctx context.Context, id string) error
	// Subscribe returns a channel of state events and a function ending the subscription.
	Subscribe() (<-chan Event, func())
	// Statistics returns the session counters.
	Statistics() Statistics
	// PrintSummary logs the session summary.
	PrintSummary(ctx context.Context)
	// Close ends every subscription.
	Close()
}

// ServiceImpl wires the resolver, the reconciler, the manager and the launcher around one Store.
type ServiceImpl struct {
	// client fetches the catalog.
	client catalog.Client
	// store holds the shared state.
	store *Store
	// reconciler builds the item set after a catalog fetch.
	reconciler *Reconciler
	// manager runs downloads and removals.
	manager *Manager
	// launcher starts playback.
	launcher *Launcher
	// notifier receives every user-facing notification.
	notifier Notifier
	// stats accumulates the session counters.
	stats *SessionStatistics
	// loadGroup collapses concurrent catalog loads into one.
	loadGroup singleflight.Group
}

// serviceOptions holds the optional collaborators of a ServiceImpl.
type serviceOptions struct {
	existenceChecker ExistenceChecker
	notifiers        []Notifier
	resolver         PathResolver
}

// Option customizes a ServiceImpl.
type Option func(*serviceOptions)

// WithExistenceChecker replaces the filesystem check used during reconciliation.
func WithExistenceChecker(checker ExistenceChecker) Option {
	return func(o *serviceOptions) {
		o.existenceChecker = checker
	}
}

// WithNotifier adds a notifier next to the log and the store subscribers.
func WithNotifier(notifier Notifier) Option {
	return func(o *serviceOptions) {
		o.notifiers = append(o.notifiers, notifier)
	}
}

// WithPathResolver replaces the resolver built from the configuration.
func WithPathResolver(resolver PathResolver) Option {
	return func(o *serviceOptions) {
		o.resolver = resolver
	}
}

// loadKey is the single flight key of catalog loads.
const loadKey = "catalog"

// NewService creates the media service.
func NewService(cfg *config.Config, client catalog.Client, player Player, opts ...Option) (*ServiceImpl, error) {
	options := new(serviceOptions)
	for _, opt := range opts {
		opt(options)
	}

	resolver := options.resolver
	if resolver == nil {
		pathResolver, err := NewPathResolver(cfg)
		if err != nil {
			return nil, err
		}

		resolver = pathResolver
	}

	var (
		store    = NewStore()
		stats    = NewSessionStatistics()
		notifier = NewMultiNotifier(append([]Notifier{NewLogNotifier(), store}, options.notifiers...)...)
	)

	return &ServiceImpl{
		client:     client,
		store:      store,
		reconciler: NewReconciler(resolver, options.existenceChecker, int(cfg.MaxConcurrentChecks), stats),
		manager: NewManager(client, store, notifier, stats, ManagerSettings{
			DownloadTimeout: cfg.ParsedDownloadTimeout,
			SpeedLimit:      cfg.ParsedDownloadSpeedLimit,
			ProgressStep:    int(cfg.ProgressStep),
		}),
		launcher: NewLauncher(store, player, notifier, stats),
		notifier: notifier,
		stats:    stats,
	}, nil
}

// Load fetches and reconciles the catalog. Concurrent calls share one fetch.
// On failure the item set is cleared, a blocking error is returned and a
// failure notification is published.
func (s *ServiceImpl) Load(ctx context.Context) ([]Item, error) {
	result, err, _ := s.loadGroup.Do(loadKey, func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}

	items, _ := result.([]Item)

	return slices.Clone(items), nil
}

func (s *ServiceImpl) load(ctx context.Context) ([]Item, error) {
	logger.Infof(ctx, "Loading catalog from %s", s.client.GetCatalogURL())

	entries, err := s.client.FetchCatalog(ctx)
	if err != nil {
		return nil, s.loadFailed(ctx, newOperationError(OperationLoad, nil, ErrCatalogFetch, err))
	}

	generations := s.store.Generations()

	items, err := s.reconciler.Reconcile(ctx, entries)
	if err != nil {
		return nil, s.loadFailed(ctx, newOperationError(OperationLoad, nil, nil, err))
	}

	s.store.ReplaceSince(items, generations)

	logger.Infof(ctx, "Catalog loaded: %d items", len(items))

	return s.store.Items(), nil
}

func (s *ServiceImpl) loadFailed(ctx context.Context, opErr *OperationError) error {
	s.store.Fail(opErr)
	s.stats.recordFailure(opErr)

	if !isCanceled(opErr) {
		logger.Errorf(ctx, "Failed to load catalog: %v", opErr.Err)
	}

	s.notifier.Notify(ctx, failureNotification(OperationLoad, nil, messageLoadFailed, opErr.Err))

	return opErr
}

// Items returns the current item set in catalog order.
func (s *ServiceImpl) Items() []Item {
	return s.store.Items()
}

// Item returns a single item.
func (s *ServiceImpl) Item(id string) (Item, error) {
	item, ok := s.store.Item(id)
	if ok {
		return item, nil
	}

	if !s.store.Loaded() {
		return Item{}, ErrCatalogNotLoaded
	}

	return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Progress returns the percent of every in-flight download that reported progress.
func (s *ServiceImpl) Progress() map[string]int {
	return s.store.Progress()
}

// StartDownload downloads an item and blocks until the transfer ends.
func (s *ServiceImpl) StartDownload(ctx context.Context, id string) error {
	return s.manager.StartDownload(ctx, id)
}

// RemoveDownload deletes the local copy of an item.
func (s *ServiceImpl) RemoveDownload(ctx context.Context, id string) error {
	return s.manager.RemoveDownload(ctx, id)
}

// CancelDownload aborts the in-flight download of an item.
func (s *ServiceImpl) CancelDownload(ctx context.Context, id string) error {
	return s.manager.CancelDownload(ctx, id)
}

// Play hands the local copy of an item to the player.
func (s *ServiceImpl) Play(ctx context.Context, id string) error {
	return s.launcher.Play(ctx, id)
}

// Subscribe returns a channel of state events and a function ending the subscription.
func (s *ServiceImpl) Subscribe() (<-chan Event, func()) {
	return s.store.Subscribe()
}

// Statistics returns the session counters.
func (s *ServiceImpl) Statistics() Statistics {
	return s.stats.Snapshot()
}

// PrintSummary logs the session summary.
func (s *ServiceImpl) PrintSummary(ctx context.Context) {
	s.stats.PrintSummary(ctx)
}

// Close ends every subscription.
func (s *ServiceImpl) Close() {
	s.store.Close()
}

// IsRejected reports whether err is a precondition failure rather than a failed operation:
// the item is unknown, busy, or not in the state the operation requires.
func IsRejected(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrCatalogNotLoaded) ||
		errors.Is(err, ErrOperationInProgress) ||
		errors.Is(err, ErrAlreadyDownloaded) ||
		errors.Is(err, ErrNotDownloaded) ||
		errors.Is(err, ErrNotInProgress)
}
