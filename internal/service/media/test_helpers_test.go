package media

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/media-cache/internal/client/catalog"
	mock_catalog "github.com/oshokin/media-cache/internal/client/catalog/mocks"
	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/constants"
)

// testSourceURL is the source of every test entry.
const testSourceURL = "https://cdn.example.com/video.mp4"

// testSetup encapsulates common test dependencies.
type testSetup struct {
	ctrl       *gomock.Controller
	mockClient *mock_catalog.MockClient
	store      *Store
	stats      *SessionStatistics
	notifier   *recordingNotifier
	resolver   *PathResolverImpl
	manager    *Manager
	tempDir    string
}

// newTestSetup creates a manager over a temporary directory with optional settings overrides.
func newTestSetup(t *testing.T, overrides ...func(*ManagerSettings)) *testSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	tempDir := t.TempDir()

	resolver, err := NewPathResolverForDir(tempDir, 16)
	require.NoError(t, err)

	settings := ManagerSettings{ProgressStep: 10}
	for _, override := range overrides {
		override(&settings)
	}

	var (
		mockClient = mock_catalog.NewMockClient(ctrl)
		store      = NewStore()
		stats      = NewSessionStatistics()
		notifier   = new(recordingNotifier)
	)

	t.Cleanup(store.Close)

	return &testSetup{
		ctrl:       ctrl,
		mockClient: mockClient,
		store:      store,
		stats:      stats,
		notifier:   notifier,
		resolver:   resolver,
		manager:    NewManager(mockClient, store, NewMultiNotifier(notifier, store), stats, settings),
		tempDir:    tempDir,
	}
}

// seed loads items built from titles into the store. Titles listed in downloaded get a file on disk.
func (s *testSetup) seed(t *testing.T, titles []string, downloaded ...string) []Item {
	t.Helper()

	items := make([]Item, 0, len(titles))

	for i, title := range titles {
		item := Item{
			ID:        strconv.Itoa(i + 1),
			Title:     title,
			SourceURL: testSourceURL,
			LocalPath: s.resolver.Resolve(title),
		}

		for _, name := range downloaded {
			if name == title {
				writeTestFile(t, item.LocalPath, []byte("cached video"))

				item.Downloaded = true
			}
		}

		items = append(items, item)
	}

	s.store.Replace(items)

	return items
}

// testEntries returns count catalog entries titled "Video 1", "Video 2" and so on.
func testEntries(count int) []*catalog.Entry {
	entries := make([]*catalog.Entry, 0, count)

	for i := 1; i <= count; i++ {
		entries = append(entries, &catalog.Entry{
			ID:        strconv.Itoa(i),
			Title:     "Video " + strconv.Itoa(i),
			SourceURL: testSourceURL,
		})
	}

	return entries
}

// newTestConfig returns a valid configuration storing videos in dir.
func newTestConfig(dir string) *config.Config {
	return &config.Config{
		CatalogURL:            "https://dummyjson.com/products",
		CatalogLimit:          5,
		Platform:              string(config.PlatformIOS),
		ParsedPlatform:        config.PlatformIOS,
		DocumentsPath:         dir,
		ExternalPath:          filepath.Join(dir, "external"),
		ParsedDownloadTimeout: 5 * time.Second,
		MaxConcurrentChecks:   4,
		ProgressStep:          10,
		PathCacheSize:         16,
	}
}

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), constants.DefaultFolderPermissions))
	require.NoError(t, os.WriteFile(path, data, constants.DefaultFilePermissions))
}

// listFiles returns the names of every file in dir.
func listFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

// streamOf wraps a reader into a stream of the given announced length.
func streamOf(body io.Reader, totalBytes int64) *catalog.StreamResult {
	return &catalog.StreamResult{
		Body:        io.NopCloser(body),
		TotalBytes:  totalBytes,
		ContentType: "video/mp4",
	}
}

// chunkReader returns data in chunks of chunkSize. It deliberately has no WriteTo,
// so io.Copy reads chunk by chunk.
type chunkReader struct {
	data      []byte
	chunkSize int
	// failAfter makes Read fail once this many bytes were returned; 0 disables it.
	failAfter int
	failErr   error
	offset    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.failAfter > 0 && r.offset >= r.failAfter {
		return 0, r.failErr
	}

	if r.offset >= len(r.data) {
		return 0, io.EOF
	}

	n := min(r.chunkSize, len(p), len(r.data)-r.offset)
	copy(p, r.data[r.offset:r.offset+n])
	r.offset += n

	return n, nil
}

// gatedReader blocks until the gate is opened or its context ends.
type gatedReader struct {
	ctx  context.Context //nolint:containedctx // Mimics an HTTP body bound to its request.
	gate <-chan struct{}
	body *bytes.Reader
}

func newGatedReader(ctx context.Context, gate <-chan struct{}, data []byte) *gatedReader {
	return &gatedReader{ctx: ctx, gate: gate, body: bytes.NewReader(data)}
}

func (r *gatedReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	case <-r.gate:
	}

	return r.body.Read(p)
}

// recordingNotifier keeps every notification it receives.
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Notification(nil), n.notifications...)
}

// drainEvents collects every event already buffered in ch.
func drainEvents(ch <-chan Event) []Event {
	var events []Event

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}

			events = append(events, event)
		default:
			return events
		}
	}
}

// progressValues returns the percent of every progress event.
func progressValues(events []Event) []int {
	var values []int

	for _, event := range events {
		if event.Kind == EventProgress {
			values = append(values, event.Progress)
		}
	}

	return values
}
