package media_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/media-cache/internal/service/media"
	mock_media "github.com/oshokin/media-cache/internal/service/media/mocks"
)

type notificationRecorder struct {
	mu            sync.Mutex
	notifications []media.Notification
}

func (r *notificationRecorder) Notify(_ context.Context, notification media.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, notification)
}

func newLauncherSetup(t *testing.T) (*media.Launcher, *mock_media.MockPlayer, *notificationRecorder, *media.SessionStatistics) {
	t.Helper()

	ctrl := gomock.NewController(t)
	player := mock_media.NewMockPlayer(ctrl)

	store := media.NewStore()
	store.Replace([]media.Item{
		{ID: "1", Title: "Cached", LocalPath: "/videos/cached.mp4", Downloaded: true},
		{ID: "2", Title: "Remote", LocalPath: "/videos/remote.mp4"},
	})

	var (
		recorder = new(notificationRecorder)
		stats    = media.NewSessionStatistics()
	)

	return media.NewLauncher(store, player, recorder, stats), player, recorder, stats
}

// TestLauncher_Play tests that a downloaded item is handed to the player as a file URI.
func TestLauncher_Play(t *testing.T) {
	t.Parallel()

	launcher, player, recorder, stats := newLauncherSetup(t)

	player.EXPECT().
		Open(gomock.Any(), media.FileURI("/videos/cached.mp4")).
		Return(nil)

	require.NoError(t, launcher.Play(t.Context(), "1"))
	assert.Empty(t, recorder.notifications)
	assert.Equal(t, int64(1), stats.Snapshot().PlaybacksStarted)
}

// TestLauncher_PlayNotDownloaded tests that the player is never called for a missing copy.
func TestLauncher_PlayNotDownloaded(t *testing.T) {
	t.Parallel()

	launcher, _, recorder, _ := newLauncherSetup(t)

	err := launcher.Play(t.Context(), "2")
	require.ErrorIs(t, err, media.ErrNotDownloaded)

	require.Len(t, recorder.notifications, 1)
	assert.Equal(t, "Please download first.", recorder.notifications[0].Message)
	assert.Equal(t, media.NotificationFailure, recorder.notifications[0].Level)
}

// TestLauncher_PlayerFailure tests that a player error becomes a playback failure.
func TestLauncher_PlayerFailure(t *testing.T) {
	t.Parallel()

	launcher, player, recorder, stats := newLauncherSetup(t)

	playerErr := errors.New("no application knows how to open this file")

	player.EXPECT().
		Open(gomock.Any(), gomock.Any()).
		Return(playerErr)

	err := launcher.Play(t.Context(), "1")
	require.ErrorIs(t, err, media.ErrPlayback)
	require.ErrorIs(t, err, playerErr)

	require.Len(t, recorder.notifications, 1)
	assert.Equal(t, "Cannot play video", recorder.notifications[0].Message)
	assert.Equal(t, int64(1), stats.Snapshot().PlaybacksFailed)
}

// TestLauncher_PlayUnknownItem tests playback of an id outside the catalog.
func TestLauncher_PlayUnknownItem(t *testing.T) {
	t.Parallel()

	launcher, _, recorder, _ := newLauncherSetup(t)

	err := launcher.Play(t.Context(), "99")
	require.ErrorIs(t, err, media.ErrItemNotFound)
	assert.Empty(t, recorder.notifications)

	empty := media.NewLauncher(media.NewStore(), nil, nil, nil)
	require.ErrorIs(t, empty.Play(t.Context(), "1"), media.ErrCatalogNotLoaded)
}
