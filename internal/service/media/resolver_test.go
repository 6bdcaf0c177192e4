package media

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/media-cache/internal/config"
)

// TestNormalizeTitle tests the NormalizeTitle function.
func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "single words", title: "Essence Mascara Lash Princess", expected: "essence_mascara_lash_princess"},
		{name: "whitespace runs", title: "my \t  video", expected: "my_video"},
		{name: "leading and trailing spaces", title: " clip ", expected: "_clip_"},
		{name: "case folding", title: "ÉCOLE Été", expected: "école_été"},
		{name: "path separators", title: "AC/DC: Live", expected: "ac_dc__live"},
		{name: "reserved name", title: "CON", expected: "_con"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, NormalizeTitle(tt.title))
		})
	}
}

// TestPathResolver_Resolve tests determinism and collisions of resolved paths.
func TestPathResolver_Resolve(t *testing.T) {
	t.Parallel()

	for _, cacheSize := range []int{0, 2} {
		resolver, err := NewPathResolverForDir("/data/external", cacheSize)
		require.NoError(t, err)

		first := resolver.Resolve("My Video")
		assert.Equal(t, filepath.Join("/data/external", "my_video.mp4"), first)
		assert.Equal(t, first, resolver.Resolve("My Video"), "Resolution must be deterministic")
		assert.Equal(t, first, resolver.Resolve("my   video"), "Titles normalizing identically share a path")
		assert.NotEqual(t, first, resolver.Resolve("My Video 2"))

		// Evicted entries resolve to the same path again.
		resolver.Resolve("a")
		resolver.Resolve("b")
		resolver.Resolve("c")
		assert.Equal(t, first, resolver.Resolve("My Video"))
	}
}

// TestPathResolver_Platforms tests that each platform resolves into its own directory.
func TestPathResolver_Platforms(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		DocumentsPath: "/var/mobile/Documents",
		ExternalPath:  "/sdcard/Android/data/app/files",
		PathCacheSize: 8,
	}

	cfg.ParsedPlatform = config.PlatformIOS
	iosResolver, err := NewPathResolver(cfg)
	require.NoError(t, err)

	cfg.ParsedPlatform = config.PlatformAndroid
	androidResolver, err := NewPathResolver(cfg)
	require.NoError(t, err)

	assert.Equal(t, "/var/mobile/Documents/iphone_9.mp4", iosResolver.Resolve("iPhone 9"))
	assert.Equal(t, "/sdcard/Android/data/app/files/iphone_9.mp4", androidResolver.Resolve("iPhone 9"))
	assert.Equal(t, "/var/mobile/Documents", iosResolver.BaseDir())
}

// TestPathResolver_Concurrent tests that concurrent resolution is safe.
func TestPathResolver_Concurrent(t *testing.T) {
	t.Parallel()

	resolver, err := NewPathResolverForDir(t.TempDir(), 4)
	require.NoError(t, err)

	expected := resolver.Resolve("Shared Title")

	var waitGroup sync.WaitGroup

	for range 16 {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			assert.Equal(t, expected, resolver.Resolve("Shared Title"))
			resolver.Resolve("Other Title")
		}()
	}

	waitGroup.Wait()
}
