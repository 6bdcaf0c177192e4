package media

import (
	"fmt"
	"path/filepath"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/constants"
	"github.com/oshokin/media-cache/internal/utils"
)

// PathResolver maps a title to the local file path of its video.
type PathResolver interface {
	// Resolve returns the local path for title. Same title, same path.
	Resolve(title string) string
	// BaseDir returns the directory every path is resolved into.
	BaseDir() string
}

// PathResolverImpl resolves titles for one platform base directory.
type PathResolverImpl struct {
	// baseDir is the platform base directory.
	baseDir string
	// cache memoizes resolutions; nil when memoization is disabled.
	cache *lru.Cache[string, string]
}

var (
	// whitespaceRunPattern matches every run of whitespace in a title.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	whitespaceRunPattern = regexp.MustCompile(`\s+`)

	// titleFolder case-folds titles. A folding Caser is stateless and safe for concurrent use.
	//nolint:gochecknoglobals // Immutable and used as a constant.
	titleFolder = cases.Fold()
)

// NewPathResolver creates a resolver for the configured platform.
func NewPathResolver(cfg *config.Config) (*PathResolverImpl, error) {
	return NewPathResolverForDir(cfg.BasePath(), int(cfg.PathCacheSize))
}

// NewPathResolverForDir creates a resolver for baseDir memoizing up to cacheSize titles.
func NewPathResolverForDir(baseDir string, cacheSize int) (*PathResolverImpl, error) {
	resolver := &PathResolverImpl{baseDir: filepath.Clean(baseDir)}

	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create path cache: %w", err)
		}

		resolver.cache = cache
	}

	return resolver, nil
}

// Resolve returns the local path for title.
func (r *PathResolverImpl) Resolve(title string) string {
	if r.cache != nil {
		if path, ok := r.cache.Get(title); ok {
			return path
		}
	}

	path := filepath.Join(r.baseDir, NormalizeTitle(title)+constants.ExtensionMP4)

	if r.cache != nil {
		r.cache.Add(title, path)
	}

	return path
}

// BaseDir returns the directory every path is resolved into.
func (r *PathResolverImpl) BaseDir() string {
	return r.baseDir
}

// NormalizeTitle turns a title into a file name stem: whitespace runs become
// underscores, the result is case-folded and made safe for the filesystem.
// The mapping is lossy, so "My Video" and "my   video" share a stem.
func NormalizeTitle(title string) string {
	normalized := whitespaceRunPattern.ReplaceAllString(title, "_")
	normalized = titleFolder.String(normalized)

	return utils.SanitizeFilename(normalized)
}
