package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/media-cache/internal/constants"
	"github.com/oshokin/media-cache/internal/logger"
	"github.com/oshokin/media-cache/internal/utils"
)

// Platform selects the base directory family used for cached files.
type Platform string

const (
	// PlatformIOS stores videos in the application documents directory.
	PlatformIOS Platform = "ios"
	// PlatformAndroid stores videos in the application external files directory.
	PlatformAndroid Platform = "android"
)

// Config holds all configuration settings.
type Config struct {
	// CatalogURL is the endpoint returning the product list.
	CatalogURL string `mapstructure:"catalog_url"`
	// CatalogLimit bounds the number of catalog entries kept after a fetch.
	CatalogLimit int64 `mapstructure:"catalog_limit"`
	// FallbackSourceURL is used for entries that carry no video URL of their own.
	FallbackSourceURL string `mapstructure:"fallback_source_url"`
	// Platform is either "ios" or "android".
	Platform string `mapstructure:"platform"`
	// DocumentsPath is the base directory on iOS.
	DocumentsPath string `mapstructure:"documents_path"`
	// ExternalPath is the base directory on Android.
	ExternalPath string `mapstructure:"external_path"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// DownloadSpeedLimit caps transfer speed per download (e.g., "1MB", "500KB"). Empty or "0" disables it.
	DownloadSpeedLimit string `mapstructure:"download_speed_limit"`
	// DownloadTimeout bounds a single transfer, e.g. "10m".
	DownloadTimeout string `mapstructure:"download_timeout"`
	// CatalogTimeout bounds a single catalog request, e.g. "30s".
	CatalogTimeout string `mapstructure:"catalog_timeout"`
	// RetryAttemptsCount is the number of attempts for a catalog fetch.
	RetryAttemptsCount int64 `mapstructure:"retry_attempts_count"`
	// MinRetryPause is the minimum pause before retrying a catalog fetch.
	MinRetryPause string `mapstructure:"min_retry_pause"`
	// MaxRetryPause is the maximum pause before retrying a catalog fetch.
	MaxRetryPause string `mapstructure:"max_retry_pause"`
	// MaxConcurrentDownloads is the maximum number of transfers the CLI runs at once.
	MaxConcurrentDownloads int64 `mapstructure:"max_concurrent_downloads"`
	// MaxConcurrentChecks bounds parallel existence checks during reconciliation.
	MaxConcurrentChecks int64 `mapstructure:"max_concurrent_checks"`
	// ProgressStep is the minimum percent delta between two published progress updates.
	ProgressStep int64 `mapstructure:"progress_step"`
	// PathCacheSize is the number of memoized title to path resolutions. Zero disables memoization.
	PathCacheSize int64 `mapstructure:"path_cache_size"`
	// PlayerCommand is the external player invocation; the file URI is appended as the last argument.
	PlayerCommand string `mapstructure:"player_command"`
	// ListenAddress is the address of the local HTTP API started by "serve".
	ListenAddress string `mapstructure:"listen_address"`
	// ParsedPlatform is the validated platform.
	ParsedPlatform Platform
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes per second.
	ParsedDownloadSpeedLimit int64
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedDownloadTimeout is the parsed per-transfer timeout.
	ParsedDownloadTimeout time.Duration
	// ParsedCatalogTimeout is the parsed catalog request timeout.
	ParsedCatalogTimeout time.Duration
	// ParsedMinRetryPause is the parsed minimum retry pause duration.
	ParsedMinRetryPause time.Duration
	// ParsedMaxRetryPause is the parsed maximum retry pause duration.
	ParsedMaxRetryPause time.Duration
	// ParsedPlayerCommand is PlayerCommand split into program and arguments.
	ParsedPlayerCommand []string
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".media-cache.yaml"

	// DefaultCatalogURL is the product list the mobile application used.
	DefaultCatalogURL = "https://dummyjson.com/products"

	// DefaultFallbackSourceURL is the single video the mobile application served for every entry.
	DefaultFallbackSourceURL = "https://www.w3schools.com/html/mov_bbb.mp4"

	// DefaultCatalogLimit matches the number of entries the mobile application displayed.
	DefaultCatalogLimit = 5

	// DefaultMaxLogLength is the default maximum size (in bytes) for dumped HTTP traffic.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// DefaultListenAddress is the default address of the local HTTP API.
	DefaultListenAddress = "127.0.0.1:8089"

	// maxProgressStep is the largest meaningful progress step.
	maxProgressStep = 100
)

// Static error definitions for better error handling.
var (
	// ErrEmptyCatalogURL indicates that the catalog URL is missing.
	ErrEmptyCatalogURL = errors.New("catalog_url cannot be empty")
	// ErrInvalidCatalogLimit indicates that the catalog limit is not positive.
	ErrInvalidCatalogLimit = errors.New("catalog_limit must be a positive integer")
	// ErrUnknownPlatform indicates that the platform is neither ios nor android.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrEmptyStoragePath indicates that the base directory for the selected platform is missing.
	ErrEmptyStoragePath = errors.New("storage path for the selected platform cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidDownloadTimeout indicates that the download timeout is not positive.
	ErrInvalidDownloadTimeout = errors.New("download_timeout must be positive")
	// ErrInvalidCatalogTimeout indicates that the catalog timeout is not positive.
	ErrInvalidCatalogTimeout = errors.New("catalog_timeout must be positive")
	// ErrInvalidRetryAttempts indicates that the retry attempts count is invalid.
	ErrInvalidRetryAttempts = errors.New("retry attempts count must be a positive integer")
	// ErrInvalidMinRetryPause indicates that the min retry pause duration is invalid.
	ErrInvalidMinRetryPause = errors.New("min_retry_pause must be positive")
	// ErrInvalidMaxRetryPause indicates that the max retry pause duration is invalid.
	ErrInvalidMaxRetryPause = errors.New("max_retry_pause must not be lower than min_retry_pause")
	// ErrInvalidConcurrentDownloads indicates that the concurrent downloads count is invalid.
	ErrInvalidConcurrentDownloads = errors.New("max concurrent downloads must be a positive integer")
	// ErrInvalidConcurrentChecks indicates that the concurrent checks count is invalid.
	ErrInvalidConcurrentChecks = errors.New("max concurrent checks must be a positive integer")
	// ErrInvalidProgressStep indicates that the progress step is out of range.
	ErrInvalidProgressStep = errors.New("progress_step must be between 1 and 100")
	// ErrInvalidPathCacheSize indicates a negative path cache size.
	ErrInvalidPathCacheSize = errors.New("path_cache_size cannot be negative")
	// ErrUnknownConfigKey indicates an attempt to set a key that Config does not define.
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	// ErrConfigNotMapping indicates a configuration file whose top level is not a key-value mapping.
	ErrConfigNotMapping = errors.New("configuration file must contain a mapping at the top level")
)

// LoadConfig loads configuration settings from a YAML file on top of the defaults.
// A missing default file is not an error: the defaults are used as is.
func LoadConfig(configFilename string) (*Config, error) {
	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFilename)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError

		if !isDefaultFile || !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog_url", DefaultCatalogURL)
	v.SetDefault("catalog_limit", DefaultCatalogLimit)
	v.SetDefault("fallback_source_url", DefaultFallbackSourceURL)
	v.SetDefault("platform", string(PlatformAndroid))
	v.SetDefault("documents_path", "media/documents")
	v.SetDefault("external_path", "media/external")
	v.SetDefault("log_level", "info")
	v.SetDefault("download_speed_limit", "")
	v.SetDefault("download_timeout", "10m")
	v.SetDefault("catalog_timeout", "30s")
	v.SetDefault("retry_attempts_count", 3)
	v.SetDefault("min_retry_pause", "1s")
	v.SetDefault("max_retry_pause", "3s")
	v.SetDefault("max_concurrent_downloads", 2)
	v.SetDefault("max_concurrent_checks", 8)
	v.SetDefault("progress_step", 5)
	v.SetDefault("path_cache_size", 256)
	v.SetDefault("player_command", "")
	v.SetDefault("listen_address", DefaultListenAddress)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,gocognit,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	catalogURL := strings.TrimSpace(cfg.CatalogURL)
	if catalogURL == "" {
		return ErrEmptyCatalogURL
	}

	if _, err = url.ParseRequestURI(catalogURL); err != nil {
		return fmt.Errorf("failed to parse catalog url: %w", err)
	}

	if cfg.FallbackSourceURL != "" {
		if _, err = url.ParseRequestURI(cfg.FallbackSourceURL); err != nil {
			return fmt.Errorf("failed to parse fallback source url: %w", err)
		}
	}

	if cfg.CatalogLimit <= 0 {
		return ErrInvalidCatalogLimit
	}

	platform := Platform(strings.ToLower(strings.TrimSpace(cfg.Platform)))
	switch platform {
	case PlatformIOS, PlatformAndroid:
		cfg.ParsedPlatform = platform
	default:
		return fmt.Errorf("%w: '%s', expected '%s' or '%s'", ErrUnknownPlatform, cfg.Platform, PlatformIOS, PlatformAndroid)
	}

	if strings.TrimSpace(cfg.BasePath()) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyStoragePath, platform)
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	var parsedDownloadSpeedLimit uint64

	downloadSpeedLimit := strings.TrimSpace(cfg.DownloadSpeedLimit)
	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	// io.CopyN accepts only int64 so we transform it safely in order to use it later.
	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	cfg.ParsedDownloadTimeout, err = time.ParseDuration(cfg.DownloadTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse download timeout: %w", err)
	}

	if cfg.ParsedDownloadTimeout <= 0 {
		return ErrInvalidDownloadTimeout
	}

	cfg.ParsedCatalogTimeout, err = time.ParseDuration(cfg.CatalogTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse catalog timeout: %w", err)
	}

	if cfg.ParsedCatalogTimeout <= 0 {
		return ErrInvalidCatalogTimeout
	}

	if cfg.RetryAttemptsCount <= 0 {
		return ErrInvalidRetryAttempts
	}

	cfg.ParsedMinRetryPause, err = time.ParseDuration(cfg.MinRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse min retry pause: %w", err)
	}

	if cfg.ParsedMinRetryPause <= 0 {
		return ErrInvalidMinRetryPause
	}

	cfg.ParsedMaxRetryPause, err = time.ParseDuration(cfg.MaxRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse max retry pause: %w", err)
	}

	if cfg.ParsedMaxRetryPause < cfg.ParsedMinRetryPause {
		return ErrInvalidMaxRetryPause
	}

	if cfg.MaxConcurrentDownloads <= 0 {
		return ErrInvalidConcurrentDownloads
	}

	if cfg.MaxConcurrentChecks <= 0 {
		return ErrInvalidConcurrentChecks
	}

	if cfg.ProgressStep <= 0 || cfg.ProgressStep > maxProgressStep {
		return ErrInvalidProgressStep
	}

	if cfg.PathCacheSize < 0 {
		return ErrInvalidPathCacheSize
	}

	cfg.ParsedPlayerCommand = strings.Fields(cfg.PlayerCommand)

	return nil
}

// BasePath returns the storage directory of the configured platform.
func (c *Config) BasePath() string {
	if c.platform() == PlatformIOS {
		return c.DocumentsPath
	}

	return c.ExternalPath
}

// SetBasePath overrides the storage directory of the configured platform.
func (c *Config) SetBasePath(path string) {
	if c.platform() == PlatformIOS {
		c.DocumentsPath = path

		return
	}

	c.ExternalPath = path
}

func (c *Config) platform() Platform {
	if c.ParsedPlatform != "" {
		return c.ParsedPlatform
	}

	return Platform(strings.ToLower(strings.TrimSpace(c.Platform)))
}

// SetConfigValue writes a single key into the configuration file while preserving
// the original order, comments and formatting of every other key.
// The file is created when it does not exist yet.
func SetConfigValue(configFilename, key, value string) error {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	if !IsKnownKey(key) {
		return fmt.Errorf("%w: '%s'", ErrUnknownConfigKey, key)
	}

	originalContent, err := os.ReadFile(configFilename)
	if err != nil {
		return handleMissingConfigFile(configFilename, key, value, err)
	}

	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err = setValueInNode(&node, key, value); err != nil {
		return fmt.Errorf("failed to update '%s': %w", configFilename, err)
	}

	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFilename, newContent, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsKnownKey reports whether key is one of the mapstructure keys of Config.
func IsKnownKey(key string) bool {
	for _, known := range KnownKeys() {
		if known == key {
			return true
		}
	}

	return false
}

// KnownKeys lists the configuration keys in declaration order.
func KnownKeys() []string {
	configType := reflect.TypeOf(Config{})
	keys := make([]string, 0, configType.NumField())

	for i := range configType.NumField() {
		if tag := configType.Field(i).Tag.Get("mapstructure"); tag != "" {
			keys = append(keys, tag)
		}
	}

	return keys
}

// handleMissingConfigFile creates a new config file with viper if it doesn't exist.
func handleMissingConfigFile(configFilename, key, value string, err error) error {
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	v.Set(key, value)

	if err = v.SafeWriteConfigAs(configFilename); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// setValueInNode updates or appends key in the top-level mapping of a YAML document.
func setValueInNode(node *yaml.Node, key, value string) error {
	if len(node.Content) == 0 {
		node.Kind = yaml.DocumentNode
		node.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	mapNode := node.Content[0]
	if mapNode.Kind != yaml.MappingNode {
		return ErrConfigNotMapping
	}

	// Keys and values are stored as alternating nodes.
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value != key {
			continue
		}

		valueNode := mapNode.Content[i+1]
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = ""
		valueNode.Value = value

		return nil
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)

	return nil
}
