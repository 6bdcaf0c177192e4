package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/media-cache/internal/constants"
)

func validConfig() *Config {
	return &Config{
		CatalogURL:             "https://dummyjson.com/products",
		CatalogLimit:           5,
		FallbackSourceURL:      "https://www.w3schools.com/html/mov_bbb.mp4",
		Platform:               "android",
		DocumentsPath:          "/tmp/documents",
		ExternalPath:           "/tmp/external",
		LogLevel:               "info",
		DownloadSpeedLimit:     "1MB",
		DownloadTimeout:        "10m",
		CatalogTimeout:         "30s",
		RetryAttemptsCount:     3,
		MinRetryPause:          "1s",
		MaxRetryPause:          "3s",
		MaxConcurrentDownloads: 2,
		MaxConcurrentChecks:    8,
		ProgressStep:           5,
		PathCacheSize:          16,
		PlayerCommand:          "mpv --fs",
	}
}

// TestConstants tests the constants.
func TestConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1024*1024, DefaultMaxLogLength)
	assert.Equal(t, 5, DefaultCatalogLimit)
	assert.Equal(t, "https://www.w3schools.com/html/mov_bbb.mp4", DefaultFallbackSourceURL)
}

// TestLoadConfig tests the LoadConfig function.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		expectedError  string
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
catalog_url: "http://localhost:9000/products"
catalog_limit: 10
platform: "ios"
documents_path: "/var/mobile/Documents"
log_level: "debug"
progress_step: 10
`,
		},
		{
			name:           "non-existent explicit file",
			configFilename: "non_existent.yaml",
			expectError:    true,
			expectedError:  "failed to read config from file",
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError:   true,
			expectedError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), tt.configFilename)

			if tt.configContent != "" {
				err := os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions)
				require.NoError(t, err)
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Equal(t, "http://localhost:9000/products", cfg.CatalogURL)
			assert.Equal(t, int64(10), cfg.CatalogLimit)
			assert.Equal(t, "ios", cfg.Platform)
			assert.Equal(t, int64(10), cfg.ProgressStep)
			// Keys missing from the file keep their defaults.
			assert.Equal(t, DefaultFallbackSourceURL, cfg.FallbackSourceURL)
			assert.Equal(t, "10m", cfg.DownloadTimeout)
			assert.Equal(t, int64(8), cfg.MaxConcurrentChecks)

			require.NoError(t, ValidateConfig(cfg))
			assert.Equal(t, PlatformIOS, cfg.ParsedPlatform)
			assert.Equal(t, "/var/mobile/Documents", cfg.BasePath())
			assert.Equal(t, zapcore.DebugLevel, cfg.ParsedLogLevel)
		})
	}
}

// TestLoadConfig_DefaultsAreValid tests that the defaults alone form a valid configuration.
func TestLoadConfig_DefaultsAreValid(t *testing.T) {
	t.Parallel()

	cfg := newDefaultsOnlyConfig(t)

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, PlatformAndroid, cfg.ParsedPlatform)
	assert.Equal(t, 10*time.Minute, cfg.ParsedDownloadTimeout)
	assert.Equal(t, int64(0), cfg.ParsedDownloadSpeedLimit)
	assert.Empty(t, cfg.ParsedPlayerCommand)
}

func newDefaultsOnlyConfig(t *testing.T) *Config {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("{}\n"), constants.DefaultFilePermissions))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	return cfg
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(cfg *Config)
		expectedErr error
		errorMsg    string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:        "empty catalog url",
			mutate:      func(cfg *Config) { cfg.CatalogURL = "   " },
			expectedErr: ErrEmptyCatalogURL,
		},
		{
			name:     "relative catalog url",
			mutate:   func(cfg *Config) { cfg.CatalogURL = "products" },
			errorMsg: "failed to parse catalog url",
		},
		{
			name:     "invalid fallback url",
			mutate:   func(cfg *Config) { cfg.FallbackSourceURL = "mov_bbb.mp4" },
			errorMsg: "failed to parse fallback source url",
		},
		{
			name:        "zero catalog limit",
			mutate:      func(cfg *Config) { cfg.CatalogLimit = 0 },
			expectedErr: ErrInvalidCatalogLimit,
		},
		{
			name:        "unknown platform",
			mutate:      func(cfg *Config) { cfg.Platform = "windows" },
			expectedErr: ErrUnknownPlatform,
		},
		{
			name: "missing path for ios",
			mutate: func(cfg *Config) {
				cfg.Platform = "ios"
				cfg.DocumentsPath = ""
			},
			expectedErr: ErrEmptyStoragePath,
		},
		{
			name:        "invalid log level",
			mutate:      func(cfg *Config) { cfg.LogLevel = "invalid" },
			expectedErr: ErrUnknownLogLevel,
		},
		{
			name:     "invalid download speed limit",
			mutate:   func(cfg *Config) { cfg.DownloadSpeedLimit = "fast" },
			errorMsg: "failed to parse download speed limit",
		},
		{
			name:     "invalid download timeout",
			mutate:   func(cfg *Config) { cfg.DownloadTimeout = "soon" },
			errorMsg: "failed to parse download timeout",
		},
		{
			name:        "zero download timeout",
			mutate:      func(cfg *Config) { cfg.DownloadTimeout = "0s" },
			expectedErr: ErrInvalidDownloadTimeout,
		},
		{
			name:        "negative catalog timeout",
			mutate:      func(cfg *Config) { cfg.CatalogTimeout = "-1s" },
			expectedErr: ErrInvalidCatalogTimeout,
		},
		{
			name:        "zero retry attempts",
			mutate:      func(cfg *Config) { cfg.RetryAttemptsCount = 0 },
			expectedErr: ErrInvalidRetryAttempts,
		},
		{
			name:     "invalid min retry pause",
			mutate:   func(cfg *Config) { cfg.MinRetryPause = "invalid" },
			errorMsg: "failed to parse min retry pause",
		},
		{
			name:        "max retry pause lower than min",
			mutate:      func(cfg *Config) { cfg.MaxRetryPause = "500ms" },
			expectedErr: ErrInvalidMaxRetryPause,
		},
		{
			name:        "zero concurrent downloads",
			mutate:      func(cfg *Config) { cfg.MaxConcurrentDownloads = 0 },
			expectedErr: ErrInvalidConcurrentDownloads,
		},
		{
			name:        "zero concurrent checks",
			mutate:      func(cfg *Config) { cfg.MaxConcurrentChecks = 0 },
			expectedErr: ErrInvalidConcurrentChecks,
		},
		{
			name:        "progress step above 100",
			mutate:      func(cfg *Config) { cfg.ProgressStep = 101 },
			expectedErr: ErrInvalidProgressStep,
		},
		{
			name:        "negative path cache size",
			mutate:      func(cfg *Config) { cfg.PathCacheSize = -1 },
			expectedErr: ErrInvalidPathCacheSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)

			switch {
			case tt.expectedErr != nil:
				require.ErrorIs(t, err, tt.expectedErr)
			case tt.errorMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
				assert.Equal(t, PlatformAndroid, cfg.ParsedPlatform)
				assert.Equal(t, "/tmp/external", cfg.BasePath())
				assert.Equal(t, int64(1000000), cfg.ParsedDownloadSpeedLimit)
				assert.Equal(t, 30*time.Second, cfg.ParsedCatalogTimeout)
				assert.Equal(t, time.Second, cfg.ParsedMinRetryPause)
				assert.Equal(t, 3*time.Second, cfg.ParsedMaxRetryPause)
				assert.Equal(t, []string{"mpv", "--fs"}, cfg.ParsedPlayerCommand)
			}
		})
	}
}

// TestValidateConfig_DownloadSpeedLimit tests download speed limit validation.
func TestValidateConfig_DownloadSpeedLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		speedLimit    string
		expectedBytes int64
	}{
		{name: "empty limit", speedLimit: "", expectedBytes: 0},
		{name: "zero limit", speedLimit: "0", expectedBytes: 0},
		{name: "1KB limit", speedLimit: "1KB", expectedBytes: 1000},
		{name: "1KiB limit", speedLimit: "1KiB", expectedBytes: 1024},
		{name: "2MB limit", speedLimit: "2MB", expectedBytes: 2000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.DownloadSpeedLimit = tt.speedLimit

			require.NoError(t, ValidateConfig(cfg))
			assert.Equal(t, tt.expectedBytes, cfg.ParsedDownloadSpeedLimit)
		})
	}
}

// TestBasePath tests that the storage directory follows the platform.
func TestBasePath(t *testing.T) {
	t.Parallel()

	cfg := &Config{Platform: " iOS ", DocumentsPath: "/documents", ExternalPath: "/external"}
	assert.Equal(t, "/documents", cfg.BasePath())

	cfg.SetBasePath("/override")
	assert.Equal(t, "/override", cfg.DocumentsPath)
	assert.Equal(t, "/external", cfg.ExternalPath)

	cfg.ParsedPlatform = PlatformAndroid
	assert.Equal(t, "/external", cfg.BasePath())

	cfg.SetBasePath("/sdcard")
	assert.Equal(t, "/sdcard", cfg.BasePath())
	assert.Equal(t, "/override", cfg.DocumentsPath)
}

// TestKnownKeys tests that every mapstructure key is exposed in declaration order.
func TestKnownKeys(t *testing.T) {
	t.Parallel()

	keys := KnownKeys()

	require.NotEmpty(t, keys)
	assert.Equal(t, "catalog_url", keys[0])
	assert.Contains(t, keys, "player_command")
	assert.Contains(t, keys, "listen_address")
	assert.NotContains(t, keys, "")

	assert.True(t, IsKnownKey("platform"))
	assert.False(t, IsKnownKey("auth_token"))
}

// TestSetConfigValue tests updating an existing file while keeping its layout.
func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	original := "# Storage settings.\nplatform: android\nexternal_path: /tmp/external\n"
	require.NoError(t, os.WriteFile(configPath, []byte(original), constants.DefaultFilePermissions))

	require.NoError(t, SetConfigValue(configPath, "platform", "ios"))
	require.NoError(t, SetConfigValue(configPath, "documents_path", "/tmp/documents"))

	content, err := os.ReadFile(configPath) //nolint:gosec // Test file path.
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "# Storage settings.")
	assert.Contains(t, text, "platform: ios")
	assert.Contains(t, text, "documents_path: /tmp/documents")
	assert.Less(t, strings.Index(text, "platform"), strings.Index(text, "external_path"), "Key order must be preserved")
	assert.Less(t, strings.Index(text, "external_path"), strings.Index(text, "documents_path"), "New keys are appended")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "ios", cfg.Platform)
	assert.Equal(t, "/tmp/documents", cfg.DocumentsPath)
}

// TestSetConfigValue_CreatesFile tests that a missing file is created.
func TestSetConfigValue_CreatesFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "new.yaml")

	require.NoError(t, SetConfigValue(configPath, "log_level", "debug"))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// TestSetConfigValue_UnknownKey tests that unknown keys are rejected.
func TestSetConfigValue_UnknownKey(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SetConfigValue(configPath, "auth_token", "secret")
	require.ErrorIs(t, err, ErrUnknownConfigKey)
	assert.NoFileExists(t, configPath)
}

// TestSetConfigValue_NotMapping tests that a file without a top-level mapping is left untouched.
func TestSetConfigValue_NotMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "list", content: "- platform\n- ios\n"},
		{name: "scalar", content: "just a string\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), constants.DefaultFilePermissions))

			err := SetConfigValue(configPath, "platform", "ios")
			require.ErrorIs(t, err, ErrConfigNotMapping)

			content, err := os.ReadFile(configPath) //nolint:gosec // Test file path.
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content))
		})
	}
}

// TestSetConfigValue_EmptyFile tests that an empty file gets a fresh mapping.
func TestSetConfigValue_EmptyFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, nil, constants.DefaultFilePermissions))

	require.NoError(t, SetConfigValue(configPath, "platform", "ios"))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "ios", cfg.Platform)
}
