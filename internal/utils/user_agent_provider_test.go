package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewSimpleUserAgentProvider tests the NewSimpleUserAgentProvider function.
func TestNewSimpleUserAgentProvider(t *testing.T) {
	t.Parallel()

	provider := NewSimpleUserAgentProvider("TestAgent/1.0")

	assert.NotNil(t, provider)
	assert.Implements(t, (*UserAgentProvider)(nil), provider)
	assert.Equal(t, "TestAgent/1.0", provider.GetUserAgent())
}

// TestNewProductUserAgentProvider tests the NewProductUserAgentProvider function.
func TestNewProductUserAgentProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		product  string
		version  string
		platform string
		expected string
	}{
		{
			name:     "with platform",
			product:  "media-cache",
			version:  "0.1.0",
			platform: "android",
			expected: "media-cache/0.1.0 (android)",
		},
		{
			name:     "without platform",
			product:  "media-cache",
			version:  "0.1.0",
			expected: "media-cache/0.1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := NewProductUserAgentProvider(tt.product, tt.version, tt.platform)
			assert.Equal(t, tt.expected, provider.GetUserAgent())
		})
	}
}
