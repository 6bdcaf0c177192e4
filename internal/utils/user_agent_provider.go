package utils

//go:generate $MOCKGEN -source=user_agent_provider.go -destination=mocks/user_agent_provider_mock.go

import "fmt"

// UserAgentProvider supplies the User-Agent header for outgoing catalog and media requests.
type UserAgentProvider interface {
	// GetUserAgent returns a User-Agent string.
	GetUserAgent() string
}

// SimpleUserAgentProvider returns a fixed User-Agent string.
type SimpleUserAgentProvider struct {
	userAgent string
}

// NewSimpleUserAgentProvider creates a provider for a fixed User-Agent string.
func NewSimpleUserAgentProvider(userAgent string) UserAgentProvider {
	return &SimpleUserAgentProvider{userAgent: userAgent}
}

// NewProductUserAgentProvider creates a provider identifying the application,
// its version and the target platform, e.g. "media-cache/0.1.0 (android)".
func NewProductUserAgentProvider(product, version, platform string) UserAgentProvider {
	userAgent := fmt.Sprintf("%s/%s", product, version)
	if platform != "" {
		userAgent = fmt.Sprintf("%s (%s)", userAgent, platform)
	}

	return &SimpleUserAgentProvider{userAgent: userAgent}
}

// GetUserAgent returns a User-Agent string.
func (p *SimpleUserAgentProvider) GetUserAgent() string {
	return p.userAgent
}
