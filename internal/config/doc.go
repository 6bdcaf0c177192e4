// Package config loads .media-cache.yaml through viper, applies defaults and
// validates the result. Validation also fills the Parsed* fields that the rest of
// the application reads instead of the raw strings.
package config
