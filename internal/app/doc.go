// Package app provides the command implementations of media-cache.
// Every command builds the catalog client, the player and the media service
// from the configuration, loads and reconciles the catalog, and then runs
// its operation, printing a session summary at the end.
package app
