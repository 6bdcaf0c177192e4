// Package httpapi exposes the media service as a local JSON API with a
// server-sent event stream of state changes, progress and notifications.
package httpapi
