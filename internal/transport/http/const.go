package http

import "time"

const (
	// DefaultTimeout bounds HTTP requests whose caller did not set a deadline.
	DefaultTimeout = 60 * time.Second

	// requestIDHeader carries the identifier logged for every request/response pair.
	requestIDHeader = "X-Request-Id"
)
