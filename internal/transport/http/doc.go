// Package http provides the RoundTrippers shared by every outgoing client:
// request/response dumping at debug level and User-Agent injection.
package http
