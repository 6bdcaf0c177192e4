// Package utils provides small helpers shared by the catalog client, the lifecycle manager
// and the CLI: file name sanitizing, cache file checks, percent math, jittered pauses
// and content type detection for debug logging.
package utils
