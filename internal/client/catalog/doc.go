// Package catalog provides the client for the remote product catalog
// and for the video streams the catalog entries point to.
// Catalog requests are retried on server-side failures with a randomized pause.
package catalog
