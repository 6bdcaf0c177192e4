package catalog

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrEmptyCatalogResponse indicates that the catalog response carried no products array.
	ErrEmptyCatalogResponse = errors.New("catalog response has no products")
	// ErrInvalidProductID indicates that a product id is neither a number nor a string.
	ErrInvalidProductID = errors.New("invalid product id")
	// ErrNoSourceURL indicates that an entry has no video and no fallback is configured.
	ErrNoSourceURL = errors.New("entry has no source url")
)
