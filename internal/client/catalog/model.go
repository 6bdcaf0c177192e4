package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ProductsResponse is the catalog payload.
type ProductsResponse struct {
	// Products holds the catalog entries in display order.
	Products []*Product `json:"products"`
	// Total is the number of products available on the server.
	Total int64 `json:"total"`
	// Skip is the server-side offset of the page.
	Skip int64 `json:"skip"`
	// Limit is the server-side page size.
	Limit int64 `json:"limit"`
}

// Product is a single catalog entry as served by the catalog endpoint.
type Product struct {
	// ID is the product identifier, numeric or textual.
	ID ProductID `json:"id"`
	// Title is the display title, also the source of the local file name.
	Title string `json:"title"`
	// Description is the free-form product description.
	Description string `json:"description"`
	// Thumbnail is the preview image URL.
	Thumbnail string `json:"thumbnail"`
	// Video is the optional per-product video URL.
	Video string `json:"video,omitempty"`
}

// ProductID accepts both JSON numbers and strings and keeps the textual form.
type ProductID string

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*p = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProductID, err)
		}

		*p = ProductID(text)

		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProductID, data)
	}

	// Integral ids are rendered without a fraction or exponent.
	if integer, err := number.Int64(); err == nil {
		*p = ProductID(strconv.FormatInt(integer, 10))
	} else {
		*p = ProductID(number.String())
	}

	return nil
}

// String returns the textual id.
func (p ProductID) String() string {
	return string(p)
}

// Entry is a validated catalog entry handed to the cache layer.
type Entry struct {
	// ID is the unique entry identifier.
	ID string
	// Title is the display title.
	Title string
	// Description is the free-form description.
	Description string
	// ThumbnailURL is the preview image URL.
	ThumbnailURL string
	// SourceURL is the URL the video is downloaded from.
	SourceURL string
}

// StreamResult is an open video stream.
type StreamResult struct {
	// Body is the response body; the caller must close it.
	Body io.ReadCloser
	// TotalBytes is the declared content length, or -1 when unknown.
	TotalBytes int64
	// ContentType is the declared media type.
	ContentType string
}

// FetchJSONResult is the outcome of a JSON request.
type FetchJSONResult[T any] struct {
	// Data is the decoded payload, nil on failure.
	Data *T
	// StatusCode is the HTTP status of the response.
	StatusCode int
}
