package catalog

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/logger"
	http_transport "github.com/oshokin/media-cache/internal/transport/http"
	"github.com/oshokin/media-cache/internal/utils"
	"github.com/oshokin/media-cache/internal/version"
)

// Client defines the interface for interacting with the catalog service.
type Client interface {
	// FetchCatalog retrieves the bounded list of catalog entries.
	FetchCatalog(ctx context.Context) ([]*Entry, error)
	// OpenStream opens the video stream at sourceURL.
	OpenStream(ctx context.Context, sourceURL string) (*StreamResult, error)
	// GetCatalogURL returns the catalog endpoint.
	GetCatalogURL() string
}

// ClientImpl implements the Client interface over HTTP.
type ClientImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// catalogURL is the parsed catalog endpoint.
	catalogURL string
	// httpClient is shared by catalog and stream requests. It has no global timeout:
	// catalog requests are bounded by catalog_timeout, streams by the caller's context.
	httpClient *http.Client
}

// limitQueryParameter is the server-side page size parameter of the catalog endpoint.
const limitQueryParameter = "limit"

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) (Client, error) {
	catalogURL, err := url.ParseRequestURI(strings.TrimSpace(cfg.CatalogURL))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL: %w", err)
	}

	userAgent := utils.NewProductUserAgentProvider("media-cache", version.Version, string(cfg.ParsedPlatform))

	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			userAgent),
	}

	return NewClientWithHTTPClient(cfg, catalogURL.String(), httpClient), nil
}

// NewClientWithHTTPClient creates a client on top of a caller-provided HTTP client.
func NewClientWithHTTPClient(cfg *config.Config, catalogURL string, httpClient *http.Client) *ClientImpl {
	return &ClientImpl{
		cfg:        cfg,
		catalogURL: catalogURL,
		httpClient: httpClient,
	}
}

// GetCatalogURL returns the catalog endpoint.
func (c *ClientImpl) GetCatalogURL() string {
	return c.catalogURL
}

// FetchCatalog retrieves the catalog, retrying on throttling and server errors.
// The result holds at most catalog_limit entries in the order the server returned them.
func (c *ClientImpl) FetchCatalog(ctx context.Context) ([]*Entry, error) {
	query := url.Values{}
	query.Set(limitQueryParameter, strconv.FormatInt(c.cfg.CatalogLimit, 10))

	var (
		response *ProductsResponse
		lastErr  error
	)

	attempts := max(c.cfg.RetryAttemptsCount, 1)

	for i := range attempts {
		fetchResult, err := c.fetchCatalogOnce(ctx, query)
		if err == nil {
			response = fetchResult.Data

			break
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		isRetryable := fetchResult == nil || isRetryableStatus(fetchResult.StatusCode)
		if i < attempts-1 && isRetryable {
			logger.Infof(ctx, "Retrying catalog fetch due to error (%d attempts left): %v", attempts-i-1, err)
			utils.RandomPause(c.cfg.ParsedMinRetryPause, c.cfg.ParsedMaxRetryPause)

			continue
		}

		return nil, err
	}

	if response == nil {
		return nil, lastErr
	}

	if response.Products == nil {
		return nil, ErrEmptyCatalogResponse
	}

	return c.toEntries(ctx, response.Products), nil
}

func (c *ClientImpl) fetchCatalogOnce(ctx context.Context, query url.Values) (*FetchJSONResult[ProductsResponse], error) {
	if c.cfg.ParsedCatalogTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.ParsedCatalogTimeout)
		defer cancel()
	}

	return fetchJSONWithQuery[ProductsResponse](c, ctx, c.catalogURL, query)
}

// toEntries validates products and bounds the list by catalog_limit.
// Products without an id or a title, and repeated ids, are skipped.
func (c *ClientImpl) toEntries(ctx context.Context, products []*Product) []*Entry {
	limit := int(c.cfg.CatalogLimit)
	if limit <= 0 || limit > len(products) {
		limit = len(products)
	}

	var (
		entries = make([]*Entry, 0, limit)
		seenIDs = make(map[string]struct{}, limit)
	)

	for _, product := range products {
		if len(entries) == limit {
			break
		}

		if product == nil {
			continue
		}

		id := strings.TrimSpace(product.ID.String())
		title := strings.TrimSpace(product.Title)

		if id == "" || title == "" {
			logger.Warnf(ctx, "Skipping catalog product without id or title: id='%s', title='%s'", id, title)

			continue
		}

		if _, ok := seenIDs[id]; ok {
			logger.Warnf(ctx, "Skipping catalog product with duplicate id '%s'", id)

			continue
		}

		seenIDs[id] = struct{}{}

		sourceURL := strings.TrimSpace(product.Video)
		if sourceURL == "" {
			sourceURL = c.cfg.FallbackSourceURL
		}

		entries = append(entries, &Entry{
			ID:           id,
			Title:        product.Title,
			Description:  product.Description,
			ThumbnailURL: product.Thumbnail,
			SourceURL:    sourceURL,
		})
	}

	return entries
}

// OpenStream opens the video at sourceURL for reading.
// The caller owns the returned body and must close it.
func (c *ClientImpl) OpenStream(ctx context.Context, sourceURL string) (*StreamResult, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, ErrNoSourceURL
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return &StreamResult{
		Body:        response.Body,
		TotalBytes:  response.ContentLength,
		ContentType: response.Header.Get("Content-Type"),
	}, nil
}

