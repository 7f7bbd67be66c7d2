package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/price"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
)

const (
	quotesPath   = "/v1/cryptocurrency/quotes/latest"
	apiKeyHeader = "X-CMC_PRO_API_KEY"

	// a quote for one symbol is a few kilobytes
	maxBodyBytes = 1 << 20
)

type quotesResponse struct {
	Status struct {
		ErrorCode    int     `json:"error_code"`
		ErrorMessage *string `json:"error_message"`
	} `json:"status"`
	Data map[string]struct {
		Quote map[string]struct {
			Price *float64 `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// Client reads the latest quote of one symbol. Requests are never retried.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Interface
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Its timeout is left as is.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock overrides the time source stamped on quotes.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a quotes client.
func NewClient(config Config, logger logger.Interface, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ price.Source = (*Client)(nil)

// Latest fetches the current price of the configured symbol.
func (c *Client) Latest(ctx context.Context) (price.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := c.newRequest(ctx)
	if err != nil {
		return price.Quote{}, c.upstreamError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return price.Quote{}, c.upstreamError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return price.Quote{}, c.upstreamError(err)
	}

	var payload quotesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return price.Quote{}, c.upstreamError(fmt.Errorf("status %d: decode response: %w", resp.StatusCode, err))
	}

	if payload.Status.ErrorCode != 0 {
		message := ""
		if payload.Status.ErrorMessage != nil {
			message = *payload.Status.ErrorMessage
		}
		c.logger.WarnContext(ctx, "Quote request rejected",
			logger.Field{Key: "error_code", Value: payload.Status.ErrorCode},
			logger.Field{Key: "error_message", Value: message},
		)
		return price.Quote{}, c.upstreamError(fmt.Errorf("error code %d: %s", payload.Status.ErrorCode, message))
	}

	if resp.StatusCode != http.StatusOK {
		return price.Quote{}, c.upstreamError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	value, err := c.extractPrice(payload)
	if err != nil {
		return price.Quote{}, c.upstreamError(err)
	}

	return price.Quote{
		Symbol:    c.config.Symbol,
		Currency:  c.config.Convert,
		Price:     value,
		FetchedAt: c.now(),
	}, nil
}

func (c *Client) newRequest(ctx context.Context) (*http.Request, error) {
	endpoint, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + quotesPath)
	if err != nil {
		return nil, err
	}

	query := endpoint.Query()
	query.Set("symbol", c.config.Symbol)
	query.Set("convert", c.config.Convert)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (c *Client) extractPrice(payload quotesResponse) (float64, error) {
	asset, ok := payload.Data[c.config.Symbol]
	if !ok {
		return 0, fmt.Errorf("symbol %s missing from response", c.config.Symbol)
	}
	quote, ok := asset.Quote[c.config.Convert]
	if !ok || quote.Price == nil {
		return 0, fmt.Errorf("%s price missing for %s", c.config.Convert, c.config.Symbol)
	}
	return *quote.Price, nil
}

func (c *Client) upstreamError(err error) error {
	return errors.NewErrorDetailsWithCause(errors.UpstreamError, c.config.Symbol, err)
}
