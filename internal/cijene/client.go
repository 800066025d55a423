// Package cijene is a client for the Cijene API, the public dataset of
// Croatian retail chain prices.
package cijene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
)

const (
	DefaultBaseURL       = "https://api.cijene.dev"
	DefaultTimeout       = 10 * time.Second
	DefaultHealthTimeout = 5 * time.Second

	// error bodies are kept for diagnostics only
	maxErrorBody = 4 << 10
)

// Options configures a Client. Zero values fall back to the defaults above;
// a zero RequestsPerSecond disables rate limiting.
type Options struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	HealthTimeout     time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Debug             bool
}

// Client calls the Cijene API. It is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	timeout       time.Duration
	healthTimeout time.Duration
	limiter       *rate.Limiter
	validate      *validator.Validate
	debug         bool
}

// NewClient creates a new Cijene API client
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		token:         opts.Token,
		timeout:       timeout,
		healthTimeout: healthTimeout,
		limiter:       rate.NewLimiter(limit, burst),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		debug:         opts.Debug,
	}
}

// SearchProducts searches the catalog by name.
func (c *Client) SearchProducts(ctx context.Context, params SearchParams) (*models.ProductSearchResult, error) {
	if err := c.checkParams(params); err != nil {
		return nil, err
	}
	var out models.ProductSearchResult
	if err := c.get(ctx, "products", "/v1/products", params.values(), true, c.timeout, &out); err != nil {
		return nil, err
	}
	for i := range out.Products {
		out.Products[i].Stamp()
	}
	return &out, nil
}

// GetProduct looks up a single product by EAN.
func (c *Client) GetProduct(ctx context.Context, ean string, params ProductParams) (*models.Product, error) {
	ean = strings.TrimSpace(ean)
	if ean == "" {
		return nil, fmt.Errorf("%w: ean is required", ErrInvalidParams)
	}
	if err := c.checkParams(params); err != nil {
		return nil, err
	}
	var out models.Product
	path := "/v1/products/" + url.PathEscape(ean) + "/"
	if err := c.get(ctx, "product", path, params.values(), true, c.timeout, &out); err != nil {
		return nil, err
	}
	out.Stamp()
	return &out, nil
}

// ListChains returns the codes of all known retail chains.
func (c *Client) ListChains(ctx context.Context) (*ChainList, error) {
	var out ChainList
	if err := c.get(ctx, "chains", "/v1/chains/", nil, true, c.timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStores returns the stores of one chain.
func (c *Client) ListStores(ctx context.Context, chainCode string) (*StoreList, error) {
	chainCode = strings.TrimSpace(chainCode)
	if chainCode == "" {
		return nil, fmt.Errorf("%w: chain code is required", ErrInvalidParams)
	}
	var out StoreList
	path := "/v1/" + url.PathEscape(chainCode) + "/stores/"
	if err := c.get(ctx, "stores_by_chain", path, nil, true, c.timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchStores lists stores across chains matching the filters.
func (c *Client) SearchStores(ctx context.Context, params StoreParams) (*StoreList, error) {
	if err := c.checkParams(params); err != nil {
		return nil, err
	}
	var out StoreList
	if err := c.get(ctx, "stores", "/v1/stores", params.values(), true, c.timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPrices returns per-store prices for the given EANs.
func (c *Client) GetPrices(ctx context.Context, params PriceParams) (*StorePriceList, error) {
	if err := c.checkParams(params); err != nil {
		return nil, err
	}
	var out StorePriceList
	if err := c.get(ctx, "prices", "/v1/prices", params.values(), true, c.timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChainStats returns per-chain import statistics.
func (c *Client) ChainStats(ctx context.Context) (*ChainStatList, error) {
	var out ChainStatList
	if err := c.get(ctx, "chain_stats", "/v1/chain-stats/", nil, true, c.timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListArchives lists the downloadable daily archives. The archive listing is
// public and is requested without credentials.
func (c *Client) ListArchives(ctx context.Context) (*ArchiveList, error) {
	var out ArchiveList
	if err := c.get(ctx, "archives", "/v0/list", nil, false, c.timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks upstream availability with a shorter timeout.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.get(ctx, "health", "/health", nil, false, c.healthTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) checkParams(params any) error {
	if err := c.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, auth bool, timeout time.Duration, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Message: "rate limiter: " + err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	if c.debug {
		log.Printf("[Cijene API] GET %s", reqURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "timeout").Inc()
			return &APIError{Message: ErrTimeout.Error(), Err: ErrTimeout}
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &APIError{Message: "request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := statusError(resp.StatusCode, string(body))
		if c.debug {
			log.Printf("[Cijene API Error] %s: %s", endpoint, apiErr.Body)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &APIError{Message: ErrTimeout.Error(), Err: ErrTimeout}
		}
		return &APIError{
			Message: fmt.Sprintf("failed to decode %s response: %v", endpoint, err),
			Err:     ErrInvalidResponse,
		}
	}
	if err := c.validate.Struct(out); err != nil {
		return &APIError{
			Message: fmt.Sprintf("%s response failed validation: %v", endpoint, err),
			Err:     ErrInvalidResponse,
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
