package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public PokeAPI v2 endpoint.
	DefaultBaseURL = "https://pokeapi.co/api/v2"

	defaultTimeout  = 15 * time.Second
	maxResponseSize = 8 << 20
	tracerName      = "pokedex/app/internal/pokeapi"
)

// Fetcher is the read-only view of the upstream service the catalog depends on.
type Fetcher interface {
	FetchPokemon(ctx context.Context, idOrName string) (*Pokemon, error)
	FetchPokemonList(ctx context.Context, limit, offset int) (*PokemonList, error)
	FetchType(ctx context.Context, idOrName string) (*Type, error)
}

// UpstreamError reports a failed upstream request. StatusCode is zero for transport failures.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("upstream request to %s failed: %v", e.URL, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("upstream request to %s failed: HTTP status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream request to %s failed: HTTP status %d", e.URL, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the upstream answered 404.
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ClientOptions controls how the PokeAPI client is initialised.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Cache      *ResponseCache
	CacheTTL   time.Duration
	// RateLimit caps outbound requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	Logger    *logrus.Logger
}

// Client issues GET requests against PokeAPI and reuses responses through its ResponseCache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *ResponseCache
	limiter    *rate.Limiter
	logger     *logrus.Logger
	tracer     trace.Tracer
}

var _ Fetcher = (*Client)(nil)

// NewClient constructs a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, eris.Wrapf(err, "invalid pokeapi base url: %s", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	cache := opts.Cache
	if cache == nil {
		cache = NewResponseCache(opts.CacheTTL)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
		limiter:    limiter,
		logger:     opts.Logger,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// BaseURL returns the configured upstream root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPokemon loads one Pokémon by numeric id or lowercase name.
func (c *Client) FetchPokemon(ctx context.Context, idOrName string) (*Pokemon, error) {
	key := strings.TrimSpace(idOrName)
	if key == "" {
		return nil, eris.New("pokemon id or name is required")
	}

	var payload Pokemon
	if err := c.getJSON(ctx, c.baseURL+"/pokemon/"+url.PathEscape(key), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchPokemonList loads one page of the upstream Pokémon index.
func (c *Client) FetchPokemonList(ctx context.Context, limit, offset int) (*PokemonList, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	endpoint := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)

	var payload PokemonList
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchType loads one elemental type by numeric id or name.
func (c *Client) FetchType(ctx context.Context, idOrName string) (*Type, error) {
	key := strings.TrimSpace(idOrName)
	if key == "" {
		return nil, eris.New("type id or name is required")
	}

	var payload Type
	if err := c.getJSON(ctx, c.baseURL+"/type/"+url.PathEscape(key), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	body, err := c.fetch(ctx, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logError(logrus.Fields{"url": endpoint}, err, "decoding upstream response")
		return eris.Wrapf(err, "decoding upstream response from %s", endpoint)
	}

	return nil
}

// fetch returns the response body for endpoint, serving from the cache while it is fresh.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	if cached, ok := c.cache.Get(endpoint); ok {
		c.logDebug(logrus.Fields{"url": endpoint}, "serving upstream response from cache")
		return cached, nil
	}

	ctx, span := c.tracer.Start(ctx, "pokeapi.fetch", trace.WithAttributes(attribute.String("http.url", endpoint)))
	defer span.End()

	body, err := c.doGet(ctx, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream request failed")
		if IsNotFound(err) {
			c.logDebug(logrus.Fields{"url": endpoint}, "upstream resource not found")
		} else {
			c.logError(logrus.Fields{"url": endpoint}, err, "fetching from upstream")
		}
		return nil, err
	}

	c.cache.Set(endpoint, body)
	return body, nil
}

func (c *Client) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{URL: endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "building request for %s", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &UpstreamError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &UpstreamError{URL: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	return body, nil
}

func (c *Client) logDebug(fields logrus.Fields, message string) {
	if c.logger == nil {
		return
	}
	c.logger.WithField("component", "pokeapi").WithFields(fields).Debug(message)
}

func (c *Client) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("component", "pokeapi").WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

// IsNotFound reports whether err carries an upstream 404.
func IsNotFound(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr) && upstreamErr.NotFound()
}
