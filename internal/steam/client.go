package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/metrics"
)

const (
	_defaultBaseURL        = "https://steamcommunity.com"
	_defaultTimeout        = 30 * time.Second
	_defaultRequestsPerMin = 20
	_defaultCacheTTL       = 2 * time.Minute
	_cacheKeyPrefix        = "steam:cache:"
	_userAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	_maxErrorBody          = 512
)

// Cache - кеш ответов priceoverview (реализуется pkg/redis)
type Cache interface {
	GetCache(ctx context.Context, key string) (string, error)
	SetCache(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Client - клиент маркета Steam. Повторов не делает: это ответственность вызывающего.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit - не больше perMinute запросов в минуту; 0 отключает лимит
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: _defaultTimeout},
		baseURL:    _defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/_defaultRequestsPerMin), 1),
		cacheTTL:   _defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// getJSON - GET запрос с декодированием JSON ответа в dest.
// Сетевая ошибка или не-2xx -> ErrUpstreamUnavailable, нечитаемое тело -> ErrUpstreamMalformed.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", _userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "unavailable").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "unavailable").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, _maxErrorBody))
		return fmt.Errorf("%w: %s: bad status code: %d, body: %s",
			domain.ErrUpstreamUnavailable, endpoint, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "unavailable").Inc()
		return fmt.Errorf("%w: %s: read response: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "malformed").Inc()
		return fmt.Errorf("%w: %s: unmarshal response: %v", domain.ErrUpstreamMalformed, endpoint, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}
