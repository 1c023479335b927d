package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ppiankov/diligence/internal/cache"
	"github.com/ppiankov/diligence/internal/logging"
)

// ErrDisabled is returned when no provider is configured
var ErrDisabled = errors.New("llm: no provider configured")

// Waiter gates outbound calls per key
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Client wraps a Provider with response caching and rate limiting
type Client struct {
	provider Provider
	cache    cache.Cache
	limiter  Waiter
	ttl      time.Duration
	strict   bool
	logger   *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithCache caches completions for ttl
func WithCache(c cache.Cache, ttl time.Duration) ClientOption {
	return func(cl *Client) {
		cl.cache = c
		cl.ttl = ttl
	}
}

// WithLimiter rate limits calls keyed by provider name
func WithLimiter(w Waiter) ClientOption {
	return func(cl *Client) { cl.limiter = w }
}

// WithStrictEvidence makes CompleteWithEvidence reject uncited URLs
func WithStrictEvidence(strict bool) ClientOption {
	return func(cl *Client) { cl.strict = strict }
}

// NewClient wraps p. A nil provider yields a client whose calls return ErrDisabled.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider: p,
		cache:    cache.NoopCache{},
		ttl:      24 * time.Hour,
		logger:   logging.New("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a provider is configured
func (c *Client) Enabled() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the configured provider name or ""
func (c *Client) ProviderName() string {
	if !c.Enabled() {
		return ""
	}
	return c.provider.Name()
}

// Complete returns a cached response when available, otherwise waits for the
// limiter and calls the provider
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	key := c.cacheKey(req)

	var cached Response
	if cache.GetJSON(c.cache, key, &cached) {
		cached.Cached = true
		c.logger.Debug("cache hit", "provider", c.provider.Name())
		return &cached, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("completion",
		"provider", c.provider.Name(),
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"duration", time.Since(start))

	if err := cache.SetJSON(c.cache, key, resp, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
	return resp, nil
}

// CompleteWithEvidence completes req and, under strict evidence, rejects a
// response that cites a URL outside allowed
func (c *Client) CompleteWithEvidence(ctx context.Context, req Request, allowed []string) (*Response, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if c.strict {
		if err := CheckCitations(resp.Text, allowed); err != nil {
			// a rejected answer must not be replayed from cache
			if derr := c.cache.Delete(c.cacheKey(req)); derr != nil {
				c.logger.Warn("cache delete failed", "error", derr)
			}
			return nil, err
		}
	}
	return resp, nil
}

func (c *Client) cacheKey(req Request) string {
	return cache.CacheKey(c.provider.Name(), req.Model, req.System, req.Prompt,
		strconv.Itoa(req.MaxTokens), strconv.FormatBool(req.JSON))
}
