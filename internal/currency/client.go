// Package currency looks up exchange rates from an exchangerate-api style
// service.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

const (
	DefaultBaseURL = "https://v6.exchangerate-api.com/v6"
	DefaultTimeout = 10 * time.Second
	DefaultTTL     = time.Hour

	cacheSize = 64
)

// Converter returns the rate that converts one unit of base into target.
type Converter interface {
	Rate(ctx context.Context, base, target string) (decimal.Decimal, error)
}

// Static always returns 1. It serves deployments without a rate provider.
type Static struct{}

func (Static) Rate(context.Context, string, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(1), nil
}

type ratesResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// Client fetches the full rate table for a base currency and caches it.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	rates   *cache.LRU[map[string]decimal.Decimal]
	group   singleflight.Group
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL, apiKey string, timeout, ttl time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		rates:   cache.NewLRU[map[string]decimal.Decimal](cacheSize, ttl),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Cache exposes the rate cache so a cache.Manager can sweep it.
func (c *Client) Cache() cache.Cleaner {
	return c.rates
}

// Rate returns the conversion rate from base to target. Any failure is
// reported as core.ErrRateDegraded; callers decide whether to fall back.
func (c *Client) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	base, target = strings.ToUpper(base), strings.ToUpper(target)
	if base == target {
		return decimal.NewFromInt(1), nil
	}

	table, ok := c.rates.Get(base)
	if !ok {
		v, err, shared := c.group.Do(base, func() (any, error) {
			return c.fetch(ctx, base)
		})
		if err != nil {
			return decimal.Decimal{}, &core.Error{Kind: core.KindDegraded, Message: core.ErrRateDegraded.Message, Err: err}
		}
		table = v.(map[string]decimal.Decimal)
		if !shared {
			c.rates.Set(base, table)
		}
	}

	rate, ok := table[target]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, &core.Error{
			Kind:    core.KindDegraded,
			Message: core.ErrRateDegraded.Message,
			Err:     fmt.Errorf("no rate for %s/%s", base, target),
		}
	}
	return rate, nil
}

func (c *Client) fetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("rate provider error: %s", body.ErrorType)
	}
	if len(body.ConversionRates) == 0 {
		return nil, fmt.Errorf("rate provider returned no rates for %s", base)
	}

	c.logger.DebugContext(ctx, "Exchange rates fetched",
		"base", base,
		"count", len(body.ConversionRates),
		"duration", time.Since(start))
	return body.ConversionRates, nil
}
