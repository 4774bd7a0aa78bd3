package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.coingecko.com/api/v3"
	DefaultCacheTTL = 30 * time.Second
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

var (
	// ErrFetch is returned when CoinGecko cannot be reached or answers non-2xx.
	ErrFetch = errors.New("failed to fetch price from CoinGecko")
	// ErrUnexpectedResponse is returned when the body lacks a numeric usd price.
	ErrUnexpectedResponse = errors.New("CoinGecko returned an unexpected response")
)

type Options struct {
	BaseURL       string
	CacheTTL      time.Duration
	RatePerSecond float64 // <= 0 disables limiting
	HTTPClient    *http.Client
}

type cached struct {
	usd     float64
	fetched time.Time
}

// Client queries the CoinGecko simple price endpoint. Results are cached per
// coin id for CacheTTL and concurrent lookups of one id share a single request.
type Client struct {
	baseURL    string
	ttl        time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// NewClient creates a price client. Zero-valued options fall back to defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		ttl:        opts.CacheTTL,
		httpClient: opts.HTTPClient,
		now:        time.Now,
		cache:      make(map[string]cached),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return c
}

// PriceUSD returns the current USD price for symbol.
func (c *Client) PriceUSD(ctx context.Context, symbol string) (float64, error) {
	id, err := LookupID(symbol)
	if err != nil {
		return 0, err
	}

	if usd, ok := c.fromCache(id); ok {
		return usd, nil
	}

	// The shared fetch outlives any single caller; each caller waits on its own ctx.
	ch := c.group.DoChan(id, func() (any, error) {
		if usd, ok := c.fromCache(id); ok {
			return usd, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		usd, err := c.fetch(fetchCtx, id)
		if err != nil {
			return 0.0, err
		}
		c.store(id, usd)
		return usd, nil
	})

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrFetch, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

func (c *Client) fromCache(id string) (float64, bool) {
	if c.ttl <= 0 {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[id]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return 0, false
	}
	return e.usd, true
}

func (c *Client) store(id string, usd float64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.cache[id] = cached{usd: usd, fetched: c.now()}
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context, id string) (float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFetch, err)
		}
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("price request failed", "id", id, "error", err)
		return 0, ErrFetch
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("price request rejected", "id", id, "status", resp.StatusCode)
		return 0, ErrFetch
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, ErrFetch
	}

	var payload map[string]map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, ErrUnexpectedResponse
	}
	usd, ok := payload[id]["usd"].(float64)
	if !ok {
		return 0, ErrUnexpectedResponse
	}
	return usd, nil
}
