// Package feed supplies live reference prices for the quoting engine.
// Two sources are provided: a rate-limited REST poller and a websocket
// trade streamer. Both cache the most recent price so the engine never
// blocks on the network inside a tick.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mmsim/internal/errors"
	"mmsim/pkg/utils"
)

const (
	// DefaultBaseURL is the spot ticker endpoint the poller queries.
	DefaultBaseURL = "https://api.binance.com"

	// DefaultMinSpacing is the minimum gap between outbound requests.
	// Refresh requests arriving faster than this are coalesced into
	// the cached value.
	DefaultMinSpacing = 2 * time.Second

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 5 * time.Second
)

// PollerConfig configures a REST price poller.
type PollerConfig struct {
	BaseURL    string
	FeedID     string // exchange symbol, e.g. BTCUSDT
	MinSpacing time.Duration
	Timeout    time.Duration
}

func (c *PollerConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MinSpacing <= 0 {
		c.MinSpacing = DefaultMinSpacing
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Poller fetches the last traded price over REST. RequestRefresh is
// non-blocking: it launches at most one in-flight request and drops
// requests that arrive inside the minimum spacing window.
type Poller struct {
	cfg    PollerConfig
	client *http.Client
	logger zerolog.Logger

	mu        sync.Mutex
	last      float64
	haveLast  bool
	lastFetch time.Time
	inflight  bool
}

// NewPoller creates a REST poller for the given feed symbol.
func NewPoller(cfg PollerConfig, logger zerolog.Logger) *Poller {
	cfg.applyDefaults()
	return &Poller{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 3 * time.Second,
				}).DialContext,
			},
		},
		logger: logger.With().Str("feed", cfg.FeedID).Logger(),
	}
}

// Last returns the most recent price and whether one has been fetched.
func (p *Poller) Last() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.haveLast
}

// RequestRefresh asks for a fresh price. It returns immediately; the
// fetch runs in the background and lands in the cache. Requests inside
// the spacing window, or while a fetch is in flight, are dropped.
func (p *Poller) RequestRefresh() {
	p.mu.Lock()
	if p.inflight || time.Since(p.lastFetch) < p.cfg.MinSpacing {
		p.mu.Unlock()
		return
	}
	p.inflight = true
	p.lastFetch = time.Now()
	p.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
		defer cancel()

		price, err := p.fetch(ctx)

		p.mu.Lock()
		p.inflight = false
		if err == nil {
			p.last = price
			p.haveLast = true
		}
		p.mu.Unlock()

		if err != nil {
			p.logger.Warn().Err(err).Msg("Price fetch failed")
		}
	}()
}

// Prime fetches one price synchronously, retrying transient failures.
// Used to seed the engine before the tick loop starts.
func (p *Poller) Prime(ctx context.Context) (float64, error) {
	var price float64
	err := utils.Retry(ctx, utils.DefaultRetryConfig(), func() error {
		var ferr error
		price, ferr = p.fetch(ctx)
		return ferr
	})
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.last = price
	p.haveLast = true
	p.lastFetch = time.Now()
	p.mu.Unlock()
	return price, nil
}

// tickerResponse is the exchange's price ticker payload.
type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (p *Poller) fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", p.cfg.BaseURL, p.cfg.FeedID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.NewFeedError(p.cfg.FeedID, "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, errors.NewFeedError(p.cfg.FeedID, "request", errors.ErrFeedUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, errors.NewFeedError(p.cfg.FeedID, "request", errors.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, errors.NewFeedError(p.cfg.FeedID, "request",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var ticker tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, errors.NewFeedError(p.cfg.FeedID, "decode", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil || price <= 0 {
		return 0, errors.NewFeedError(p.cfg.FeedID, "decode",
			fmt.Errorf("bad price %q", ticker.Price))
	}
	return price, nil
}
