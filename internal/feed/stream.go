package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mmsim/internal/errors"
)

const (
	// DefaultWsURL is the exchange websocket endpoint for trade streams.
	DefaultWsURL = "wss://stream.binance.com:9443/ws"

	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 20 * time.Second
	wsReadLimit    = 1 << 20

	// reconnectBase is the initial backoff after a dropped connection.
	// Doubles per attempt up to reconnectMax.
	reconnectBase = 1 * time.Second
	reconnectMax  = 30 * time.Second
)

// StreamerConfig configures a websocket trade streamer.
type StreamerConfig struct {
	URL    string
	FeedID string // exchange symbol, e.g. BTCUSDT
}

// Streamer maintains a websocket subscription to the exchange's
// aggregate trade stream and caches the last traded price. Push-based,
// so RequestRefresh is a no-op; the cache is updated as trades arrive.
type Streamer struct {
	cfg    StreamerConfig
	logger zerolog.Logger

	mu       sync.Mutex
	last     float64
	haveLast bool
	conn     *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStreamer creates a trade streamer for the given feed symbol.
func NewStreamer(cfg StreamerConfig, logger zerolog.Logger) *Streamer {
	if cfg.URL == "" {
		cfg.URL = DefaultWsURL
	}
	return &Streamer{
		cfg:    cfg,
		logger: logger.With().Str("feed", cfg.FeedID).Logger(),
	}
}

// Last returns the most recent traded price and whether one has arrived.
func (s *Streamer) Last() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.haveLast
}

// RequestRefresh satisfies the price feed contract. The stream pushes
// prices continuously, so there is nothing to request.
func (s *Streamer) RequestRefresh() {}

// Start dials the stream and keeps it alive until ctx is cancelled or
// Close is called, reconnecting with exponential backoff.
func (s *Streamer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	conn, err := s.dial(ctx)
	if err != nil {
		cancel()
		close(s.done)
		return err
	}
	s.setConn(conn)

	go s.run(ctx, conn)
	return nil
}

// Close tears the connection down and waits for the read loop to exit.
func (s *Streamer) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Streamer) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Streamer) dial(ctx context.Context) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s/%s@aggTrade", s.cfg.URL, strings.ToLower(s.cfg.FeedID))
	s.logger.Debug().Str("url", url).Msg("Dialing trade stream")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.NewFeedError(s.cfg.FeedID, "dial", errors.ErrConnectionFailed)
	}

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	return conn, nil
}

// run owns the connection: read loop, keepalive pings, reconnects.
func (s *Streamer) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)

	backoff := reconnectBase
	for {
		s.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		s.logger.Warn().Dur("backoff", backoff).Msg("Stream dropped, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < reconnectMax {
			backoff *= 2
		}

		next, err := s.dial(ctx)
		if err != nil {
			continue
		}
		backoff = reconnectBase
		conn = next
		s.setConn(conn)
	}
}

func (s *Streamer) readLoop(ctx context.Context, conn *websocket.Conn) {
	pings := time.NewTicker(wsPingInterval)
	defer pings.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pings.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if price, ok := parseAggTrade(raw); ok {
			s.mu.Lock()
			s.last = price
			s.haveLast = true
			s.mu.Unlock()
		}
	}
}

// aggTrade is the exchange's aggregate trade payload. Prices arrive as
// decimal strings.
type aggTrade struct {
	Event string `json:"e"`
	Price string `json:"p"`
}

func parseAggTrade(raw []byte) (float64, bool) {
	var t aggTrade
	if err := json.Unmarshal(raw, &t); err != nil {
		return 0, false
	}
	if t.Event != "aggTrade" {
		return 0, false
	}
	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
