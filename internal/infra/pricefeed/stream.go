package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"orderbook_server/internal/domain"
	"orderbook_server/internal/infra/metrics"
)

type quotePayload struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// Stream maintains the live symbol-to-quote mapping over a single push
// channel. Connection errors are logged and retried with backoff; they never
// reach subscribers. Subscribers receive the full current book after every
// non-empty update batch.
type Stream struct {
	url     string
	dialer  *websocket.Dialer
	backoff Backoff
	logger  zerolog.Logger

	running atomic.Bool

	mu        sync.RWMutex
	book      domain.QuoteBook
	listeners map[int]func(domain.QuoteBook)
	nextID    int
}

func NewStream(url string, logger zerolog.Logger) (*Stream, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("feed url is required")
	}
	return &Stream{
		url:       url,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		backoff:   DefaultBackoff(),
		logger:    logger.With().Str("component", "pricefeed").Logger(),
		book:      domain.QuoteBook{},
		listeners: map[int]func(domain.QuoteBook){},
	}, nil
}

// Run owns the connection lifecycle and blocks until ctx is done. A second
// call while the stream is already running returns immediately, so the
// stream holds at most one active connection.
func (s *Stream) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			attempt++
			metrics.FeedReconnects.Inc()
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("feed dial failed")
			if !s.sleep(ctx, s.backoff.Next(attempt)) {
				return
			}
			continue
		}

		attempt = 0
		s.logger.Info().Str("url", s.url).Msg("feed connected")
		s.consume(ctx, conn)

		// The gap after a disconnect makes the retained quotes stale;
		// drop them instead of serving them as live.
		s.clear()
	}
}

func (s *Stream) consume(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var batch map[string]quotePayload
		if err := conn.ReadJSON(&batch); err != nil {
			if ctx.Err() == nil {
				metrics.FeedReconnects.Inc()
				s.logger.Warn().Err(err).Msg("feed read failed, reconnecting")
			}
			return
		}
		s.apply(batch)
	}
}

// apply merges one update batch into the book. The mapping is replaced
// wholesale so concurrent readers always observe a consistent snapshot;
// empty batches are suppressed and never overwrite existing quotes.
func (s *Stream) apply(batch map[string]quotePayload) {
	if len(batch) == 0 {
		metrics.PriceBatchesEmpty.Inc()
		return
	}
	metrics.PriceBatchesTotal.Inc()

	s.mu.Lock()
	next := make(domain.QuoteBook, len(s.book)+len(batch))
	for symbol, quote := range s.book {
		next[symbol] = quote
	}
	for symbol, quote := range batch {
		next[symbol] = domain.Quote{Bid: quote.Bid, Ask: quote.Ask}
	}
	s.book = next

	listeners := make([]func(domain.QuoteBook), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

func (s *Stream) clear() {
	s.mu.Lock()
	s.book = domain.QuoteBook{}
	s.mu.Unlock()
}

// Quotes returns a copy of the current book.
func (s *Stream) Quotes() domain.QuoteBook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.QuoteBook, len(s.book))
	for symbol, quote := range s.book {
		out[symbol] = quote
	}
	return out
}

// Subscribe registers a price listener and returns its unsubscribe func.
// Unsubscribing is idempotent.
func (s *Stream) Subscribe(fn func(domain.QuoteBook)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Stream) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
