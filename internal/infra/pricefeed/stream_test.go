package pricefeed

import (
	"testing"

	"github.com/rs/zerolog"

	"orderbook_server/internal/domain"
)

func newTestStream(t *testing.T) *Stream {
	t.Helper()
	s, err := NewStream("ws://localhost:9", zerolog.Nop())
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	return s
}

func TestApplyMergesBatchesMostRecentWins(t *testing.T) {
	s := newTestStream(t)

	s.apply(map[string]quotePayload{
		"EURUSD": {Bid: 1.10, Ask: 1.11},
		"XAUUSD": {Bid: 2000, Ask: 2001},
	})
	s.apply(map[string]quotePayload{
		"EURUSD": {Bid: 1.12, Ask: 1.13},
	})

	book := s.Quotes()
	if len(book) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(book))
	}
	if book["EURUSD"].Bid != 1.12 {
		t.Fatalf("expected latest EURUSD bid, got %f", book["EURUSD"].Bid)
	}
	if book["XAUUSD"].Bid != 2000 {
		t.Fatalf("expected untouched XAUUSD bid, got %f", book["XAUUSD"].Bid)
	}
}

func TestApplySuppressesEmptyBatches(t *testing.T) {
	s := newTestStream(t)
	s.apply(map[string]quotePayload{"EURUSD": {Bid: 1.10, Ask: 1.11}})

	delivered := 0
	unsubscribe := s.Subscribe(func(domain.QuoteBook) { delivered++ })
	defer unsubscribe()

	s.apply(map[string]quotePayload{})
	s.apply(nil)

	if delivered != 0 {
		t.Fatalf("expected no delivery for empty batches, got %d", delivered)
	}
	if len(s.Quotes()) != 1 {
		t.Fatalf("empty batch must not overwrite existing quotes")
	}
}

func TestSubscribeDeliversFullBook(t *testing.T) {
	s := newTestStream(t)
	s.apply(map[string]quotePayload{"EURUSD": {Bid: 1.10, Ask: 1.11}})

	var got domain.QuoteBook
	unsubscribe := s.Subscribe(func(book domain.QuoteBook) { got = book })
	s.apply(map[string]quotePayload{"XAUUSD": {Bid: 2000, Ask: 2001}})

	if len(got) != 2 {
		t.Fatalf("expected full book delivered, got %d symbols", len(got))
	}

	unsubscribe()
	got = nil
	s.apply(map[string]quotePayload{"GBPUSD": {Bid: 1.25, Ask: 1.26}})
	if got != nil {
		t.Fatalf("expected no delivery after unsubscribe")
	}
}

func TestQuotesReturnsCopy(t *testing.T) {
	s := newTestStream(t)
	s.apply(map[string]quotePayload{"EURUSD": {Bid: 1.10, Ask: 1.11}})

	book := s.Quotes()
	book["EURUSD"] = domain.Quote{Bid: 9, Ask: 9}

	if s.Quotes()["EURUSD"].Bid != 1.10 {
		t.Fatalf("mutating the snapshot leaked into the stream")
	}
}

func TestClearDropsStaleQuotes(t *testing.T) {
	s := newTestStream(t)
	s.apply(map[string]quotePayload{"EURUSD": {Bid: 1.10, Ask: 1.11}})
	s.clear()

	if len(s.Quotes()) != 0 {
		t.Fatalf("expected empty book after disconnect clear")
	}
}
