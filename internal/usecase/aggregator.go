package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"orderbook_server/internal/domain"
	"orderbook_server/internal/infra/metrics"
)

// Number of history records fetched per account on every aggregation pass.
const historyFetchLimit = 20

// TradeAggregator merges per-account trade data from the ledger into one
// unified view. Each resolved account is fetched in parallel, and the three
// collections of one account are themselves independent requests.
type TradeAggregator struct {
	ledger domain.LedgerClient
	logger zerolog.Logger
}

func NewTradeAggregator(ledger domain.LedgerClient, logger zerolog.Logger) (*TradeAggregator, error) {
	if ledger == nil {
		return nil, errors.New("ledger client required")
	}
	return &TradeAggregator{
		ledger: ledger,
		logger: logger.With().Str("component", "aggregator").Logger(),
	}, nil
}

// Aggregate resolves the selection into accounts, fetches and annotates
// every account's open, pending and closed collections, and merges them.
// A failed fetch degrades that account's contribution to empty instead of
// failing the pass; sibling fetches already in flight keep running. The
// merged closed set is sorted by close time, most recent first.
func (a *TradeAggregator) Aggregate(ctx context.Context, sel domain.Selection, regular, challenge []domain.Account) domain.TradeBook {
	metrics.AggregationsTotal.Inc()
	started := time.Now()

	accounts := sel.Resolve(regular, challenge)
	results := make([]domain.TradeBook, len(accounts))

	var wg sync.WaitGroup
	for i, acct := range accounts {
		wg.Add(1)
		go func(i int, acct domain.Account) {
			defer wg.Done()
			results[i] = a.fetchAccount(ctx, acct)
		}(i, acct)
	}
	wg.Wait()

	var book domain.TradeBook
	for _, r := range results {
		book.Open = append(book.Open, r.Open...)
		book.Pending = append(book.Pending, r.Pending...)
		book.Closed = append(book.Closed, r.Closed...)
	}

	sort.SliceStable(book.Closed, func(i, j int) bool {
		return book.Closed[i].ClosedAt.After(book.Closed[j].ClosedAt)
	})

	metrics.AggregationLatencyMs.Observe(float64(time.Since(started).Milliseconds()))
	a.logger.Debug().
		Str("selection", sel.Key()).
		Int("accounts", len(accounts)).
		Int("open", len(book.Open)).
		Int("pending", len(book.Pending)).
		Int("closed", len(book.Closed)).
		Msg("aggregation complete")

	return book
}

// fetchAccount issues the three collection fetches for one account
// concurrently, annotates every record with the owning account and turns
// failures into empty collections.
func (a *TradeAggregator) fetchAccount(ctx context.Context, acct domain.Account) domain.TradeBook {
	label := acct.Label()
	isChallenge := acct.Kind == domain.AccountKindChallenge

	var book domain.TradeBook
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		open, err := a.ledger.OpenPositions(ctx, acct.ID)
		if err != nil {
			a.degrade(acct, "open", err)
			return
		}
		for i := range open {
			open[i].AccountName = label
			open[i].IsChallenge = isChallenge
		}
		book.Open = open
	}()

	go func() {
		defer wg.Done()
		pending, err := a.ledger.PendingOrders(ctx, acct.ID)
		if err != nil {
			a.degrade(acct, "pending", err)
			return
		}
		for i := range pending {
			pending[i].AccountName = label
			pending[i].IsChallenge = isChallenge
		}
		book.Pending = pending
	}()

	go func() {
		defer wg.Done()
		closed, err := a.ledger.ClosedTrades(ctx, acct.ID, historyFetchLimit)
		if err != nil {
			a.degrade(acct, "closed", err)
			return
		}
		for i := range closed {
			closed[i].AccountName = label
			closed[i].IsChallenge = isChallenge
		}
		book.Closed = closed
	}()

	wg.Wait()
	return book
}

func (a *TradeAggregator) degrade(acct domain.Account, collection string, err error) {
	metrics.AccountFetchErrors.WithLabelValues(collection).Inc()
	a.logger.Warn().
		Err(err).
		Str("account", acct.ID).
		Str("collection", collection).
		Msg("account fetch failed, contribution dropped")
}
