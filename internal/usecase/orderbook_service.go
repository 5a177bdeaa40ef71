package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"orderbook_server/internal/domain"
	"orderbook_server/internal/infra/metrics"
)

// PositionView is an open position decorated with its valuation against the
// current quote book.
type PositionView struct {
	domain.Position
	CurrentPrice float64
	FloatingPnl  float64
}

// BookView is the snapshot handed to the presentation boundary.
type BookView struct {
	Selection        domain.Selection
	Accounts         []domain.Account
	Open             []PositionView
	Pending          []domain.PendingOrder
	TotalFloatingPnl float64
}

// HistoryView is a filtered, capped slice of closed trades plus the period
// statistics derived from the full filtered set.
type HistoryView struct {
	Trades   []domain.ClosedTrade
	TotalPnl float64
	WinRate  int
}

// OrderBookService owns the mutable view state: the user's accounts, the
// current selection and the last accepted trade book. Aggregations run
// against the ledger; the price stream is consulted only at read time, so
// the two flows never block one another.
type OrderBookService struct {
	userID     string
	ledger     domain.LedgerClient
	quotes     domain.QuoteSource
	aggregator *TradeAggregator
	snapshots  domain.SnapshotRepository
	logger     zerolog.Logger

	mu              sync.Mutex
	selection       domain.Selection
	generation      uint64
	loaded          bool
	regular         []domain.Account
	regularLoaded   bool
	challenge       []domain.Account
	challengeLoaded bool
	book            domain.TradeBook
}

func NewOrderBookService(userID string, ledger domain.LedgerClient, quotes domain.QuoteSource, aggregator *TradeAggregator, snapshots domain.SnapshotRepository, logger zerolog.Logger) (*OrderBookService, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	if ledger == nil {
		return nil, errors.New("ledger client required")
	}
	if quotes == nil {
		return nil, errors.New("quote source required")
	}
	if aggregator == nil {
		return nil, errors.New("aggregator required")
	}
	return &OrderBookService{
		userID:     userID,
		ledger:     ledger,
		quotes:     quotes,
		aggregator: aggregator,
		snapshots:  snapshots,
		selection:  domain.SelectAll(),
		logger:     logger.With().Str("component", "orderbook").Logger(),
	}, nil
}

// Restore loads the cached book for the current selection so the view starts
// from the previous-valid state instead of empty. Cache misses are silent.
func (s *OrderBookService) Restore(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	s.mu.Lock()
	key := s.selection.Key()
	s.mu.Unlock()

	book, err := s.snapshots.LoadBook(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("selection", key).Msg("snapshot restore failed")
		return
	}

	s.mu.Lock()
	if !s.loaded && s.selection.Key() == key {
		s.book = book
	}
	s.mu.Unlock()
}

// SetSelection switches the account filter and refreshes. Bumping the
// generation first guarantees that any aggregation still in flight for the
// old selection is discarded on completion.
func (s *OrderBookService) SetSelection(ctx context.Context, sel domain.Selection) error {
	s.mu.Lock()
	s.selection = sel
	s.generation++
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Refresh re-fetches the account lists if needed, aggregates trades for the
// current selection and, if the selection is still current when the pass
// completes, replaces the local book. A stale pass is dropped, never merged.
func (s *OrderBookService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	sel := s.selection
	s.mu.Unlock()

	regular, challenge, err := s.accounts(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("account fetch failed")
		return err
	}

	book := s.aggregator.Aggregate(ctx, sel, regular, challenge)

	s.mu.Lock()
	if s.generation != gen || s.selection != sel {
		s.mu.Unlock()
		metrics.StaleAggregations.Inc()
		s.logger.Debug().Str("selection", sel.Key()).Msg("stale aggregation discarded")
		return nil
	}
	s.book = book
	s.loaded = true
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.ReplaceBook(ctx, sel.Key(), book); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot persist failed")
		}
	}
	return nil
}

// accounts returns the account lists, fetching any side that has not been
// loaded yet from the ledger in parallel. A side is cached only once its
// fetch succeeds; a failed side is retried on the next refresh.
func (s *OrderBookService) accounts(ctx context.Context) ([]domain.Account, []domain.Account, error) {
	s.mu.Lock()
	needRegular := !s.regularLoaded
	needChallenge := !s.challengeLoaded
	regular, challenge := s.regular, s.challenge
	s.mu.Unlock()

	if !needRegular && !needChallenge {
		return regular, challenge, nil
	}

	var (
		wg               sync.WaitGroup
		fetchedRegular   []domain.Account
		fetchedChallenge []domain.Account
		regularErr       error
		challengeErr     error
	)
	if needRegular {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetchedRegular, regularErr = s.ledger.RegularAccounts(ctx, s.userID)
		}()
	}
	if needChallenge {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetchedChallenge, challengeErr = s.ledger.ChallengeAccounts(ctx, s.userID)
		}()
	}
	wg.Wait()

	if needRegular && needChallenge && regularErr != nil && challengeErr != nil {
		return nil, nil, regularErr
	}
	if regularErr != nil {
		s.logger.Warn().Err(regularErr).Msg("regular accounts unavailable")
	}
	if challengeErr != nil {
		s.logger.Warn().Err(challengeErr).Msg("challenge accounts unavailable")
	}

	s.mu.Lock()
	if needRegular && regularErr == nil {
		s.regular = fetchedRegular
		s.regularLoaded = true
	}
	if needChallenge && challengeErr == nil {
		s.challenge = fetchedChallenge
		s.challengeLoaded = true
	}
	regular, challenge = s.regular, s.challenge
	s.mu.Unlock()
	return regular, challenge, nil
}

// View values the current book against the latest quote snapshot.
func (s *OrderBookService) View() BookView {
	quotes := s.quotes.Quotes()

	s.mu.Lock()
	sel := s.selection
	book := s.book
	accounts := sel.Resolve(s.regular, s.challenge)
	s.mu.Unlock()

	open := make([]PositionView, 0, len(book.Open))
	for _, p := range book.Open {
		open = append(open, PositionView{
			Position:     p,
			CurrentPrice: closingPrice(p.Side, quotes[p.Symbol]),
			FloatingPnl:  FloatingPnl(p, quotes),
		})
	}

	return BookView{
		Selection:        sel,
		Accounts:         accounts,
		Open:             open,
		Pending:          book.Pending,
		TotalFloatingPnl: TotalFloatingPnl(book.Open, quotes),
	}
}

// History applies the filter to the current closed set. Statistics cover the
// whole filtered period; the display cap applies only to the returned slice.
func (s *OrderBookService) History(f HistoryFilter, now time.Time) HistoryView {
	s.mu.Lock()
	closed := s.book.Closed
	s.mu.Unlock()

	filtered := FilterHistory(closed, f, now)
	return HistoryView{
		Trades:   CapHistory(filtered, HistoryDisplayCap),
		TotalPnl: HistoryTotalPnl(filtered),
		WinRate:  WinRate(filtered),
	}
}

// FindPosition locates an open position in the current book by trade id.
func (s *OrderBookService) FindPosition(tradeID string) (domain.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.book.Open {
		if p.ID == tradeID {
			return p, true
		}
	}
	return domain.Position{}, false
}

// FindPendingOrder locates a pending order in the current book by id.
func (s *OrderBookService) FindPendingOrder(orderID string) (domain.PendingOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.book.Pending {
		if o.ID == orderID {
			return o, true
		}
	}
	return domain.PendingOrder{}, false
}
