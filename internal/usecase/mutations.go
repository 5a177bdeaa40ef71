package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"orderbook_server/internal/domain"
	"orderbook_server/internal/infra/metrics"
)

// Refresher resynchronizes the local view from the ledger after a successful
// mutation. Local collections are never mutated optimistically.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// MutationCoordinator executes close-position and cancel-order operations
// against the ledger using the latest known price, then triggers a
// re-aggregation.
type MutationCoordinator struct {
	ledger    domain.LedgerClient
	quotes    domain.QuoteSource
	refresher Refresher
	logger    zerolog.Logger
}

func NewMutationCoordinator(ledger domain.LedgerClient, quotes domain.QuoteSource, refresher Refresher, logger zerolog.Logger) (*MutationCoordinator, error) {
	if ledger == nil {
		return nil, errors.New("ledger client required")
	}
	if quotes == nil {
		return nil, errors.New("quote source required")
	}
	if refresher == nil {
		return nil, errors.New("refresher required")
	}
	return &MutationCoordinator{
		ledger:    ledger,
		quotes:    quotes,
		refresher: refresher,
		logger:    logger.With().Str("component", "mutations").Logger(),
	}, nil
}

// ClosePosition closes one open position at the current bid/ask. Without a
// complete live quote for the symbol it fails with ErrPriceUnavailable
// before any network call. The backend computes and returns the
// authoritative realized P&L.
func (m *MutationCoordinator) ClosePosition(ctx context.Context, position domain.Position) (float64, error) {
	quote, ok := m.quotes.Quotes()[position.Symbol]
	if !ok || quote.Bid == 0 || quote.Ask == 0 {
		metrics.MutationsTotal.WithLabelValues("close", "price_unavailable").Inc()
		return 0, domain.ErrPriceUnavailable
	}

	realized, err := m.ledger.CloseTrade(ctx, position.ID, quote.Bid, quote.Ask)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("close", "error").Inc()
		m.logger.Warn().Err(err).Str("trade", position.ID).Msg("close position failed")
		return 0, err
	}

	metrics.MutationsTotal.WithLabelValues("close", "ok").Inc()
	m.logger.Info().
		Str("trade", position.ID).
		Str("symbol", position.Symbol).
		Float64("realized_pnl", realized).
		Msg("position closed")

	if err := m.refresher.Refresh(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("refresh after close failed")
	}
	return realized, nil
}

// CancelPendingOrder cancels one pending order and re-aggregates on success.
func (m *MutationCoordinator) CancelPendingOrder(ctx context.Context, order domain.PendingOrder) error {
	if err := m.ledger.CancelPendingOrder(ctx, order.ID); err != nil {
		metrics.MutationsTotal.WithLabelValues("cancel", "error").Inc()
		m.logger.Warn().Err(err).Str("order", order.ID).Msg("cancel order failed")
		return err
	}

	metrics.MutationsTotal.WithLabelValues("cancel", "ok").Inc()
	m.logger.Info().Str("order", order.ID).Str("symbol", order.Symbol).Msg("pending order cancelled")

	if err := m.refresher.Refresh(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("refresh after cancel failed")
	}
	return nil
}
