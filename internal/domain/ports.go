package domain

import "context"

// LedgerClient is the backend trade/account surface. The backend owns the
// ledger and is authoritative for balances, trade state and realized P&L;
// everything here is request/response.
type LedgerClient interface {
	RegularAccounts(ctx context.Context, userID string) ([]Account, error)
	// ChallengeAccounts returns the user's challenge accounts already
	// filtered to status ACTIVE.
	ChallengeAccounts(ctx context.Context, userID string) ([]Account, error)

	OpenPositions(ctx context.Context, accountID string) ([]Position, error)
	PendingOrders(ctx context.Context, accountID string) ([]PendingOrder, error)
	ClosedTrades(ctx context.Context, accountID string, limit int) ([]ClosedTrade, error)

	// CloseTrade asks the backend to close an open position at the supplied
	// bid/ask and returns the authoritative realized P&L.
	CloseTrade(ctx context.Context, tradeID string, bid, ask float64) (float64, error)
	CancelPendingOrder(ctx context.Context, orderID string) error
}

// QuoteSource provides the latest price snapshot and push-style delivery of
// update batches to any number of independent subscribers.
type QuoteSource interface {
	Quotes() QuoteBook
	// Subscribe registers a listener invoked with the full current book
	// after every non-empty update batch. The returned func unsubscribes.
	Subscribe(fn func(QuoteBook)) func()
}

// SnapshotRepository caches the last accepted trade book per selection. The
// cache is never authoritative; it only restores a previous-valid view at
// startup.
type SnapshotRepository interface {
	ReplaceBook(ctx context.Context, selectionKey string, book TradeBook) error
	LoadBook(ctx context.Context, selectionKey string) (TradeBook, error)
}
