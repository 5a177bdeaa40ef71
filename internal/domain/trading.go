package domain

import "time"

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Position is an open trade with unrealized profit. The backend is the only
// writer; the local copy is a read snapshot refreshed on demand.
//
// ContractSize, Commission and Swap are optional on the wire. A nil value
// means "not provided" and defaults are applied once, at the P&L computation
// boundary, never at call sites.
type Position struct {
	ID           string
	AccountID    string
	Symbol       string
	Side         TradeSide
	Quantity     float64
	OpenPrice    float64
	ContractSize *float64
	Commission   *float64
	Swap         *float64
	OpenedAt     time.Time

	// Annotation applied at fetch time, consistent with the account the
	// record was fetched through.
	AccountName string
	IsChallenge bool
}

// PendingOrder is an order not yet filled into a position. Terminal state is
// reached through cancellation or a backend-side fill observed on the next
// refresh.
type PendingOrder struct {
	ID         string
	AccountID  string
	Symbol     string
	Side       TradeSide
	OrderType  string
	Quantity   float64
	EntryPrice float64

	AccountName string
	IsChallenge bool
}

// ClosedTrade is a history record, immutable once fetched. RealizedPnl is
// authoritative from the backend; nil means the backend did not report one
// and reads as zero.
type ClosedTrade struct {
	ID          string
	AccountID   string
	Symbol      string
	Side        TradeSide
	Quantity    float64
	OpenPrice   float64
	ClosePrice  float64
	RealizedPnl *float64
	ClosedAt    time.Time

	AccountName string
	IsChallenge bool
}

// Quote is the best bid/ask for one symbol. No history is retained,
// most-recent-wins.
type Quote struct {
	Bid float64
	Ask float64
}

// QuoteBook maps instrument symbol to its latest quote. The book is replaced
// wholesale on every update batch so readers always see a consistent
// snapshot.
type QuoteBook map[string]Quote

// TradeBook is the merged result of one aggregation pass: open positions,
// pending orders and closed-trade history across the selected accounts.
type TradeBook struct {
	Open    []Position
	Pending []PendingOrder
	Closed  []ClosedTrade
}
