package usecase

import (
	"math"

	"orderbook_server/internal/domain"
)

// FloatingPnl computes the unrealized profit of one open position against the
// current quote book. Closing a long hits the bid, closing a short hits the
// ask. Missing quote or missing side-relevant price yields exactly 0.
func FloatingPnl(position domain.Position, quotes domain.QuoteBook) float64 {
	current := closingPrice(position.Side, quotes[position.Symbol])
	if current == 0 {
		return 0
	}

	contract := ContractSize(position.Symbol)
	if position.ContractSize != nil {
		contract = *position.ContractSize
	}

	var raw float64
	if position.Side == domain.TradeSideBuy {
		raw = (current - position.OpenPrice) * position.Quantity * contract
	} else {
		raw = (position.OpenPrice - current) * position.Quantity * contract
	}

	return raw - deref(position.Commission) - deref(position.Swap)
}

// TotalFloatingPnl is a pure fold of FloatingPnl over the open positions. It
// is recomputed on every price update or position-set change, never cached.
func TotalFloatingPnl(positions []domain.Position, quotes domain.QuoteBook) float64 {
	total := 0.0
	for _, p := range positions {
		total += FloatingPnl(p, quotes)
	}
	return total
}

// HistoryTotalPnl sums the realized P&L of the given closed trades. A trade
// without a reported realized P&L counts as zero.
func HistoryTotalPnl(trades []domain.ClosedTrade) float64 {
	total := 0.0
	for _, t := range trades {
		total += deref(t.RealizedPnl)
	}
	return total
}

// WinRate returns the percentage of profitable trades, rounded to the nearest
// integer. An empty list has a win rate of 0.
func WinRate(trades []domain.ClosedTrade) int {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if deref(t.RealizedPnl) > 0 {
			wins++
		}
	}
	return int(math.Round(100 * float64(wins) / float64(len(trades))))
}

func closingPrice(side domain.TradeSide, quote domain.Quote) float64 {
	if side == domain.TradeSideBuy {
		return quote.Bid
	}
	return quote.Ask
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
