package http

import (
	"time"

	"orderbook_server/internal/domain"
	"orderbook_server/internal/usecase"
)

type accountResponse struct {
	ID      string  `json:"id"`
	Code    string  `json:"code"`
	Kind    string  `json:"kind"`
	Balance float64 `json:"balance"`
}

type positionResponse struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	AccountName  string    `json:"accountName"`
	IsChallenge  bool      `json:"isChallenge"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Quantity     float64   `json:"quantity"`
	OpenPrice    float64   `json:"openPrice"`
	OpenedAt     time.Time `json:"openedAt"`
	CurrentPrice float64   `json:"currentPrice"`
	FloatingPnl  float64   `json:"floatingPnl"`
}

type pendingOrderResponse struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"accountId"`
	AccountName string  `json:"accountName"`
	IsChallenge bool    `json:"isChallenge"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	OrderType   string  `json:"orderType"`
	Quantity    float64 `json:"quantity"`
	EntryPrice  float64 `json:"entryPrice"`
}

type closedTradeResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	AccountName string    `json:"accountName"`
	IsChallenge bool      `json:"isChallenge"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Quantity    float64   `json:"quantity"`
	OpenPrice   float64   `json:"openPrice"`
	ClosePrice  float64   `json:"closePrice"`
	RealizedPnl float64   `json:"realizedPnl"`
	ClosedAt    time.Time `json:"closedAt"`
}

type bookResponse struct {
	Selection        string                 `json:"selection"`
	Accounts         []accountResponse      `json:"accounts"`
	Open             []positionResponse     `json:"open"`
	Pending          []pendingOrderResponse `json:"pending"`
	TotalFloatingPnl float64                `json:"totalFloatingPnl"`
}

type historyResponse struct {
	Trades   []closedTradeResponse `json:"trades"`
	TotalPnl float64               `json:"totalPnl"`
	WinRate  int                   `json:"winRate"`
}

func toBookResponse(view usecase.BookView) bookResponse {
	accounts := make([]accountResponse, 0, len(view.Accounts))
	for _, a := range view.Accounts {
		accounts = append(accounts, accountResponse{
			ID:      a.ID,
			Code:    a.Code,
			Kind:    string(a.Kind),
			Balance: a.Balance,
		})
	}

	open := make([]positionResponse, 0, len(view.Open))
	for _, p := range view.Open {
		open = append(open, positionResponse{
			ID:           p.ID,
			AccountID:    p.AccountID,
			AccountName:  p.AccountName,
			IsChallenge:  p.IsChallenge,
			Symbol:       p.Symbol,
			Side:         string(p.Side),
			Quantity:     p.Quantity,
			OpenPrice:    p.OpenPrice,
			OpenedAt:     p.OpenedAt,
			CurrentPrice: p.CurrentPrice,
			FloatingPnl:  p.FloatingPnl,
		})
	}

	pending := make([]pendingOrderResponse, 0, len(view.Pending))
	for _, o := range view.Pending {
		pending = append(pending, pendingOrderResponse{
			ID:          o.ID,
			AccountID:   o.AccountID,
			AccountName: o.AccountName,
			IsChallenge: o.IsChallenge,
			Symbol:      o.Symbol,
			Side:        string(o.Side),
			OrderType:   o.OrderType,
			Quantity:    o.Quantity,
			EntryPrice:  o.EntryPrice,
		})
	}

	return bookResponse{
		Selection:        view.Selection.Key(),
		Accounts:         accounts,
		Open:             open,
		Pending:          pending,
		TotalFloatingPnl: view.TotalFloatingPnl,
	}
}

func toHistoryResponse(view usecase.HistoryView) historyResponse {
	trades := make([]closedTradeResponse, 0, len(view.Trades))
	for _, t := range view.Trades {
		trades = append(trades, toClosedTradeResponse(t))
	}
	return historyResponse{
		Trades:   trades,
		TotalPnl: view.TotalPnl,
		WinRate:  view.WinRate,
	}
}

func toClosedTradeResponse(t domain.ClosedTrade) closedTradeResponse {
	realized := 0.0
	if t.RealizedPnl != nil {
		realized = *t.RealizedPnl
	}
	return closedTradeResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		AccountName: t.AccountName,
		IsChallenge: t.IsChallenge,
		Symbol:      t.Symbol,
		Side:        string(t.Side),
		Quantity:    t.Quantity,
		OpenPrice:   t.OpenPrice,
		ClosePrice:  t.ClosePrice,
		RealizedPnl: realized,
		ClosedAt:    t.ClosedAt,
	}
}
