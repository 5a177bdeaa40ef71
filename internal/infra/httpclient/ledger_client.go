package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"orderbook_server/internal/domain"
)

// LedgerClient talks to the backend trade/account service. The backend owns
// the ledger; every call here is a plain request/response and carries no
// local state.
type LedgerClient struct {
	client  *resty.Client
	baseURL string
}

func NewLedgerClient(baseURL string, opts ...func(*resty.Client)) (*LedgerClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	for _, opt := range opts {
		opt(client)
	}

	return &LedgerClient{
		client:  client,
		baseURL: baseURL,
	}, nil
}

type accountPayload struct {
	ID        string  `json:"_id"`
	AccountID string  `json:"accountId"`
	Balance   float64 `json:"balance"`
	Status    string  `json:"status"`
}

type accountsResponse struct {
	Success  bool             `json:"success"`
	Accounts []accountPayload `json:"accounts"`
}

type tradePayload struct {
	ID           string   `json:"_id"`
	Symbol       string   `json:"symbol"`
	Side         string   `json:"side"`
	OrderType    string   `json:"orderType"`
	Quantity     float64  `json:"quantity"`
	OpenPrice    float64  `json:"openPrice"`
	EntryPrice   float64  `json:"entryPrice"`
	ClosePrice   float64  `json:"closePrice"`
	ContractSize *float64 `json:"contractSize"`
	Commission   *float64 `json:"commission"`
	Swap         *float64 `json:"swap"`
	RealizedPnl  *float64 `json:"realizedPnl"`
	OpenedAt     string   `json:"openedAt"`
	ClosedAt     string   `json:"closedAt"`
}

type tradesResponse struct {
	Success bool           `json:"success"`
	Trades  []tradePayload `json:"trades"`
	Message string         `json:"message"`
}

type closeTradeRequest struct {
	TradeID string  `json:"tradeId"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
}

type mutationResponse struct {
	Success     bool    `json:"success"`
	RealizedPnl float64 `json:"realizedPnl"`
	Message     string  `json:"message"`
}

func (c *LedgerClient) RegularAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	var payload accountsResponse
	if err := c.get(ctx, "/trading-accounts/user/"+userID, nil, &payload); err != nil {
		return nil, err
	}
	return toAccounts(payload.Accounts, domain.AccountKindRegular, nil), nil
}

// ChallengeAccounts fetches the user's challenge accounts. The backend
// returns every account; only ACTIVE ones are kept.
func (c *LedgerClient) ChallengeAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	var payload accountsResponse
	if err := c.get(ctx, "/prop/my-accounts/"+userID, nil, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, nil
	}
	return toAccounts(payload.Accounts, domain.AccountKindChallenge, func(a accountPayload) bool {
		return a.Status == "ACTIVE"
	}), nil
}

func (c *LedgerClient) OpenPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	trades, err := c.fetchTrades(ctx, "/trade/open/"+accountID, nil)
	if err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(trades))
	for _, t := range trades {
		positions = append(positions, domain.Position{
			ID:           t.ID,
			AccountID:    accountID,
			Symbol:       t.Symbol,
			Side:         domain.TradeSide(t.Side),
			Quantity:     t.Quantity,
			OpenPrice:    t.OpenPrice,
			ContractSize: t.ContractSize,
			Commission:   t.Commission,
			Swap:         t.Swap,
			OpenedAt:     parseTimestamp(t.OpenedAt),
		})
	}
	return positions, nil
}

func (c *LedgerClient) PendingOrders(ctx context.Context, accountID string) ([]domain.PendingOrder, error) {
	trades, err := c.fetchTrades(ctx, "/trade/pending/"+accountID, nil)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.PendingOrder, 0, len(trades))
	for _, t := range trades {
		orders = append(orders, domain.PendingOrder{
			ID:         t.ID,
			AccountID:  accountID,
			Symbol:     t.Symbol,
			Side:       domain.TradeSide(t.Side),
			OrderType:  t.OrderType,
			Quantity:   t.Quantity,
			EntryPrice: t.EntryPrice,
		})
	}
	return orders, nil
}

func (c *LedgerClient) ClosedTrades(ctx context.Context, accountID string, limit int) ([]domain.ClosedTrade, error) {
	query := map[string]string{"limit": fmt.Sprintf("%d", limit)}
	trades, err := c.fetchTrades(ctx, "/trade/history/"+accountID, query)
	if err != nil {
		return nil, err
	}

	closed := make([]domain.ClosedTrade, 0, len(trades))
	for _, t := range trades {
		closed = append(closed, domain.ClosedTrade{
			ID:          t.ID,
			AccountID:   accountID,
			Symbol:      t.Symbol,
			Side:        domain.TradeSide(t.Side),
			Quantity:    t.Quantity,
			OpenPrice:   t.OpenPrice,
			ClosePrice:  t.ClosePrice,
			RealizedPnl: t.RealizedPnl,
			ClosedAt:    parseTimestamp(t.ClosedAt),
		})
	}
	return closed, nil
}

func (c *LedgerClient) CloseTrade(ctx context.Context, tradeID string, bid, ask float64) (float64, error) {
	var payload mutationResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(closeTradeRequest{TradeID: tradeID, Bid: bid, Ask: ask}).
		SetResult(&payload).
		SetError(&payload).
		Post("/trade/close")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if resp.StatusCode() >= 500 {
		return 0, fmt.Errorf("%w: backend responded with status %d", domain.ErrNetwork, resp.StatusCode())
	}
	if !payload.Success {
		return 0, domain.NewBackendError(payload.Message, "failed to close trade")
	}
	return payload.RealizedPnl, nil
}

func (c *LedgerClient) CancelPendingOrder(ctx context.Context, orderID string) error {
	var payload mutationResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&payload).
		SetError(&payload).
		Delete("/trade/pending/" + orderID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("%w: backend responded with status %d", domain.ErrNetwork, resp.StatusCode())
	}
	if !payload.Success {
		return domain.NewBackendError(payload.Message, "failed to cancel order")
	}
	return nil
}

// fetchTrades runs one trade-collection GET. A response the backend marked
// unsuccessful yields an empty collection rather than an error; the caller
// cannot distinguish "no trades" from "not available" and should not.
func (c *LedgerClient) fetchTrades(ctx context.Context, path string, query map[string]string) ([]tradePayload, error) {
	var payload tradesResponse
	if err := c.get(ctx, path, query, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, nil
	}
	return payload.Trades, nil
}

func (c *LedgerClient) get(ctx context.Context, path string, query map[string]string, out any) error {
	req := c.client.R().
		SetContext(ctx).
		SetResult(out)
	if len(query) > 0 {
		req = req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("backend responded with status %d", resp.StatusCode())
	}
	return nil
}

func toAccounts(payload []accountPayload, kind domain.AccountKind, keep func(accountPayload) bool) []domain.Account {
	accounts := make([]domain.Account, 0, len(payload))
	for _, a := range payload {
		if keep != nil && !keep(a) {
			continue
		}
		accounts = append(accounts, domain.Account{
			ID:      a.ID,
			Code:    a.AccountID,
			Kind:    kind,
			Balance: a.Balance,
			Status:  a.Status,
		})
	}
	return accounts
}

// parseTimestamp accepts the handful of layouts the backend emits. Malformed
// values read as the zero time rather than failing the record.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
