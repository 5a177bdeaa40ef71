package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderbook_server/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*LedgerClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewLedgerClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestChallengeAccountsFiltersActive(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/prop/my-accounts/u1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"accounts": []map[string]any{
				{"_id": "c1", "accountId": "CH-1", "status": "ACTIVE", "balance": 5000},
				{"_id": "c2", "accountId": "CH-2", "status": "FAILED", "balance": 0},
			},
		})
	}))

	accounts, err := client.ChallengeAccounts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 active account, got %d", len(accounts))
	}
	if accounts[0].ID != "c1" || accounts[0].Kind != domain.AccountKindChallenge {
		t.Fatalf("unexpected account %+v", accounts[0])
	}
}

func TestRegularAccounts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/trading-accounts/user/u1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{
				{"_id": "a1", "accountId": "MT-100", "balance": 10000},
			},
		})
	}))

	accounts, err := client.RegularAccounts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Code != "MT-100" || accounts[0].Kind != domain.AccountKindRegular {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
}

func TestOpenPositionsMapsOptionalFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"trades": []map[string]any{
				{
					"_id":       "p1",
					"symbol":    "EURUSD",
					"side":      "BUY",
					"quantity":  1.5,
					"openPrice": 1.1,
					"swap":      -0.3,
				},
			},
		})
	}))

	positions, err := client.OpenPositions(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	p := positions[0]
	if p.AccountID != "a1" || p.Side != domain.TradeSideBuy {
		t.Fatalf("unexpected position %+v", p)
	}
	if p.Commission != nil {
		t.Fatalf("expected absent commission to stay nil")
	}
	if p.Swap == nil || *p.Swap != -0.3 {
		t.Fatalf("expected swap -0.3, got %v", p.Swap)
	}
}

func TestFetchTradesUnsuccessfulResponseIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))

	positions, err := client.OpenPositions(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("expected empty collection, got %d", len(positions))
	}
}

func TestClosedTradesSendsLimit(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/trade/history/a1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "20" {
			t.Fatalf("expected limit=20, got %q", r.URL.Query().Get("limit"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"trades": []map[string]any{
				{"_id": "h1", "symbol": "EURUSD", "realizedPnl": 12.5, "closedAt": "2024-06-10T09:00:00Z"},
			},
		})
	}))

	trades, err := client.ClosedTrades(context.Background(), "a1", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].RealizedPnl == nil || *trades[0].RealizedPnl != 12.5 {
		t.Fatalf("unexpected realized pnl %v", trades[0].RealizedPnl)
	}
	if trades[0].ClosedAt.IsZero() {
		t.Fatalf("expected closedAt parsed")
	}
}

func TestCloseTradeSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost || r.URL.Path != "/trade/close" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["tradeId"] != "t1" || req["bid"] != 1.105 || req["ask"] != 1.1052 {
			t.Fatalf("unexpected body %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "realizedPnl": 500.0})
	}))

	realized, err := client.CloseTrade(context.Background(), "t1", 1.105, 1.1052)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if realized != 500 {
		t.Fatalf("expected realized 500, got %f", realized)
	}
}

func TestCloseTradeBackendRejection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "trade already closed"})
	}))

	_, err := client.CloseTrade(context.Background(), "t1", 1, 1)
	var backendErr *domain.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Message != "trade already closed" {
		t.Fatalf("expected backend message, got %q", backendErr.Message)
	}
}

func TestCloseTradeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewLedgerClient(url)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CloseTrade(context.Background(), "t1", 1, 1)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestCancelPendingOrder(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodDelete || r.URL.Path != "/trade/pending/o1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	if err := client.CancelPendingOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
