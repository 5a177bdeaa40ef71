package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	fiber "github.com/gofiber/fiber/v2"

	"orderbook_server/internal/domain"
	"orderbook_server/internal/usecase"
)

type OrderBookService interface {
	Refresh(ctx context.Context) error
	SetSelection(ctx context.Context, sel domain.Selection) error
	View() usecase.BookView
	History(f usecase.HistoryFilter, now time.Time) usecase.HistoryView
	FindPosition(tradeID string) (domain.Position, bool)
	FindPendingOrder(orderID string) (domain.PendingOrder, bool)
}

type MutationService interface {
	ClosePosition(ctx context.Context, position domain.Position) (float64, error)
	CancelPendingOrder(ctx context.Context, order domain.PendingOrder) error
}

type Router struct {
	app       *fiber.App
	orderBook OrderBookService
	mutations MutationService
}

func New(orderBook OrderBookService, mutations MutationService, metricsHandler http.Handler) *Router {
	app := fiber.New()

	r := &Router{
		app:       app,
		orderBook: orderBook,
		mutations: mutations,
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/orderbook", r.getOrderBook)
	v1.Get("/orderbook/history", r.getHistory)
	v1.Post("/orderbook/refresh", r.refresh)
	v1.Put("/orderbook/account", r.setAccount)

	v1.Post("/trade/close", r.closeTrade)
	v1.Delete("/trade/pending/:orderId", r.cancelPending)

	if metricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return r
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) getOrderBook(c *fiber.Ctx) error {
	if r.orderBook == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "order book service unavailable")
	}

	// An explicit account selector switches the view before responding, the
	// same way PUT /orderbook/account does.
	if raw := c.Query("account"); raw != "" {
		sel := parseSelection(raw)
		if sel != r.orderBook.View().Selection {
			ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
			defer cancel()
			if err := r.orderBook.SetSelection(ctx, sel); err != nil {
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			}
		}
	}
	return c.JSON(toBookResponse(r.orderBook.View()))
}

func (r *Router) getHistory(c *fiber.Ctx) error {
	if r.orderBook == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "order book service unavailable")
	}

	filter := usecase.HistoryFilter{Preset: usecase.HistoryPresetMonth}
	if raw := c.Query("filter"); raw != "" {
		preset, ok := parsePreset(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid filter")
		}
		filter.Preset = preset
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from := parseTime(fromStr, "2006-01-02", time.RFC3339)
		if from.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from date")
		}
		filter.Start = from
	}
	if toStr := c.Query("to"); toStr != "" {
		to := parseTime(toStr, "2006-01-02", time.RFC3339)
		if to.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to date")
		}
		filter.End = to
	}

	view := r.orderBook.History(filter, time.Now())
	return c.JSON(toHistoryResponse(view))
}

func (r *Router) refresh(c *fiber.Ctx) error {
	if r.orderBook == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "order book service unavailable")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
	defer cancel()

	if err := r.orderBook.Refresh(ctx); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(toBookResponse(r.orderBook.View()))
}

type setAccountRequest struct {
	Account string `json:"account"`
}

func (r *Router) setAccount(c *fiber.Ctx) error {
	if r.orderBook == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "order book service unavailable")
	}

	var req setAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
	defer cancel()

	if err := r.orderBook.SetSelection(ctx, parseSelection(req.Account)); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(toBookResponse(r.orderBook.View()))
}

type closeTradeRequest struct {
	TradeID string `json:"tradeId"`
}

func (r *Router) closeTrade(c *fiber.Ctx) error {
	if r.orderBook == nil || r.mutations == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading services unavailable")
	}

	var req closeTradeRequest
	if err := c.BodyParser(&req); err != nil || req.TradeID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "tradeId is required")
	}

	position, ok := r.orderBook.FindPosition(req.TradeID)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "open position not found")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
	defer cancel()

	realized, err := r.mutations.ClosePosition(ctx, position)
	if err != nil {
		return mutationError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"realizedPnl": realized,
	})
}

func (r *Router) cancelPending(c *fiber.Ctx) error {
	if r.orderBook == nil || r.mutations == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading services unavailable")
	}

	orderID := c.Params("orderId")
	order, ok := r.orderBook.FindPendingOrder(orderID)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "pending order not found")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 30*time.Second)
	defer cancel()

	if err := r.mutations.CancelPendingOrder(ctx, order); err != nil {
		return mutationError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// mutationError maps the mutation failure taxonomy onto HTTP statuses. The
// backend's own message is surfaced when it provided one.
func mutationError(c *fiber.Ctx, err error) error {
	var backendErr *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrPriceUnavailable):
		return fiber.NewError(fiber.StatusConflict, "price not available")
	case errors.As(err, &backendErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": backendErr.Message,
		})
	case errors.Is(err, domain.ErrNetwork):
		return fiber.NewError(fiber.StatusBadGateway, "network error - please check your connection")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// parseSelection decodes the wire form of the account filter. The legacy
// "challenge_<id>" prefix is accepted here and nowhere else; internally the
// selection carries an explicit scope.
func parseSelection(raw string) domain.Selection {
	switch {
	case raw == "" || raw == "all":
		return domain.SelectAll()
	case strings.HasPrefix(raw, "challenge_"):
		return domain.SelectChallenge(strings.TrimPrefix(raw, "challenge_"))
	default:
		return domain.SelectRegular(raw)
	}
}

func parsePreset(raw string) (usecase.HistoryPreset, bool) {
	switch usecase.HistoryPreset(raw) {
	case usecase.HistoryPresetAll, usecase.HistoryPresetToday, usecase.HistoryPresetWeek,
		usecase.HistoryPresetMonth, usecase.HistoryPresetYear, usecase.HistoryPresetCustom:
		return usecase.HistoryPreset(raw), true
	}
	return "", false
}

func parseTime(value string, layouts ...string) time.Time {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
