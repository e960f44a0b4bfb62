package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/johnlangs/cashcanvas/internal/app"
	"github.com/johnlangs/cashcanvas/internal/domain"
)

// defaultWindow is the transaction range used when the query names none.
const defaultWindow = 30 * 24 * time.Hour

// LinkingService is what the handlers need from app.LinkService.
type LinkingService interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	LinkItem(ctx context.Context, userID, publicToken, institutionName string) (*domain.LinkedItem, error)
	ListItems(ctx context.Context, userID string) ([]domain.LinkedItem, error)
	Unlink(ctx context.Context, userID string, id int64) error
	Accounts(ctx context.Context, userID string) ([]app.AccountDTO, error)
	Transactions(ctx context.Context, userID string, start, end time.Time) ([]app.TransactionDTO, error)
	SpendingByCategory(ctx context.Context, userID string, start, end time.Time) (map[string]decimal.Decimal, error)
}

// StatsService is what the handlers need from app.UserStatsService.
type StatsService interface {
	GetStats(ctx context.Context, userID string) (app.UserStatsDTO, error)
	UpdateStats(ctx context.Context, dto app.UserStatsDTO) error
	IncrementCounter(ctx context.Context, userID string) (app.UserStatsDTO, error)
}

// Handler holds the application services the handlers interact with.
type Handler struct {
	links  LinkingService
	stats  StatsService
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(links LinkingService, stats StatsService, logger *slog.Logger) *Handler {
	return &Handler{links: links, stats: stats, logger: logger, now: time.Now}
}

func (h *Handler) handleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID := mustUser(r)

	token, err := h.links.CreateLinkToken(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createLinkTokenResp{LinkToken: token})
}

func (h *Handler) handleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	userID := mustUser(r)

	var req exchangePublicTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PublicToken == "" {
		writeError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	item, err := h.links.LinkItem(r.Context(), userID, req.PublicToken, req.InstitutionName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "item linked", "user_id", userID, "item_id", item.ItemID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.links.ListItems(r.Context(), mustUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleUnlinkItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.links.Unlink(r.Context(), mustUser(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.links.Accounts(r.Context(), mustUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.Balances.Current)
	}
	writeJSON(w, http.StatusOK, accountsResponse{Balance: total, Accounts: accounts})
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.links.Transactions(r.Context(), mustUser(r), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{NumberOfTransactions: len(transactions), Transactions: transactions})
}

func (h *Handler) handleSpending(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	totals, err := h.links.SpendingByCategory(r.Context(), mustUser(r), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context(), mustUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleIncrementCounter(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.IncrementCounter(r.Context(), mustUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleUpdateStats(w http.ResponseWriter, r *http.Request) {
	var req updateStatsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TotalCounterClicks == nil {
		writeError(w, http.StatusBadRequest, "total_counter_clicks is required")
		return
	}
	if *req.TotalCounterClicks < 0 {
		writeError(w, http.StatusBadRequest, "total_counter_clicks must not be negative")
		return
	}

	dto := app.UserStatsDTO{UserID: mustUser(r), TotalCounterClicks: *req.TotalCounterClicks}
	if err := h.stats.UpdateStats(r.Context(), dto); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dateRange reads ?start and ?end (YYYY-MM-DD). Missing bounds default to the trailing 30 days.
func (h *Handler) dateRange(r *http.Request) (time.Time, time.Time, error) {
	end := h.now().UTC()
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end must be a YYYY-MM-DD date")
		}
		end = parsed
	}

	start := end.Add(-defaultWindow)
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be a YYYY-MM-DD date")
		}
		start = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, errors.New("start must not be after end")
	}
	return start, end, nil
}

// fail logs err with the request context and answers with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, app.ErrUpstream):
		status, message = http.StatusBadGateway, "bank data provider rejected the request"
	case errors.Is(err, app.ErrItemNotFound):
		status, message = http.StatusNotFound, "linked item not found"
	}

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", RequestIDFromContext(r.Context()),
		"error", err,
	)
	writeError(w, status, message)
}

// mustUser returns the authenticated user. Only used behind the auth middleware.
func mustUser(r *http.Request) string {
	userID, _ := UserFromContext(r.Context())
	return userID
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}
