package app_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/johnlangs/cashcanvas/internal/app"
	"github.com/johnlangs/cashcanvas/internal/domain"
	"github.com/johnlangs/cashcanvas/internal/plaidclient"
	"github.com/johnlangs/cashcanvas/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// mockAdapter ---------------------------------------------------------------

type mockAdapter struct {
	createLinkTokenFunc     func(ctx context.Context, req plaid.LinkTokenCreateRequest) (plaidclient.Response[plaid.LinkTokenCreateResponse], error)
	exchangePublicTokenFunc func(ctx context.Context, req plaid.ItemPublicTokenExchangeRequest) (plaidclient.Response[plaid.ItemPublicTokenExchangeResponse], error)
	getAccountsFunc         func(ctx context.Context, req plaid.AccountsGetRequest) (plaidclient.Response[plaid.AccountsGetResponse], error)
	getTransactionsFunc     func(ctx context.Context, req plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error)
	removeItemFunc          func(ctx context.Context, req plaid.ItemRemoveRequest) (plaidclient.Response[plaid.ItemRemoveResponse], error)
}

func (m *mockAdapter) CreateLinkToken(ctx context.Context, req plaid.LinkTokenCreateRequest) (plaidclient.Response[plaid.LinkTokenCreateResponse], error) {
	return m.createLinkTokenFunc(ctx, req)
}

func (m *mockAdapter) ExchangePublicToken(ctx context.Context, req plaid.ItemPublicTokenExchangeRequest) (plaidclient.Response[plaid.ItemPublicTokenExchangeResponse], error) {
	return m.exchangePublicTokenFunc(ctx, req)
}

func (m *mockAdapter) GetAccounts(ctx context.Context, req plaid.AccountsGetRequest) (plaidclient.Response[plaid.AccountsGetResponse], error) {
	return m.getAccountsFunc(ctx, req)
}

func (m *mockAdapter) GetTransactions(ctx context.Context, req plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error) {
	return m.getTransactionsFunc(ctx, req)
}

func (m *mockAdapter) RemoveItem(ctx context.Context, req plaid.ItemRemoveRequest) (plaidclient.Response[plaid.ItemRemoveResponse], error) {
	return m.removeItemFunc(ctx, req)
}

// mockAggregator ------------------------------------------------------------

type mockAggregator struct {
	createLinkTokenFunc func(ctx context.Context, userID string) (string, error)
	exchangeItemFunc    func(ctx context.Context, publicToken string) (app.ItemAccess, error)
	getAccountsFunc     func(ctx context.Context, accessToken string) ([]app.AccountDTO, error)
	getTransactionsFunc func(ctx context.Context, accessToken string, start, end time.Time) ([]app.TransactionDTO, error)
	removeItemFunc      func(ctx context.Context, accessToken string) error
}

func (m *mockAggregator) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	return m.createLinkTokenFunc(ctx, userID)
}

func (m *mockAggregator) ExchangeItem(ctx context.Context, publicToken string) (app.ItemAccess, error) {
	return m.exchangeItemFunc(ctx, publicToken)
}

func (m *mockAggregator) GetAccounts(ctx context.Context, accessToken string) ([]app.AccountDTO, error) {
	return m.getAccountsFunc(ctx, accessToken)
}

func (m *mockAggregator) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]app.TransactionDTO, error) {
	return m.getTransactionsFunc(ctx, accessToken, start, end)
}

func (m *mockAggregator) RemoveItem(ctx context.Context, accessToken string) error {
	return m.removeItemFunc(ctx, accessToken)
}

// mockStatsRepository -------------------------------------------------------

type mockStatsRepository struct {
	store.Repository[domain.UserStats]

	firstFunc     func(ctx context.Context, filter store.Filter) (*domain.UserStats, error)
	addFunc       func(ctx context.Context, stats *domain.UserStats) error
	updateFunc    func(ctx context.Context, stats *domain.UserStats) error
	incrementFunc func(ctx context.Context, userID string) (*domain.UserStats, error)

	added   []domain.UserStats
	updated []domain.UserStats
}

func (m *mockStatsRepository) First(ctx context.Context, filter store.Filter) (*domain.UserStats, error) {
	return m.firstFunc(ctx, filter)
}

func (m *mockStatsRepository) Add(ctx context.Context, stats *domain.UserStats) error {
	m.added = append(m.added, *stats)
	if m.addFunc != nil {
		return m.addFunc(ctx, stats)
	}
	return nil
}

func (m *mockStatsRepository) Update(ctx context.Context, stats *domain.UserStats) error {
	m.updated = append(m.updated, *stats)
	if m.updateFunc != nil {
		return m.updateFunc(ctx, stats)
	}
	return nil
}

func (m *mockStatsRepository) IncrementClicks(ctx context.Context, userID string) (*domain.UserStats, error) {
	return m.incrementFunc(ctx, userID)
}
