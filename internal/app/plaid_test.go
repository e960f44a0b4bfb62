package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnlangs/cashcanvas/internal/app"
	"github.com/johnlangs/cashcanvas/internal/plaidclient"
)

func float64Ptr(v float64) *float64 { return &v }

func TestPlaidService_CreateLinkToken(t *testing.T) {
	t.Run("returns the link token and builds the request", func(t *testing.T) {
		var sent plaid.LinkTokenCreateRequest
		adapter := &mockAdapter{
			createLinkTokenFunc: func(_ context.Context, req plaid.LinkTokenCreateRequest) (plaidclient.Response[plaid.LinkTokenCreateResponse], error) {
				sent = req
				return plaidclient.Success(http.StatusOK, plaid.LinkTokenCreateResponse{LinkToken: "test-link-token"}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		token, err := svc.CreateLinkToken(context.Background(), "test-user")

		require.NoError(t, err)
		assert.Equal(t, "test-link-token", token)
		assert.Equal(t, "test-user", sent.GetUser().ClientUserId)
		assert.Equal(t, "CashCanvas", sent.GetClientName())
		assert.Equal(t, "en", sent.GetLanguage())
		assert.Equal(t, []plaid.CountryCode{plaid.COUNTRYCODE_US}, sent.GetCountryCodes())
		assert.Equal(t, []plaid.Products{plaid.PRODUCTS_AUTH, plaid.PRODUCTS_TRANSACTIONS}, sent.GetProducts())
	})

	t.Run("fails with the upstream message when Plaid rejects the call", func(t *testing.T) {
		logger, logs := bufferLogger()
		adapter := &mockAdapter{
			createLinkTokenFunc: func(context.Context, plaid.LinkTokenCreateRequest) (plaidclient.Response[plaid.LinkTokenCreateResponse], error) {
				return plaidclient.Failure[plaid.LinkTokenCreateResponse](http.StatusUnauthorized, plaidclient.ErrorPayload{
					Type:    "INVALID_INPUT",
					Code:    "INVALID_API_KEYS",
					Message: "Invalid API key",
				}), nil
			},
		}
		svc := app.NewPlaidService(adapter, logger)

		_, err := svc.CreateLinkToken(context.Background(), "test-user")

		require.Error(t, err)
		assert.ErrorIs(t, err, app.ErrUpstream)
		assert.Contains(t, err.Error(), "plaid API error")
		assert.Contains(t, err.Error(), "Invalid API key")

		var apiErr *app.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "INVALID_API_KEYS", apiErr.Code)
		assert.Contains(t, logs.String(), "INVALID_API_KEYS")
		assert.Contains(t, logs.String(), "user_id=test-user")
	})

	t.Run("returns the transport error unchanged", func(t *testing.T) {
		networkErr := &url.Error{Op: "Post", URL: "https://sandbox.plaid.com/link/token/create", Err: errors.New("network error")}
		adapter := &mockAdapter{
			createLinkTokenFunc: func(context.Context, plaid.LinkTokenCreateRequest) (plaidclient.Response[plaid.LinkTokenCreateResponse], error) {
				return plaidclient.Response[plaid.LinkTokenCreateResponse]{}, networkErr
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.CreateLinkToken(context.Background(), "test-user")

		require.Error(t, err)
		assert.Same(t, networkErr, err)
		assert.NotErrorIs(t, err, app.ErrUpstream)
	})
}

func TestPlaidService_ExchangePublicToken(t *testing.T) {
	t.Run("returns the access token", func(t *testing.T) {
		var sent plaid.ItemPublicTokenExchangeRequest
		adapter := &mockAdapter{
			exchangePublicTokenFunc: func(_ context.Context, req plaid.ItemPublicTokenExchangeRequest) (plaidclient.Response[plaid.ItemPublicTokenExchangeResponse], error) {
				sent = req
				return plaidclient.Success(http.StatusOK, plaid.ItemPublicTokenExchangeResponse{
					AccessToken: "test-access-token",
					ItemId:      "item-1",
				}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		token, err := svc.ExchangePublicToken(context.Background(), "public-token")

		require.NoError(t, err)
		assert.Equal(t, "test-access-token", token)
		assert.Equal(t, "public-token", sent.GetPublicToken())

		access, err := svc.ExchangeItem(context.Background(), "public-token")
		require.NoError(t, err)
		assert.Equal(t, app.ItemAccess{AccessToken: "test-access-token", ItemID: "item-1"}, access)
	})

	t.Run("fails with the upstream message when Plaid rejects the call", func(t *testing.T) {
		adapter := &mockAdapter{
			exchangePublicTokenFunc: func(context.Context, plaid.ItemPublicTokenExchangeRequest) (plaidclient.Response[plaid.ItemPublicTokenExchangeResponse], error) {
				return plaidclient.Failure[plaid.ItemPublicTokenExchangeResponse](http.StatusBadRequest, plaidclient.ErrorPayload{Message: "Invalid public token"}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.ExchangePublicToken(context.Background(), "public-token")

		assert.ErrorIs(t, err, app.ErrUpstream)
		assert.Contains(t, err.Error(), "Invalid public token")
	})

	t.Run("returns the transport error unchanged", func(t *testing.T) {
		timeout := context.DeadlineExceeded
		adapter := &mockAdapter{
			exchangePublicTokenFunc: func(context.Context, plaid.ItemPublicTokenExchangeRequest) (plaidclient.Response[plaid.ItemPublicTokenExchangeResponse], error) {
				return plaidclient.Response[plaid.ItemPublicTokenExchangeResponse]{}, timeout
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.ExchangePublicToken(context.Background(), "public-token")

		assert.Equal(t, timeout, err)
	})
}

func TestPlaidService_GetAccounts(t *testing.T) {
	t.Run("maps accounts in upstream order", func(t *testing.T) {
		checking := plaid.ACCOUNTSUBTYPE_CHECKING
		savings := plaid.ACCOUNTSUBTYPE_SAVINGS
		adapter := &mockAdapter{
			getAccountsFunc: func(_ context.Context, req plaid.AccountsGetRequest) (plaidclient.Response[plaid.AccountsGetResponse], error) {
				assert.Equal(t, "access-token", req.GetAccessToken())
				return plaidclient.Success(http.StatusOK, plaid.AccountsGetResponse{Accounts: []plaid.AccountBase{
					{
						AccountId: "1",
						Name:      "Checking",
						Type:      plaid.ACCOUNTTYPE_DEPOSITORY,
						Subtype:   *plaid.NewNullableAccountSubtype(&checking),
						Balances: plaid.AccountBalance{
							Current:   *plaid.NewNullableFloat64(float64Ptr(100)),
							Available: *plaid.NewNullableFloat64(float64Ptr(90)),
						},
					},
					{
						AccountId: "2",
						Name:      "Savings",
						Type:      plaid.ACCOUNTTYPE_DEPOSITORY,
						Subtype:   *plaid.NewNullableAccountSubtype(&savings),
						Balances: plaid.AccountBalance{
							Current: *plaid.NewNullableFloat64(float64Ptr(210.5)),
						},
					},
					{
						AccountId: "3",
						Name:      "Mystery",
						Type:      plaid.ACCOUNTTYPE_OTHER,
					},
				}}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		accounts, err := svc.GetAccounts(context.Background(), "access-token")

		require.NoError(t, err)
		require.Len(t, accounts, 3)

		assert.Equal(t, "1", accounts[0].AccountID)
		assert.Equal(t, "Checking", accounts[0].Name)
		assert.Equal(t, "depository", accounts[0].Type)
		assert.Equal(t, "checking", accounts[0].Subtype)
		assert.True(t, decimal.NewFromInt(100).Equal(accounts[0].Balances.Current))
		assert.True(t, decimal.NewFromInt(90).Equal(accounts[0].Balances.Available))

		assert.Equal(t, "2", accounts[1].AccountID)
		assert.True(t, decimal.RequireFromString("210.5").Equal(accounts[1].Balances.Current))
		assert.True(t, accounts[1].Balances.Available.IsZero())

		assert.Equal(t, "3", accounts[2].AccountID)
		assert.Empty(t, accounts[2].Subtype)
		assert.True(t, accounts[2].Balances.Current.IsZero())
		assert.True(t, accounts[2].Balances.Available.IsZero())
	})

	t.Run("fails with the upstream message when Plaid rejects the call", func(t *testing.T) {
		adapter := &mockAdapter{
			getAccountsFunc: func(context.Context, plaid.AccountsGetRequest) (plaidclient.Response[plaid.AccountsGetResponse], error) {
				return plaidclient.Failure[plaid.AccountsGetResponse](http.StatusUnauthorized, plaidclient.ErrorPayload{Message: "Invalid access token"}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		accounts, err := svc.GetAccounts(context.Background(), "access-token")

		assert.Nil(t, accounts)
		assert.ErrorIs(t, err, app.ErrUpstream)
		assert.Contains(t, err.Error(), "Invalid access token")
	})

	t.Run("returns the transport error unchanged", func(t *testing.T) {
		networkErr := errors.New("connection reset by peer")
		adapter := &mockAdapter{
			getAccountsFunc: func(context.Context, plaid.AccountsGetRequest) (plaidclient.Response[plaid.AccountsGetResponse], error) {
				return plaidclient.Response[plaid.AccountsGetResponse]{}, networkErr
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.GetAccounts(context.Background(), "access-token")

		assert.Equal(t, networkErr, err)
	})
}

func TestPlaidService_GetTransactions(t *testing.T) {
	t.Run("maps transactions and truncates the date range", func(t *testing.T) {
		var sent plaid.TransactionsGetRequest
		adapter := &mockAdapter{
			getTransactionsFunc: func(_ context.Context, req plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error) {
				sent = req
				return plaidclient.Success(http.StatusOK, plaid.TransactionsGetResponse{Transactions: []plaid.Transaction{
					{
						TransactionId: "1",
						AccountId:     "acc-1",
						Amount:        50.25,
						Date:          "2023-01-01",
						Name:          "Coffee Shop",
						Category:      []string{"Food and Drink", "Restaurants", "Coffee Shop"},
						Pending:       true,
					},
					{
						TransactionId: "2",
						AccountId:     "acc-1",
						Amount:        -1200,
						Name:          "Payroll",
					},
				}}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		start := time.Date(2023, 1, 1, 23, 59, 59, 0, time.UTC)
		end := time.Date(2023, 1, 31, 8, 15, 0, 0, time.UTC)
		transactions, err := svc.GetTransactions(context.Background(), "access-token", start, end)

		require.NoError(t, err)
		assert.Equal(t, "access-token", sent.GetAccessToken())
		assert.Equal(t, "2023-01-01", sent.GetStartDate())
		assert.Equal(t, "2023-01-31", sent.GetEndDate())

		require.Len(t, transactions, 2)

		coffee := transactions[0]
		assert.Equal(t, "1", coffee.TransactionID)
		assert.Equal(t, "acc-1", coffee.AccountID)
		assert.True(t, decimal.RequireFromString("50.25").Equal(coffee.Amount))
		assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), coffee.Date.Time)
		assert.Equal(t, "Coffee Shop", coffee.Name)
		assert.Equal(t, []string{"Food and Drink", "Restaurants", "Coffee Shop"}, coffee.Category)
		assert.True(t, coffee.Pending)

		payroll := transactions[1]
		assert.True(t, decimal.NewFromInt(-1200).Equal(payroll.Amount))
		assert.True(t, payroll.Date.IsZero())
		assert.Equal(t, time.Time{}, payroll.Date.Time)
		assert.NotNil(t, payroll.Category)
		assert.Empty(t, payroll.Category)
		assert.False(t, payroll.Pending)
	})

	t.Run("a malformed date falls back to the zero time", func(t *testing.T) {
		logger, logs := bufferLogger()
		adapter := &mockAdapter{
			getTransactionsFunc: func(context.Context, plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error) {
				return plaidclient.Success(http.StatusOK, plaid.TransactionsGetResponse{Transactions: []plaid.Transaction{
					{TransactionId: "3", AccountId: "acc-1", Amount: 12, Date: "01/02/2023", Name: "Bookshop"},
				}}), nil
			},
		}
		svc := app.NewPlaidService(adapter, logger)

		transactions, err := svc.GetTransactions(context.Background(), "access-token", time.Now(), time.Now())

		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.True(t, transactions[0].Date.IsZero())
		assert.Equal(t, "Bookshop", transactions[0].Name)
		assert.Contains(t, logs.String(), "transaction date is malformed")
		assert.Contains(t, logs.String(), "transaction_id=3")
		assert.Contains(t, logs.String(), "date=01/02/2023")
	})

	t.Run("fails with the upstream message when Plaid rejects the call", func(t *testing.T) {
		adapter := &mockAdapter{
			getTransactionsFunc: func(context.Context, plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error) {
				return plaidclient.Failure[plaid.TransactionsGetResponse](http.StatusBadRequest, plaidclient.ErrorPayload{Message: "Invalid date range"}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.GetTransactions(context.Background(), "access-token", time.Now(), time.Now())

		assert.ErrorIs(t, err, app.ErrUpstream)
		assert.Contains(t, err.Error(), "Invalid date range")
	})

	t.Run("a failure without payload still carries a message", func(t *testing.T) {
		adapter := &mockAdapter{
			getTransactionsFunc: func(context.Context, plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error) {
				return plaidclient.Response[plaid.TransactionsGetResponse]{StatusCode: http.StatusServiceUnavailable}, nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.GetTransactions(context.Background(), "access-token", time.Now(), time.Now())

		assert.ErrorIs(t, err, app.ErrUpstream)
		assert.Contains(t, err.Error(), "Service Unavailable")
	})

	t.Run("returns the transport error unchanged", func(t *testing.T) {
		networkErr := errors.New("network error")
		adapter := &mockAdapter{
			getTransactionsFunc: func(context.Context, plaid.TransactionsGetRequest) (plaidclient.Response[plaid.TransactionsGetResponse], error) {
				return plaidclient.Response[plaid.TransactionsGetResponse]{}, networkErr
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		_, err := svc.GetTransactions(context.Background(), "access-token", time.Now(), time.Now())

		assert.Equal(t, networkErr, err)
	})
}

func TestPlaidService_RemoveItem(t *testing.T) {
	t.Run("removes the item of the access token", func(t *testing.T) {
		var sent plaid.ItemRemoveRequest
		adapter := &mockAdapter{
			removeItemFunc: func(_ context.Context, req plaid.ItemRemoveRequest) (plaidclient.Response[plaid.ItemRemoveResponse], error) {
				sent = req
				return plaidclient.Success(http.StatusOK, plaid.ItemRemoveResponse{RequestId: "req-1"}), nil
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		require.NoError(t, svc.RemoveItem(context.Background(), "access-token"))
		assert.Equal(t, "access-token", sent.GetAccessToken())
	})

	t.Run("fails with the upstream message when Plaid rejects the call", func(t *testing.T) {
		logger, logs := bufferLogger()
		adapter := &mockAdapter{
			removeItemFunc: func(context.Context, plaid.ItemRemoveRequest) (plaidclient.Response[plaid.ItemRemoveResponse], error) {
				return plaidclient.Failure[plaid.ItemRemoveResponse](http.StatusBadRequest, plaidclient.ErrorPayload{
					Code:    "ITEM_NOT_FOUND",
					Message: "the requested item was not found",
				}), nil
			},
		}
		svc := app.NewPlaidService(adapter, logger)

		err := svc.RemoveItem(context.Background(), "access-token")

		assert.ErrorIs(t, err, app.ErrUpstream)
		assert.Contains(t, err.Error(), "the requested item was not found")
		assert.Contains(t, logs.String(), "operation=item_remove")
	})

	t.Run("returns the transport error unchanged", func(t *testing.T) {
		networkErr := errors.New("network error")
		adapter := &mockAdapter{
			removeItemFunc: func(context.Context, plaid.ItemRemoveRequest) (plaidclient.Response[plaid.ItemRemoveResponse], error) {
				return plaidclient.Response[plaid.ItemRemoveResponse]{}, networkErr
			},
		}
		svc := app.NewPlaidService(adapter, discardLogger())

		assert.Equal(t, networkErr, svc.RemoveItem(context.Background(), "access-token"))
	})
}
