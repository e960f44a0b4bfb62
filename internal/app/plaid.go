package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/johnlangs/cashcanvas/internal/plaidclient"
)

const (
	clientName   = "CashCanvas"
	linkLanguage = "en"
)

var (
	linkProducts  = []plaid.Products{plaid.PRODUCTS_AUTH, plaid.PRODUCTS_TRANSACTIONS}
	linkCountries = []plaid.CountryCode{plaid.COUNTRYCODE_US}
)

// PlaidService turns application requests into Plaid calls and Plaid answers into DTOs.
// It keeps no state between calls and is safe for concurrent use.
type PlaidService struct {
	adapter plaidclient.Adapter
	logger  *slog.Logger
}

// NewPlaidService creates a PlaidService.
func NewPlaidService(adapter plaidclient.Adapter, logger *slog.Logger) *PlaidService {
	return &PlaidService{adapter: adapter, logger: logger}
}

// CreateLinkToken creates the token the browser needs to open Plaid Link for userID.
func (s *PlaidService) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	req := plaid.NewLinkTokenCreateRequest(
		clientName,
		linkLanguage,
		linkCountries,
		plaid.LinkTokenCreateRequestUser{ClientUserId: userID},
	)
	req.SetProducts(linkProducts)

	resp, err := s.adapter.CreateLinkToken(ctx, *req)
	if err != nil {
		s.logger.ErrorContext(ctx, "unexpected error creating link token", "user_id", userID, "error", err)
		return "", err
	}
	if !resp.IsSuccess() {
		return "", s.rejected(ctx, "link_token_create", resp.StatusCode, resp.Payload(), "user_id", userID)
	}

	return resp.Body.GetLinkToken(), nil
}

// ExchangePublicToken trades the one-time public token from Plaid Link for an access token.
func (s *PlaidService) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	access, err := s.ExchangeItem(ctx, publicToken)
	if err != nil {
		return "", err
	}
	return access.AccessToken, nil
}

// ExchangeItem is ExchangePublicToken keeping the item ID alongside the access token.
func (s *PlaidService) ExchangeItem(ctx context.Context, publicToken string) (ItemAccess, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)

	resp, err := s.adapter.ExchangePublicToken(ctx, *req)
	if err != nil {
		s.logger.ErrorContext(ctx, "unexpected error exchanging public token", "error", err)
		return ItemAccess{}, err
	}
	if !resp.IsSuccess() {
		return ItemAccess{}, s.rejected(ctx, "item_public_token_exchange", resp.StatusCode, resp.Payload())
	}

	return ItemAccess{
		AccessToken: resp.Body.GetAccessToken(),
		ItemID:      resp.Body.GetItemId(),
	}, nil
}

// GetAccounts lists the accounts of the item behind accessToken, in Plaid's order.
func (s *PlaidService) GetAccounts(ctx context.Context, accessToken string) ([]AccountDTO, error) {
	req := plaid.NewAccountsGetRequest(accessToken)

	resp, err := s.adapter.GetAccounts(ctx, *req)
	if err != nil {
		s.logger.ErrorContext(ctx, "unexpected error getting accounts", "error", err)
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, s.rejected(ctx, "accounts_get", resp.StatusCode, resp.Payload())
	}

	upstream := resp.Body.GetAccounts()
	accounts := make([]AccountDTO, 0, len(upstream))
	for _, acc := range upstream {
		accounts = append(accounts, AccountDTO{
			AccountID: acc.GetAccountId(),
			Name:      acc.GetName(),
			Type:      string(acc.GetType()),
			Subtype:   string(acc.GetSubtype()),
			Balances: BalanceDTO{
				Current:   decimal.NewFromFloat(acc.Balances.GetCurrent()),
				Available: decimal.NewFromFloat(acc.Balances.GetAvailable()),
			},
		})
	}
	return accounts, nil
}

// GetTransactions lists transactions between start and end, both taken as calendar dates.
func (s *PlaidService) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]TransactionDTO, error) {
	req := plaid.NewTransactionsGetRequest(accessToken, start.Format(time.DateOnly), end.Format(time.DateOnly))

	resp, err := s.adapter.GetTransactions(ctx, *req)
	if err != nil {
		s.logger.ErrorContext(ctx, "unexpected error getting transactions", "error", err)
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, s.rejected(ctx, "transactions_get", resp.StatusCode, resp.Payload())
	}

	upstream := resp.Body.GetTransactions()
	transactions := make([]TransactionDTO, 0, len(upstream))
	for _, t := range upstream {
		category := t.GetCategory()
		if category == nil {
			category = []string{}
		}
		transactions = append(transactions, TransactionDTO{
			TransactionID: t.GetTransactionId(),
			AccountID:     t.GetAccountId(),
			Amount:        decimal.NewFromFloat(t.GetAmount()),
			Date:          NewDate(s.transactionDate(ctx, t.GetTransactionId(), t.GetDate())),
			Name:          t.GetName(),
			Category:      category,
			Pending:       t.GetPending(),
		})
	}
	return transactions, nil
}

// RemoveItem revokes the access token and deletes the item at Plaid.
func (s *PlaidService) RemoveItem(ctx context.Context, accessToken string) error {
	req := plaid.NewItemRemoveRequest(accessToken)

	resp, err := s.adapter.RemoveItem(ctx, *req)
	if err != nil {
		s.logger.ErrorContext(ctx, "unexpected error removing item", "error", err)
		return err
	}
	if !resp.IsSuccess() {
		return s.rejected(ctx, "item_remove", resp.StatusCode, resp.Payload())
	}
	return nil
}

// transactionDate parses a Plaid calendar date. Missing or malformed dates
// fall back to the zero time (0001-01-01).
func (s *PlaidService) transactionDate(ctx context.Context, transactionID, raw string) time.Time {
	if raw == "" {
		s.logger.WarnContext(ctx, "transaction has no date", "transaction_id", transactionID)
		return time.Time{}
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		s.logger.WarnContext(ctx, "transaction date is malformed", "transaction_id", transactionID, "date", raw)
		return time.Time{}
	}
	return date
}

func (s *PlaidService) rejected(ctx context.Context, operation string, statusCode int, payload plaidclient.ErrorPayload, attrs ...any) error {
	attrs = append(attrs,
		"operation", operation,
		"status", statusCode,
		"error_type", payload.Type,
		"error_code", payload.Code,
		"error_message", payload.Message,
		"request_id", payload.RequestID,
	)
	s.logger.ErrorContext(ctx, "plaid API error", attrs...)
	return newAPIError(operation, statusCode, payload)
}
