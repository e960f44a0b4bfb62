package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnlangs/cashcanvas/internal/domain"
	"github.com/johnlangs/cashcanvas/internal/store"
)

// UncategorizedLabel groups transactions Plaid returned without a category.
const UncategorizedLabel = "Uncategorized"

// Aggregator is the subset of PlaidService the linking flow needs.
type Aggregator interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangeItem(ctx context.Context, publicToken string) (ItemAccess, error)
	GetAccounts(ctx context.Context, accessToken string) ([]AccountDTO, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]TransactionDTO, error)
	RemoveItem(ctx context.Context, accessToken string) error
}

// LinkService ties Plaid items to users and reads data across all items of a user.
type LinkService struct {
	plaid  Aggregator
	items  store.Repository[domain.LinkedItem]
	logger *slog.Logger
	now    func() time.Time
}

// NewLinkService creates a LinkService.
func NewLinkService(plaid Aggregator, items store.Repository[domain.LinkedItem], logger *slog.Logger) *LinkService {
	return &LinkService{plaid: plaid, items: items, logger: logger, now: time.Now}
}

// CreateLinkToken starts a linking session for userID.
func (s *LinkService) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	return s.plaid.CreateLinkToken(ctx, userID)
}

// LinkItem exchanges the public token handed back by Plaid Link and remembers the item for userID.
// When the item cannot be saved it is removed at Plaid again.
func (s *LinkService) LinkItem(ctx context.Context, userID, publicToken, institutionName string) (*domain.LinkedItem, error) {
	access, err := s.plaid.ExchangeItem(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	item := &domain.LinkedItem{
		UserID:          userID,
		ItemID:          access.ItemID,
		AccessToken:     access.AccessToken,
		InstitutionName: institutionName,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.items.Add(ctx, item); err != nil {
		s.logger.ErrorContext(ctx, "failed to save linked item", "user_id", userID, "item_id", item.ItemID, "error", err)
		if rmErr := s.plaid.RemoveItem(ctx, item.AccessToken); rmErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove unsaved item", "user_id", userID, "item_id", item.ItemID, "error", rmErr)
		}
		return nil, fmt.Errorf("save linked item: %w", err)
	}
	return item, nil
}

// ListItems returns the items linked by userID, oldest first.
func (s *LinkService) ListItems(ctx context.Context, userID string) ([]domain.LinkedItem, error) {
	items, err := s.items.Find(ctx, store.Filter{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list linked items: %w", err)
	}
	if items == nil {
		items = []domain.LinkedItem{}
	}
	return items, nil
}

// Unlink removes one item of userID at Plaid and forgets it.
// Items Plaid no longer knows are still forgotten.
func (s *LinkService) Unlink(ctx context.Context, userID string, id int64) error {
	item, err := s.items.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && item.UserID != userID) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("load linked item: %w", err)
	}

	if err := s.plaid.RemoveItem(ctx, item.AccessToken); err != nil {
		if !errors.Is(err, ErrUpstream) {
			return fmt.Errorf("remove item %s: %w", item.ItemID, err)
		}
		s.logger.WarnContext(ctx, "plaid refused item removal", "user_id", userID, "item_id", item.ItemID, "error", err)
	}

	if err := s.items.Delete(ctx, item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("delete linked item: %w", err)
	}
	return nil
}

// Accounts lists the accounts of every item of userID, item by item.
func (s *LinkService) Accounts(ctx context.Context, userID string) ([]AccountDTO, error) {
	items, err := s.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts := []AccountDTO{}
	for _, item := range items {
		itemAccounts, err := s.plaid.GetAccounts(ctx, item.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("accounts of item %s: %w", item.ItemID, err)
		}
		accounts = append(accounts, itemAccounts...)
	}
	return accounts, nil
}

// Transactions lists the transactions of every item of userID between start and end.
func (s *LinkService) Transactions(ctx context.Context, userID string, start, end time.Time) ([]TransactionDTO, error) {
	items, err := s.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions := []TransactionDTO{}
	for _, item := range items {
		itemTransactions, err := s.plaid.GetTransactions(ctx, item.AccessToken, start, end)
		if err != nil {
			return nil, fmt.Errorf("transactions of item %s: %w", item.ItemID, err)
		}
		transactions = append(transactions, itemTransactions...)
	}
	return transactions, nil
}

// SpendingByCategory sums settled transaction amounts by their first category label.
func (s *LinkService) SpendingByCategory(ctx context.Context, userID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	transactions, err := s.Transactions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return SumByCategory(transactions), nil
}

// SumByCategory totals settled transactions by their first category label.
func SumByCategory(transactions []TransactionDTO) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if t.Pending {
			continue
		}
		label := UncategorizedLabel
		if len(t.Category) > 0 {
			label = t.Category[0]
		}
		totals[label] = totals[label].Add(t.Amount)
	}
	return totals
}
