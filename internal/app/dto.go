package app

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AccountDTO is a linked bank account as shown to the user.
type AccountDTO struct {
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`    // e.g. "depository"
	Subtype   string     `json:"subtype"` // e.g. "checking"
	Balances  BalanceDTO `json:"balances"`
}

// BalanceDTO is a balance snapshot. Missing upstream values are zero.
type BalanceDTO struct {
	Current   decimal.Decimal `json:"current"`
	Available decimal.Decimal `json:"available"`
}

// TransactionDTO is a single posted or pending transaction.
type TransactionDTO struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          Date            `json:"date"`
	Name          string          `json:"name"`
	Category      []string        `json:"category"`
	Pending       bool            `json:"pending"`
}

// Date is a calendar date encoded in JSON as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate wraps t as a Date.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ItemAccess is the result of exchanging a public token.
type ItemAccess struct {
	AccessToken string
	ItemID      string
}

// UserStatsDTO is the counter statistic of one user.
type UserStatsDTO struct {
	UserID             string `json:"user_id"`
	TotalCounterClicks int    `json:"total_counter_clicks"`
}
