package domain

import "time"

// LinkedItem is a Plaid item (one institution connection) linked by a user.
type LinkedItem struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	ItemID          string    `json:"item_id"`
	AccessToken     string    `json:"-"`
	InstitutionName string    `json:"institution_name"`
	CreatedAt       time.Time `json:"created_at"`
}
