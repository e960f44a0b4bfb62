package store

import (
	"time"

	"github.com/johnlangs/cashcanvas/internal/domain"
)

// UserStatsTable maps domain.UserStats onto user_stats.
var UserStatsTable = Table[domain.UserStats]{
	Name:    "user_stats",
	Key:     "id",
	Columns: []string{"user_id", "total_counter_clicks"},
	Values: func(s *domain.UserStats) []any {
		return []any{s.UserID, s.TotalCounterClicks}
	},
	Scan: func(row Scanner) (domain.UserStats, error) {
		var s domain.UserStats
		err := row.Scan(&s.ID, &s.UserID, &s.TotalCounterClicks)
		return s, err
	},
	KeyOf:  func(s *domain.UserStats) int64 { return s.ID },
	SetKey: func(s *domain.UserStats, id int64) { s.ID = id },
}

// LinkedItemTable maps domain.LinkedItem onto linked_items.
var LinkedItemTable = Table[domain.LinkedItem]{
	Name:    "linked_items",
	Key:     "id",
	Columns: []string{"user_id", "item_id", "access_token", "institution_name", "created_at"},
	Values: func(i *domain.LinkedItem) []any {
		return []any{i.UserID, i.ItemID, i.AccessToken, i.InstitutionName, i.CreatedAt.UTC().Format(time.RFC3339Nano)}
	},
	Scan: func(row Scanner) (domain.LinkedItem, error) {
		var (
			i         domain.LinkedItem
			createdAt string
		)
		if err := row.Scan(&i.ID, &i.UserID, &i.ItemID, &i.AccessToken, &i.InstitutionName, &createdAt); err != nil {
			return i, err
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return i, err
		}
		i.CreatedAt = t
		return i, nil
	},
	KeyOf:  func(i *domain.LinkedItem) int64 { return i.ID },
	SetKey: func(i *domain.LinkedItem, id int64) { i.ID = id },
}
