package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnlangs/cashcanvas/internal/domain"
)

// UserStatsRepository is the user_stats repository with an atomic click counter.
type UserStatsRepository struct {
	*SQLRepository[domain.UserStats]
}

// NewUserStatsRepository creates a UserStatsRepository.
func NewUserStatsRepository(db *DB) *UserStatsRepository {
	return &UserStatsRepository{SQLRepository: NewRepository(db, UserStatsTable)}
}

// IncrementClicks adds one click to the row of userID inside the database and returns the updated row.
// It returns ErrNotFound when the user has no row.
func (r *UserStatsRepository) IncrementClicks(ctx context.Context, userID string) (*domain.UserStats, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET total_counter_clicks = total_counter_clicks + 1 WHERE user_id = %s RETURNING %s",
		r.table.Name, r.db.dialect.placeholder(1), r.selectList())

	stats, err := r.table.Scan(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: increment clicks for %s: %w", userID, err)
	}
	return &stats, nil
}
