package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnlangs/cashcanvas/internal/domain"
	"github.com/johnlangs/cashcanvas/internal/store"
)

// StatsRepository is the persistence UserStatsService needs.
type StatsRepository interface {
	store.Repository[domain.UserStats]
	IncrementClicks(ctx context.Context, userID string) (*domain.UserStats, error)
}

// UserStatsService keeps the per-user counter statistic.
type UserStatsService struct {
	stats StatsRepository
}

// NewUserStatsService creates a UserStatsService.
func NewUserStatsService(stats StatsRepository) *UserStatsService {
	return &UserStatsService{stats: stats}
}

// GetStats returns the statistics of userID, creating a zeroed row on first access.
func (s *UserStatsService) GetStats(ctx context.Context, userID string) (UserStatsDTO, error) {
	stats, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return UserStatsDTO{}, err
	}
	return toStatsDTO(stats), nil
}

// UpdateStats stores the click total of an existing user. Unknown users are ignored.
func (s *UserStatsService) UpdateStats(ctx context.Context, dto UserStatsDTO) error {
	stats, err := s.stats.First(ctx, store.Filter{"user_id": dto.UserID})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load stats for %s: %w", dto.UserID, err)
	}

	stats.TotalCounterClicks = dto.TotalCounterClicks
	if err := s.stats.Update(ctx, stats); err != nil {
		return fmt.Errorf("update stats for %s: %w", dto.UserID, err)
	}
	return nil
}

// IncrementCounter records one counter click for userID. Concurrent clicks are all counted.
func (s *UserStatsService) IncrementCounter(ctx context.Context, userID string) (UserStatsDTO, error) {
	if _, err := s.getOrCreate(ctx, userID); err != nil {
		return UserStatsDTO{}, err
	}

	stats, err := s.stats.IncrementClicks(ctx, userID)
	if err != nil {
		return UserStatsDTO{}, fmt.Errorf("increment stats for %s: %w", userID, err)
	}
	return toStatsDTO(stats), nil
}

func (s *UserStatsService) getOrCreate(ctx context.Context, userID string) (*domain.UserStats, error) {
	stats, err := s.stats.First(ctx, store.Filter{"user_id": userID})
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load stats for %s: %w", userID, err)
	}

	stats = &domain.UserStats{UserID: userID}
	if addErr := s.stats.Add(ctx, stats); addErr != nil {
		// A concurrent request may have created the row first.
		if existing, err := s.stats.First(ctx, store.Filter{"user_id": userID}); err == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create stats for %s: %w", userID, addErr)
	}
	return stats, nil
}

func toStatsDTO(stats *domain.UserStats) UserStatsDTO {
	return UserStatsDTO{
		UserID:             stats.UserID,
		TotalCounterClicks: stats.TotalCounterClicks,
	}
}
