package domain

// UserStats holds the counter statistic of a single user. There is at most one row per user.
type UserStats struct {
	ID                 int64
	UserID             string
	TotalCounterClicks int
}
