package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/infra/postgres"
)

// LeaderboardRepository derives rankings from one deterministic ordering:
// score descending, username ascending. Both Top and Rank use the same
// window, so a user's rank is always consistent with the listed order.
type LeaderboardRepository struct {
	db postgres.DBTX
}

// NewLeaderboardRepository creates a new LeaderboardRepository with the provided database pool.
func NewLeaderboardRepository(db postgres.DBTX) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

const rankedUsers = `
	SELECT ROW_NUMBER() OVER (ORDER BY score DESC, username ASC) AS rank,
	       id, username, score, title
	FROM users
	WHERE is_active
`

// Top returns the first n entries of the ranking.
func (r *LeaderboardRepository) Top(ctx context.Context, n int) ([]entities.RankedUser, error) {
	query := `SELECT rank, id, username, score, title FROM (` + rankedUsers + `) ranked ORDER BY rank LIMIT $1`

	rows, err := postgres.Querier(ctx, r.db).Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.RankedUser, 0, n)
	for rows.Next() {
		var e entities.RankedUser
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Username, &e.Score, &e.Title); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Rank returns the 1-indexed position of a user within the ranking.
// Users outside the active set yield ErrNotRanked.
func (r *LeaderboardRepository) Rank(ctx context.Context, userID int64) (int, error) {
	query := `SELECT rank FROM (` + rankedUsers + `) ranked WHERE id = $1`

	var rank int
	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, userID).Scan(&rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotRanked
		}
		return 0, fmt.Errorf("leaderboard rank: %w", err)
	}

	return rank, nil
}
