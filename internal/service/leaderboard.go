package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// LeaderboardService resolves rankings from a single deterministic ordering
// (score descending, username ascending as the tie-break) so that top-N
// pages and individual rank lookups never disagree. A shared snapshot cache
// fronts the top-N query; rank lookups always hit the repository.
type LeaderboardService struct {
	repo   LeaderboardRepository
	cache  LeaderboardCache // optional
	logger *zap.Logger

	defaultLimit int
	maxLimit     int

	sf singleflight.Group // collapses concurrent rebuilds of the same page
}

func NewLeaderboardService(repo LeaderboardRepository, cache LeaderboardCache, logger *zap.Logger, defaultLimit, maxLimit int) *LeaderboardService {
	return &LeaderboardService{
		repo:         repo,
		cache:        cache,
		logger:       logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Top returns the first n ranked active users. Out-of-range limits are
// clamped to the configured page bounds.
func (s *LeaderboardService) Top(ctx context.Context, n int) ([]entities.RankedUser, error) {
	if n <= 0 {
		n = s.defaultLimit
	}
	if n > s.maxLimit {
		n = s.maxLimit
	}

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, n)
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		} else if ok {
			return entries, nil
		}
	}

	result, err, _ := s.sf.Do(strconv.Itoa(n), func() (any, error) {
		entries, err := s.repo.Top(ctx, n)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, n, entries); err != nil {
				s.logger.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]entities.RankedUser), nil
}

// RankOf returns the 1-indexed position of a user in the current ordering.
// A user outside the active set yields ErrNotRanked, which is a valid
// lookup result rather than a failure.
func (s *LeaderboardService) RankOf(ctx context.Context, userID int64) (int, error) {
	return s.repo.Rank(ctx, userID)
}

// Refresh rebuilds the cached default page. Invoked on a schedule so the
// common leaderboard view stays warm between invalidations.
func (s *LeaderboardService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	entries, err := s.repo.Top(ctx, s.defaultLimit)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.defaultLimit, entries)
}
