package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/devsplug/scoring-engine/internal/domain"
)

const defaultLedgerRetries = 3

// Ledger is the only mutation path for user scores. Every delta is applied
// as an atomic read-modify-write under the user's row lock, and the title is
// recomputed inside the same transaction, so concurrent credits and debits
// to one user serialize instead of losing updates.
type Ledger struct {
	tx       Transactor
	users    UserRepository
	titles   *TitleTable
	cache    LeaderboardCache  // optional
	notifier PromotionNotifier // optional
	logger   *zap.Logger

	retries   int
	retryable func(error) bool // storage-specific transient classifier
}

type LedgerOption func(*Ledger)

// WithLeaderboardCache invalidates the given cache after every applied delta.
func WithLeaderboardCache(cache LeaderboardCache) LedgerOption {
	return func(l *Ledger) { l.cache = cache }
}

// WithPromotionNotifier announces title promotions after the delta commits.
func WithPromotionNotifier(n PromotionNotifier) LedgerOption {
	return func(l *Ledger) { l.notifier = n }
}

// WithTransientClassifier marks which storage errors are worth an internal retry.
func WithTransientClassifier(fn func(error) bool) LedgerOption {
	return func(l *Ledger) { l.retryable = fn }
}

func NewLedger(tx Transactor, users UserRepository, titles *TitleTable, logger *zap.Logger, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		tx:        tx,
		users:     users,
		titles:    titles,
		logger:    logger,
		retries:   defaultLedgerRetries,
		retryable: func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Credit adds amount to the user's score. Negative amounts are rejected
// with ErrInvalidAmount.
func (l *Ledger) Credit(ctx context.Context, userID int64, amount int) (int, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidAmount
	}
	return l.apply(ctx, userID, amount)
}

// Debit subtracts amount from the user's score. Negative amounts are
// rejected with ErrInvalidAmount.
func (l *Ledger) Debit(ctx context.Context, userID int64, amount int) (int, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidAmount
	}
	return l.apply(ctx, userID, -amount)
}

func (l *Ledger) apply(ctx context.Context, userID int64, delta int) (int, error) {
	var newScore int

	run := func(ctx context.Context) error {
		score, err := l.users.ApplyScoreDelta(ctx, userID, delta)
		if err != nil {
			return err
		}
		newScore = score

		// The row is locked by the update above; reading back gives the
		// pre-recompute title for promotion detection.
		user, err := l.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		promotion := ""
		title := l.titles.Classify(newScore)
		if title != user.Title {
			if err := l.users.UpdateTitle(ctx, userID, title); err != nil {
				return err
			}
			if delta > 0 {
				promotion = title
			}
		}

		// Cache invalidation and announcements wait for the outermost
		// commit; a rollback discards them with the delta.
		username := user.Username
		domain.OnCommit(ctx, func(ctx context.Context) {
			l.afterApply(ctx, username, promotion)
		})
		return nil
	}

	// When a caller's transaction is already open, retrying here would
	// rejoin the aborted transaction; a single attempt runs and the
	// caller owns any retry.
	if domain.InTransaction(ctx) {
		if err := l.tx.WithinTx(ctx, run); err != nil {
			if l.retryable(err) {
				return 0, fmt.Errorf("%w: %v", domain.ErrTransient, err)
			}
			return 0, err
		}
		return newScore, nil
	}

	var err error
	for attempt := 0; attempt < l.retries; attempt++ {
		if err = l.tx.WithinTx(ctx, run); err == nil {
			return newScore, nil
		}
		if !l.retryable(err) {
			return 0, err
		}
		l.logger.Warn("ledger delta hit storage contention, retrying",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return 0, fmt.Errorf("%w: %v", domain.ErrTransient, err)
}

// afterApply runs the best-effort side effects of a committed delta.
func (l *Ledger) afterApply(ctx context.Context, username, promotion string) {
	if l.cache != nil {
		if err := l.cache.Invalidate(ctx); err != nil {
			l.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
		}
	}
	if promotion != "" && l.notifier != nil {
		if err := l.notifier.NotifyPromotion(ctx, username, promotion); err != nil {
			l.logger.Warn("failed to announce promotion",
				zap.String("username", username),
				zap.String("title", promotion),
				zap.Error(err),
			)
		}
	}
}
