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

// UserRepository provides access to user ledger rows in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, username, score, title, is_active, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.Score,
		&user.Title,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// ApplyScoreDelta atomically adds delta to the user's score and returns the
// new value. The UPDATE takes the row lock, so concurrent deltas serialize.
func (r *UserRepository) ApplyScoreDelta(ctx context.Context, userID int64, delta int) (int, error) {
	query := `
		UPDATE users
		SET score = score + $2
		WHERE id = $1
		RETURNING score
	`

	var score int
	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, userID, delta).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("apply score delta: %w", err)
	}

	return score, nil
}

// UpdateTitle persists the recomputed title for a user.
func (r *UserRepository) UpdateTitle(ctx context.Context, userID int64, title string) error {
	query := `UPDATE users SET title = $2 WHERE id = $1`

	tag, err := postgres.Querier(ctx, r.db).Exec(ctx, query, userID, title)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
