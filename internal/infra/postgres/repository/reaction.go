package repository

import (
	"context"
	"fmt"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/infra/postgres"
)

// ReactionRepository stores reactions as presence rows: a row exists while
// the reaction is active and is deleted on toggle-off.
type ReactionRepository struct {
	db postgres.DBTX
}

// NewReactionRepository creates a new ReactionRepository with the provided database pool.
func NewReactionRepository(db postgres.DBTX) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Insert adds the reaction row and reports whether it was created. A false
// return means an identical reaction already exists.
func (r *ReactionRepository) Insert(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	query := `
		INSERT INTO reactions (user_id, submission_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, submission_id, kind) DO NOTHING
	`

	tag, err := postgres.Querier(ctx, r.db).Exec(ctx, query, userID, submissionID, string(kind))
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Delete removes the reaction row and reports whether one existed.
func (r *ReactionRepository) Delete(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	query := `
		DELETE FROM reactions
		WHERE user_id = $1 AND submission_id = $2 AND kind = $3
	`

	tag, err := postgres.Querier(ctx, r.db).Exec(ctx, query, userID, submissionID, string(kind))
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
