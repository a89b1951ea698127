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

// ProgressRepository provides access to per-(user, assessment) progress rows.
type ProgressRepository struct {
	db postgres.DBTX
}

// NewProgressRepository creates a new ProgressRepository with the provided database pool.
func NewProgressRepository(db postgres.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `
	id, user_id, assessment_id, current_question, is_complete,
	credited, total_score, created_at, updated_at
`

// Create inserts a fresh progress row unless one already exists for the
// (user, assessment) pair.
func (r *ProgressRepository) Create(ctx context.Context, progress *entities.AssessmentProgress) error {
	query := `
		INSERT INTO assessment_progress (user_id, assessment_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, assessment_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, progress.UserID, progress.AssessmentID).
		Scan(&progress.ID, &progress.CreatedAt, &progress.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the creation race; the existing row wins.
			return nil
		}
		return fmt.Errorf("create progress: %w", err)
	}

	return nil
}

// Get retrieves the progress row for a (user, assessment) pair.
func (r *ProgressRepository) Get(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM assessment_progress WHERE user_id = $1 AND assessment_id = $2`
	return r.get(ctx, query, userID, assessmentID)
}

// GetForUpdate retrieves the progress row with a row-level lock so concurrent
// submissions for the same pair serialize.
func (r *ProgressRepository) GetForUpdate(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM assessment_progress WHERE user_id = $1 AND assessment_id = $2 FOR UPDATE`
	return r.get(ctx, query, userID, assessmentID)
}

func (r *ProgressRepository) get(ctx context.Context, query string, userID, assessmentID int64) (*entities.AssessmentProgress, error) {
	var p entities.AssessmentProgress
	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, userID, assessmentID).Scan(
		&p.ID,
		&p.UserID,
		&p.AssessmentID,
		&p.CurrentQuestion,
		&p.IsComplete,
		&p.Credited,
		&p.TotalScore,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}

	return &p, nil
}

// Update persists advancement and completion state. The credited flag is
// deliberately excluded; it only changes through MarkCredited.
func (r *ProgressRepository) Update(ctx context.Context, progress *entities.AssessmentProgress) error {
	query := `
		UPDATE assessment_progress
		SET current_question = $2, is_complete = $3, total_score = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := postgres.Querier(ctx, r.db).Exec(
		ctx, query,
		progress.ID, progress.CurrentQuestion, progress.IsComplete, progress.TotalScore,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProgressNotFound
	}

	return nil
}

// MarkCredited flips the credited flag with a compare-and-set. It reports
// false when the row was already credited, so a concurrent completion
// becomes a no-op instead of a second credit.
func (r *ProgressRepository) MarkCredited(ctx context.Context, progressID int64) (bool, error) {
	query := `
		UPDATE assessment_progress
		SET credited = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_complete = TRUE AND credited = FALSE
	`

	tag, err := postgres.Querier(ctx, r.db).Exec(ctx, query, progressID)
	if err != nil {
		return false, fmt.Errorf("mark credited: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
