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

// SubmissionRepository provides access to posted solutions, the targets
// of reactions.
type SubmissionRepository struct {
	db postgres.DBTX
}

// NewSubmissionRepository creates a new SubmissionRepository with the provided database pool.
func NewSubmissionRepository(db postgres.DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission row.
func (r *SubmissionRepository) Create(ctx context.Context, submission *entities.Submission) (int64, error) {
	query := `
		INSERT INTO submissions (user_id, assessment_id)
		VALUES ($1, $2)
		RETURNING id, submitted_at
	`

	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, submission.UserID, submission.AssessmentID).
		Scan(&submission.ID, &submission.SubmittedAt)
	if err != nil {
		return 0, fmt.Errorf("create submission: %w", err)
	}

	return submission.ID, nil
}

// GetByID retrieves a submission by ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, submissionID int64) (*entities.Submission, error) {
	query := `
		SELECT id, user_id, assessment_id, is_valid, noted, submitted_at
		FROM submissions
		WHERE id = $1
	`

	var s entities.Submission
	err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, submissionID).Scan(
		&s.ID,
		&s.UserID,
		&s.AssessmentID,
		&s.IsValid,
		&s.Noted,
		&s.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTargetNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	return &s, nil
}

// MarkValidated flips is_valid and the one-shot noted flag with a
// compare-and-set. A false return means the bonus was already granted.
func (r *SubmissionRepository) MarkValidated(ctx context.Context, submissionID int64) (bool, error) {
	query := `
		UPDATE submissions
		SET is_valid = TRUE, noted = TRUE
		WHERE id = $1 AND noted = FALSE
	`

	tag, err := postgres.Querier(ctx, r.db).Exec(ctx, query, submissionID)
	if err != nil {
		return false, fmt.Errorf("mark validated: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
