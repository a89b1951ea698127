package repository

import (
	"context"
	"fmt"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/infra/postgres"
)

// AnswerRepository provides access to immutable graded answer rows.
type AnswerRepository struct {
	db postgres.DBTX
}

// NewAnswerRepository creates a new AnswerRepository with the provided database pool.
func NewAnswerRepository(db postgres.DBTX) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Insert creates the answer row. The unique (user_id, question_id)
// constraint makes re-submission fail with ErrDuplicateAnswer.
func (r *AnswerRepository) Insert(ctx context.Context, answer *entities.AnswerRecord) error {
	query := `
		INSERT INTO answers (user_id, assessment_id, question_id, choice_id, is_correct, points_awarded)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := postgres.Querier(ctx, r.db).QueryRow(
		ctx, query,
		answer.UserID,
		answer.AssessmentID,
		answer.QuestionID,
		answer.ChoiceID,
		answer.IsCorrect,
		answer.PointsAwarded,
	).Scan(&answer.ID, &answer.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return domain.ErrDuplicateAnswer
		}
		return fmt.Errorf("insert answer: %w", err)
	}

	return nil
}

// ListByAssessment returns all answers a user gave for one assessment.
func (r *AnswerRepository) ListByAssessment(ctx context.Context, userID, assessmentID int64) ([]*entities.AnswerRecord, error) {
	query := `
		SELECT id, user_id, assessment_id, question_id, choice_id, is_correct, points_awarded, created_at
		FROM answers
		WHERE user_id = $1 AND assessment_id = $2
		ORDER BY created_at
	`

	rows, err := postgres.Querier(ctx, r.db).Query(ctx, query, userID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []*entities.AnswerRecord
	for rows.Next() {
		var a entities.AnswerRecord
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.AssessmentID,
			&a.QuestionID,
			&a.ChoiceID,
			&a.IsCorrect,
			&a.PointsAwarded,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, &a)
	}

	return answers, rows.Err()
}

// TotalPoints sums the points awarded across the user's answers for one assessment.
func (r *AnswerRepository) TotalPoints(ctx context.Context, userID, assessmentID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(points_awarded), 0)
		FROM answers
		WHERE user_id = $1 AND assessment_id = $2
	`

	var total int
	if err := postgres.Querier(ctx, r.db).QueryRow(ctx, query, userID, assessmentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}

	return total, nil
}
