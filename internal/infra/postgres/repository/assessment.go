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

// AssessmentRepository provides read access to assessment content.
type AssessmentRepository struct {
	db postgres.DBTX
}

// NewAssessmentRepository creates a new AssessmentRepository with the provided database pool.
func NewAssessmentRepository(db postgres.DBTX) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// GetByID loads an assessment with its questions (ordered by position) and
// their choices.
func (r *AssessmentRepository) GetByID(ctx context.Context, assessmentID int64) (*entities.Assessment, error) {
	q := postgres.Querier(ctx, r.db)

	var a entities.Assessment
	err := q.QueryRow(ctx, `
		SELECT id, title, slug, points, level, created_at
		FROM assessments
		WHERE id = $1
	`, assessmentID).Scan(&a.ID, &a.Title, &a.Slug, &a.Points, &a.Level, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, assessment_id, position, title, value
		FROM questions
		WHERE assessment_id = $1
		ORDER BY position
	`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	questionIDs := make([]int64, 0, 8)
	for rows.Next() {
		var question entities.Question
		if err := rows.Scan(
			&question.ID,
			&question.AssessmentID,
			&question.Position,
			&question.Title,
			&question.Value,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		a.Questions = append(a.Questions, question)
		questionIDs = append(questionIDs, question.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questionIDs) == 0 {
		return &a, nil
	}

	choiceRows, err := q.Query(ctx, `
		SELECT id, question_id, content, is_correct
		FROM choices
		WHERE question_id = ANY($1::int8[])
		ORDER BY id
	`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("get choices: %w", err)
	}
	defer choiceRows.Close()

	byQuestion := make(map[int64]*entities.Question, len(a.Questions))
	for i := range a.Questions {
		byQuestion[a.Questions[i].ID] = &a.Questions[i]
	}

	for choiceRows.Next() {
		var choice entities.Choice
		if err := choiceRows.Scan(&choice.ID, &choice.QuestionID, &choice.Content, &choice.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		if question, ok := byQuestion[choice.QuestionID]; ok {
			question.Choices = append(question.Choices, choice)
		}
	}

	return &a, choiceRows.Err()
}
