package service

import (
	"context"
	"fmt"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// ProgressService drives the per-(user, assessment) state machine:
// NotStarted → InProgress → Completed(uncredited) → Completed(credited).
// The progress row is locked for the whole submission, the answer row's
// uniqueness rejects re-submissions, and the credited flag is flipped by
// compare-and-set in the same transaction as the ledger credit, so the
// total score of an assessment is credited at most once.
type ProgressService struct {
	tx          Transactor
	assessments AssessmentRepository
	progress    ProgressRepository
	answers     AnswerRepository
	ledger      *Ledger
}

func NewProgressService(
	tx Transactor,
	assessments AssessmentRepository,
	progress ProgressRepository,
	answers AnswerRepository,
	ledger *Ledger,
) *ProgressService {
	return &ProgressService{
		tx:          tx,
		assessments: assessments,
		progress:    progress,
		answers:     answers,
		ledger:      ledger,
	}
}

// SubmitResult summarizes the outcome of one answer submission.
type SubmitResult struct {
	IsCorrect      bool  `json:"isCorrect"`
	PointsAwarded  int   `json:"pointsAwarded"`
	NextQuestionID int64 `json:"nextQuestionId,omitempty"` // 0 once the assessment is complete
	Completed      bool  `json:"completed"`
	Credited       bool  `json:"credited"`
	TotalScore     int   `json:"totalScore"`
}

// StartOrGet returns the progress for a (user, assessment) pair, creating it
// on first call. The operation is idempotent.
func (s *ProgressService) StartOrGet(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		return nil, err
	}

	progress := entities.NewAssessmentProgress(userID, assessmentID)
	if err := s.progress.Create(ctx, progress); err != nil {
		return nil, err
	}
	if progress.ID != 0 {
		return progress, nil
	}
	// Row already existed; return it.
	return s.progress.Get(ctx, userID, assessmentID)
}

// SubmitAnswer grades the selected choice, records the immutable answer and
// advances the progress. Answering the last question completes the
// assessment and credits its total score through the ledger exactly once.
func (s *ProgressService) SubmitAnswer(ctx context.Context, userID, assessmentID, questionID, choiceID int64) (*SubmitResult, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	question := assessment.QuestionByID(questionID)
	if question == nil {
		return nil, domain.ErrQuestionNotFound
	}

	isCorrect, points, err := EvaluateAnswer(question, choiceID)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{IsCorrect: isCorrect, PointsAwarded: points}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.progress.Create(ctx, entities.NewAssessmentProgress(userID, assessmentID)); err != nil {
			return err
		}
		progress, err := s.progress.GetForUpdate(ctx, userID, assessmentID)
		if err != nil {
			return err
		}
		if progress.IsComplete {
			return domain.ErrAssessmentComplete
		}

		answer := entities.NewAnswerRecord(userID, assessmentID, questionID, choiceID)
		answer.Grade(isCorrect, question.Value)
		if err := s.answers.Insert(ctx, answer); err != nil {
			return err
		}

		recorded, err := s.answers.ListByAssessment(ctx, userID, assessmentID)
		if err != nil {
			return err
		}
		answered := make(map[int64]bool, len(recorded))
		for _, a := range recorded {
			answered[a.QuestionID] = true
		}

		progress.Advance(len(recorded), len(assessment.Questions))
		if progress.IsComplete {
			total, err := s.answers.TotalPoints(ctx, userID, assessmentID)
			if err != nil {
				return err
			}
			progress.Complete(total)
		} else {
			for i := range assessment.Questions {
				if !answered[assessment.Questions[i].ID] {
					result.NextQuestionID = assessment.Questions[i].ID
					break
				}
			}
		}

		if err := s.progress.Update(ctx, progress); err != nil {
			return err
		}

		result.Completed = progress.IsComplete
		result.TotalScore = progress.TotalScore

		if progress.IsComplete {
			credited, err := s.progress.MarkCredited(ctx, progress.ID)
			if err != nil {
				return err
			}
			if credited {
				if _, err := s.ledger.Credit(ctx, userID, progress.TotalScore); err != nil {
					return fmt.Errorf("credit completed assessment: %w", err)
				}
			}
			result.Credited = credited
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Status reports the submitted/unsubmitted flag for every question of the
// assessment. Read-only; it does not create progress.
func (s *ProgressService) Status(ctx context.Context, userID, assessmentID int64) ([]entities.QuestionStatus, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	recorded, err := s.answers.ListByAssessment(ctx, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	answered := make(map[int64]bool, len(recorded))
	for _, a := range recorded {
		answered[a.QuestionID] = true
	}

	statuses := make([]entities.QuestionStatus, 0, len(assessment.Questions))
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		statuses = append(statuses, entities.QuestionStatus{
			QuestionID: q.ID,
			Position:   q.Position,
			Answered:   answered[q.ID],
		})
	}

	return statuses, nil
}

// Score returns the assessment score for a user: the frozen total once the
// assessment is complete, the running sum of awarded points before that.
func (s *ProgressService) Score(ctx context.Context, userID, assessmentID int64) (int, error) {
	progress, err := s.progress.Get(ctx, userID, assessmentID)
	if err != nil {
		return 0, err
	}
	if progress.IsComplete {
		return progress.TotalScore, nil
	}

	total, err := s.answers.TotalPoints(ctx, userID, assessmentID)
	if err != nil {
		return 0, err
	}
	return total, nil
}
