package service

import (
	"context"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// SubmissionService grants the one-shot validation bonus: a submission
// accepted by a moderator credits its owner a fixed amount exactly once,
// guarded by the noted flag's compare-and-set.
type SubmissionService struct {
	tx          Transactor
	submissions SubmissionRepository
	ledger      *Ledger
	bonus       int
}

func NewSubmissionService(tx Transactor, submissions SubmissionRepository, ledger *Ledger, bonus int) *SubmissionService {
	return &SubmissionService{
		tx:          tx,
		submissions: submissions,
		ledger:      ledger,
		bonus:       bonus,
	}
}

// Create records a freshly posted solution for an assessment. It starts
// unvalidated; the bonus is only in play once a moderator validates it.
func (s *SubmissionService) Create(ctx context.Context, userID, assessmentID int64) (*entities.Submission, error) {
	submission := &entities.Submission{UserID: userID, AssessmentID: assessmentID}
	if _, err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// Validate marks the submission valid and credits the owner's bonus. It
// reports whether the bonus was granted by this call; repeated validations
// are no-ops.
func (s *SubmissionService) Validate(ctx context.Context, submissionID int64) (bool, error) {
	granted := false

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		submission, err := s.submissions.GetByID(ctx, submissionID)
		if err != nil {
			return err
		}

		ok, err := s.submissions.MarkValidated(ctx, submissionID)
		if err != nil {
			return err
		}
		if ok {
			if _, err := s.ledger.Credit(ctx, submission.UserID, s.bonus); err != nil {
				return err
			}
		}
		granted = ok
		return nil
	})
	if err != nil {
		return false, err
	}

	return granted, nil
}
