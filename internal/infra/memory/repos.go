package memory

import (
	"context"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/service"
)

// Repo views over the shared store, matching the service contracts where
// method names collide across aggregates.

type AssessmentRepo struct{ *Store }

func (r AssessmentRepo) GetByID(ctx context.Context, assessmentID int64) (*entities.Assessment, error) {
	return r.GetAssessment(ctx, assessmentID)
}

type SubmissionRepo struct{ *Store }

func (r SubmissionRepo) Create(ctx context.Context, submission *entities.Submission) (int64, error) {
	return r.CreateSubmission(ctx, submission)
}

func (r SubmissionRepo) GetByID(ctx context.Context, submissionID int64) (*entities.Submission, error) {
	return r.GetSubmission(ctx, submissionID)
}

type ReactionRepo struct{ *Store }

func (r ReactionRepo) Insert(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	return r.InsertReaction(ctx, userID, submissionID, kind)
}

func (r ReactionRepo) Delete(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	return r.DeleteReaction(ctx, userID, submissionID, kind)
}

var (
	_ service.Transactor            = (*Store)(nil)
	_ service.UserRepository        = (*Store)(nil)
	_ service.ProgressRepository    = (*Store)(nil)
	_ service.AnswerRepository      = (*Store)(nil)
	_ service.LeaderboardRepository = (*Store)(nil)
	_ service.AssessmentRepository  = AssessmentRepo{}
	_ service.SubmissionRepository  = SubmissionRepo{}
	_ service.ReactionRepository    = ReactionRepo{}
)
