package rest

import (
	"context"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/service"
)

// Service interfaces consumed by the HTTP layer.

type ProgressService interface {
	StartOrGet(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error)
	SubmitAnswer(ctx context.Context, userID, assessmentID, questionID, choiceID int64) (*service.SubmitResult, error)
	Status(ctx context.Context, userID, assessmentID int64) ([]entities.QuestionStatus, error)
	Score(ctx context.Context, userID, assessmentID int64) (int, error)
}

type ReactionService interface {
	React(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error)
}

type SubmissionService interface {
	Create(ctx context.Context, userID, assessmentID int64) (*entities.Submission, error)
	Validate(ctx context.Context, submissionID int64) (bool, error)
}

type LeaderboardService interface {
	Top(ctx context.Context, n int) ([]entities.RankedUser, error)
	RankOf(ctx context.Context, userID int64) (int, error)
}
