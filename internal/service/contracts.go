package service

import (
	"context"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// Transactor runs fn inside a storage transaction. Nested calls join the
// transaction already open in the context.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
	ApplyScoreDelta(ctx context.Context, userID int64, delta int) (int, error)
	UpdateTitle(ctx context.Context, userID int64, title string) error
}

type AssessmentRepository interface {
	GetByID(ctx context.Context, assessmentID int64) (*entities.Assessment, error)
}

type ProgressRepository interface {
	Create(ctx context.Context, progress *entities.AssessmentProgress) error
	Get(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error)
	GetForUpdate(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error)
	Update(ctx context.Context, progress *entities.AssessmentProgress) error
	MarkCredited(ctx context.Context, progressID int64) (bool, error)
}

type AnswerRepository interface {
	Insert(ctx context.Context, answer *entities.AnswerRecord) error
	ListByAssessment(ctx context.Context, userID, assessmentID int64) ([]*entities.AnswerRecord, error)
	TotalPoints(ctx context.Context, userID, assessmentID int64) (int, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *entities.Submission) (int64, error)
	GetByID(ctx context.Context, submissionID int64) (*entities.Submission, error)
	MarkValidated(ctx context.Context, submissionID int64) (bool, error)
}

type ReactionRepository interface {
	Insert(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error)
	Delete(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error)
}

type LeaderboardRepository interface {
	Top(ctx context.Context, n int) ([]entities.RankedUser, error)
	Rank(ctx context.Context, userID int64) (int, error)
}

// LeaderboardCache fronts the ranking query with a shared snapshot.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]entities.RankedUser, bool, error)
	Set(ctx context.Context, limit int, entries []entities.RankedUser) error
	Invalidate(ctx context.Context) error
}

// PromotionNotifier announces that a user reached a higher title.
type PromotionNotifier interface {
	NotifyPromotion(ctx context.Context, username, title string) error
}
