// Package memory provides an in-process implementation of the engine's
// storage contracts. It backs the service when no database is configured
// and doubles as the fixture for service-level tests. Transactions are
// modeled with a single store-wide lock, which gives the same serialization
// guarantees the SQL layer gets from row locks, at fallback scale.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

type progressKey struct{ userID, assessmentID int64 }
type answerKey struct{ userID, questionID int64 }
type reactionKey struct {
	userID, submissionID int64
	kind                 entities.ReactionKind
}

type txKey struct{}

// Store holds all engine state in memory.
type Store struct {
	txMu sync.Mutex // serializes transactions, standing in for row locks
	mu   sync.RWMutex

	users       map[int64]*entities.User
	assessments map[int64]*entities.Assessment
	progress    map[progressKey]*entities.AssessmentProgress
	answers     map[answerKey]*entities.AnswerRecord
	submissions map[int64]*entities.Submission
	reactions   map[reactionKey]*entities.Reaction

	nextID int64
}

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]*entities.User),
		assessments: make(map[int64]*entities.Assessment),
		progress:    make(map[progressKey]*entities.AssessmentProgress),
		answers:     make(map[answerKey]*entities.AnswerRecord),
		submissions: make(map[int64]*entities.Submission),
		reactions:   make(map[reactionKey]*entities.Reaction),
	}
}

// WithinTx serializes fn against all other transactions. Nested calls join
// the transaction already running in this context. Commit hooks fire after
// the transaction lock is released, matching the SQL transactor's
// run-after-commit ordering.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	hookCtx, hooks := domain.WithCommitHooks(ctx)

	s.txMu.Lock()
	err := fn(context.WithValue(hookCtx, txKey{}, struct{}{}))
	s.txMu.Unlock()
	if err != nil {
		return err
	}

	hooks.Run(ctx)
	return nil
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

// AddUser seeds a user and returns its ID.
func (s *Store) AddUser(user *entities.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.allocID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	copied := *user
	s.users[user.ID] = &copied
	return user.ID
}

// AddAssessment seeds an assessment with its questions and choices,
// assigning IDs to any that lack one.
func (s *Store) AddAssessment(assessment *entities.Assessment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if assessment.ID == 0 {
		assessment.ID = s.allocID()
	}
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		q.AssessmentID = assessment.ID
		if q.ID == 0 {
			q.ID = s.allocID()
		}
		for j := range q.Choices {
			c := &q.Choices[j]
			c.QuestionID = q.ID
			if c.ID == 0 {
				c.ID = s.allocID()
			}
		}
	}
	s.assessments[assessment.ID] = assessment
	return assessment.ID
}

// AddSubmission seeds a submission and returns its ID.
func (s *Store) AddSubmission(submission *entities.Submission) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission.ID = s.allocID()
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	copied := *submission
	s.submissions[submission.ID] = &copied
	return submission.ID
}

// --- UserRepository ---

func (s *Store) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Store) ApplyScoreDelta(ctx context.Context, userID int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	user.Score += delta
	return user.Score, nil
}

func (s *Store) UpdateTitle(ctx context.Context, userID int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Title = title
	return nil
}

// --- AssessmentRepository ---

func (s *Store) GetAssessment(ctx context.Context, assessmentID int64) (*entities.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assessment, ok := s.assessments[assessmentID]
	if !ok {
		return nil, domain.ErrAssessmentNotFound
	}
	return assessment, nil
}

// --- ProgressRepository ---

func (s *Store) Create(ctx context.Context, progress *entities.AssessmentProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{progress.UserID, progress.AssessmentID}
	if _, ok := s.progress[key]; ok {
		// Existing row wins, matching the SQL ON CONFLICT DO NOTHING.
		progress.ID = 0
		return nil
	}
	progress.ID = s.allocID()
	copied := *progress
	s.progress[key] = &copied
	return nil
}

func (s *Store) Get(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.progress[progressKey{userID, assessmentID}]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	copied := *progress
	return &copied, nil
}

// GetForUpdate behaves like Get; the transaction lock already serializes
// concurrent submissions.
func (s *Store) GetForUpdate(ctx context.Context, userID, assessmentID int64) (*entities.AssessmentProgress, error) {
	return s.Get(ctx, userID, assessmentID)
}

func (s *Store) Update(ctx context.Context, progress *entities.AssessmentProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.progress[progressKey{progress.UserID, progress.AssessmentID}]
	if !ok {
		return domain.ErrProgressNotFound
	}
	stored.CurrentQuestion = progress.CurrentQuestion
	stored.IsComplete = progress.IsComplete
	stored.TotalScore = progress.TotalScore
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *Store) MarkCredited(ctx context.Context, progressID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, progress := range s.progress {
		if progress.ID != progressID {
			continue
		}
		if !progress.IsComplete || progress.Credited {
			return false, nil
		}
		progress.Credited = true
		progress.UpdatedAt = time.Now()
		return true, nil
	}
	return false, domain.ErrProgressNotFound
}

// --- AnswerRepository ---

func (s *Store) Insert(ctx context.Context, answer *entities.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answerKey{answer.UserID, answer.QuestionID}
	if _, ok := s.answers[key]; ok {
		return domain.ErrDuplicateAnswer
	}
	answer.ID = s.allocID()
	copied := *answer
	s.answers[key] = &copied
	return nil
}

func (s *Store) ListByAssessment(ctx context.Context, userID, assessmentID int64) ([]*entities.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var answers []*entities.AnswerRecord
	for _, answer := range s.answers {
		if answer.UserID == userID && answer.AssessmentID == assessmentID {
			copied := *answer
			answers = append(answers, &copied)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (s *Store) TotalPoints(ctx context.Context, userID, assessmentID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, answer := range s.answers {
		if answer.UserID == userID && answer.AssessmentID == assessmentID {
			total += answer.PointsAwarded
		}
	}
	return total, nil
}

// --- SubmissionRepository ---

func (s *Store) CreateSubmission(ctx context.Context, submission *entities.Submission) (int64, error) {
	return s.AddSubmission(submission), nil
}

func (s *Store) GetSubmission(ctx context.Context, submissionID int64) (*entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[submissionID]
	if !ok {
		return nil, domain.ErrTargetNotFound
	}
	copied := *submission
	return &copied, nil
}

func (s *Store) MarkValidated(ctx context.Context, submissionID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission, ok := s.submissions[submissionID]
	if !ok {
		return false, domain.ErrTargetNotFound
	}
	if submission.Noted {
		return false, nil
	}
	submission.IsValid = true
	submission.Noted = true
	return true, nil
}

// --- ReactionRepository ---

func (s *Store) InsertReaction(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reactionKey{userID, submissionID, kind}
	if _, ok := s.reactions[key]; ok {
		return false, nil
	}
	s.reactions[key] = &entities.Reaction{
		ID:           s.allocID(),
		UserID:       userID,
		SubmissionID: submissionID,
		Kind:         kind,
		CreatedAt:    time.Now(),
	}
	return true, nil
}

func (s *Store) DeleteReaction(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reactionKey{userID, submissionID, kind}
	if _, ok := s.reactions[key]; !ok {
		return false, nil
	}
	delete(s.reactions, key)
	return true, nil
}

// --- LeaderboardRepository ---

func (s *Store) Top(ctx context.Context, n int) ([]entities.RankedUser, error) {
	ranked := s.ranked()
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

func (s *Store) Rank(ctx context.Context, userID int64) (int, error) {
	for _, entry := range s.ranked() {
		if entry.UserID == userID {
			return entry.Rank, nil
		}
	}
	return 0, domain.ErrNotRanked
}

func (s *Store) ranked() []entities.RankedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]entities.RankedUser, 0, len(s.users))
	for _, user := range s.users {
		if !user.IsActive {
			continue
		}
		entries = append(entries, entities.RankedUser{
			UserID:   user.ID,
			Username: user.Username,
			Score:    user.Score,
			Title:    user.Title,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
