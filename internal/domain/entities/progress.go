package entities

import "time"

// AssessmentProgress tracks one user's advancement through one assessment.
// CurrentQuestion never decreases, IsComplete and Credited are one-way
// false→true transitions, and TotalScore is frozen once Credited is set.
type AssessmentProgress struct {
	ID              int64
	UserID          int64
	AssessmentID    int64
	CurrentQuestion int // count of answered questions, 0-based index of the next one
	IsComplete      bool
	Credited        bool
	TotalScore      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewAssessmentProgress creates a fresh progress record for a user starting
// an assessment.
func NewAssessmentProgress(userID, assessmentID int64) *AssessmentProgress {
	now := time.Now()
	return &AssessmentProgress{
		UserID:       userID,
		AssessmentID: assessmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Advance moves the progress to reflect answeredCount graded answers out of
// totalQuestions and marks completion when the last question is answered.
func (p *AssessmentProgress) Advance(answeredCount, totalQuestions int) {
	if answeredCount > p.CurrentQuestion {
		p.CurrentQuestion = answeredCount
	}
	if totalQuestions > 0 && answeredCount >= totalQuestions {
		p.IsComplete = true
	}
	p.UpdatedAt = time.Now()
}

// Complete marks the progress finished with the given accumulated score.
func (p *AssessmentProgress) Complete(totalScore int) {
	p.IsComplete = true
	p.TotalScore = totalScore
	p.UpdatedAt = time.Now()
}

// QuestionStatus reports whether a single question has been answered.
type QuestionStatus struct {
	QuestionID int64 `json:"questionId"`
	Position   int   `json:"position"`
	Answered   bool  `json:"answered"`
}
