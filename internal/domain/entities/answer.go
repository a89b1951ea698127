package entities

import "time"

// AnswerRecord is a user's graded answer to a single question. Records are
// unique per (user, question) and immutable once created.
type AnswerRecord struct {
	ID            int64
	UserID        int64
	AssessmentID  int64
	QuestionID    int64
	ChoiceID      int64
	IsCorrect     bool
	PointsAwarded int
	CreatedAt     time.Time
}

// NewAnswerRecord creates an ungraded answer for the given selection.
func NewAnswerRecord(userID, assessmentID, questionID, choiceID int64) *AnswerRecord {
	return &AnswerRecord{
		UserID:       userID,
		AssessmentID: assessmentID,
		QuestionID:   questionID,
		ChoiceID:     choiceID,
		CreatedAt:    time.Now(),
	}
}

// Grade sets correctness and the awarded points from the question's value.
func (a *AnswerRecord) Grade(isCorrect bool, questionValue int) {
	a.IsCorrect = isCorrect
	if isCorrect {
		a.PointsAwarded = questionValue
	} else {
		a.PointsAwarded = 0
	}
}
