package entities

import "time"

// Submission is a user's posted solution for an assessment. It is the target
// of reactions and, once validated by a moderator, grants its owner a
// one-shot score bonus guarded by the Noted flag.
type Submission struct {
	ID           int64
	UserID       int64
	AssessmentID int64
	IsValid      bool
	Noted        bool
	SubmittedAt  time.Time
}
