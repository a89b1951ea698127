package domain

import "errors"

var (
	// ErrInvalidAmount is returned for negative credit or debit amounts.
	ErrInvalidAmount = errors.New("amount must be non-negative")
	// ErrChoiceNotFound indicates the submitted choice does not belong to the question.
	ErrChoiceNotFound = errors.New("choice not found for question")
	// ErrDuplicateAnswer indicates the question was already answered by this user.
	ErrDuplicateAnswer = errors.New("question already answered")
	// ErrAssessmentComplete indicates a mutation was attempted on a finished progress.
	ErrAssessmentComplete = errors.New("assessment already complete")
	// ErrTargetNotFound indicates a reaction targeted a missing submission.
	ErrTargetNotFound = errors.New("reaction target not found")
	// ErrNotRanked is a valid rank-lookup result for users outside the active set.
	ErrNotRanked = errors.New("user is not ranked")
	// ErrTransient signals storage contention that survived the internal retries.
	ErrTransient = errors.New("transient storage failure")

	// ErrUserNotFound indicates an unknown user ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrAssessmentNotFound indicates unknown assessment content.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrQuestionNotFound indicates a question ID outside the assessment.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrProgressNotFound indicates no progress exists for the (user, assessment) pair.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrInvalidReactionKind is returned for kinds other than like/dislike.
	ErrInvalidReactionKind = errors.New("invalid reaction kind")
)
