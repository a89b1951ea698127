package entities

import "time"

// Assessment is an ordered set of graded questions.
type Assessment struct {
	ID        int64
	Title     string
	Slug      string
	Points    int    // completion bonus shown on the assessment card, not used for grading
	Level     string // "easy", "medium" or "hard"
	Questions []Question
	CreatedAt time.Time
}

// QuestionByID returns the question with the given ID, or nil.
func (a *Assessment) QuestionByID(questionID int64) *Question {
	for i := range a.Questions {
		if a.Questions[i].ID == questionID {
			return &a.Questions[i]
		}
	}
	return nil
}

// Question is a single graded question with a fixed point value.
type Question struct {
	ID           int64
	AssessmentID int64
	Position     int // 0-based position within the assessment
	Title        string
	Value        int
	Choices      []Choice
}

// ChoiceByID returns the choice with the given ID, or nil if it does
// not belong to this question.
func (q *Question) ChoiceByID(choiceID int64) *Choice {
	for i := range q.Choices {
		if q.Choices[i].ID == choiceID {
			return &q.Choices[i]
		}
	}
	return nil
}

// Choice is one selectable answer for a question.
type Choice struct {
	ID         int64
	QuestionID int64
	Content    string
	IsCorrect  bool
}
