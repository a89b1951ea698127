package service

import (
	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// EvaluateAnswer grades a selected choice against its question. It returns
// whether the choice is correct and the points earned: the question's value
// for a correct choice, zero otherwise. A choice that does not belong to the
// question fails with ErrChoiceNotFound, which guards against choice IDs
// submitted across questions or assessments.
func EvaluateAnswer(question *entities.Question, choiceID int64) (bool, int, error) {
	choice := question.ChoiceByID(choiceID)
	if choice == nil {
		return false, 0, domain.ErrChoiceNotFound
	}

	if choice.IsCorrect {
		return true, question.Value, nil
	}
	return false, 0, nil
}
