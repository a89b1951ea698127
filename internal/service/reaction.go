package service

import (
	"context"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// ReactionDeltas holds the fixed score effect of each reaction kind.
type ReactionDeltas struct {
	Like    int
	Dislike int
}

func (d ReactionDeltas) of(kind entities.ReactionKind) int {
	if kind == entities.ReactionDislike {
		return d.Dislike
	}
	return d.Like
}

// ReactionService toggles reactions on submissions. Creating a reaction
// credits the submission's owner the kind's delta; toggling it off deletes
// the row and debits the same delta, so a double toggle restores the
// owner's score exactly. Like and dislike are independent toggles.
type ReactionService struct {
	tx          Transactor
	submissions SubmissionRepository
	reactions   ReactionRepository
	ledger      *Ledger
	deltas      ReactionDeltas
}

func NewReactionService(
	tx Transactor,
	submissions SubmissionRepository,
	reactions ReactionRepository,
	ledger *Ledger,
	deltas ReactionDeltas,
) *ReactionService {
	return &ReactionService{
		tx:          tx,
		submissions: submissions,
		reactions:   reactions,
		ledger:      ledger,
		deltas:      deltas,
	}
}

// React toggles the (user, submission, kind) reaction and returns whether
// the reaction is now active.
func (s *ReactionService) React(ctx context.Context, userID, submissionID int64, kind entities.ReactionKind) (bool, error) {
	if !kind.Valid() {
		return false, domain.ErrInvalidReactionKind
	}

	delta := s.deltas.of(kind)
	active := false

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		submission, err := s.submissions.GetByID(ctx, submissionID)
		if err != nil {
			return err
		}

		removed, err := s.reactions.Delete(ctx, userID, submissionID, kind)
		if err != nil {
			return err
		}
		if removed {
			_, err := s.ledger.Debit(ctx, submission.UserID, delta)
			return err
		}

		inserted, err := s.reactions.Insert(ctx, userID, submissionID, kind)
		if err != nil {
			return err
		}
		if inserted {
			if _, err := s.ledger.Credit(ctx, submission.UserID, delta); err != nil {
				return err
			}
		}
		active = inserted
		return nil
	})
	if err != nil {
		return false, err
	}

	return active, nil
}
