package entities

import "time"

// ReactionKind identifies the type of a reaction.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether the kind is one of the known reaction kinds.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Reaction marks that a user reacted to a submission. Presence of the row
// means the reaction is active; toggling off deletes it.
type Reaction struct {
	ID           int64
	UserID       int64
	SubmissionID int64
	Kind         ReactionKind
	CreatedAt    time.Time
}
