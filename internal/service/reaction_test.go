package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/infra/memory"
	"github.com/devsplug/scoring-engine/internal/service"
)

var testDeltas = service.ReactionDeltas{Like: 10, Dislike: 2}

// testReactionSetup seeds an author with a submission and a separate reader,
// returning (store, service, authorID, readerID, submissionID).
func testReactionSetup(t *testing.T) (*memory.Store, *service.ReactionService, int64, int64, int64) {
	t.Helper()
	store := memory.NewStore()

	author := entities.NewUser("author")
	author.Title = "novice"
	authorID := store.AddUser(author)

	reader := entities.NewUser("reader")
	reader.Title = "novice"
	readerID := store.AddUser(reader)

	submissionID := store.AddSubmission(&entities.Submission{UserID: authorID, AssessmentID: 1})

	ledger := newTestLedger(t, store)
	svc := service.NewReactionService(store, memory.SubmissionRepo{Store: store}, memory.ReactionRepo{Store: store}, ledger, testDeltas)
	return store, svc, authorID, readerID, submissionID
}

func TestReactToggleRestoresScore(t *testing.T) {
	ctx := context.Background()
	store, svc, authorID, readerID, submissionID := testReactionSetup(t)

	active, err := svc.React(ctx, readerID, submissionID, entities.ReactionLike)
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if !active {
		t.Fatalf("expected the like to be active")
	}

	author, _ := store.GetByID(ctx, authorID)
	if author.Score != testDeltas.Like {
		t.Fatalf("expected author credited %d, got %d", testDeltas.Like, author.Score)
	}

	active, err = svc.React(ctx, readerID, submissionID, entities.ReactionLike)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if active {
		t.Fatalf("expected the like to be removed")
	}

	author, _ = store.GetByID(ctx, authorID)
	if author.Score != 0 {
		t.Fatalf("expected the toggle to restore the score exactly, got %d", author.Score)
	}
}

func TestReactKindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, svc, authorID, readerID, submissionID := testReactionSetup(t)

	if _, err := svc.React(ctx, readerID, submissionID, entities.ReactionLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := svc.React(ctx, readerID, submissionID, entities.ReactionDislike); err != nil {
		t.Fatalf("dislike: %v", err)
	}

	// Both reactions credit the author independently.
	author, _ := store.GetByID(ctx, authorID)
	want := testDeltas.Like + testDeltas.Dislike
	if author.Score != want {
		t.Fatalf("expected score %d with both reactions active, got %d", want, author.Score)
	}

	// Removing the dislike leaves the like in place.
	if _, err := svc.React(ctx, readerID, submissionID, entities.ReactionDislike); err != nil {
		t.Fatalf("toggle dislike off: %v", err)
	}
	author, _ = store.GetByID(ctx, authorID)
	if author.Score != testDeltas.Like {
		t.Fatalf("expected score %d after removing the dislike, got %d", testDeltas.Like, author.Score)
	}
}

func TestReactInvalidKind(t *testing.T) {
	ctx := context.Background()
	_, svc, _, readerID, submissionID := testReactionSetup(t)

	if _, err := svc.React(ctx, readerID, submissionID, "meh"); !errors.Is(err, domain.ErrInvalidReactionKind) {
		t.Fatalf("expected ErrInvalidReactionKind, got %v", err)
	}
}

func TestReactUnknownSubmission(t *testing.T) {
	ctx := context.Background()
	_, svc, _, readerID, _ := testReactionSetup(t)

	if _, err := svc.React(ctx, readerID, 404, entities.ReactionLike); !errors.Is(err, domain.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestReactOwnSubmission(t *testing.T) {
	ctx := context.Background()
	store, svc, authorID, _, submissionID := testReactionSetup(t)

	// Authors may react to their own submissions; the platform has never
	// restricted this.
	if _, err := svc.React(ctx, authorID, submissionID, entities.ReactionLike); err != nil {
		t.Fatalf("self-react: %v", err)
	}
	author, _ := store.GetByID(ctx, authorID)
	if author.Score != testDeltas.Like {
		t.Fatalf("expected the author credited for a self-like, got %d", author.Score)
	}
}
