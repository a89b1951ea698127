package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/infra/memory"
	"github.com/devsplug/scoring-engine/internal/service"
)

func newTestLedger(t *testing.T, store *memory.Store, opts ...service.LedgerOption) *service.Ledger {
	t.Helper()
	titles, err := service.NewTitleTable(defaultBands())
	if err != nil {
		t.Fatalf("new title table: %v", err)
	}
	return service.NewLedger(store, store, titles, zap.NewNop(), opts...)
}

func TestLedgerRejectsNegativeAmounts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := store.AddUser(entities.NewUser("alice"))
	ledger := newTestLedger(t, store)

	if _, err := ledger.Credit(ctx, userID, -1); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount from credit, got %v", err)
	}
	if _, err := ledger.Debit(ctx, userID, -1); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount from debit, got %v", err)
	}
}

func TestLedgerCreditDebitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := store.AddUser(entities.NewUser("alice"))
	ledger := newTestLedger(t, store)

	score, err := ledger.Credit(ctx, userID, 120)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if score != 120 {
		t.Fatalf("expected score 120, got %d", score)
	}

	score, err = ledger.Debit(ctx, userID, 20)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if score != 100 {
		t.Fatalf("expected score 100, got %d", score)
	}
}

func TestLedgerUnknownUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := newTestLedger(t, store)

	if _, err := ledger.Credit(ctx, 404, 10); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLedgerRecomputesTitle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := entities.NewUser("alice")
	user.Title = "novice"
	userID := store.AddUser(user)
	ledger := newTestLedger(t, store)

	if _, err := ledger.Credit(ctx, userID, 1500); err != nil {
		t.Fatalf("credit: %v", err)
	}

	stored, err := store.GetByID(ctx, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.Title != "pro" {
		t.Fatalf("expected title pro after crossing 1001, got %q", stored.Title)
	}

	// Dropping back under the threshold demotes on the same path.
	if _, err := ledger.Debit(ctx, userID, 1000); err != nil {
		t.Fatalf("debit: %v", err)
	}
	stored, _ = store.GetByID(ctx, userID)
	if stored.Title != "novice" {
		t.Fatalf("expected title novice after demotion, got %q", stored.Title)
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyPromotion(_ context.Context, username, title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, username+":"+title)
	return nil
}

func TestLedgerAnnouncesPromotionsOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := entities.NewUser("alice")
	user.Title = "novice"
	userID := store.AddUser(user)

	notifier := &recordingNotifier{}
	ledger := newTestLedger(t, store, service.WithPromotionNotifier(notifier))

	if _, err := ledger.Credit(ctx, userID, 2000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := ledger.Debit(ctx, userID, 1500); err != nil {
		t.Fatalf("debit: %v", err)
	}

	if len(notifier.events) != 1 || notifier.events[0] != "alice:pro" {
		t.Fatalf("expected a single promotion announcement for alice:pro, got %v", notifier.events)
	}
}

func TestLedgerSideEffectsWaitForOuterCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := entities.NewUser("alice")
	user.Title = "novice"
	userID := store.AddUser(user)

	notifier := &recordingNotifier{}
	cache := newFakeCache()
	ledger := newTestLedger(t, store,
		service.WithPromotionNotifier(notifier),
		service.WithLeaderboardCache(cache),
	)

	if err := cache.Set(ctx, 3, []entities.RankedUser{{Rank: 1, UserID: userID}}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	// A promoting credit inside a transaction that ultimately rolls back
	// must leave no announcement and no cache invalidation behind.
	failure := errors.New("storage failed")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := ledger.Credit(ctx, userID, 2000); err != nil {
			t.Fatalf("credit: %v", err)
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected the outer failure back, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no announcement from a rolled-back credit, got %v", notifier.events)
	}
	if _, ok, _ := cache.Get(ctx, 3); !ok {
		t.Fatalf("expected the cached page untouched by a rolled-back credit")
	}

	// The same credit in a committing transaction fires both effects.
	// The store kept the first delta (it has no rollback), so this one
	// lands on 4000 and the plug tier.
	err = store.WithinTx(ctx, func(ctx context.Context) error {
		_, err := ledger.Credit(ctx, userID, 2000)
		return err
	})
	if err != nil {
		t.Fatalf("outer tx: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "alice:plug" {
		t.Fatalf("expected a single alice:plug announcement after commit, got %v", notifier.events)
	}
	if _, ok, _ := cache.Get(ctx, 3); ok {
		t.Fatalf("expected the cached page invalidated after commit")
	}
}

// flakyUsers fails ApplyScoreDelta a fixed number of times before
// delegating to the real repository.
type flakyUsers struct {
	service.UserRepository
	failures int
	calls    int
}

var errContention = errors.New("deadlock detected")

func (f *flakyUsers) ApplyScoreDelta(ctx context.Context, userID int64, delta int) (int, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errContention
	}
	return f.UserRepository.ApplyScoreDelta(ctx, userID, delta)
}

func TestLedgerRetriesOnlyWhenItOwnsTheTransaction(t *testing.T) {
	ctx := context.Background()
	titles, err := service.NewTitleTable(defaultBands())
	if err != nil {
		t.Fatalf("new title table: %v", err)
	}
	isContention := func(err error) bool { return errors.Is(err, errContention) }

	// Owning the transaction, the ledger retries past transient failures.
	store := memory.NewStore()
	user := entities.NewUser("alice")
	user.Title = "novice"
	userID := store.AddUser(user)
	flaky := &flakyUsers{UserRepository: store, failures: 2}
	ledger := service.NewLedger(store, flaky, titles, zap.NewNop(),
		service.WithTransientClassifier(isContention))

	score, err := ledger.Credit(ctx, userID, 10)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if score != 10 || flaky.calls != 3 {
		t.Fatalf("expected success on the third attempt, got score=%d calls=%d", score, flaky.calls)
	}

	// Joined to a caller's transaction, a retry would rejoin the aborted
	// transaction; the single failed attempt surfaces as transient.
	store = memory.NewStore()
	user = entities.NewUser("bob")
	user.Title = "novice"
	userID = store.AddUser(user)
	flaky = &flakyUsers{UserRepository: store, failures: 1}
	ledger = service.NewLedger(store, flaky, titles, zap.NewNop(),
		service.WithTransientClassifier(isContention))

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		_, err := ledger.Credit(ctx, userID, 10)
		return err
	})
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient from the joined credit, got %v", err)
	}
	if flaky.calls != 1 {
		t.Fatalf("expected a single attempt inside the caller's transaction, got %d", flaky.calls)
	}
}

func TestLedgerConcurrentDeltasConserveScore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := entities.NewUser("alice")
	user.Title = "novice"
	userID := store.AddUser(user)
	ledger := newTestLedger(t, store)

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := ledger.Credit(ctx, userID, 3); err != nil {
					t.Errorf("credit: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stored, err := store.GetByID(ctx, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	want := workers * perWorker * 3
	if stored.Score != want {
		t.Fatalf("lost updates: expected score %d, got %d", want, stored.Score)
	}
}
