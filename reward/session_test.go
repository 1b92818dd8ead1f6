package reward

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/shopspring/decimal"
)

// memPrizeStore is an in-memory PrizeStore for tests.
type memPrizeStore struct {
	mu     sync.Mutex
	prizes map[string]*UnclaimedPrize
	getErr error
	putErr error
}

func newMemPrizeStore() *memPrizeStore {
	return &memPrizeStore{prizes: make(map[string]*UnclaimedPrize)}
}

func (s *memPrizeStore) Get(_ context.Context, accountID string) (*UnclaimedPrize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if p, ok := s.prizes[accountID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *memPrizeStore) PutIfAbsent(_ context.Context, accountID string, prize *UnclaimedPrize) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return false, s.putErr
	}
	if _, ok := s.prizes[accountID]; ok {
		return false, nil
	}
	cp := *prize
	s.prizes[accountID] = &cp
	return true, nil
}

func (s *memPrizeStore) Clear(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prizes, accountID)
	return nil
}

func testAttempt(value int64) *SpinAttempt {
	return &SpinAttempt{
		PrizeIndex: 2,
		PrizeLabel: "prize",
		PrizeValue: decimal.NewFromInt(value),
		CreatedAt:  time.Now(),
	}
}

func TestSessionResolveSpinStoresPrize(t *testing.T) {
	store := newMemPrizeStore()
	sess := NewSession("alice.test", store)
	ctx := context.Background()

	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected BeginSpin error: %v", err)
	}
	prize, err := sess.ResolveSpin(ctx, testAttempt(30))
	if err != nil {
		t.Fatalf("unexpected ResolveSpin error: %v", err)
	}
	if !prize.PrizeValue.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected prize value 30, got %s", prize.PrizeValue)
	}

	got, err := sess.CurrentPrize(ctx)
	if err != nil {
		t.Fatalf("unexpected CurrentPrize error: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored prize, got nil")
	}
	if got.PrizeIndex != 2 {
		t.Errorf("expected prize index 2, got %d", got.PrizeIndex)
	}
}

func TestSessionRefusesSecondUnclaimedPrize(t *testing.T) {
	store := newMemPrizeStore()
	sess := NewSession("alice.test", store)
	ctx := context.Background()

	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected BeginSpin error: %v", err)
	}
	if _, err := sess.ResolveSpin(ctx, testAttempt(30)); err != nil {
		t.Fatalf("unexpected first ResolveSpin error: %v", err)
	}

	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected second BeginSpin error: %v", err)
	}
	_, err := sess.ResolveSpin(ctx, testAttempt(100))
	if err == nil {
		t.Fatal("expected error overwriting unclaimed prize")
	}
	if apperrors.GetCode(err) != apperrors.ErrUnclaimedPrizeExists {
		t.Errorf("expected code %d, got %d", apperrors.ErrUnclaimedPrizeExists, apperrors.GetCode(err))
	}

	// the original prize must be untouched
	got, err := sess.CurrentPrize(ctx)
	if err != nil {
		t.Fatalf("unexpected CurrentPrize error: %v", err)
	}
	if got == nil || !got.PrizeValue.Equal(decimal.NewFromInt(30)) {
		t.Errorf("original prize was overwritten: %+v", got)
	}
}

func TestSessionConcurrentSpinsFailFast(t *testing.T) {
	store := newMemPrizeStore()
	sess := NewSession("alice.test", store)

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = sess.BeginSpin()
		}(i)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case apperrors.GetCode(err) == apperrors.ErrAlreadySpinning:
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("expected exactly 1 spin to acquire the lock, got %d", won)
	}
	if lost != attempts-1 {
		t.Errorf("expected %d rejections, got %d", attempts-1, lost)
	}
}

func TestSessionAbortReleasesSpinLock(t *testing.T) {
	sess := NewSession("alice.test", newMemPrizeStore())

	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected BeginSpin error: %v", err)
	}
	if err := sess.BeginSpin(); err == nil {
		t.Fatal("expected AlreadySpinning while spin in flight")
	}

	sess.AbortSpin()
	if err := sess.BeginSpin(); err != nil {
		t.Errorf("expected spin lock released after abort, got %v", err)
	}
}

func TestSessionSettleClearsPrize(t *testing.T) {
	store := newMemPrizeStore()
	sess := NewSession("alice.test", store)
	ctx := context.Background()

	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected BeginSpin error: %v", err)
	}
	if _, err := sess.ResolveSpin(ctx, testAttempt(30)); err != nil {
		t.Fatalf("unexpected ResolveSpin error: %v", err)
	}
	if err := sess.Settle(ctx); err != nil {
		t.Fatalf("unexpected Settle error: %v", err)
	}

	got, err := sess.CurrentPrize(ctx)
	if err != nil {
		t.Fatalf("unexpected CurrentPrize error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no prize after settle, got %+v", got)
	}

	// a new spin may now resolve
	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected BeginSpin error: %v", err)
	}
	if _, err := sess.ResolveSpin(ctx, testAttempt(50)); err != nil {
		t.Errorf("expected spin to resolve after settle, got %v", err)
	}
}

func TestManagerReturnsSameSessionPerAccount(t *testing.T) {
	mgr := NewManager(newMemPrizeStore())

	a1 := mgr.Get("alice.test")
	a2 := mgr.Get("alice.test")
	b := mgr.Get("bob.test")

	if a1 != a2 {
		t.Error("expected same session instance for one account")
	}
	if a1 == b {
		t.Error("expected distinct sessions for distinct accounts")
	}
}

func TestManagerConcurrentGet(t *testing.T) {
	mgr := NewManager(newMemPrizeStore())

	const workers = 32
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = mgr.Get("alice.test")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent Get returned different sessions for one account")
		}
	}
}
