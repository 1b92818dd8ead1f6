package reward

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/rs/zerolog"
)

// memPointsStore is an in-memory PointsStore for tests.
type memPointsStore struct {
	mu      sync.Mutex
	points  map[string]int64
	credits map[string]int64
	incrErr error
}

func newMemPointsStore() *memPointsStore {
	return &memPointsStore{
		points:  make(map[string]int64),
		credits: make(map[string]int64),
	}
}

func (s *memPointsStore) Balance(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[accountID], nil
}

func (s *memPointsStore) IncrBy(_ context.Context, accountID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.points[accountID] += delta
	return s.points[accountID], nil
}

func (s *memPointsStore) SpinCredits(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[accountID], nil
}

func (s *memPointsStore) IncrSpinCredits(_ context.Context, accountID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[accountID] += delta
	return s.credits[accountID], nil
}

func TestLedgerDebitAndCredit(t *testing.T) {
	store := newMemPointsStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()

	if _, err := ledger.Credit(ctx, "alice.test", 500); err != nil {
		t.Fatalf("unexpected credit error: %v", err)
	}
	balance, err := ledger.Debit(ctx, "alice.test", 100)
	if err != nil {
		t.Fatalf("unexpected debit error: %v", err)
	}
	if balance != 400 {
		t.Errorf("expected balance 400, got %d", balance)
	}
}

func TestLedgerDebitInsufficientPoints(t *testing.T) {
	store := newMemPointsStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()

	if _, err := ledger.Credit(ctx, "alice.test", 50); err != nil {
		t.Fatalf("unexpected credit error: %v", err)
	}
	_, err := ledger.Debit(ctx, "alice.test", 100)
	if err == nil {
		t.Fatal("expected insufficient points error")
	}
	if apperrors.GetCode(err) != apperrors.ErrInsufficientPoints {
		t.Errorf("expected code %d, got %d", apperrors.ErrInsufficientPoints, apperrors.GetCode(err))
	}

	balance, err := ledger.Balance(ctx, "alice.test")
	if err != nil {
		t.Fatalf("unexpected balance error: %v", err)
	}
	if balance != 50 {
		t.Errorf("expected balance restored to 50, got %d", balance)
	}
}

func TestLedgerDebitThenRefundRestoresBalance(t *testing.T) {
	store := newMemPointsStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()

	if _, err := ledger.Credit(ctx, "alice.test", 500); err != nil {
		t.Fatalf("unexpected credit error: %v", err)
	}
	if _, err := ledger.Debit(ctx, "alice.test", 100); err != nil {
		t.Fatalf("unexpected debit error: %v", err)
	}
	// the funded purchase fails; compensate
	if err := ledger.Refund(ctx, "alice.test", 100); err != nil {
		t.Fatalf("unexpected refund error: %v", err)
	}

	balance, err := ledger.Balance(ctx, "alice.test")
	if err != nil {
		t.Fatalf("unexpected balance error: %v", err)
	}
	if balance != 500 {
		t.Errorf("expected balance 500 after refund, got %d", balance)
	}
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	ledger := NewLedger(newMemPointsStore(), zerolog.Nop())
	ctx := context.Background()

	if _, err := ledger.Credit(ctx, "alice.test", 0); err == nil {
		t.Error("expected error for zero credit")
	}
	if _, err := ledger.Debit(ctx, "alice.test", -5); err == nil {
		t.Error("expected error for negative debit")
	}
}

func TestLedgerDebitStoreFailure(t *testing.T) {
	store := newMemPointsStore()
	store.incrErr = errors.New("redis down")
	ledger := NewLedger(store, zerolog.Nop())

	_, err := ledger.Debit(context.Background(), "alice.test", 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.ErrRedisError {
		t.Errorf("expected code %d, got %d", apperrors.ErrRedisError, apperrors.GetCode(err))
	}
}

func TestLedgerSpinCredits(t *testing.T) {
	store := newMemPointsStore()
	ledger := NewLedger(store, zerolog.Nop())
	ctx := context.Background()

	// nothing to consume yet
	ok, err := ledger.ConsumeSpinCredit(ctx, "alice.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no spin credit to consume")
	}

	if _, err := ledger.GrantSpinCredits(ctx, "alice.test", 2); err != nil {
		t.Fatalf("unexpected grant error: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := ledger.ConsumeSpinCredit(ctx, "alice.test")
		if err != nil {
			t.Fatalf("consume %d: unexpected error: %v", i, err)
		}
		if !ok {
			t.Fatalf("consume %d: expected available credit", i)
		}
	}

	ok, err = ledger.ConsumeSpinCredit(ctx, "alice.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected credits exhausted")
	}

	credits, err := ledger.SpinCredits(ctx, "alice.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if credits != 0 {
		t.Errorf("expected 0 credits, got %d", credits)
	}
}
