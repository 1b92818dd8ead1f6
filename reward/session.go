package reward

import (
	"context"
	"sync"
	"sync/atomic"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
)

// PrizeStore persists the per-account UnclaimedPrize. It must survive a
// client restart: the prize is cleared only by claim settlement or explicit
// abandonment, never silently overwritten.
type PrizeStore interface {
	// Get returns the account's unclaimed prize, or nil if none exists.
	Get(ctx context.Context, accountID string) (*UnclaimedPrize, error)

	// PutIfAbsent stores the prize only when the account has none.
	// Returns false without writing when a prize already exists.
	PutIfAbsent(ctx context.Context, accountID string, prize *UnclaimedPrize) (bool, error)

	// Clear removes the account's unclaimed prize.
	Clear(ctx context.Context, accountID string) error
}

// Session is the per-account spin state machine: Idle -> Locked ->
// Resolved(prize) -> Idle. The Resolved state is embodied by the stored
// UnclaimedPrize, so it survives process restarts; the Locked state is the
// in-flight spin guard.
//
// All operations for one account are serialized through the session's op
// mutex. The spin flag is separate and set synchronously before any ledger
// call, so a second near-simultaneous spin trigger fails fast with
// AlreadySpinning instead of queueing behind the first.
type Session struct {
	accountID string
	store     PrizeStore

	spinning int32 // atomic; 1 while a spin is in flight

	// opMu serializes spin resolution, claim and purchase for this account.
	opMu sync.Mutex
}

// NewSession creates a session for an account.
func NewSession(accountID string, store PrizeStore) *Session {
	return &Session{
		accountID: accountID,
		store:     store,
	}
}

// AccountID returns the owning account.
func (s *Session) AccountID() string {
	return s.accountID
}

// BeginSpin sets the spin lock. It fails with AlreadySpinning when another
// spin is in flight. The caller must finish with ResolveSpin or AbortSpin.
func (s *Session) BeginSpin() error {
	if !atomic.CompareAndSwapInt32(&s.spinning, 0, 1) {
		return apperrors.New(apperrors.ErrAlreadySpinning, "a spin is already in progress")
	}
	return nil
}

// AbortSpin releases the spin lock without resolving a prize.
func (s *Session) AbortSpin() {
	atomic.StoreInt32(&s.spinning, 0)
}

// ResolveSpin persists the attempt as the account's UnclaimedPrize and
// releases the spin lock. It refuses to overwrite an existing prize.
func (s *Session) ResolveSpin(ctx context.Context, attempt *SpinAttempt) (*UnclaimedPrize, error) {
	defer atomic.StoreInt32(&s.spinning, 0)

	prize := &UnclaimedPrize{
		PrizeIndex: attempt.PrizeIndex,
		PrizeLabel: attempt.PrizeLabel,
		PrizeValue: attempt.PrizeValue,
		CreatedAt:  attempt.CreatedAt,
	}

	stored, err := s.store.PutIfAbsent(ctx, s.accountID, prize)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to persist prize")
	}
	if !stored {
		return nil, apperrors.New(apperrors.ErrUnclaimedPrizeExists, "an unclaimed prize already exists")
	}
	return prize, nil
}

// CurrentPrize returns the account's unclaimed prize, or nil if none exists.
// Safe to call from any state; used for UI redisplay after a page reload.
func (s *Session) CurrentPrize(ctx context.Context) (*UnclaimedPrize, error) {
	prize, err := s.store.Get(ctx, s.accountID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to load prize state")
	}
	return prize, nil
}

// Settle clears the UnclaimedPrize, returning the session to Idle.
// Only a successful claim orchestration run may call this.
func (s *Session) Settle(ctx context.Context) error {
	if err := s.store.Clear(ctx, s.accountID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrRedisError, "failed to clear prize state")
	}
	return nil
}

// Abandon explicitly discards the unclaimed prize on user request.
func (s *Session) Abandon(ctx context.Context) error {
	return s.Settle(ctx)
}

// Lock acquires the session's operation mutex.
func (s *Session) Lock() {
	s.opMu.Lock()
}

// Unlock releases the session's operation mutex.
func (s *Session) Unlock() {
	s.opMu.Unlock()
}

// Manager hands out one Session per account. Cross-account sessions are
// fully independent; this replaces ad hoc global state keyed by request
// identity.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    PrizeStore
}

// NewManager creates a session manager backed by the given prize store.
func NewManager(store PrizeStore) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

// Get returns the session for an account, creating it on first use.
func (m *Manager) Get(accountID string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[accountID]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok = m.sessions[accountID]; ok {
		return sess
	}
	sess = NewSession(accountID, m.store)
	m.sessions[accountID] = sess
	return sess
}
