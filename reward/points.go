package reward

import (
	"context"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/rs/zerolog"
)

// PointsStore is the durable per-account points and spin-credit counter.
// IncrBy must be atomic; negative deltas are allowed and may drive the stored
// value below zero, which the ledger layer immediately compensates.
type PointsStore interface {
	// Balance returns the account's points balance. Missing accounts read as 0.
	Balance(ctx context.Context, accountID string) (int64, error)

	// IncrBy atomically adjusts the balance and returns the new value.
	IncrBy(ctx context.Context, accountID string, delta int64) (int64, error)

	// SpinCredits returns the account's purchased spin credits.
	SpinCredits(ctx context.Context, accountID string) (int64, error)

	// IncrSpinCredits atomically adjusts spin credits and returns the new value.
	IncrSpinCredits(ctx context.Context, accountID string, delta int64) (int64, error)
}

// Ledger manages spendable points and purchased spin credits.
//
// Debits are optimistic: the balance is decremented first and compensated
// when the funded operation fails. The visible balance never settles
// negative; a debit that would overdraw is rolled back before returning.
type Ledger struct {
	store  PointsStore
	logger zerolog.Logger
}

// NewLedger creates a points ledger over the given store.
func NewLedger(store PointsStore, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With().Str("component", "points_ledger").Logger(),
	}
}

// Balance returns the account's points balance.
func (l *Ledger) Balance(ctx context.Context, accountID string) (int64, error) {
	balance, err := l.store.Balance(ctx, accountID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to read points balance")
	}
	return balance, nil
}

// Credit adds points to the account.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.New(apperrors.ErrInvalidRequest, "credit amount must be positive")
	}
	balance, err := l.store.IncrBy(ctx, accountID, amount)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to credit points")
	}
	l.logger.Debug().
		Str("account_id", accountID).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("Points credited")
	return balance, nil
}

// Debit removes points from the account. A debit that would overdraw is
// compensated immediately and fails with InsufficientPoints.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.New(apperrors.ErrInvalidRequest, "debit amount must be positive")
	}
	balance, err := l.store.IncrBy(ctx, accountID, -amount)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to debit points")
	}
	if balance < 0 {
		if _, rbErr := l.store.IncrBy(ctx, accountID, amount); rbErr != nil {
			l.logger.Error().Err(rbErr).
				Str("account_id", accountID).
				Int64("amount", amount).
				Msg("Failed to compensate overdrawn debit")
			return 0, apperrors.Wrap(rbErr, apperrors.ErrRedisError, "failed to restore points balance")
		}
		return 0, apperrors.New(apperrors.ErrInsufficientPoints, "insufficient points")
	}
	return balance, nil
}

// Refund restores a previously debited amount. Used as the compensation step
// when the operation funded by a Debit fails definitively.
func (l *Ledger) Refund(ctx context.Context, accountID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	balance, err := l.store.IncrBy(ctx, accountID, amount)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrRedisError, "failed to refund points")
	}
	l.logger.Info().
		Str("account_id", accountID).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("Points refunded")
	return nil
}

// SpinCredits returns the account's purchased spin credits.
func (l *Ledger) SpinCredits(ctx context.Context, accountID string) (int64, error) {
	credits, err := l.store.SpinCredits(ctx, accountID)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to read spin credits")
	}
	return credits, nil
}

// GrantSpinCredits adds purchased spin credits to the account.
func (l *Ledger) GrantSpinCredits(ctx context.Context, accountID string, count int64) (int64, error) {
	if count <= 0 {
		return 0, apperrors.New(apperrors.ErrInvalidRequest, "credit count must be positive")
	}
	credits, err := l.store.IncrSpinCredits(ctx, accountID, count)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to grant spin credits")
	}
	return credits, nil
}

// ConsumeSpinCredit spends one purchased spin credit. It reports false
// without error when the account has none.
func (l *Ledger) ConsumeSpinCredit(ctx context.Context, accountID string) (bool, error) {
	credits, err := l.store.IncrSpinCredits(ctx, accountID, -1)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to consume spin credit")
	}
	if credits < 0 {
		if _, rbErr := l.store.IncrSpinCredits(ctx, accountID, 1); rbErr != nil {
			return false, apperrors.Wrap(rbErr, apperrors.ErrRedisError, "failed to restore spin credits")
		}
		return false, nil
	}
	return true, nil
}
