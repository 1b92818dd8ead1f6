package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	coreredis "github.com/Solvium/SolviumAI-sub000/db/redis"
	"github.com/rs/zerolog"
)

// PointsStore implements reward.PointsStore using Redis counters.
// INCRBY is atomic, which the ledger layer's optimistic debit depends on.
type PointsStore struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

// NewPointsStore creates a new points store
func NewPointsStore(redisClient *coreredis.Client, logger zerolog.Logger) *PointsStore {
	return &PointsStore{
		redis:  redisClient,
		logger: logger.With().Str("component", "points_store").Logger(),
	}
}

func (p *PointsStore) balanceKey(accountID string) string {
	return fmt.Sprintf("reward:points:%s", accountID)
}

func (p *PointsStore) creditsKey(accountID string) string {
	return fmt.Sprintf("reward:spincredits:%s", accountID)
}

// Balance returns the account's points balance. Missing accounts read as 0.
func (p *PointsStore) Balance(ctx context.Context, accountID string) (int64, error) {
	return p.counter(ctx, p.balanceKey(accountID))
}

// IncrBy atomically adjusts the balance and returns the new value
func (p *PointsStore) IncrBy(ctx context.Context, accountID string, delta int64) (int64, error) {
	return p.redis.IncrBy(ctx, p.balanceKey(accountID), delta)
}

// SpinCredits returns the account's purchased spin credits
func (p *PointsStore) SpinCredits(ctx context.Context, accountID string) (int64, error) {
	return p.counter(ctx, p.creditsKey(accountID))
}

// IncrSpinCredits atomically adjusts spin credits and returns the new value
func (p *PointsStore) IncrSpinCredits(ctx context.Context, accountID string, delta int64) (int64, error) {
	return p.redis.IncrBy(ctx, p.creditsKey(accountID), delta)
}

func (p *PointsStore) counter(ctx context.Context, key string) (int64, error) {
	val, err := p.redis.Get(ctx, key)
	if errors.Is(err, coreredis.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter at %s: %w", key, err)
	}
	return n, nil
}
