package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Solvium/SolviumAI-sub000/config"
	coreredis "github.com/Solvium/SolviumAI-sub000/db/redis"
	"github.com/Solvium/SolviumAI-sub000/reward"
	"github.com/rs/zerolog"
)

// PrizeStore implements reward.PrizeStore using Redis.
//
// PutIfAbsent relies on SETNX so two racing spin resolutions can never both
// store a prize. A zero TTL keeps the prize until settlement or abandonment.
type PrizeStore struct {
	redis  *coreredis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewPrizeStore creates a new prize store
func NewPrizeStore(redisClient *coreredis.Client, cfg *config.Config, logger zerolog.Logger) *PrizeStore {
	return &PrizeStore{
		redis:  redisClient,
		ttl:    cfg.Rewards.PrizeStateTTL,
		logger: logger.With().Str("component", "prize_store").Logger(),
	}
}

func (p *PrizeStore) prizeKey(accountID string) string {
	return fmt.Sprintf("reward:prize:%s", accountID)
}

// Get returns the account's unclaimed prize, or nil if none exists
func (p *PrizeStore) Get(ctx context.Context, accountID string) (*reward.UnclaimedPrize, error) {
	var prize reward.UnclaimedPrize
	err := p.redis.GetJSON(ctx, p.prizeKey(accountID), &prize)
	if errors.Is(err, coreredis.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prize: %w", err)
	}
	return &prize, nil
}

// PutIfAbsent stores the prize only when the account has none
func (p *PrizeStore) PutIfAbsent(ctx context.Context, accountID string, prize *reward.UnclaimedPrize) (bool, error) {
	data, err := json.Marshal(prize)
	if err != nil {
		return false, fmt.Errorf("failed to marshal prize: %w", err)
	}

	stored, err := p.redis.SetNX(ctx, p.prizeKey(accountID), data, p.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to store prize: %w", err)
	}
	if stored {
		p.logger.Debug().
			Str("account_id", accountID).
			Str("prize_value", prize.PrizeValue.String()).
			Msg("Prize stored")
	}
	return stored, nil
}

// Clear removes the account's unclaimed prize
func (p *PrizeStore) Clear(ctx context.Context, accountID string) error {
	if err := p.redis.Delete(ctx, p.prizeKey(accountID)); err != nil {
		return fmt.Errorf("failed to clear prize: %w", err)
	}
	return nil
}
