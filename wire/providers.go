package wire

import (
	"github.com/Solvium/SolviumAI-sub000/config"
	"github.com/Solvium/SolviumAI-sub000/db/redis"
	"github.com/Solvium/SolviumAI-sub000/logging"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/Solvium/SolviumAI-sub000/provider"
	"github.com/Solvium/SolviumAI-sub000/reward"
	"github.com/Solvium/SolviumAI-sub000/server"
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvideServerOptions provides server options
func ProvideServerOptions(cfg *config.Config, logger zerolog.Logger) server.Options {
	return server.Options{
		Config: cfg,
		Logger: logger,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ProvideLedgerGateway provides the external ledger gateway
func ProvideLedgerGateway(cfg *config.Config, logger zerolog.Logger) providers.LedgerGateway {
	return provider.NewLedgerProvider(cfg, logger)
}

// ProvideDepositProvider provides the deposit subsystem client
func ProvideDepositProvider(cfg *config.Config, logger zerolog.Logger) providers.DepositProvider {
	return provider.NewDepositProvider(cfg, logger)
}

// ProvidePrizeStore provides the durable prize store
func ProvidePrizeStore(redisClient *redis.Client, cfg *config.Config, logger zerolog.Logger) reward.PrizeStore {
	return provider.NewPrizeStore(redisClient, cfg, logger)
}

// ProvidePointsStore provides the points counter store
func ProvidePointsStore(redisClient *redis.Client, logger zerolog.Logger) reward.PointsStore {
	return provider.NewPointsStore(redisClient, logger)
}

// ProvidePrizeTable provides the configured prize table
func ProvidePrizeTable(cfg *config.Config) (*reward.Table, error) {
	rows := make([]reward.EntryConfig, 0, len(cfg.Rewards.PrizeTable))
	for _, row := range cfg.Rewards.PrizeTable {
		rows = append(rows, reward.EntryConfig{
			Label:  row.Label,
			Value:  row.Value,
			Weight: row.Weight,
		})
	}
	return reward.ParseTable(rows)
}

// ProvideSessionManager provides the per-account session manager
func ProvideSessionManager(store reward.PrizeStore) *reward.Manager {
	return reward.NewManager(store)
}

// ProvideEligibilityChecker provides the deposit eligibility checker
func ProvideEligibilityChecker(cfg *config.Config, gateway providers.LedgerGateway, deposits providers.DepositProvider, logger zerolog.Logger) (*reward.Checker, error) {
	minDeposit, err := decimal.NewFromString(cfg.Rewards.MinDeposit)
	if err != nil {
		return nil, err
	}
	return reward.NewChecker(gateway, deposits, minDeposit, logger), nil
}

// ProvideClaimOrchestrator provides the claim saga orchestrator
func ProvideClaimOrchestrator(cfg *config.Config, gateway providers.LedgerGateway, logger zerolog.Logger) (*reward.Orchestrator, error) {
	storageDeposit, err := decimal.NewFromString(cfg.Ledger.StorageDeposit)
	if err != nil {
		return nil, err
	}
	return reward.NewOrchestrator(gateway, reward.OrchestratorConfig{
		TokenContract:  cfg.Ledger.TokenContract,
		RewardContract: cfg.Ledger.RewardContract,
		StorageDeposit: storageDeposit,
		ClaimGas:       cfg.Ledger.ClaimGas,
	}, logger), nil
}

// ProvidePointsLedger provides the points ledger
func ProvidePointsLedger(store reward.PointsStore, logger zerolog.Logger) *reward.Ledger {
	return reward.NewLedger(store, logger)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// RedisSet is the wire provider set for Redis
var RedisSet = wire.NewSet(
	ProvideRedisClient,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// ProviderSet is the wire provider set for external providers
var ProviderSet = wire.NewSet(
	ProvideLedgerGateway,
	ProvideDepositProvider,
	ProvidePrizeStore,
	ProvidePointsStore,
)

// RewardSet is the wire provider set for the reward domain
var RewardSet = wire.NewSet(
	ProvidePrizeTable,
	ProvideSessionManager,
	ProvideEligibilityChecker,
	ProvideClaimOrchestrator,
	ProvidePointsLedger,
)

// DefaultSet is the default wire provider set including all common providers
var DefaultSet = wire.NewSet(
	LoggingSet,
	ServerSet,
)

// FullSet includes all providers including Redis and the reward domain
var FullSet = wire.NewSet(
	DefaultSet,
	RedisSet,
	ProviderSet,
	RewardSet,
)
