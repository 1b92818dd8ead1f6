package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Solvium/SolviumAI-sub000/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment      string                 `mapstructure:"environment"`
	Server           ServerConfig           `mapstructure:"server"`
	Redis            RedisConfig            `mapstructure:"redis"`
	Kafka            KafkaConfig            `mapstructure:"kafka"`
	JWT              JWTConfig              `mapstructure:"jwt"`
	Logging          logging.Config         `mapstructure:"logging"`
	Ledger           LedgerConfig           `mapstructure:"ledger"`
	ExternalServices ExternalServicesConfig `mapstructure:"external_services"`
	Rewards          RewardsConfig          `mapstructure:"rewards"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers       []string          `mapstructure:"brokers"`
	ConsumerGroup string            `mapstructure:"consumer_group"`
	Topics        map[string]string `mapstructure:"topics"`
}

// RewardEventsTopic returns the topic for reward lifecycle events.
func (c *KafkaConfig) RewardEventsTopic() string {
	if t, ok := c.Topics["reward_events"]; ok {
		return t
	}
	return "reward.events"
}

// PointsEarnedTopic returns the topic the task subsystem publishes earned points on.
func (c *KafkaConfig) PointsEarnedTopic() string {
	if t, ok := c.Topics["points_earned"]; ok {
		return t
	}
	return "points.earned"
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LedgerConfig holds external ledger RPC configuration
type LedgerConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	TokenContract  string        `mapstructure:"token_contract"`
	RewardContract string        `mapstructure:"reward_contract"`
	StorageDeposit string        `mapstructure:"storage_deposit"`
	ClaimGas       uint64        `mapstructure:"claim_gas"`
	ViewTimeout    time.Duration `mapstructure:"view_timeout"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
}

// ExternalServicesConfig holds external service configurations
type ExternalServicesConfig struct {
	DepositService ServiceConfig `mapstructure:"deposit_service"`
}

// ServiceConfig holds external service configuration
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PrizeEntryConfig is one row of the configured prize table.
// A zero weight soft-disables the entry without removing it from the table.
type PrizeEntryConfig struct {
	Label  string `mapstructure:"label"`
	Value  string `mapstructure:"value"`
	Weight int64  `mapstructure:"weight"`
}

// RewardsConfig holds prize table and spin economics configuration
type RewardsConfig struct {
	PrizeTable    []PrizeEntryConfig `mapstructure:"prize_table"`
	SpinCost      int64              `mapstructure:"spin_cost_points"`
	MinDeposit    string             `mapstructure:"min_deposit"`
	FeedInterval  time.Duration      `mapstructure:"feed_interval"`
	PrizeStateTTL time.Duration      `mapstructure:"prize_state_ttl"`
}

// Load loads configuration from YAML file using Viper
func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHooks()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// LoadByEnv loads configuration based on environment using Viper
func LoadByEnv(configDir string) (*Config, error) {
	v := viper.New()

	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	env := viper.GetString("ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("config-%s", env))
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHooks()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// decodeHooks returns the viper decode option used for all config unmarshaling.
func decodeHooks() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Ledger.ViewTimeout == 0 {
		c.Ledger.ViewTimeout = 10 * time.Second
	}
	if c.Ledger.CallTimeout == 0 {
		c.Ledger.CallTimeout = 30 * time.Second
	}
	if c.Ledger.ClaimGas == 0 {
		c.Ledger.ClaimGas = 30_000_000_000_000
	}
	if c.Ledger.StorageDeposit == "" {
		c.Ledger.StorageDeposit = "0.00125"
	}
	if c.ExternalServices.DepositService.Timeout == 0 {
		c.ExternalServices.DepositService.Timeout = 10 * time.Second
	}
	if c.Rewards.SpinCost == 0 {
		c.Rewards.SpinCost = 100
	}
	if c.Rewards.MinDeposit == "" {
		c.Rewards.MinDeposit = "0"
	}
	if c.Rewards.FeedInterval == 0 {
		c.Rewards.FeedInterval = 2 * time.Second
	}
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return c.Addr
}

// IsDevelopment returns true if environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
