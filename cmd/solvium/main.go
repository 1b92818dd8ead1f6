package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/Solvium/SolviumAI-sub000/auth"
	"github.com/Solvium/SolviumAI-sub000/config"
	"github.com/Solvium/SolviumAI-sub000/events/kafka"
	"github.com/Solvium/SolviumAI-sub000/reward"
	"github.com/Solvium/SolviumAI-sub000/server"
	"github.com/Solvium/SolviumAI-sub000/wire"
	"github.com/spf13/cobra"
)

var version = getVersion()

// getVersion returns the module version from build info
func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "solvium",
		Short:   "Solvium reward service",
		Long:    "Reward claim service: spin entitlement, prize selection, claim orchestration and points.",
		Version: version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reward HTTP service",
		RunE:  runServe,
	}
	serveCmd.Flags().StringP("config", "c", "config/config.yaml", "Path to config file")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a JWT for local testing",
		RunE:  runToken,
	}
	tokenCmd.Flags().StringP("config", "c", "config/config.yaml", "Path to config file")
	tokenCmd.Flags().String("account", "", "Account ID to embed in the token (required)")
	tokenCmd.Flags().String("username", "", "Username to embed in the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("account")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := wire.ProvideLogger(cfg)

	redisClient, err := wire.ProvideRedisClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	gateway := wire.ProvideLedgerGateway(cfg, logger)
	deposits := wire.ProvideDepositProvider(cfg, logger)
	prizeStore := wire.ProvidePrizeStore(redisClient, cfg, logger)
	pointsStore := wire.ProvidePointsStore(redisClient, logger)

	prizeTable, err := wire.ProvidePrizeTable(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid prize table configuration")
	}
	sessions := wire.ProvideSessionManager(prizeStore)
	checker, err := wire.ProvideEligibilityChecker(cfg, gateway, deposits, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid eligibility configuration")
	}
	orchestrator, err := wire.ProvideClaimOrchestrator(cfg, gateway, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid ledger configuration")
	}
	points := wire.ProvidePointsLedger(pointsStore, logger)

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Kafka producer")
	}
	// a typed-nil *Producer inside the interface would defeat the service's
	// nil publisher check
	var publisher server.EventPublisher
	if producer != nil {
		publisher = producer
	}

	app := wire.ProvideApp(wire.ProvideServerOptions(cfg, logger))
	app.SetPrizeTable(prizeTable)

	rewardService := server.NewRewardService(
		sessions,
		prizeTable,
		reward.NewSelector(reward.CryptoRand()),
		checker,
		orchestrator,
		points,
		gateway,
		publisher,
		app.FeedService(),
		server.RewardServiceConfig{
			SpinCostPoints: cfg.Rewards.SpinCost,
			RewardContract: cfg.Ledger.RewardContract,
			PurchaseGas:    cfg.Ledger.ClaimGas,
			EventsTopic:    cfg.Kafka.RewardEventsTopic(),
		},
		logger,
	)
	app.SetRewardService(rewardService)

	app.UseCommonMiddlewares()
	app.RegisterHealthCheck()
	app.RegisterRewardRoutes()

	// credit points earned in the task subsystem
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.PointsEarnedTopic(),
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			Logger:        logger,
		}, points)
		if err := consumer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start points consumer")
		}
		app.OnShutdown(func() {
			_ = consumer.Stop()
		})
	}

	app.OnShutdown(func() {
		if producer != nil {
			producer.Close()
		}
		_ = redisClient.Close()
	})

	logger.Info().Int("port", cfg.Server.Port).Msg("Starting reward service")
	return app.Run()
}

func runToken(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	accountID, _ := cmd.Flags().GetString("account")
	username, _ := cmd.Flags().GetString("username")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := auth.GenerateToken(cfg.JWT.Secret, accountID, username, ttl)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(token)
	return nil
}
