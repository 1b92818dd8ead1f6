package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Solvium/SolviumAI-sub000/auth"
	"github.com/Solvium/SolviumAI-sub000/config"
	"github.com/Solvium/SolviumAI-sub000/middleware"
	"github.com/Solvium/SolviumAI-sub000/pkg/rewardfeed"
	"github.com/Solvium/SolviumAI-sub000/reward"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// App represents the reward service application
type App struct {
	engine        *gin.Engine
	config        *config.Config
	logger        zerolog.Logger
	httpServer    *http.Server
	onShutdown    []func()
	prizeTable    *reward.Table
	rewardService *RewardService
	feedService   *rewardfeed.Service
	rewardHandler *RewardHandler
	feedHandler   *FeedHandler
}

// Options holds server configuration options
type Options struct {
	Config *config.Config
	Logger zerolog.Logger
}

// Router is an alias for gin.Engine for convenience
type Router = gin.Engine

// New creates a new reward service application
func New(opts Options) *App {
	// Marshal decimals as JSON numbers instead of strings.
	// WARNING: clients using IEEE 754 doubles (e.g. JavaScript) may lose
	// precision on decimals with many digits.
	decimal.MarshalJSONWithoutQuotes = true

	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		engine: gin.New(),
		config: opts.Config,
		logger: opts.Logger,
	}

	app.feedService = rewardfeed.NewService(rewardfeed.ServiceConfig{
		FlushInterval: opts.Config.Rewards.FeedInterval,
		Logger:        opts.Logger,
	})

	app.rewardHandler = NewRewardHandler(app)
	app.feedHandler = NewFeedHandler(app, app.feedService)

	return app
}

// SetPrizeTable sets the prize table served to clients and drawn from on spins
func (a *App) SetPrizeTable(table *reward.Table) {
	a.prizeTable = table
}

// SetRewardService sets the reward orchestration service
func (a *App) SetRewardService(svc *RewardService) {
	a.rewardService = svc
}

// FeedService returns the reward feed service for wiring into the reward service
func (a *App) FeedService() *rewardfeed.Service {
	return a.feedService
}

// UseCommonMiddlewares adds common middlewares to the application
func (a *App) UseCommonMiddlewares() {
	// Recovery middleware (must be first)
	a.engine.Use(middleware.Recovery(a.logger))

	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))

	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// UseMiddleware adds a custom middleware
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// RegisterHealthCheck adds health check endpoints
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"environment": a.config.Environment,
	})
}

// RegisterRewardRoutes registers the reward API routes.
//
// Flow: HTTP Request -> rewardRoutes -> RewardHandler -> RewardService
//
// Routes registered:
//   - POST /api/rewards/spin           -> RewardHandler.Spin
//   - GET  /api/rewards/prize          -> RewardHandler.GetPrize
//   - POST /api/rewards/claim          -> RewardHandler.Claim
//   - POST /api/rewards/abandon       -> RewardHandler.Abandon
//   - POST /api/rewards/purchase-spin  -> RewardHandler.PurchaseSpin
//   - GET  /api/rewards/eligibility    -> RewardHandler.GetEligibility
//   - GET  /api/rewards/points         -> RewardHandler.GetPoints
//   - GET  /api/rewards/prize-table    -> RewardHandler.GetPrizeTable
//   - GET  /api/rewards/updates        -> FeedHandler.StreamUpdates (SSE)
//   - GET  /api/rewards/updates/ws     -> FeedHandler.StreamUpdatesWebSocket
func (a *App) RegisterRewardRoutes() {
	if a.rewardService == nil {
		a.logger.Fatal().Msg("No reward service set. Call SetRewardService() first.")
		return
	}

	rewards := a.engine.Group("/api/rewards")
	rewards.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	{
		rewards.POST("/spin", a.rewardHandler.Spin)
		rewards.GET("/prize", a.rewardHandler.GetPrize)
		rewards.POST("/claim", a.rewardHandler.Claim)
		rewards.POST("/abandon", a.rewardHandler.Abandon)
		rewards.POST("/purchase-spin", a.rewardHandler.PurchaseSpin)
		rewards.GET("/eligibility", a.rewardHandler.GetEligibility)
		rewards.GET("/points", a.rewardHandler.GetPoints)
		rewards.GET("/prize-table", a.rewardHandler.GetPrizeTable)

		rewards.GET("/updates", a.feedHandler.StreamUpdates)
		rewards.GET("/updates/ws", a.feedHandler.StreamUpdatesWebSocket)
	}

	a.logger.Info().Msg("Reward routes registered: /api/rewards")
}

// Router returns the Gin engine for custom route registration
func (a *App) Router() *gin.Engine {
	return a.engine
}

// Group creates a route group
func (a *App) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return a.engine.Group(path, handlers...)
}

// AuthGroup creates a route group with JWT authentication
func (a *App) AuthGroup(path string) *gin.RouterGroup {
	return a.engine.Group(path, auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
}

// OnShutdown registers a function to be called on shutdown
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server and blocks until an interrupt signal
func (a *App) Run() error {
	a.startHTTPServer()
	return a.waitForShutdown()
}

// RunWithContext starts the HTTP server and shuts down when ctx is canceled
func (a *App) RunWithContext(ctx context.Context) error {
	errChan := make(chan error, 1)
	a.startHTTPServerWithErrChan(errChan)

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) startHTTPServer() {
	a.startHTTPServerWithErrChan(nil)
}

func (a *App) startHTTPServerWithErrChan(errChan chan error) {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if errChan != nil {
				errChan <- err
				return
			}
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}

	if a.feedService != nil {
		a.feedService.Stop()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
