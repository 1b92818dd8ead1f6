package rewardfeed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultFlushInterval is the default interval for broadcasting buffered updates
const DefaultFlushInterval = 2 * time.Second

// Service buffers reward updates and broadcasts them to listeners on an
// interval. It is transport-agnostic: the caller wires HTTP routes
// (e.g. /api/rewards/updates) and subscribes via Listen().
//
// Buffering coalesces bursts: when one account's balance changes several
// times within a flush window, listeners see only the latest value per kind.
type Service struct {
	mu       sync.RWMutex
	buffer   map[string]Update // keyed by account_id + kind
	broad    *Broadcaster
	logger   zerolog.Logger
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewService creates a new reward feed service.
func NewService(cfg ServiceConfig) *Service {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	s := &Service{
		buffer:   make(map[string]Update),
		broad:    NewBroadcaster(128),
		logger:   cfg.Logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
	s.start()
	return s
}

// Publish buffers an update for the next flush. Updates older than the
// buffered one for the same account and kind are ignored.
func (s *Service) Publish(update Update) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	key := update.AccountID + ":" + update.Kind

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, exists := s.buffer[key]; exists && update.Timestamp.Before(existing.Timestamp) {
		s.logger.Debug().
			Str("account_id", update.AccountID).
			Str("kind", update.Kind).
			Msg("Ignoring stale feed update")
		return
	}
	s.buffer[key] = update
}

// PublishNow bypasses the buffer and broadcasts immediately. Used for
// settlement results the client is actively waiting on.
func (s *Service) PublishNow(update Update) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}
	s.broad.Send(update)
}

// Listen returns a channel of flushed updates plus a cancel function.
// A non-empty accountID restricts the stream to that account.
func (s *Service) Listen(ctx context.Context, accountID string) (<-chan Update, context.CancelFunc) {
	return s.broad.Listen(ctx, accountID)
}

// Stop stops the flush loop.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopChan)
	})
}

func (s *Service) start() {
	s.ticker = time.NewTicker(s.interval)
	go s.loop()
}

func (s *Service) loop() {
	for {
		select {
		case <-s.stopChan:
			return
		case <-s.ticker.C:
			s.flush()
		}
	}
}

// flush broadcasts buffered updates and clears the buffer.
func (s *Service) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}

	updates := lo.Values(s.buffer)
	s.buffer = make(map[string]Update)
	s.mu.Unlock()

	for _, u := range updates {
		s.broad.Send(u)
	}
	if s.logger.GetLevel() <= zerolog.DebugLevel {
		s.logger.Debug().Int("count", len(updates)).Msg("flushed reward updates")
	}
}
