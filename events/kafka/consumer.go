package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// PointsEarnedEvent is published by the task subsystem whenever a user earns
// points (completed quiz, daily task, referral).
type PointsEarnedEvent struct {
	AccountID string    `json:"account_id"`
	Points    int64     `json:"points"`
	Source    string    `json:"source"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PointsCrediter applies earned points to an account balance.
type PointsCrediter interface {
	Credit(ctx context.Context, accountID string, amount int64) (int64, error)
}

// AccountFilter decides whether an account's events should be processed.
// Returns true to process, false to skip.
type AccountFilter func(accountID string) bool

// Consumer reads points.earned events and credits the points ledger.
type Consumer struct {
	reader   *kafka.Reader
	crediter PointsCrediter
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu     sync.RWMutex
	filter AccountFilter
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig, crediter PointsCrediter) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:   reader,
		crediter: crediter,
		logger:   config.Logger.With().Str("component", "kafka-consumer").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins consuming messages
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

// SetAccountFilter installs a filter to skip events for accounts this
// instance does not serve. A nil filter processes all events.
func (c *Consumer) SetAccountFilter(filter AccountFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
}

// consume is the main consumer loop
func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error handling message")
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// handleMessage processes a single points.earned event
func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event PointsEarnedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	if event.AccountID == "" || event.Points <= 0 {
		c.logger.Warn().
			Str("account_id", event.AccountID).
			Int64("points", event.Points).
			Msg("Skipping malformed points event")
		return nil
	}

	c.mu.RLock()
	shouldProcess := c.filter == nil || c.filter(event.AccountID)
	c.mu.RUnlock()

	if !shouldProcess {
		c.logger.Debug().
			Str("account_id", event.AccountID).
			Msg("Skipping points event (account not served here)")
		return nil
	}

	balance, err := c.crediter.Credit(c.ctx, event.AccountID, event.Points)
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("account_id", event.AccountID).
		Str("source", event.Source).
		Int64("points", event.Points).
		Int64("balance", balance).
		Msg("Points credited from event")

	return nil
}
