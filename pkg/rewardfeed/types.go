package rewardfeed

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Update kinds pushed to feed listeners.
const (
	KindSpinResolved   = "spin_resolved"
	KindClaimSettled   = "claim_settled"
	KindClaimFailed    = "claim_failed"
	KindSpinPurchased  = "spin_purchased"
	KindPointsChanged  = "points_changed"
	KindPrizeAbandoned = "prize_abandoned"
)

// Update is one reward feed item delivered to SSE and WebSocket listeners.
type Update struct {
	Kind          string          `json:"kind"`
	AccountID     string          `json:"account_id"`
	PrizeLabel    string          `json:"prize_label,omitempty"`
	PrizeValue    decimal.Decimal `json:"prize_value,omitempty"`
	TxHash        string          `json:"tx_hash,omitempty"`
	PointsBalance int64           `json:"points_balance,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ServiceConfig configures the reward feed service.
type ServiceConfig struct {
	// FlushInterval controls how often buffered updates are flushed to listeners.
	FlushInterval time.Duration

	// Logger is optional; if zero value, a no-op logger is used.
	Logger zerolog.Logger
}
