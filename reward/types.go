package reward

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpinAttempt is the ephemeral result of one prize draw.
type SpinAttempt struct {
	PrizeIndex int             `json:"prizeIndex"`
	PrizeLabel string          `json:"prizeLabel"`
	PrizeValue decimal.Decimal `json:"prizeValue"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// UnclaimedPrize is the durable record of a resolved spin that has not yet
// been settled on the ledger. At most one exists per account at any time.
type UnclaimedPrize struct {
	PrizeIndex int             `json:"prizeIndex"`
	PrizeLabel string          `json:"prizeLabel"`
	PrizeValue decimal.Decimal `json:"prizeValue"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ClaimState tracks one claim orchestration run.
type ClaimState int

const (
	ClaimNotStarted ClaimState = iota
	ClaimCheckingRegistration
	ClaimRegisteringStorage
	ClaimAwaitingTx
	ClaimSettled
	ClaimFailed
)

// String returns the state name for logging and responses.
func (s ClaimState) String() string {
	switch s {
	case ClaimNotStarted:
		return "not_started"
	case ClaimCheckingRegistration:
		return "checking_registration"
	case ClaimRegisteringStorage:
		return "registering_storage"
	case ClaimAwaitingTx:
		return "awaiting_claim_tx"
	case ClaimSettled:
		return "settled"
	case ClaimFailed:
		return "failed"
	default:
		return "unknown"
	}
}
