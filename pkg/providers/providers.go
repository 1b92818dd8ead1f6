package providers

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt describes an accepted ledger transaction.
type Receipt struct {
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"timestamp"`
}

// TransferRequest describes a ledger contract call that moves funds.
type TransferRequest struct {
	Contract string                 // contract account to call
	Method   string                 // method name (e.g. "claim_prize", "buy_spin")
	Args     map[string]interface{} // call arguments
	Gas      uint64                 // attached gas
	Deposit  decimal.Decimal        // attached deposit
}

// LedgerError is a structured failure from the external ledger.
//
// Unknown distinguishes a call whose outcome is ambiguous (timeout, connection
// dropped mid-flight) from one that definitely failed. A write call that may
// have landed on chain must not be blindly retried: callers re-check ledger
// state before re-submitting. A read call with unknown outcome is simply a
// failed read.
type LedgerError struct {
	Op      string // gateway operation, e.g. "storage_deposit"
	Unknown bool   // true when the outcome could not be determined
	Err     error
}

func (e *LedgerError) Error() string {
	if e.Unknown {
		return "ledger " + e.Op + ": outcome unknown: " + e.Err.Error()
	}
	return "ledger " + e.Op + ": " + e.Err.Error()
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// IsUnknownOutcome reports whether err wraps a LedgerError with ambiguous outcome.
func IsUnknownOutcome(err error) bool {
	var lerr *LedgerError
	if errors.As(err, &lerr) {
		return lerr.Unknown
	}
	return false
}

// LedgerGateway is the adapter over the external account ledger.
//
// All calls are fallible and may time out; no call is atomic with any other.
// Write calls (RegisterStorage, SubmitTransfer) may partially succeed on the
// ledger even when the local call errors; such failures carry Unknown=true.
type LedgerGateway interface {
	// CheckBalance returns the token balance of an account.
	CheckBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// CheckStorageRegistered reports whether the account has storage registered
	// on the given token contract.
	CheckStorageRegistered(ctx context.Context, tokenContract, accountID string) (bool, error)

	// RegisterStorage registers account storage on the token contract,
	// attaching the required storage deposit.
	RegisterStorage(ctx context.Context, tokenContract, accountID string, deposit decimal.Decimal) (*Receipt, error)

	// SubmitTransfer submits a fund-moving contract call.
	SubmitTransfer(ctx context.Context, req *TransferRequest) (*Receipt, error)
}

// Deposit is a staked-funds record owned by the deposit subsystem.
// Read-only to this service.
type Deposit struct {
	Amount    decimal.Decimal `json:"amount"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// DepositProvider exposes the deposit subsystem's records.
type DepositProvider interface {
	// ActiveDeposit returns the account's active deposit, or nil if none exists.
	ActiveDeposit(ctx context.Context, accountID string) (*Deposit, error)
}
