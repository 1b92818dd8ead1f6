package reward

import (
	"context"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EligibilityResult explains a spin eligibility decision.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// Checker decides whether an account may spin the prize wheel.
//
// The policy is fail-closed: every signal it consults must be positively
// confirmed. Any read error, from the deposit subsystem or the ledger, makes
// the account ineligible rather than assuming the happy path.
type Checker struct {
	gateway    providers.LedgerGateway
	deposits   providers.DepositProvider
	minDeposit decimal.Decimal
	logger     zerolog.Logger
}

// NewChecker creates an eligibility checker. minDeposit is the smallest
// active deposit that qualifies for spins.
func NewChecker(gateway providers.LedgerGateway, deposits providers.DepositProvider, minDeposit decimal.Decimal, logger zerolog.Logger) *Checker {
	return &Checker{
		gateway:    gateway,
		deposits:   deposits,
		minDeposit: minDeposit,
		logger:     logger.With().Str("component", "eligibility").Logger(),
	}
}

// Check evaluates spin eligibility for an account.
//
// It returns a non-nil result in every case; the error is non-nil only when
// the decision was forced by a failed read, and then Eligible is false.
func (c *Checker) Check(ctx context.Context, accountID string) (*EligibilityResult, error) {
	logger := c.logger.With().Str("account_id", accountID).Logger()

	// Ledger reachability probe. A balance read is the cheapest call that
	// confirms both connectivity and a valid account.
	if _, err := c.gateway.CheckBalance(ctx, accountID); err != nil {
		logger.Warn().Err(err).Msg("Ledger probe failed, denying eligibility")
		return &EligibilityResult{Eligible: false, Reason: "ledger unavailable"},
			apperrors.Wrap(err, apperrors.ErrNotEligible, "unable to verify account on ledger")
	}

	deposit, err := c.deposits.ActiveDeposit(ctx, accountID)
	if err != nil {
		logger.Warn().Err(err).Msg("Deposit lookup failed, denying eligibility")
		return &EligibilityResult{Eligible: false, Reason: "deposit status unavailable"},
			apperrors.Wrap(err, apperrors.ErrNotEligible, "unable to verify deposit status")
	}
	if deposit == nil || !deposit.Active {
		return &EligibilityResult{Eligible: false, Reason: "no active deposit"}, nil
	}
	// a zero-amount deposit never qualifies, even with no configured minimum
	if !deposit.Amount.IsPositive() {
		return &EligibilityResult{Eligible: false, Reason: "deposit is empty"}, nil
	}
	if deposit.Amount.LessThan(c.minDeposit) {
		return &EligibilityResult{Eligible: false, Reason: "deposit below minimum"}, nil
	}

	return &EligibilityResult{Eligible: true}, nil
}
