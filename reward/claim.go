package reward

import (
	"context"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrchestratorConfig holds the ledger identities and limits for claims.
type OrchestratorConfig struct {
	TokenContract  string
	RewardContract string
	StorageDeposit decimal.Decimal
	ClaimGas       uint64
}

// Orchestrator runs the claim saga: it turns an awarded prize into a settled
// on-chain transfer.
//
// The saga is linear over ClaimState and re-entrant: every step is checked
// for prior completion before re-execution, so re-invoking after a Failed run
// never double-charges registration or the claim transfer.
type Orchestrator struct {
	gateway providers.LedgerGateway
	cfg     OrchestratorConfig
	logger  zerolog.Logger
}

// ClaimResult describes the outcome of one orchestration run.
type ClaimResult struct {
	ClaimID string             `json:"claimId"`
	State   ClaimState         `json:"-"`
	Status  string             `json:"status"`
	Prize   *UnclaimedPrize    `json:"prize,omitempty"`
	Receipt *providers.Receipt `json:"receipt,omitempty"`
}

// NewOrchestrator creates a claim orchestrator.
func NewOrchestrator(gateway providers.LedgerGateway, cfg OrchestratorConfig, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger.With().Str("component", "claim_orchestrator").Logger(),
	}
}

// Run executes one claim attempt for the session's unclaimed prize.
//
// Steps:
//  1. CheckingRegistration: query token storage registration. A gateway error
//     here fails the run; it never assumes "unregistered" and proceeds, which
//     would risk a needless duplicate registration deposit.
//  2. RegisteringStorage: only when step 1 reported unregistered. An
//     unknown-outcome failure (timeout) re-checks registration before
//     deciding, because the deposit may have landed.
//  3. AwaitingClaimTx: submit the claim transfer. Failure is retryable; a
//     re-run re-checks registration and skips it when already complete.
//  4. Settled: clear the UnclaimedPrize via Session.Settle.
//
// The caller must hold the session's operation lock.
func (o *Orchestrator) Run(ctx context.Context, sess *Session) (*ClaimResult, error) {
	result := &ClaimResult{
		ClaimID: uuid.New().String(),
		State:   ClaimNotStarted,
	}
	logger := o.logger.With().
		Str("claim_id", result.ClaimID).
		Str("account_id", sess.AccountID()).
		Logger()

	prize, err := sess.CurrentPrize(ctx)
	if err != nil {
		return o.fail(result, err)
	}
	if prize == nil {
		return o.fail(result, apperrors.New(apperrors.ErrNoUnclaimedPrize, "no unclaimed prize to claim"))
	}
	result.Prize = prize

	// Step 1: registration check
	result.State = ClaimCheckingRegistration
	registered, err := o.gateway.CheckStorageRegistered(ctx, o.cfg.TokenContract, sess.AccountID())
	if err != nil {
		logger.Error().Err(err).Msg("Registration check failed")
		return o.fail(result, apperrors.Wrap(err, apperrors.ErrRegistrationCheck, "failed to verify token registration"))
	}

	// Step 2: register storage when absent
	if !registered {
		result.State = ClaimRegisteringStorage
		if _, err := o.gateway.RegisterStorage(ctx, o.cfg.TokenContract, sess.AccountID(), o.cfg.StorageDeposit); err != nil {
			if providers.IsUnknownOutcome(err) {
				// The deposit may have landed despite the timeout. Re-check
				// before deciding, so a retry never pays storage twice.
				recheck, recheckErr := o.gateway.CheckStorageRegistered(ctx, o.cfg.TokenContract, sess.AccountID())
				if recheckErr == nil && recheck {
					logger.Info().Msg("Storage registration landed despite ambiguous outcome")
				} else {
					logger.Error().Err(err).Msg("Storage registration outcome unknown")
					return o.fail(result, apperrors.Wrap(err, apperrors.ErrRegistration, "storage registration did not complete"))
				}
			} else {
				logger.Error().Err(err).Msg("Storage registration failed")
				return o.fail(result, apperrors.Wrap(err, apperrors.ErrRegistration, "failed to register token storage"))
			}
		}
	}

	// Step 3: claim transfer
	result.State = ClaimAwaitingTx
	receipt, err := o.gateway.SubmitTransfer(ctx, &providers.TransferRequest{
		Contract: o.cfg.RewardContract,
		Method:   "claim_prize",
		Args: map[string]interface{}{
			"account_id":  sess.AccountID(),
			"amount":      prize.PrizeValue.String(),
			"prize_index": prize.PrizeIndex,
		},
		Gas:     o.cfg.ClaimGas,
		Deposit: decimal.Zero,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Claim transfer failed")
		return o.fail(result, apperrors.Wrap(err, apperrors.ErrClaimTx, "claim transfer did not complete"))
	}

	// Step 4: settle
	if err := sess.Settle(ctx); err != nil {
		// The transfer is on chain; surface the settle error but keep the
		// receipt so the caller can reconcile.
		logger.Error().Err(err).Str("tx_hash", receipt.TxHash).Msg("Failed to clear prize after settled claim")
		result.Receipt = receipt
		return o.fail(result, err)
	}

	result.State = ClaimSettled
	result.Status = result.State.String()
	result.Receipt = receipt

	logger.Info().
		Str("tx_hash", receipt.TxHash).
		Str("prize_value", prize.PrizeValue.String()).
		Int("prize_index", prize.PrizeIndex).
		Msg("Claim settled")

	return result, nil
}

func (o *Orchestrator) fail(result *ClaimResult, err error) (*ClaimResult, error) {
	failedAt := result.State
	result.State = ClaimFailed
	result.Status = ClaimFailed.String() + ":" + failedAt.String()
	return result, err
}

// FailedStep returns which saga step a failed result stopped at,
// for logging and event payloads.
func (r *ClaimResult) FailedStep() string {
	if r.State != ClaimFailed {
		return ""
	}
	return r.Status
}

// Settled reports whether the run completed.
func (r *ClaimResult) Settled() bool {
	return r.State == ClaimSettled
}
