package server

import (
	"context"
	"time"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/Solvium/SolviumAI-sub000/events/kafka"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/Solvium/SolviumAI-sub000/pkg/rewardfeed"
	"github.com/Solvium/SolviumAI-sub000/reward"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EligibilityChecker decides whether an account may spin.
type EligibilityChecker interface {
	Check(ctx context.Context, accountID string) (*reward.EligibilityResult, error)
}

// ClaimRunner executes the claim saga for a session.
type ClaimRunner interface {
	Run(ctx context.Context, sess *reward.Session) (*reward.ClaimResult, error)
}

// PointsLedger manages spendable points and spin credits.
type PointsLedger interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	Debit(ctx context.Context, accountID string, amount int64) (int64, error)
	Refund(ctx context.Context, accountID string, amount int64) error
	SpinCredits(ctx context.Context, accountID string) (int64, error)
	GrantSpinCredits(ctx context.Context, accountID string, count int64) (int64, error)
	ConsumeSpinCredit(ctx context.Context, accountID string) (bool, error)
}

// EventPublisher emits reward lifecycle events.
type EventPublisher interface {
	PublishRewardEvent(topic string, event kafka.RewardEvent) error
}

// RewardServiceConfig holds the economics and ledger identities the
// service needs.
type RewardServiceConfig struct {
	SpinCostPoints int64
	RewardContract string
	PurchaseGas    uint64
	EventsTopic    string
}

// RewardService orchestrates the spin, claim and purchase flows. All
// per-account operations go through the account's session, which serializes
// them; cross-account operations run fully independently.
type RewardService struct {
	sessions    *reward.Manager
	table       *reward.Table
	selector    *reward.Selector
	eligibility EligibilityChecker
	claims      ClaimRunner
	points      PointsLedger
	gateway     providers.LedgerGateway
	producer    EventPublisher
	feed        *rewardfeed.Service
	cfg         RewardServiceConfig
	logger      zerolog.Logger
}

// NewRewardService creates the reward orchestration service.
// producer and feed may be nil; event emission is then skipped.
func NewRewardService(
	sessions *reward.Manager,
	table *reward.Table,
	selector *reward.Selector,
	eligibility EligibilityChecker,
	claims ClaimRunner,
	points PointsLedger,
	gateway providers.LedgerGateway,
	producer EventPublisher,
	feed *rewardfeed.Service,
	cfg RewardServiceConfig,
	logger zerolog.Logger,
) *RewardService {
	return &RewardService{
		sessions:    sessions,
		table:       table,
		selector:    selector,
		eligibility: eligibility,
		claims:      claims,
		points:      points,
		gateway:     gateway,
		producer:    producer,
		feed:        feed,
		cfg:         cfg,
		logger:      logger.With().Str("component", "reward_service").Logger(),
	}
}

// SpinResult is the outcome of a spin request.
type SpinResult struct {
	Prize      *reward.UnclaimedPrize `json:"prize"`
	UsedCredit bool                   `json:"used_credit"`
}

// Spin draws a prize for the account and stores it as the UnclaimedPrize.
//
// Entitlement order: a purchased spin credit is consumed first; only
// accounts without credits go through the deposit eligibility check. The
// draw happens server side and the persisted result is what the UI renders,
// so a client cannot influence or misreport the outcome.
func (s *RewardService) Spin(ctx context.Context, accountID string) (*SpinResult, error) {
	sess := s.sessions.Get(accountID)

	// fail fast on a concurrent spin; do not queue behind it
	if err := sess.BeginSpin(); err != nil {
		return nil, err
	}

	result, err := s.spinLocked(ctx, sess, accountID)
	if err != nil {
		sess.AbortSpin()
		return nil, err
	}
	return result, nil
}

func (s *RewardService) spinLocked(ctx context.Context, sess *reward.Session, accountID string) (*SpinResult, error) {
	// refuse early when a prize is already pending; the draw would be
	// discarded at resolve time anyway
	existing, err := sess.CurrentPrize(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.ErrUnclaimedPrizeExists, "an unclaimed prize already exists")
	}

	usedCredit, err := s.points.ConsumeSpinCredit(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !usedCredit {
		eligible, err := s.eligibility.Check(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if !eligible.Eligible {
			return nil, apperrors.NewWithDebug(apperrors.ErrNotEligible, "not eligible to spin", eligible.Reason)
		}
	}

	idx, err := s.selector.Select(s.table)
	if err != nil {
		if usedCredit {
			// no prize was stored; give the credit back
			s.restoreSpinCredit(ctx, accountID)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrPrizeTableInvalid, "prize selection failed")
	}

	entry, _ := s.table.Entry(idx)
	prize, err := sess.ResolveSpin(ctx, &reward.SpinAttempt{
		PrizeIndex: idx,
		PrizeLabel: entry.Label,
		PrizeValue: entry.Value,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		if usedCredit {
			s.restoreSpinCredit(ctx, accountID)
		}
		return nil, err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Int("prize_index", idx).
		Str("prize_value", prize.PrizeValue.String()).
		Bool("used_credit", usedCredit).
		Msg("Spin resolved")

	s.emit(kafka.RewardEvent{
		Type:       kafka.EventSpinResolved,
		AccountID:  accountID,
		PrizeLabel: prize.PrizeLabel,
		PrizeValue: prize.PrizeValue,
	})
	s.publishFeed(rewardfeed.Update{
		Kind:       rewardfeed.KindSpinResolved,
		AccountID:  accountID,
		PrizeLabel: prize.PrizeLabel,
		PrizeValue: prize.PrizeValue,
	}, false)

	return &SpinResult{Prize: prize, UsedCredit: usedCredit}, nil
}

// restoreSpinCredit compensates a consumed credit after a spin that stored
// no prize.
func (s *RewardService) restoreSpinCredit(ctx context.Context, accountID string) {
	if _, err := s.points.GrantSpinCredits(ctx, accountID, 1); err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to restore spin credit")
	}
}

// CurrentPrize returns the account's pending prize, or nil if none exists.
func (s *RewardService) CurrentPrize(ctx context.Context, accountID string) (*reward.UnclaimedPrize, error) {
	return s.sessions.Get(accountID).CurrentPrize(ctx)
}

// Claim runs the claim saga for the account's pending prize. Safe to call
// again after a failed attempt; completed steps are not re-executed.
func (s *RewardService) Claim(ctx context.Context, accountID string) (*reward.ClaimResult, error) {
	sess := s.sessions.Get(accountID)
	sess.Lock()
	defer sess.Unlock()

	result, err := s.claims.Run(ctx, sess)
	if err != nil {
		if result != nil && result.Prize != nil {
			s.emit(kafka.RewardEvent{
				Type:       kafka.EventClaimFailed,
				AccountID:  accountID,
				ClaimID:    result.ClaimID,
				PrizeLabel: result.Prize.PrizeLabel,
				PrizeValue: result.Prize.PrizeValue,
				FailedStep: result.FailedStep(),
			})
			s.publishFeed(rewardfeed.Update{
				Kind:       rewardfeed.KindClaimFailed,
				AccountID:  accountID,
				PrizeLabel: result.Prize.PrizeLabel,
				PrizeValue: result.Prize.PrizeValue,
			}, true)
		}
		return result, err
	}

	s.emit(kafka.RewardEvent{
		Type:       kafka.EventClaimSettled,
		AccountID:  accountID,
		ClaimID:    result.ClaimID,
		PrizeLabel: result.Prize.PrizeLabel,
		PrizeValue: result.Prize.PrizeValue,
		TxHash:     result.Receipt.TxHash,
	})
	s.publishFeed(rewardfeed.Update{
		Kind:       rewardfeed.KindClaimSettled,
		AccountID:  accountID,
		PrizeLabel: result.Prize.PrizeLabel,
		PrizeValue: result.Prize.PrizeValue,
		TxHash:     result.Receipt.TxHash,
	}, true)

	return result, nil
}

// AbandonPrize discards the pending prize on explicit user request.
func (s *RewardService) AbandonPrize(ctx context.Context, accountID string) error {
	sess := s.sessions.Get(accountID)
	sess.Lock()
	defer sess.Unlock()

	prize, err := sess.CurrentPrize(ctx)
	if err != nil {
		return err
	}
	if prize == nil {
		return apperrors.New(apperrors.ErrNoUnclaimedPrize, "no unclaimed prize to abandon")
	}
	if err := sess.Abandon(ctx); err != nil {
		return err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("prize_value", prize.PrizeValue.String()).
		Msg("Prize abandoned")

	s.emit(kafka.RewardEvent{
		Type:       kafka.EventPrizeAbandoned,
		AccountID:  accountID,
		PrizeLabel: prize.PrizeLabel,
		PrizeValue: prize.PrizeValue,
	})
	s.publishFeed(rewardfeed.Update{
		Kind:      rewardfeed.KindPrizeAbandoned,
		AccountID: accountID,
	}, false)

	return nil
}

// PurchaseResult is the outcome of a spin purchase.
type PurchaseResult struct {
	SpinCredits   int64  `json:"spin_credits"`
	PointsBalance int64  `json:"points_balance"`
	TxHash        string `json:"tx_hash"`
}

// PurchaseSpin buys one spin credit with points.
//
// The debit is optimistic: points come off first, then the purchase is
// recorded on the ledger. A definite ledger failure refunds the points. An
// ambiguous outcome refunds nothing, because the purchase may have landed;
// the error is retryable and reconciliation picks up the remainder.
func (s *RewardService) PurchaseSpin(ctx context.Context, accountID string) (*PurchaseResult, error) {
	sess := s.sessions.Get(accountID)
	sess.Lock()
	defer sess.Unlock()

	balance, err := s.points.Debit(ctx, accountID, s.cfg.SpinCostPoints)
	if err != nil {
		return nil, err
	}

	receipt, err := s.gateway.SubmitTransfer(ctx, &providers.TransferRequest{
		Contract: s.cfg.RewardContract,
		Method:   "buy_spin",
		Args: map[string]interface{}{
			"account_id": accountID,
			"points":     s.cfg.SpinCostPoints,
		},
		Gas:     s.cfg.PurchaseGas,
		Deposit: decimal.Zero,
	})
	if err != nil {
		if providers.IsUnknownOutcome(err) {
			s.logger.Error().Err(err).
				Str("account_id", accountID).
				Int64("points", s.cfg.SpinCostPoints).
				Msg("Spin purchase outcome unknown, points held for reconciliation")
			return nil, apperrors.Wrap(err, apperrors.ErrPurchaseTx, "spin purchase did not complete")
		}
		if rbErr := s.points.Refund(ctx, accountID, s.cfg.SpinCostPoints); rbErr != nil {
			s.logger.Error().Err(rbErr).
				Str("account_id", accountID).
				Msg("Failed to refund points after purchase failure")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrPurchaseTx, "spin purchase failed")
	}

	credits, err := s.points.GrantSpinCredits(ctx, accountID, 1)
	if err != nil {
		// the purchase is recorded; surface the error for reconciliation
		s.logger.Error().Err(err).
			Str("account_id", accountID).
			Str("tx_hash", receipt.TxHash).
			Msg("Failed to grant spin credit after recorded purchase")
		return nil, err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Int64("spin_credits", credits).
		Str("tx_hash", receipt.TxHash).
		Msg("Spin purchased")

	s.emit(kafka.RewardEvent{
		Type:      kafka.EventSpinPurchased,
		AccountID: accountID,
		TxHash:    receipt.TxHash,
	})
	s.publishFeed(rewardfeed.Update{
		Kind:          rewardfeed.KindSpinPurchased,
		AccountID:     accountID,
		PointsBalance: balance,
	}, false)

	return &PurchaseResult{
		SpinCredits:   credits,
		PointsBalance: balance,
		TxHash:        receipt.TxHash,
	}, nil
}

// PointsSummary reports an account's points and spin credits.
type PointsSummary struct {
	Balance     int64 `json:"balance"`
	SpinCredits int64 `json:"spin_credits"`
}

// Points returns the account's points balance and spin credits.
func (s *RewardService) Points(ctx context.Context, accountID string) (*PointsSummary, error) {
	balance, err := s.points.Balance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	credits, err := s.points.SpinCredits(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &PointsSummary{Balance: balance, SpinCredits: credits}, nil
}

// Eligibility reports whether the account may spin, and why not.
func (s *RewardService) Eligibility(ctx context.Context, accountID string) (*reward.EligibilityResult, error) {
	result, err := s.eligibility.Check(ctx, accountID)
	if err != nil {
		// the decision itself is valid; the caller sees why it was denied
		return result, nil
	}
	return result, nil
}

func (s *RewardService) emit(event kafka.RewardEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishRewardEvent(s.cfg.EventsTopic, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("Failed to publish reward event")
	}
}

func (s *RewardService) publishFeed(update rewardfeed.Update, immediate bool) {
	if s.feed == nil {
		return
	}
	if immediate {
		s.feed.PublishNow(update)
		return
	}
	s.feed.Publish(update)
}
