package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakeGateway scripts ledger behavior per call and counts invocations.
type fakeGateway struct {
	balance    decimal.Decimal
	balanceErr error

	registered   bool
	checkRegErr  error
	registerErr  error
	transferErr  error
	registerHook func()

	checkBalanceCalls int
	checkRegCalls     int
	registerCalls     int
	transferCalls     int
}

func (g *fakeGateway) CheckBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	g.checkBalanceCalls++
	if g.balanceErr != nil {
		return decimal.Zero, g.balanceErr
	}
	return g.balance, nil
}

func (g *fakeGateway) CheckStorageRegistered(_ context.Context, _, _ string) (bool, error) {
	g.checkRegCalls++
	if g.checkRegErr != nil {
		return false, g.checkRegErr
	}
	return g.registered, nil
}

func (g *fakeGateway) RegisterStorage(_ context.Context, _, _ string, _ decimal.Decimal) (*providers.Receipt, error) {
	g.registerCalls++
	if g.registerHook != nil {
		g.registerHook()
	}
	if g.registerErr != nil {
		return nil, g.registerErr
	}
	g.registered = true
	return &providers.Receipt{TxHash: "reg-tx", Timestamp: time.Now()}, nil
}

func (g *fakeGateway) SubmitTransfer(_ context.Context, _ *providers.TransferRequest) (*providers.Receipt, error) {
	g.transferCalls++
	if g.transferErr != nil {
		return nil, g.transferErr
	}
	return &providers.Receipt{TxHash: "claim-tx", Timestamp: time.Now()}, nil
}

func testOrchestrator(gw *fakeGateway) *Orchestrator {
	return NewOrchestrator(gw, OrchestratorConfig{
		TokenContract:  "token.test",
		RewardContract: "rewards.test",
		StorageDeposit: decimal.RequireFromString("0.00125"),
		ClaimGas:       30_000_000_000_000,
	}, zerolog.Nop())
}

func sessionWithPrize(t *testing.T, accountID string) (*Session, *memPrizeStore) {
	t.Helper()
	store := newMemPrizeStore()
	sess := NewSession(accountID, store)
	if err := sess.BeginSpin(); err != nil {
		t.Fatalf("unexpected BeginSpin error: %v", err)
	}
	if _, err := sess.ResolveSpin(context.Background(), testAttempt(30)); err != nil {
		t.Fatalf("unexpected ResolveSpin error: %v", err)
	}
	return sess, store
}

func TestClaimHappyPathUnregisteredAccount(t *testing.T) {
	gw := &fakeGateway{registered: false}
	sess, _ := sessionWithPrize(t, "alice.test")

	result, err := testOrchestrator(gw).Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Settled() {
		t.Errorf("expected settled result, got state %s", result.State)
	}
	if result.Receipt == nil || result.Receipt.TxHash != "claim-tx" {
		t.Errorf("expected claim receipt, got %+v", result.Receipt)
	}
	if gw.checkRegCalls != 1 || gw.registerCalls != 1 || gw.transferCalls != 1 {
		t.Errorf("unexpected call counts: check=%d register=%d transfer=%d",
			gw.checkRegCalls, gw.registerCalls, gw.transferCalls)
	}

	prize, err := sess.CurrentPrize(context.Background())
	if err != nil {
		t.Fatalf("unexpected CurrentPrize error: %v", err)
	}
	if prize != nil {
		t.Error("expected prize cleared after settlement")
	}
}

func TestClaimSkipsRegistrationWhenAlreadyRegistered(t *testing.T) {
	gw := &fakeGateway{registered: true}
	sess, _ := sessionWithPrize(t, "alice.test")

	result, err := testOrchestrator(gw).Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Settled() {
		t.Errorf("expected settled result, got state %s", result.State)
	}
	if gw.registerCalls != 0 {
		t.Errorf("expected no registration call, got %d", gw.registerCalls)
	}
}

func TestClaimFailsClosedOnRegistrationCheckError(t *testing.T) {
	gw := &fakeGateway{checkRegErr: errors.New("rpc unreachable")}
	sess, _ := sessionWithPrize(t, "alice.test")

	result, err := testOrchestrator(gw).Run(context.Background(), sess)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.ErrRegistrationCheck {
		t.Errorf("expected code %d, got %d", apperrors.ErrRegistrationCheck, apperrors.GetCode(err))
	}
	if result.State != ClaimFailed {
		t.Errorf("expected failed state, got %s", result.State)
	}
	// a failed check must never be treated as "unregistered"
	if gw.registerCalls != 0 {
		t.Errorf("expected no registration attempt after failed check, got %d", gw.registerCalls)
	}
	if gw.transferCalls != 0 {
		t.Errorf("expected no transfer attempt after failed check, got %d", gw.transferCalls)
	}

	prize, perr := sess.CurrentPrize(context.Background())
	if perr != nil {
		t.Fatalf("unexpected CurrentPrize error: %v", perr)
	}
	if prize == nil {
		t.Error("expected prize retained after failed claim")
	}
}

func TestClaimRetryAfterTransferFailureIsIdempotent(t *testing.T) {
	gw := &fakeGateway{registered: false, transferErr: errors.New("tx rejected")}
	sess, _ := sessionWithPrize(t, "alice.test")
	orch := testOrchestrator(gw)
	ctx := context.Background()

	_, err := orch.Run(ctx, sess)
	if err == nil {
		t.Fatal("expected first run to fail at claim transfer")
	}
	if apperrors.GetCode(err) != apperrors.ErrClaimTx {
		t.Errorf("expected code %d, got %d", apperrors.ErrClaimTx, apperrors.GetCode(err))
	}
	if !apperrors.IsRetryable(apperrors.GetCode(err)) {
		t.Error("expected claim transfer failure to be retryable")
	}
	if gw.registerCalls != 1 {
		t.Fatalf("expected one registration on first run, got %d", gw.registerCalls)
	}

	// retry: registration already landed, only the transfer re-executes
	gw.transferErr = nil
	result, err := orch.Run(ctx, sess)
	if err != nil {
		t.Fatalf("unexpected retry error: %v", err)
	}
	if !result.Settled() {
		t.Errorf("expected settled retry, got state %s", result.State)
	}
	if gw.registerCalls != 1 {
		t.Errorf("retry re-paid storage registration: %d calls", gw.registerCalls)
	}
	if gw.transferCalls != 2 {
		t.Errorf("expected 2 transfer attempts total, got %d", gw.transferCalls)
	}
}

func TestClaimRegistrationUnknownOutcomeRechecks(t *testing.T) {
	tests := []struct {
		name          string
		landed        bool
		wantErr       bool
		wantTransfers int
	}{
		{
			name:          "registration landed despite timeout",
			landed:        true,
			wantErr:       false,
			wantTransfers: 1,
		},
		{
			name:          "registration really did not land",
			landed:        false,
			wantErr:       true,
			wantTransfers: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{
				registered: false,
				registerErr: &providers.LedgerError{
					Op:      "storage_deposit",
					Unknown: true,
					Err:     errors.New("deadline exceeded"),
				},
			}
			if tt.landed {
				// the deposit lands on chain even though the call timed out
				gw.registerHook = func() { gw.registered = true }
			}
			sess, _ := sessionWithPrize(t, "alice.test")

			result, err := testOrchestrator(gw).Run(context.Background(), sess)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperrors.GetCode(err) != apperrors.ErrRegistration {
					t.Errorf("expected code %d, got %d", apperrors.ErrRegistration, apperrors.GetCode(err))
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !result.Settled() {
					t.Errorf("expected settled result, got state %s", result.State)
				}
			}
			if gw.checkRegCalls != 2 {
				t.Errorf("expected registration re-check after unknown outcome, got %d checks", gw.checkRegCalls)
			}
			if gw.transferCalls != tt.wantTransfers {
				t.Errorf("expected %d transfers, got %d", tt.wantTransfers, gw.transferCalls)
			}
		})
	}
}

func TestClaimWithoutPrizeFails(t *testing.T) {
	gw := &fakeGateway{registered: true}
	sess := NewSession("alice.test", newMemPrizeStore())

	_, err := testOrchestrator(gw).Run(context.Background(), sess)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.ErrNoUnclaimedPrize {
		t.Errorf("expected code %d, got %d", apperrors.ErrNoUnclaimedPrize, apperrors.GetCode(err))
	}
	if gw.checkRegCalls != 0 {
		t.Errorf("expected no ledger calls without a prize, got %d", gw.checkRegCalls)
	}
}

func TestClaimFailedStepNaming(t *testing.T) {
	gw := &fakeGateway{checkRegErr: errors.New("down")}
	sess, _ := sessionWithPrize(t, "alice.test")

	result, _ := testOrchestrator(gw).Run(context.Background(), sess)
	if result.FailedStep() != "failed:checking_registration" {
		t.Errorf("unexpected failed step %q", result.FailedStep())
	}
}
