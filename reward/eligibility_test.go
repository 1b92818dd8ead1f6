package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakeDeposits scripts the deposit subsystem.
type fakeDeposits struct {
	deposit *providers.Deposit
	err     error
}

func (d *fakeDeposits) ActiveDeposit(_ context.Context, _ string) (*providers.Deposit, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.deposit, nil
}

func TestEligibilityCheck(t *testing.T) {
	minDeposit := decimal.NewFromInt(1)

	tests := []struct {
		name         string
		gateway      *fakeGateway
		deposits     *fakeDeposits
		wantEligible bool
		wantErr      bool
	}{
		{
			name:    "eligible with active deposit",
			gateway: &fakeGateway{balance: decimal.NewFromInt(10)},
			deposits: &fakeDeposits{deposit: &providers.Deposit{
				Amount:    decimal.NewFromInt(5),
				Active:    true,
				CreatedAt: time.Now(),
			}},
			wantEligible: true,
		},
		{
			name:         "ledger unreachable denies",
			gateway:      &fakeGateway{balanceErr: errors.New("rpc timeout")},
			deposits:     &fakeDeposits{},
			wantEligible: false,
			wantErr:      true,
		},
		{
			name:         "deposit lookup failure denies",
			gateway:      &fakeGateway{balance: decimal.NewFromInt(10)},
			deposits:     &fakeDeposits{err: errors.New("service down")},
			wantEligible: false,
			wantErr:      true,
		},
		{
			name:         "no deposit record",
			gateway:      &fakeGateway{balance: decimal.NewFromInt(10)},
			deposits:     &fakeDeposits{},
			wantEligible: false,
		},
		{
			name:    "inactive deposit",
			gateway: &fakeGateway{balance: decimal.NewFromInt(10)},
			deposits: &fakeDeposits{deposit: &providers.Deposit{
				Amount: decimal.NewFromInt(5),
				Active: false,
			}},
			wantEligible: false,
		},
		{
			name:    "deposit below minimum",
			gateway: &fakeGateway{balance: decimal.NewFromInt(10)},
			deposits: &fakeDeposits{deposit: &providers.Deposit{
				Amount: decimal.RequireFromString("0.5"),
				Active: true,
			}},
			wantEligible: false,
		},
		{
			name:    "deposit exactly at minimum qualifies",
			gateway: &fakeGateway{balance: decimal.NewFromInt(10)},
			deposits: &fakeDeposits{deposit: &providers.Deposit{
				Amount: decimal.NewFromInt(1),
				Active: true,
			}},
			wantEligible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(tt.gateway, tt.deposits, minDeposit, zerolog.Nop())
			result, err := checker.Check(context.Background(), "alice.test")

			if result == nil {
				t.Fatal("expected non-nil result")
			}
			if result.Eligible != tt.wantEligible {
				t.Errorf("expected eligible=%v, got %v (reason %q)", tt.wantEligible, result.Eligible, result.Reason)
			}
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEligibilityZeroDepositNeverQualifies(t *testing.T) {
	// a zero-amount deposit is denied even when no minimum is configured
	gateway := &fakeGateway{balance: decimal.NewFromInt(10)}
	deposits := &fakeDeposits{deposit: &providers.Deposit{
		Amount: decimal.Zero,
		Active: true,
	}}
	checker := NewChecker(gateway, deposits, decimal.Zero, zerolog.Nop())

	result, err := checker.Check(context.Background(), "alice.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Eligible {
		t.Error("expected zero-amount deposit to be denied")
	}
	if result.Reason != "deposit is empty" {
		t.Errorf("expected reason %q, got %q", "deposit is empty", result.Reason)
	}
}
