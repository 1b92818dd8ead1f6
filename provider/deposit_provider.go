package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Solvium/SolviumAI-sub000/config"
	"github.com/Solvium/SolviumAI-sub000/httpclient"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/rs/zerolog"
)

// DepositProvider implements providers.DepositProvider against the deposit
// subsystem's HTTP API. Deposit records are owned by that subsystem; this
// provider only reads them.
type DepositProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewDepositProvider creates a new deposit provider
func NewDepositProvider(cfg *config.Config, logger zerolog.Logger) *DepositProvider {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.ExternalServices.DepositService.BaseURL,
		Timeout: cfg.ExternalServices.DepositService.Timeout,
		Logger:  logger,
	})

	return &DepositProvider{
		client: client,
		logger: logger.With().Str("component", "deposit_provider").Logger(),
	}
}

// ActiveDeposit returns the account's active deposit, or nil if none exists
func (p *DepositProvider) ActiveDeposit(ctx context.Context, accountID string) (*providers.Deposit, error) {
	path := "/deposits/active?account_id=" + url.QueryEscape(accountID)

	var result struct {
		Data *providers.Deposit `json:"data"`
	}
	resp, err := p.client.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("deposit lookup failed: %w", err)
	}
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("deposit service returned status %d", resp.StatusCode)
	}
	if err := resp.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("failed to decode deposit response: %w", err)
	}

	return result.Data, nil
}
