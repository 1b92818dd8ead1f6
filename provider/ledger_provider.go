package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Solvium/SolviumAI-sub000/config"
	"github.com/Solvium/SolviumAI-sub000/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerProvider implements providers.LedgerGateway over the ledger's
// HTTP RPC endpoint.
//
// View calls are reads: any failure, timeout included, is a definite failure
// and callers treat it as such. Change calls are writes: a timeout or dropped
// connection means the transaction may still have landed, so those errors
// carry Unknown=true and callers must re-check state before retrying.
type LedgerProvider struct {
	rpcURL      string
	httpClient  *http.Client
	viewTimeout time.Duration
	callTimeout time.Duration
	logger      zerolog.Logger
}

// NewLedgerProvider creates a new ledger provider
func NewLedgerProvider(cfg *config.Config, logger zerolog.Logger) *LedgerProvider {
	return &LedgerProvider{
		rpcURL: cfg.Ledger.RPCURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				MaxConnsPerHost:     100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		viewTimeout: cfg.Ledger.ViewTimeout,
		callTimeout: cfg.Ledger.CallTimeout,
		logger:      logger.With().Str("component", "ledger_provider").Logger(),
	}
}

type viewRequest struct {
	Contract string                 `json:"contract"`
	Method   string                 `json:"method"`
	Args     map[string]interface{} `json:"args"`
}

type changeRequest struct {
	Contract string                 `json:"contract"`
	Method   string                 `json:"method"`
	Args     map[string]interface{} `json:"args"`
	Gas      uint64                 `json:"gas"`
	Deposit  string                 `json:"deposit"`
}

type changeResponse struct {
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckBalance returns the token balance of an account
func (p *LedgerProvider) CheckBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var result struct {
		Balance string `json:"balance"`
	}
	err := p.view(ctx, viewRequest{
		Contract: "",
		Method:   "account_balance",
		Args:     map[string]interface{}{"account_id": accountID},
	}, &result)
	if err != nil {
		return decimal.Zero, &providers.LedgerError{Op: "account_balance", Err: err}
	}

	balance, err := decimal.NewFromString(result.Balance)
	if err != nil {
		return decimal.Zero, &providers.LedgerError{Op: "account_balance", Err: fmt.Errorf("invalid balance %q: %w", result.Balance, err)}
	}
	return balance, nil
}

// CheckStorageRegistered reports whether the account has storage registered
// on the token contract
func (p *LedgerProvider) CheckStorageRegistered(ctx context.Context, tokenContract, accountID string) (bool, error) {
	var result struct {
		Registered bool `json:"registered"`
	}
	err := p.view(ctx, viewRequest{
		Contract: tokenContract,
		Method:   "storage_balance_of",
		Args:     map[string]interface{}{"account_id": accountID},
	}, &result)
	if err != nil {
		return false, &providers.LedgerError{Op: "storage_balance_of", Err: err}
	}
	return result.Registered, nil
}

// RegisterStorage registers account storage on the token contract
func (p *LedgerProvider) RegisterStorage(ctx context.Context, tokenContract, accountID string, deposit decimal.Decimal) (*providers.Receipt, error) {
	receipt, err := p.change(ctx, changeRequest{
		Contract: tokenContract,
		Method:   "storage_deposit",
		Args:     map[string]interface{}{"account_id": accountID},
		Deposit:  deposit.String(),
	})
	if err != nil {
		return nil, &providers.LedgerError{
			Op:      "storage_deposit",
			Unknown: isAmbiguous(err),
			Err:     err,
		}
	}

	p.logger.Info().
		Str("account_id", accountID).
		Str("tx_hash", receipt.TxHash).
		Msg("Storage registered")
	return receipt, nil
}

// SubmitTransfer submits a fund-moving contract call
func (p *LedgerProvider) SubmitTransfer(ctx context.Context, req *providers.TransferRequest) (*providers.Receipt, error) {
	receipt, err := p.change(ctx, changeRequest{
		Contract: req.Contract,
		Method:   req.Method,
		Args:     req.Args,
		Gas:      req.Gas,
		Deposit:  req.Deposit.String(),
	})
	if err != nil {
		return nil, &providers.LedgerError{
			Op:      req.Method,
			Unknown: isAmbiguous(err),
			Err:     err,
		}
	}

	p.logger.Info().
		Str("contract", req.Contract).
		Str("method", req.Method).
		Str("tx_hash", receipt.TxHash).
		Msg("Transfer submitted")
	return receipt, nil
}

func (p *LedgerProvider) view(ctx context.Context, req viewRequest, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, p.viewTimeout)
	defer cancel()
	return p.post(ctx, "/rpc/view", req, dest)
}

func (p *LedgerProvider) change(ctx context.Context, req changeRequest) (*providers.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	var resp changeResponse
	if err := p.post(ctx, "/rpc/call", req, &resp); err != nil {
		return nil, err
	}
	if resp.Timestamp.IsZero() {
		resp.Timestamp = time.Now()
	}
	return &providers.Receipt{TxHash: resp.TxHash, Timestamp: resp.Timestamp}, nil
}

func (p *LedgerProvider) post(ctx context.Context, path string, body, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.rpcURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("path", path).
			Dur("duration", time.Since(startTime)).
			Msg("Ledger RPC failed")
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger rpc returned status %d", resp.StatusCode)
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("failed to decode rpc response: %w", err)
		}
	}
	return nil
}

// isAmbiguous reports whether a write call's outcome could not be determined.
// Request-construction and marshaling errors happen before anything is sent
// and are definite; timeouts and broken connections after sending are not.
func isAmbiguous(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// status-code and decode errors mean the ledger answered; those are
	// definite outcomes even when unexpected
	return false
}
