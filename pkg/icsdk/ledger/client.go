// Package ledger implements ICRC-2 token ledger operations: allowance
// approvals and balance queries.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/pkg/icsdk/gateway"
)

var (
	errNilRequest      = errors.New("nil request")
	errSpenderRequired = errors.New("spender owner is required")
	errZeroAmount      = errors.New("amount must be positive")
)

// Ledger defines the token ledger operations the orchestrator relies on.
type Ledger interface {
	// Approve grants the spender an allowance and returns the ledger block
	// index of the approval.
	Approve(ctx context.Context, req *ApproveRequest) (uint64, error)

	// BalanceOf returns the account balance in e8s.
	BalanceOf(ctx context.Context, account Account) (uint64, error)
}

// Client implements Ledger over the canister gateway.
type Client struct {
	cfg    *Config
	caller gateway.Caller
	token  TokenSource
	logger *zap.Logger
}

// New creates a new ledger client.
func New(cfg *Config, caller gateway.Caller, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if caller == nil {
		return nil, fmt.Errorf("nil gateway caller")
	}
	s := applyOptions(opts)
	return &Client{cfg: cfg, caller: caller, token: s.token, logger: s.logger}, nil
}

func (c *Client) authToken() string {
	if c.token == nil {
		return ""
	}
	return c.token()
}

func (c *Client) Approve(ctx context.Context, req *ApproveRequest) (uint64, error) {
	if err := req.validate(); err != nil {
		return 0, fmt.Errorf("invalid request: %w", err)
	}

	args := approveArgs{
		Spender: req.Spender,
		Amount:  req.AmountE8s,
		// The memo doubles as a dedup key so a retried call cannot double-approve.
		Memo: uuid.NewString(),
	}

	var res gateway.Result[uint64]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.LedgerCanisterID,
		Method:     "icrc2_approve",
		Kind:       gateway.KindCall,
		Args:       args,
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return 0, fmt.Errorf("approve: %w", err)
	}

	block, err := res.Unpack()
	if err != nil {
		return 0, err
	}

	c.logger.Debug("allowance approved",
		zap.String("spender", req.Spender.Owner),
		zap.Uint64("amount_e8s", req.AmountE8s),
		zap.Uint64("block_index", *block))

	return *block, nil
}

func (c *Client) BalanceOf(ctx context.Context, account Account) (uint64, error) {
	if account.Owner == "" {
		return 0, fmt.Errorf("invalid request: account owner is required")
	}

	var res gateway.Result[balanceReply]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.LedgerCanisterID,
		Method:     "account_balance",
		Kind:       gateway.KindQuery,
		Args:       balanceArgs{Account: account},
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return 0, fmt.Errorf("balance query: %w", err)
	}

	reply, err := res.Unpack()
	if err != nil {
		return 0, err
	}
	return reply.E8s, nil
}
