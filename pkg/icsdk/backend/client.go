// Package backend implements the miner-box application canister operations:
// user lookup and registration, box listing, box creation and staking.
package backend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/pkg/icsdk/gateway"
)

// ErrUserNotFound indicates the authenticated principal has no profile yet.
var ErrUserNotFound = errors.New("user not registered")

// Backend defines the application canister operations.
type Backend interface {
	// GetUser returns the caller's profile, or ErrUserNotFound when the
	// principal has not registered.
	GetUser(ctx context.Context) (*UserProfile, error)

	// Register creates the caller's profile with the given nickname.
	Register(ctx context.Context, nickname string) (*UserProfile, error)

	// ListBoxes returns all boxes, a full re-fetch every time.
	ListBoxes(ctx context.Context) ([]Box, error)

	// CreateBox creates a new box funded from the caller's pre-approved
	// allowance.
	CreateBox(ctx context.Context, amountE8s uint64) (*Box, error)

	// StakeIntoBox stakes into an existing box from the caller's
	// pre-approved allowance and returns the created miner.
	StakeIntoBox(ctx context.Context, boxID string, amountE8s uint64) (*Miner, error)

	// Allowance returns the caller's remaining allowance granted to the
	// backend, in e8s.
	Allowance(ctx context.Context) (uint64, error)
}

// Client implements Backend over the canister gateway.
type Client struct {
	cfg    *Config
	caller gateway.Caller
	token  TokenSource
	logger *zap.Logger
}

// New creates a new backend client.
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

func (c *Client) GetUser(ctx context.Context) (*UserProfile, error) {
	var res gateway.Result[UserProfile]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.BackendCanisterID,
		Method:     "get_user",
		Kind:       gateway.KindQuery,
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if res.Err != nil {
		// The canister answers Err for unknown principals; that is the
		// unregistered case, not a failure.
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, *res.Err)
	}
	return res.Unpack()
}

func (c *Client) Register(ctx context.Context, nickname string) (*UserProfile, error) {
	if nickname == "" {
		return nil, fmt.Errorf("invalid request: nickname is required")
	}

	var res gateway.Result[UserProfile]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.BackendCanisterID,
		Method:     "register",
		Kind:       gateway.KindCall,
		Args:       registerArgs{Nickname: nickname},
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	profile, err := res.Unpack()
	if err != nil {
		return nil, err
	}

	c.logger.Info("user registered", zap.String("nickname", profile.Nickname))
	return profile, nil
}

func (c *Client) ListBoxes(ctx context.Context) ([]Box, error) {
	var boxes []Box
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.BackendCanisterID,
		Method:     "get_all_boxes",
		Kind:       gateway.KindQuery,
		AuthToken:  c.authToken(),
	}, &boxes)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	return boxes, nil
}

func (c *Client) CreateBox(ctx context.Context, amountE8s uint64) (*Box, error) {
	var res gateway.Result[Box]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.BackendCanisterID,
		Method:     "create_box",
		Kind:       gateway.KindCall,
		Args:       createBoxArgs{AmountE8s: amountE8s},
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("create box: %w", err)
	}
	return res.Unpack()
}

func (c *Client) StakeIntoBox(ctx context.Context, boxID string, amountE8s uint64) (*Miner, error) {
	if boxID == "" {
		return nil, fmt.Errorf("invalid request: box id is required")
	}

	var res gateway.Result[Miner]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.BackendCanisterID,
		Method:     "use_box",
		Kind:       gateway.KindCall,
		Args:       useBoxArgs{BoxID: boxID, AmountE8s: amountE8s},
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("stake into box: %w", err)
	}
	return res.Unpack()
}

func (c *Client) Allowance(ctx context.Context) (uint64, error) {
	var res gateway.Result[uint64]
	err := c.caller.Call(ctx, &gateway.Request{
		CanisterID: c.cfg.BackendCanisterID,
		Method:     "get_my_allowance",
		Kind:       gateway.KindCall,
		AuthToken:  c.authToken(),
	}, &res)
	if err != nil {
		return 0, fmt.Errorf("allowance: %w", err)
	}

	allowance, err := res.Unpack()
	if err != nil {
		return 0, err
	}
	return *allowance, nil
}
