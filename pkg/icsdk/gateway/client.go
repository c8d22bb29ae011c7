// Package gateway implements the JSON-over-HTTP transport to the canister
// gateway. The ledger and backend clients are thin method layers on top of
// this package.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallKind distinguishes read-only queries from state-changing calls.
type CallKind string

const (
	KindQuery CallKind = "query"
	KindCall  CallKind = "call"
)

// ErrUnreachable indicates the gateway itself could not be reached.
var ErrUnreachable = errors.New("canister gateway unreachable")

// Request describes a single canister method invocation.
type Request struct {
	CanisterID string
	Method     string
	Kind       CallKind
	Args       any

	// AuthToken, when set, is sent as a bearer credential so the gateway can
	// attribute the call to the logged-in principal.
	AuthToken string
}

// Caller is the transport interface the SDK clients depend on.
type Caller interface {
	// Call invokes a canister method and decodes the response body into out.
	Call(ctx context.Context, req *Request, out any) error
}

// Client implements Caller over HTTP.
type Client struct {
	cfg    *Config
	httpc  *http.Client
	logger *zap.Logger
}

// New creates a new gateway client.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := applyOptions(opts)
	return &Client{cfg: cfg, httpc: s.httpc, logger: s.logger}, nil
}

func (c *Client) Call(ctx context.Context, req *Request, out any) error {
	if req.CanisterID == "" || req.Method == "" {
		return fmt.Errorf("canister id and method are required")
	}
	kind := req.Kind
	if kind == "" {
		kind = KindCall
	}

	body, err := json.Marshal(req.Args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.requestTimeout())
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/canister/%s/%s/%s", c.cfg.BaseURL, req.CanisterID, kind, req.Method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if req.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, req.CanisterID, req.Method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("canister call failed",
			zap.String("canister_id", req.CanisterID),
			zap.String("method", req.Method),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("canister %s.%s: gateway returned %d: %s",
			req.CanisterID, req.Method, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s.%s response: %w", req.CanisterID, req.Method, err)
	}
	return nil
}

// Result is the canonical Ok/Err envelope canister methods respond with.
// Exactly one of the two fields is set.
type Result[T any] struct {
	Ok  *T      `json:"Ok,omitempty"`
	Err *string `json:"Err,omitempty"`
}

// Unpack returns the Ok value, or the Err text as an error, unmodified.
func (r *Result[T]) Unpack() (*T, error) {
	if r.Err != nil {
		return nil, errors.New(*r.Err)
	}
	if r.Ok == nil {
		return nil, errors.New("malformed result: neither Ok nor Err set")
	}
	return r.Ok, nil
}
