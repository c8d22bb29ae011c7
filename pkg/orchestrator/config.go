package orchestrator

import "errors"

// Config contains the configuration required to initialize the orchestrator.
// Amounts are in e8s.
type Config struct {
	// BackendPrincipal is the spender account the approval grants to.
	BackendPrincipal string
	// ApproveFeeBufferE8s is added on top of every approved amount so the
	// ledger's debit fee never leaves the allowance short.
	ApproveFeeBufferE8s uint64
	// MinBoxCostE8s is the smallest accepted box prize.
	MinBoxCostE8s uint64
	// MinStakeE8s is the smallest accepted stake.
	MinStakeE8s uint64
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.BackendPrincipal == "" {
		return errors.New("backend_principal is required")
	}
	if c.MinBoxCostE8s == 0 || c.MinStakeE8s == 0 {
		return errors.New("minimum amounts must be positive")
	}
	return nil
}
