package ledger

import "errors"

// Config contains the configuration required to initialize the ledger client.
type Config struct {
	// LedgerCanisterID is the token ledger canister the client talks to.
	LedgerCanisterID string
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.LedgerCanisterID == "" {
		return errors.New("ledger_canister_id is required")
	}
	return nil
}
