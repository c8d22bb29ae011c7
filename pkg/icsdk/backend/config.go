package backend

import "errors"

// Config contains the configuration required to initialize the backend client.
type Config struct {
	// BackendCanisterID is the miner-box application canister.
	BackendCanisterID string
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.BackendCanisterID == "" {
		return errors.New("backend_canister_id is required")
	}
	return nil
}
