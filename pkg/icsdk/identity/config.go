package identity

import (
	"errors"
	"time"
)

// Config contains the configuration required to initialize the identity
// gateway.
type Config struct {
	// Network is the deployment network login targets.
	Network Network
	// ProviderCanisterID is the identity provider canister, required on the
	// local network.
	ProviderCanisterID string
	// CallbackAddr is the local address the login callback server binds to.
	CallbackAddr string
	// LoginTimeout bounds how long a login waits for the provider callback.
	LoginTimeout time.Duration
	// CredentialFile is where the encrypted delegation is persisted.
	CredentialFile string
	// UserAgentHint feeds provider endpoint resolution on the local network.
	UserAgentHint string
}

const defaultLoginTimeout = 5 * time.Minute

func (c *Config) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.Network != NetworkLocal && c.Network != NetworkIC {
		return errors.New("network must be local or ic")
	}
	if c.Network == NetworkLocal && c.ProviderCanisterID == "" {
		return errors.New("provider_canister_id is required on the local network")
	}
	if c.CallbackAddr == "" {
		return errors.New("callback_addr is required")
	}
	if c.CredentialFile == "" {
		return errors.New("credential_file is required")
	}
	return nil
}

func (c *Config) loginTimeout() time.Duration {
	if c.LoginTimeout <= 0 {
		return defaultLoginTimeout
	}
	return c.LoginTimeout
}
