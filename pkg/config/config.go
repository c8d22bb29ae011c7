package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the client configuration
type Config struct {
	Network     NetworkConfig     `mapstructure:"network"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Transaction TransactionConfig `mapstructure:"transaction"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// MetricsConfig exposes the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// NetworkConfig selects the deployment network and the canister gateway
type NetworkConfig struct {
	// Name is "local" or "ic"
	Name string `mapstructure:"name"`
	// GatewayURL is the HTTP canister gateway the ledger and backend clients talk to
	GatewayURL string `mapstructure:"gateway_url"`
	// LedgerCanisterID is the token ledger canister
	LedgerCanisterID string `mapstructure:"ledger_canister_id"`
	// BackendCanisterID is the miner-box backend canister
	BackendCanisterID string `mapstructure:"backend_canister_id"`
	// EndpointsFile optionally overrides per-network endpoints (see endpoints.go)
	EndpointsFile string `mapstructure:"endpoints_file"`
}

// IdentityConfig contains identity-provider and credential-store settings
type IdentityConfig struct {
	ProviderCanisterID string        `mapstructure:"provider_canister_id"`
	CallbackAddr       string        `mapstructure:"callback_addr"`
	LoginTimeout       time.Duration `mapstructure:"login_timeout"`
	CredentialFile     string        `mapstructure:"credential_file"`
	UserAgentHint      string        `mapstructure:"user_agent_hint"`
}

// TransactionConfig contains the approve-then-spend protocol settings.
// Amounts are in e8s (1 token = 100_000_000 e8s).
type TransactionConfig struct {
	// ApproveFeeBufferE8s is added to every approval so the ledger's debit
	// fee never leaves the allowance short.
	ApproveFeeBufferE8s uint64 `mapstructure:"approve_fee_buffer_e8s"`
	MinBoxCostE8s       uint64 `mapstructure:"min_box_cost_e8s"`
	MinStakeE8s         uint64 `mapstructure:"min_stake_e8s"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Network defaults
	viper.SetDefault("network.name", "local")
	viper.SetDefault("network.gateway_url", "http://127.0.0.1:4943")

	// Identity defaults
	viper.SetDefault("identity.callback_addr", "127.0.0.1:8914")
	viper.SetDefault("identity.login_timeout", "5m")
	viper.SetDefault("identity.credential_file", ".miner-client/credential")

	// Transaction defaults mirror the ledger's 10_000 e8s fee, the 5 token
	// minimum box prize and the 0.05 token minimum stake.
	viper.SetDefault("transaction.approve_fee_buffer_e8s", 10_000)
	viper.SetDefault("transaction.min_box_cost_e8s", 500_000_000)
	viper.SetDefault("transaction.min_stake_e8s", 5_000_000)

	// Metrics are off unless an address is configured
	viper.SetDefault("metrics.addr", "")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Network.Name != "local" && config.Network.Name != "ic" {
		return fmt.Errorf("network.name must be \"local\" or \"ic\"")
	}
	if config.Network.GatewayURL == "" {
		return fmt.Errorf("network.gateway_url is required")
	}
	if config.Network.LedgerCanisterID == "" {
		return fmt.Errorf("network.ledger_canister_id is required")
	}
	if config.Network.BackendCanisterID == "" {
		return fmt.Errorf("network.backend_canister_id is required")
	}
	if config.Network.Name == "local" && config.Identity.ProviderCanisterID == "" {
		return fmt.Errorf("identity.provider_canister_id is required on the local network")
	}
	if config.Transaction.MinStakeE8s == 0 || config.Transaction.MinBoxCostE8s == 0 {
		return fmt.Errorf("transaction minimums must be positive")
	}
	return nil
}
