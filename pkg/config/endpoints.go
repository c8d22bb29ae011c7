package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Endpoints describes the per-network service endpoints. Deployments that
// run their own gateway or canisters ship an endpoints file next to the
// config; the defaults match a stock local replica.
type Endpoints struct {
	GatewayURL         string `yaml:"gateway_url" default:"http://127.0.0.1:4943" validate:"required,url"`
	LedgerCanisterID   string `yaml:"ledger_canister_id" validate:"required"`
	BackendCanisterID  string `yaml:"backend_canister_id" validate:"required"`
	ProviderCanisterID string `yaml:"provider_canister_id"`
}

// LoadEndpoints reads an endpoints YAML file, applies defaults and validates
// the result.
func LoadEndpoints(path string) (*Endpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file: %w", err)
	}

	var eps Endpoints
	if err := defaults.Set(&eps); err != nil {
		return nil, fmt.Errorf("failed to apply endpoint defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &eps); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints file: %w", err)
	}

	if err := validator.New().Struct(&eps); err != nil {
		return nil, fmt.Errorf("endpoints validation failed: %w", err)
	}

	return &eps, nil
}

// ApplyEndpoints overrides the network section with values from an endpoints
// file. Called by the CLI when network.endpoints_file is set.
func (c *Config) ApplyEndpoints(eps *Endpoints) {
	c.Network.GatewayURL = eps.GatewayURL
	c.Network.LedgerCanisterID = eps.LedgerCanisterID
	c.Network.BackendCanisterID = eps.BackendCanisterID
	if eps.ProviderCanisterID != "" {
		c.Identity.ProviderCanisterID = eps.ProviderCanisterID
	}
}
