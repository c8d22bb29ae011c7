package gateway

import (
	"errors"
	"net/url"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Config contains the configuration required to initialize the gateway client.
type Config struct {
	// BaseURL is the HTTP canister gateway, e.g. http://127.0.0.1:4943.
	BaseURL string

	// RequestTimeout bounds a single canister call. Zero means the default.
	RequestTimeout time.Duration
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return errors.New("base_url is not a valid URL")
	}
	return nil
}

func (c *Config) requestTimeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return defaultRequestTimeout
}
