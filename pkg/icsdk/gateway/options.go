package gateway

import (
	"net/http"

	"go.uber.org/zap"
)

type settings struct {
	logger *zap.Logger
	httpc  *http.Client
}

// Option configures the gateway client.
type Option func(*settings)

// WithLogger sets a custom logger for the gateway client.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpc = c }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: zap.NewNop(), httpc: &http.Client{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
