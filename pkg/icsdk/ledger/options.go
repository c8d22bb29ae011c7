package ledger

import "go.uber.org/zap"

// TokenSource supplies the current session credential for authenticated
// calls. An empty string means unauthenticated.
type TokenSource func() string

type settings struct {
	logger *zap.Logger
	token  TokenSource
}

// Option configures the ledger client.
type Option func(*settings)

// WithLogger sets a custom logger for the ledger client.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithTokenSource sets the session credential source.
func WithTokenSource(ts TokenSource) Option {
	return func(s *settings) { s.token = ts }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
