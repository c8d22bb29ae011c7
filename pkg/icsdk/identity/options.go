package identity

import (
	"time"

	"go.uber.org/zap"
)

// Opener surfaces the provider login URL to the user, typically by opening a
// browser or printing the URL.
type Opener func(url string) error

type settings struct {
	logger *zap.Logger
	opener Opener
	now    func() time.Time
}

// Option configures the identity gateway.
type Option func(*settings)

// WithLogger sets a custom logger for the identity gateway.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithOpener sets how the provider login URL is surfaced to the user.
func WithOpener(o Opener) Option {
	return func(s *settings) { s.opener = o }
}

// WithNow overrides the clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
