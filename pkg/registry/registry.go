// Package registry exposes the time-boxed resource view: the box list is
// always a full re-fetch from the backend, and countdowns are a locally
// derived pure function of the maturity timestamp.
package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/internal/metrics"
	"github.com/Baiumka/miner-client/pkg/icsdk/backend"
)

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock implementation.
func SystemClock() Clock { return systemClock{} }

// BoxLister is the slice of the backend the registry depends on.
type BoxLister interface {
	ListBoxes(ctx context.Context) ([]backend.Box, error)
}

// Registry lists boxes and derives countdowns.
type Registry struct {
	backend  BoxLister
	clock    Clock
	interval time.Duration
	logger   *zap.Logger
}

// Option configures the registry.
type Option func(*Registry)

// WithLogger sets a custom logger for the registry.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides the clock, used by tests.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithWatchInterval overrides the countdown re-evaluation interval.
func WithWatchInterval(d time.Duration) Option {
	return func(r *Registry) { r.interval = d }
}

// New creates a new registry.
func New(lister BoxLister, opts ...Option) (*Registry, error) {
	if lister == nil {
		return nil, fmt.Errorf("nil box lister")
	}
	r := &Registry{
		backend:  lister,
		clock:    systemClock{},
		interval: time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// List re-fetches the full box list. The registry never mutates boxes
// locally; backend truth always wins.
func (r *Registry) List(ctx context.Context) ([]backend.Box, error) {
	boxes, err := r.backend.ListBoxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh box list: %w", err)
	}
	metrics.BoxesListed.Set(float64(len(boxes)))
	r.logger.Debug("box list refreshed", zap.Int("count", len(boxes)))
	return boxes, nil
}

// Remaining is the countdown decomposition of the time left to maturity.
// All components are zero once matured; none is ever negative.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

func (rem Remaining) String() string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", rem.Days, rem.Hours, rem.Minutes, rem.Seconds)
}

// RemainingTime computes the countdown to a nanosecond epoch maturity
// timestamp. Pure: same inputs, same output. The second return is true once
// now has reached the timestamp.
func RemainingTime(maturityNanos uint64, now time.Time) (Remaining, bool) {
	nowNanos := now.UnixNano()
	if nowNanos < 0 || uint64(nowNanos) >= maturityNanos {
		return Remaining{}, true
	}

	left := time.Duration(maturityNanos - uint64(nowNanos))
	return Remaining{
		Days:    int(left / (24 * time.Hour)),
		Hours:   int(left/time.Hour) % 24,
		Minutes: int(left/time.Minute) % 60,
		Seconds: int(left/time.Second) % 60,
	}, false
}

// Watch re-evaluates the countdown at the configured interval (one second by
// default) and invokes fn with each result. It returns when the resource
// matures, after delivering the matured result, or when ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, maturityNanos uint64, fn func(Remaining, bool)) {
	rem, matured := RemainingTime(maturityNanos, r.clock.Now())
	fn(rem, matured)
	if matured {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rem, matured := RemainingTime(maturityNanos, r.clock.Now())
			fn(rem, matured)
			if matured {
				return
			}
		}
	}
}
