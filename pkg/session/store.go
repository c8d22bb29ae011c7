// Package session holds the process-wide session state: the current identity,
// the cached user profile and balance, and the derived classification. The
// mutation surface is methods only; consumers observe snapshots through
// subscriptions.
package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Baiumka/miner-client/internal/metrics"
	"github.com/Baiumka/miner-client/pkg/icsdk/backend"
	"github.com/Baiumka/miner-client/pkg/icsdk/identity"
)

// Classification is the derived session state.
type Classification string

const (
	// Loading holds until the initial restore has run.
	Loading Classification = "loading"
	// Unauthenticated means no identity is present.
	Unauthenticated Classification = "unauthenticated"
	// Unregistered means an identity is present but the principal has no
	// backend profile yet.
	Unregistered Classification = "authenticated_unregistered"
	// Registered means identity and profile are both present.
	Registered Classification = "authenticated_registered"
)

// ErrSessionBusy rejects a second adopt while one is in flight.
var ErrSessionBusy = errors.New("session adoption already in progress")

// classify is the single derivation of the classification. Nothing else in
// the store, or outside it, sets classification by hand.
func classify(restored bool, id *identity.Identity, profile *backend.UserProfile) Classification {
	switch {
	case !restored:
		return Loading
	case id == nil:
		return Unauthenticated
	case profile == nil:
		return Unregistered
	default:
		return Registered
	}
}

// Snapshot is the read-only view handed to subscribers.
type Snapshot struct {
	Classification Classification
	Principal      string
	Nickname       string
	BalanceE8s     uint64
	BalanceStale   bool
}

// Store is the session store. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	restored bool
	identity *identity.Identity
	profile  *backend.UserProfile

	balanceE8s   uint64
	balanceStale bool

	adopting bool
	// pending is the identity being adopted, staged so its credential is
	// usable for the adopt's own backend and ledger calls.
	pending *identity.Identity
	// epoch is bumped by Clear so an adopt that was in flight when the user
	// logged out discards its result on commit.
	epoch uint64

	subs    map[int]func(Snapshot)
	nextSub int

	logger *zap.Logger
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets a custom logger for the store.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store in the Loading state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		subs:   make(map[int]func(Snapshot)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Subscribe registers an observer invoked after every state change. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current read-only view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Classification: classify(s.restored, s.identity, s.profile),
		BalanceE8s:     s.balanceE8s,
		BalanceStale:   s.balanceStale,
	}
	if s.identity != nil {
		snap.Principal = s.identity.Principal
	}
	if s.profile != nil {
		snap.Nickname = s.profile.Nickname
	}
	return snap
}

// notifyLocked snapshots state and subscriber list under the lock, then
// delivers outside it so observers may call back into the store.
func (s *Store) notifyLocked() func() {
	snap := s.snapshotLocked()
	metrics.SetSessionClassification(string(snap.Classification))
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// Identity returns the current identity, or nil.
func (s *Store) Identity() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Token returns the current delegation credential, or "" when logged out.
// While an adopt is in flight the pending identity's credential wins, so the
// adopt's own profile and balance queries authenticate as the new principal.
// Matches the SDK clients' TokenSource signature.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adopting && s.pending != nil {
		return s.pending.Delegation
	}
	if s.identity == nil {
		return ""
	}
	return s.identity.Delegation
}

// FinishRestore marks the initial restore as complete. With no identity
// adopted this is the fast unauthenticated path.
func (s *Store) FinishRestore() Classification {
	s.mu.Lock()
	s.restored = true
	notify := s.notifyLocked()
	c := classify(s.restored, s.identity, s.profile)
	s.mu.Unlock()

	notify()
	return c
}

// BeginAdopt reserves the store for one identity adoption and returns the
// epoch the eventual commit must present. A second call while one adoption is
// pending fails with ErrSessionBusy.
func (s *Store) BeginAdopt(id *identity.Identity) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adopting {
		return 0, ErrSessionBusy
	}
	s.adopting = true
	s.pending = id
	return s.epoch, nil
}

// CommitAdopt installs identity, profile and balance as a single observable
// update. A commit whose epoch predates a Clear is discarded; the store stays
// in whatever state the Clear left it.
func (s *Store) CommitAdopt(epoch uint64, id *identity.Identity, profile *backend.UserProfile, balanceE8s uint64) Classification {
	s.mu.Lock()
	if epoch != s.epoch {
		s.adopting = false
		s.pending = nil
		c := classify(s.restored, s.identity, s.profile)
		s.mu.Unlock()
		s.logger.Info("discarding session adopted after logout")
		return c
	}

	s.adopting = false
	s.pending = nil
	s.restored = true
	s.identity = id
	s.profile = profile
	s.balanceE8s = balanceE8s
	s.balanceStale = false
	notify := s.notifyLocked()
	c := classify(s.restored, s.identity, s.profile)
	s.mu.Unlock()

	notify()
	return c
}

// AbortAdopt releases the adoption reservation without changing state.
func (s *Store) AbortAdopt(epoch uint64) {
	s.mu.Lock()
	if epoch == s.epoch {
		s.adopting = false
		s.pending = nil
	}
	s.mu.Unlock()
}

// SetProfile replaces the cached profile, e.g. after registration.
func (s *Store) SetProfile(profile *backend.UserProfile) Classification {
	s.mu.Lock()
	s.profile = profile
	notify := s.notifyLocked()
	c := classify(s.restored, s.identity, s.profile)
	s.mu.Unlock()

	notify()
	return c
}

// SetBalance records a fresh ledger balance. Balance is its own writer group;
// it never touches identity or profile.
func (s *Store) SetBalance(e8s uint64) {
	s.mu.Lock()
	s.balanceE8s = e8s
	s.balanceStale = false
	notify := s.notifyLocked()
	s.mu.Unlock()

	notify()
}

// MarkBalanceStale flags the cached balance as possibly outdated after a
// failed reconcile. The last known value is kept.
func (s *Store) MarkBalanceStale() {
	s.mu.Lock()
	s.balanceStale = true
	notify := s.notifyLocked()
	s.mu.Unlock()

	notify()
}

// Clear resets the store to the unauthenticated state. Callable mid-adopt;
// the epoch bump makes the in-flight adopt discard its result.
func (s *Store) Clear() Classification {
	s.mu.Lock()
	s.epoch++
	s.adopting = false
	s.pending = nil
	s.restored = true
	s.identity = nil
	s.profile = nil
	s.balanceE8s = 0
	s.balanceStale = false
	notify := s.notifyLocked()
	c := classify(s.restored, s.identity, s.profile)
	s.mu.Unlock()

	notify()
	return c
}
