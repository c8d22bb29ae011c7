// Package identity implements login against the identity provider, session
// restore from the local credential store and logout.
package identity

import (
	"time"

	"github.com/Baiumka/miner-client/pkg/keys"
)

// Identity is an authenticated session: the principal the provider vouched
// for, the delegation credential to attach to canister calls, and the session
// keypair the delegation is bound to.
type Identity struct {
	Principal  string
	Delegation string
	Expiry     time.Time
	SessionKey *keys.SessionKeyPair
}

// Expired reports whether the delegation is no longer usable at the given
// instant.
func (id *Identity) Expired(now time.Time) bool {
	return !now.Before(id.Expiry)
}
