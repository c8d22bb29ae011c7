package identity

import (
	"fmt"
	"strings"
)

// Network selects which identity provider deployment login talks to.
type Network string

const (
	NetworkLocal Network = "local"
	NetworkIC    Network = "ic"
)

// ProviderEndpoint resolves the identity provider URL. It is a pure function
// of the network, the provider canister id and the user-agent hint.
//
// On the local network, agents that cannot resolve canister subdomains
// (Safari-like) get the query-parameter form; everything else local gets the
// subdomain form. Any non-local network goes to the public provider.
func ProviderEndpoint(network Network, providerCanisterID, userAgentHint string) string {
	if network == NetworkLocal {
		if safariLike(userAgentHint) {
			return fmt.Sprintf("http://localhost:4943/?canisterId=%s", providerCanisterID)
		}
		return fmt.Sprintf("http://%s.localhost:4943", providerCanisterID)
	}
	return "https://identity.ic0.app/#authorize"
}

func safariLike(hint string) bool {
	h := strings.ToLower(hint)
	if !strings.Contains(h, "safari") {
		return false
	}
	return !strings.Contains(h, "chrome") && !strings.Contains(h, "android")
}
