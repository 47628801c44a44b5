// Package auth implements the capability check for admin mutations and the
// verifiers for delegated calls. Delegated verification comes in two
// flavors: direct ed25519 signature recovery for plain keypairs, and a
// callback round trip for programmatic principals that cannot sign. Both
// consume the principal's next nonce on success.
package auth

import (
	"context"

	"lendhub/core"
)

type allowlistAuthorizer struct {
	admins map[string]bool
}

// NewAuthorizer admins may call every admin operation
func NewAuthorizer(admins []string) core.IAuthorizer {
	set := make(map[string]bool, len(admins))
	for _, a := range admins {
		set[a] = true
	}
	return &allowlistAuthorizer{admins: set}
}

func (a *allowlistAuthorizer) Allowed(_ context.Context, caller, _ string) bool {
	return a.admins[caller]
}
