package core

import "context"

// Issuer verifies session tokens presented by callers.
// Implementations: remote user lookup, shared-secret JWT, OIDC, static.
type Issuer interface {
	// Name returns the identifier of this issuer (as used in config).
	Name() string

	// Verify takes a raw bearer token, validates it, and returns a Principal.
	// A nil principal without error is treated as a failed verification.
	Verify(ctx context.Context, token string) (*Principal, error)
}
