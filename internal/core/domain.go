package core

import "time"

// Principal represents the authenticated identity of the caller.
// It is produced by an Issuer after verifying the caller's session token.
type Principal struct {
	// ID is the stable account identifier assigned by the identity provider
	// (e.g. the "sub" claim or the user id of a session lookup).
	ID string `json:"id"`
	// Issuer is the name of the configured issuer that verified this principal.
	Issuer string `json:"issuer"`
	// Attributes are the claims or profile fields returned by the identity provider.
	Attributes map[string]any `json:"attributes,omitempty"`
}

// CredentialRequest asks for a call credential for RequestedIdentifier on
// behalf of the verified CallerIdentity.
type CredentialRequest struct {
	// RequestedIdentifier is either a raw account identifier or an already
	// converted service identifier, as sent by the client.
	RequestedIdentifier string

	// Caller is the verified principal making the request.
	Caller *Principal
}

// IssuedCredential is the result of a successful issue operation.
type IssuedCredential struct {
	// Identifier is the service identifier the credential was signed for.
	Identifier string `json:"userID"`

	// AppID is the call service application the credential is bound to.
	AppID int64 `json:"sdkAppID"`

	// Credential is the opaque signed token ("UserSig").
	Credential string `json:"userSig"`

	// ExpireTime is the unix second at which the credential stops being valid.
	ExpireTime int64 `json:"expireTime"`

	// IssuedAt is the signing time.
	IssuedAt time.Time `json:"generatedAt"`

	// CallerAccountID is the account identifier of the principal that requested it.
	CallerAccountID string `json:"originalAccountId"`

	// Fingerprint identifies the credential in audit logs without revealing it.
	Fingerprint string `json:"-"`
}
