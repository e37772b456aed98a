package core

import (
	"context"
	"time"
)

// CredentialRecord describes an issued credential. The credential itself is
// never stored.
type CredentialRecord struct {
	// CorrelationID is the ID of the request that created the credential.
	CorrelationID string `json:"correlation_id"`

	// PrincipalID is the account identifier of the caller.
	PrincipalID string `json:"principal_id"`

	// Issuer is the name of the issuer that verified the caller.
	Issuer string `json:"issuer"`

	// Identifier is the service identifier the credential was signed for.
	Identifier string `json:"identifier"`

	// AppID is the call service application.
	AppID int64 `json:"app_id"`

	// Fingerprint is the credential fingerprint, see audit.CalculateFingerprint.
	Fingerprint string `json:"fingerprint"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialStore keeps track of issued credentials.
type CredentialStore interface {
	// Save records a newly issued credential.
	Save(ctx context.Context, rec CredentialRecord) error

	// ListActive returns records whose credentials have not expired yet.
	ListActive(ctx context.Context) ([]CredentialRecord, error)

	// DeleteExpired removes expired records and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
