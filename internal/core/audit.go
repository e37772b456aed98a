package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "usersig.issue")
	Action string `json:"action"`

	// Principal identifies who made the request
	Principal *Principal `json:"principal"`

	// RequestedIdentifier is the identifier sent by the client
	RequestedIdentifier string `json:"requested_identifier,omitempty"`
	// Identifier is the service identifier a credential was signed for
	Identifier string `json:"identifier,omitempty"`

	// Decision details
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`

	// CredentialFingerprint is a hash of the issued credential
	CredentialFingerprint string `json:"credential_fingerprint,omitempty"`

	// ExpiresAt is the expiry of the issued credential
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
	Close() error
}
