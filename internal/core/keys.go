package core

import (
	"context"
	"errors"
)

// ErrSigningKeyMissing is returned by a KeySource that has no usable
// application id or signing key.
var ErrSigningKeyMissing = errors.New("signing configuration incomplete")

// SigningKey is the operator provisioned secret used to sign credentials.
type SigningKey struct {
	AppID  int64
	Secret []byte
}

// String never prints the secret.
func (k SigningKey) String() string {
	return "SigningKey(redacted)"
}

// KeySource provides the signing key for each issue operation.
type KeySource interface {
	SigningKey(ctx context.Context) (SigningKey, error)
}
