package usersig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMalformed          = errors.New("malformed credential")
	ErrUnsupportedVersion = errors.New("unsupported credential version")
	ErrSignatureMismatch  = errors.New("credential signature mismatch")
	ErrExpired            = errors.New("credential expired")
)

// Parse decodes a credential and returns the envelope it carries. The
// signature is not checked.
func Parse(credential string) (*Envelope, error) {
	payload, err := Decode(credential)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrMalformed, err)
	}
	if env.Version != Version {
		return &env, fmt.Errorf("%w: %q", ErrUnsupportedVersion, env.Version)
	}
	return &env, nil
}

// Verify parses credential, checks its signature against key and makes sure
// it is still valid at now. The envelope is returned along with any
// verification error so callers can inspect rejected credentials.
func Verify(credential string, key []byte, now time.Time) (*Envelope, error) {
	env, err := Parse(credential)
	if err != nil {
		return env, err
	}
	if !env.ValidSignature(key) {
		return env, ErrSignatureMismatch
	}
	if now.Unix() > env.ExpiresAt() {
		return env, fmt.Errorf("%w at %s", ErrExpired, time.Unix(env.ExpiresAt(), 0).UTC().Format(time.RFC3339))
	}
	return env, nil
}

// Generate signs and encodes a credential in one step.
func Generate(enc Encoder, identifier string, appID int64, key []byte, issueTime time.Time, expire int64) (string, Envelope, error) {
	env := NewEnvelope(identifier, appID, issueTime.Unix(), expire, key)
	credential, err := enc.EncodeEnvelope(env)
	if err != nil {
		return "", env, err
	}
	return credential, env, nil
}
