// Package usersig implements the TLS signature v2 credential format used by
// the call service: an HMAC-SHA256 signed JSON envelope that is compressed and
// encoded into an opaque string.
package usersig

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Version is the envelope format version written to TLS.ver.
	Version = "2.0"

	// DefaultExpire is the validity window of an issued credential (7 days).
	DefaultExpire int64 = 604800
)

// Envelope is the signed payload. Field order matches the order expected by
// the call service's reference implementation.
type Envelope struct {
	Version    string `json:"TLS.ver"`
	Identifier string `json:"TLS.identifier"`
	SDKAppID   int64  `json:"TLS.sdkappid"`
	Expire     int64  `json:"TLS.expire"`
	Time       int64  `json:"TLS.time"`
	Sig        string `json:"TLS.sig"`
}

// Content builds the canonical text that gets signed. The field order and
// the decimal formatting are part of the wire contract.
func Content(identifier string, appID, issueTime, expire int64) string {
	var b strings.Builder
	b.WriteString("TLS.identifier:")
	b.WriteString(identifier)
	b.WriteString("\nTLS.sdkappid:")
	b.WriteString(strconv.FormatInt(appID, 10))
	b.WriteString("\nTLS.time:")
	b.WriteString(strconv.FormatInt(issueTime, 10))
	b.WriteString("\nTLS.expire:")
	b.WriteString(strconv.FormatInt(expire, 10))
	b.WriteString("\n")
	return b.String()
}

// Sign computes the standard base64 encoded HMAC-SHA256 of the canonical
// content using key.
func Sign(identifier string, appID, issueTime, expire int64, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(Content(identifier, appID, issueTime, expire)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewEnvelope signs the given fields and returns the complete envelope.
func NewEnvelope(identifier string, appID, issueTime, expire int64, key []byte) Envelope {
	return Envelope{
		Version:    Version,
		Identifier: identifier,
		SDKAppID:   appID,
		Expire:     expire,
		Time:       issueTime,
		Sig:        Sign(identifier, appID, issueTime, expire, key),
	}
}

// Marshal serializes the envelope as compact JSON without HTML escaping.
func (e Envelope) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	// Encode terminates the document with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// ExpiresAt returns the unix second at which the envelope stops being valid.
func (e Envelope) ExpiresAt() int64 {
	return e.Time + e.Expire
}

// ValidSignature recomputes the signature with key and compares it in
// constant time.
func (e Envelope) ValidSignature(key []byte) bool {
	want := Sign(e.Identifier, e.SDKAppID, e.Time, e.Expire, key)
	return hmac.Equal([]byte(want), []byte(e.Sig))
}
