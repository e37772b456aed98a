package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
)

// Fingerprinter derives a non-reversible identifier for a credential so it can
// be correlated in logs without storing the credential itself.
type Fingerprinter func(credential string) string

const (
	DefaultFingerprintType = "default"
	UserSigFingerprintType = "usersig"
	AdminFingerprintType   = "admin_jwt"
)

var (
	fingerprintMu       sync.RWMutex
	fingerprintRegistry = map[string]Fingerprinter{
		DefaultFingerprintType: func(_ string) string {
			return "(n/a)"
		},
	}
)

func RegisterFingerprinter(credentialType string, fn Fingerprinter) {
	fingerprintMu.Lock()
	defer fingerprintMu.Unlock()
	fingerprintRegistry[credentialType] = fn
}

// CalculateFingerprint fingerprints credential with the fingerprinter
// registered for credentialType, falling back to the default one.
func CalculateFingerprint(credentialType, credential string) string {
	fingerprintMu.RLock()
	fn, ok := fingerprintRegistry[credentialType]
	if !ok {
		fn = fingerprintRegistry[DefaultFingerprintType]
	}
	fingerprintMu.RUnlock()
	return fn(credential)
}

func init() {
	RegisterFingerprinter(UserSigFingerprintType, sha256Fingerprint)
	RegisterFingerprinter(AdminFingerprintType, sha256Fingerprint)
}

func sha256Fingerprint(credential string) string {
	hash := sha256.Sum256([]byte(credential))
	return base64.StdEncoding.EncodeToString(hash[:])
}
