// Package identifier converts account identifiers issued by the identity
// provider into the compact user IDs accepted by the call service.
package identifier

import "strings"

const (
	// ServiceIDLength is the length of a converted service identifier.
	ServiceIDLength = 8

	// MaxServiceIDLength is the longest user ID the call service accepts.
	MaxServiceIDLength = 32
)

// ToServiceID removes all hyphens from accountID and keeps the first
// ServiceIDLength characters. Shorter inputs are returned without hyphens.
//
// The conversion is pure, so applying it to an already converted ID is a no-op.
func ToServiceID(accountID string) string {
	cleaned := strings.ReplaceAll(accountID, "-", "")
	if len(cleaned) > ServiceIDLength {
		return cleaned[:ServiceIDLength]
	}
	return cleaned
}

// IsValidServiceID reports whether id can be used as a call service user ID:
// 1 to 32 characters out of [A-Za-z0-9_].
func IsValidServiceID(id string) bool {
	if len(id) < 1 || len(id) > MaxServiceIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isAlnum(id[i]) && id[i] != '_' {
			return false
		}
	}
	return true
}

// LooksConverted reports whether id has the shape of a converted service ID
// (exactly 8 ASCII letters or digits). This is a classification only: an
// 8 character account ID fragment has the same shape.
func LooksConverted(id string) bool {
	if len(id) != ServiceIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isAlnum(id[i]) {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
