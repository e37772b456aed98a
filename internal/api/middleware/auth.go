package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/api/presenter"
	"github.com/darmiel/callsign/internal/audit"
)

const (
	AdminRole     = "admin"
	AdminAudience = "callsign-admin"
)

// AdminClaims are carried by admin session tokens.
type AdminClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AdminAuth only lets requests with a valid HS256 admin session token through.
// An empty signing key disables the admin API.
func AdminAuth(signingKey []byte) func(handler http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AdminAudience),
		jwt.WithExpirationRequired(),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(signingKey) == 0 {
				presenter.Error(w, r, "admin api disabled", http.StatusNotFound)
				return
			}

			tokenStr, ok := BearerToken(r)
			if !ok {
				presenter.Error(w, r, "login required", http.StatusUnauthorized)
				return
			}

			var claims AdminClaims
			if _, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
				return signingKey, nil
			}); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("invalid admin session token")
				presenter.Error(w, r, "invalid session token", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(claims.Roles, AdminRole) {
				presenter.Error(w, r, "insufficient privileges", http.StatusForbidden)
				return
			}

			log.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("admin", claims.Subject).
					Str("admin_token", audit.CalculateFingerprint(audit.AdminFingerprintType, tokenStr))
			})
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token of a "Bearer" Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// NewAdminToken signs an admin session token for subject.
func NewAdminToken(signingKey []byte, subject string, ttl time.Duration) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("admin signing key is empty")
	}
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Roles: []string{AdminRole},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{AdminAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(signingKey)
}
