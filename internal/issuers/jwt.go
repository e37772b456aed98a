package issuers

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
)

const defaultIDClaim = "sub"

type jwtSettings struct {
	// Secret is the shared HS256 secret, e.g. the Supabase JWT secret.
	Secret    string `yaml:"secret"`
	SecretEnv string `yaml:"secret_env"`

	// IssuerURL is the expected "iss" claim. It is also used to route tokens
	// to this issuer.
	IssuerURL string `yaml:"issuer_url"`

	// Audience is the expected "aud" claim. Empty skips the check.
	Audience string `yaml:"audience"`

	// IDClaim holds the account identifier. Defaults to "sub".
	IDClaim string `yaml:"id_claim"`

	Leeway time.Duration `yaml:"leeway"`
}

// JWTIssuer verifies HS256 signed session tokens with a shared secret.
type JWTIssuer struct {
	name    string
	secret  []byte
	issuer  string
	idClaim string
	parser  *jwt.Parser
}

func NewJWTIssuer(cfg config.IssuerConfig) (*JWTIssuer, error) {
	var s jwtSettings
	if err := decodeConfig(cfg.Config, &s); err != nil {
		return nil, err
	}
	secret := secretValue(s.Secret, s.SecretEnv)
	if secret == "" {
		return nil, fmt.Errorf("jwt issuer '%s' missing 'secret' or 'secret_env'", cfg.Name)
	}
	if s.IDClaim == "" {
		s.IDClaim = defaultIDClaim
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.Leeway),
	}
	if s.IssuerURL != "" {
		opts = append(opts, jwt.WithIssuer(s.IssuerURL))
	}
	if s.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.Audience))
	}

	return &JWTIssuer{
		name:    cfg.Name,
		secret:  []byte(secret),
		issuer:  s.IssuerURL,
		idClaim: s.IDClaim,
		parser:  jwt.NewParser(opts...),
	}, nil
}

func (j *JWTIssuer) Name() string {
	return j.name
}

// IssuerURL returns the expected "iss" claim, if any.
func (j *JWTIssuer) IssuerURL() string {
	return j.issuer
}

func (j *JWTIssuer) Verify(_ context.Context, token string) (*core.Principal, error) {
	claims := jwt.MapClaims{}
	_, err := j.parser.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt verification failed: %w", err)
	}

	id, ok := claims[j.idClaim].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("token has no string claim '%s'", j.idClaim)
	}

	return &core.Principal{
		ID:         id,
		Issuer:     j.name,
		Attributes: claims,
	}, nil
}
