package issuers

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
)

type oidcSettings struct {
	IssuerURL string `yaml:"issuer_url"`
	// ClientID is the expected audience.
	ClientID string `yaml:"client_id"`
	IDClaim  string `yaml:"id_claim"`
}

// OIDCIssuer verifies ID tokens against the provider's discovery document.
type OIDCIssuer struct {
	name      string
	issuerURL string
	idClaim   string
	verifier  *oidc.IDTokenVerifier
}

func NewOIDCIssuer(ctx context.Context, cfg config.IssuerConfig) (*OIDCIssuer, error) {
	var s oidcSettings
	if err := decodeConfig(cfg.Config, &s); err != nil {
		return nil, err
	}
	if s.IssuerURL == "" {
		return nil, fmt.Errorf("oidc issuer '%s' missing 'issuer_url'", cfg.Name)
	}
	if s.ClientID == "" {
		return nil, fmt.Errorf("oidc issuer '%s' missing 'client_id'", cfg.Name)
	}
	if s.IDClaim == "" {
		s.IDClaim = defaultIDClaim
	}

	provider, err := oidc.NewProvider(ctx, s.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("creating oidc provider for issuer '%s': %w", cfg.Name, err)
	}

	return &OIDCIssuer{
		name:      cfg.Name,
		issuerURL: s.IssuerURL,
		idClaim:   s.IDClaim,
		verifier:  provider.Verifier(&oidc.Config{ClientID: s.ClientID}),
	}, nil
}

func (o *OIDCIssuer) Name() string {
	return o.name
}

func (o *OIDCIssuer) IssuerURL() string {
	return o.issuerURL
}

func (o *OIDCIssuer) Verify(ctx context.Context, token string) (*core.Principal, error) {
	idToken, err := o.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("oidc verification failed: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extracting oidc claims: %w", err)
	}

	id, ok := claims[o.idClaim].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("id token has no string claim '%s'", o.idClaim)
	}

	return &core.Principal{
		ID:         id,
		Issuer:     o.name,
		Attributes: claims,
	}, nil
}

// ExtractIssuerURL extracts the 'iss' claim from a JWT token string without verifying it.
func ExtractIssuerURL(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return "", fmt.Errorf("invalid 'iss' claim: %w", err)
	}
	if iss == "" {
		return "", fmt.Errorf("token missing 'iss' claim")
	}
	return iss, nil
}
