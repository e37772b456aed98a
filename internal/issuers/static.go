package issuers

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
)

// StaticIssuer maps fixed tokens to principals. Meant for development and
// tests.
type StaticIssuer struct {
	name   string
	tokens map[string]*core.Principal
}

type staticSettings struct {
	// TokenMap maps a token to the attributes of its principal. The "id"
	// attribute is the account identifier and is required.
	TokenMap map[string]map[string]any `yaml:"token_map"`
}

func NewStatic(cfg config.IssuerConfig) (*StaticIssuer, error) {
	var s staticSettings
	if err := decodeConfig(cfg.Config, &s); err != nil {
		return nil, err
	}

	tokens := make(map[string]*core.Principal, len(s.TokenMap))
	for token, attrs := range s.TokenMap {
		id, ok := attrs["id"]
		if !ok {
			return nil, fmt.Errorf("static issuer '%s': token entry missing 'id'", cfg.Name)
		}
		tokens[token] = &core.Principal{
			ID:         fmt.Sprint(id),
			Issuer:     cfg.Name,
			Attributes: attrs,
		}
	}

	return &StaticIssuer{
		name:   cfg.Name,
		tokens: tokens,
	}, nil
}

func (s *StaticIssuer) Name() string {
	return s.name
}

func (s *StaticIssuer) Verify(_ context.Context, token string) (*core.Principal, error) {
	for known, principal := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			p := *principal
			return &p, nil
		}
	}
	return nil, fmt.Errorf("invalid token")
}
