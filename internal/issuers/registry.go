package issuers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
)

// ErrUnknownIssuer is returned if a token cannot be matched to an issuer.
var ErrUnknownIssuer = errors.New("unknown issuer")

// Registry holds the configured issuers by name.
type Registry struct {
	issuers       map[string]core.Issuer
	byURL         map[string]string // iss claim -> issuer name
	defaultIssuer string
}

func NewRegistry() *Registry {
	return &Registry{
		issuers: make(map[string]core.Issuer),
		byURL:   make(map[string]string),
	}
}

// Register adds iss to the registry. If issuerURL is not empty, tokens carrying
// it as "iss" claim are routed to iss.
func (r *Registry) Register(iss core.Issuer, issuerURL string) error {
	name := iss.Name()
	if _, exists := r.issuers[name]; exists {
		return fmt.Errorf("issuer '%s' already registered", name)
	}
	if issuerURL != "" {
		if other, exists := r.byURL[issuerURL]; exists {
			return fmt.Errorf("issuer url '%s' used by both '%s' and '%s'", issuerURL, other, name)
		}
		r.byURL[issuerURL] = name
	}
	r.issuers[name] = iss
	return nil
}

// SetDefault sets the issuer used for tokens without a matching "iss" claim.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.issuers[name]; !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownIssuer, name)
	}
	r.defaultIssuer = name
	return nil
}

func (r *Registry) Get(name string) (core.Issuer, bool) {
	iss, ok := r.issuers[name]
	return iss, ok
}

// Names returns the sorted names of all registered issuers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.issuers))
	for name := range r.issuers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.issuers)
}

// IdentifyIssuer picks the issuer responsible for token.
// JWTs are routed by their unverified "iss" claim. Everything else (e.g.
// opaque session tokens) goes to the default issuer, or to the only issuer if
// exactly one is registered.
func (r *Registry) IdentifyIssuer(token string) (core.Issuer, error) {
	if issuerURL, err := ExtractIssuerURL(token); err == nil {
		if name, ok := r.byURL[issuerURL]; ok {
			return r.issuers[name], nil
		}
	}
	if r.defaultIssuer != "" {
		return r.issuers[r.defaultIssuer], nil
	}
	if len(r.issuers) == 1 {
		for _, iss := range r.issuers {
			return iss, nil
		}
	}
	return nil, ErrUnknownIssuer
}

// BuildRegistry creates all issuers from the configuration.
func BuildRegistry(ctx context.Context, cfgs []config.IssuerConfig, defaultIssuer string) (*Registry, error) {
	registry := NewRegistry()
	for _, cfg := range cfgs {
		var (
			iss       core.Issuer
			issuerURL string
			err       error
		)
		switch cfg.Type {
		case "remote":
			iss, err = NewRemoteIssuer(cfg)
		case "jwt":
			var j *JWTIssuer
			j, err = NewJWTIssuer(cfg)
			if err == nil {
				iss, issuerURL = j, j.IssuerURL()
			}
		case "oidc":
			var o *OIDCIssuer
			o, err = NewOIDCIssuer(ctx, cfg)
			if err == nil {
				iss, issuerURL = o, o.IssuerURL()
			}
		case "static":
			iss, err = NewStatic(cfg)
		default:
			return nil, fmt.Errorf("unknown issuer type %q for issuer %q", cfg.Type, cfg.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("building %s issuer %q: %w", cfg.Type, cfg.Name, err)
		}
		if err := registry.Register(iss, issuerURL); err != nil {
			return nil, err
		}
	}
	if defaultIssuer != "" {
		if err := registry.SetDefault(defaultIssuer); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
