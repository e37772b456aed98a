package issuers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/darmiel/callsign/internal/buildinfo"
	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
)

const (
	defaultRemoteIDField = "id"
	maxUserResponseSize  = 1 << 20
)

// ErrSessionRejected is returned if the identity provider does not accept the
// session token.
var ErrSessionRejected = errors.New("session rejected by identity provider")

type remoteSettings struct {
	// UserURL is requested with the caller's bearer token and returns the
	// user the session belongs to, e.g. https://<project>.supabase.co/auth/v1/user
	UserURL   string `yaml:"user_url"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`

	// IDField is the field of the user object holding the account identifier.
	IDField string `yaml:"id_field"`
}

// RemoteIssuer verifies opaque session tokens by asking the identity
// provider who they belong to.
type RemoteIssuer struct {
	name    string
	userURL string
	apiKey  string
	idField string
	client  *http.Client
}

func NewRemoteIssuer(cfg config.IssuerConfig) (*RemoteIssuer, error) {
	var s remoteSettings
	if err := decodeConfig(cfg.Config, &s); err != nil {
		return nil, err
	}
	if s.UserURL == "" {
		return nil, fmt.Errorf("remote issuer '%s' missing 'user_url'", cfg.Name)
	}
	if s.IDField == "" {
		s.IDField = defaultRemoteIDField
	}
	return &RemoteIssuer{
		name:    cfg.Name,
		userURL: s.UserURL,
		apiKey:  secretValue(s.APIKey, s.APIKeyEnv),
		idField: s.IDField,
		client: &http.Client{
			// the service bounds each verification with the request context
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (r *RemoteIssuer) Name() string {
	return r.name
}

func (r *RemoteIssuer) Verify(ctx context.Context, token string) (*core.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting user: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUserResponseSize))
		return nil, fmt.Errorf("%w: status %d", ErrSessionRejected, resp.StatusCode)
	}

	var user map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserResponseSize)).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	id, ok := user[r.idField].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("user response has no string field '%s'", r.idField)
	}

	return &core.Principal{
		ID:         id,
		Issuer:     r.name,
		Attributes: user,
	}, nil
}
