package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/audit"
	"github.com/darmiel/callsign/internal/cliconfig"
	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/issuers"
	"github.com/darmiel/callsign/internal/policy"
	"github.com/darmiel/callsign/internal/service"
	"github.com/darmiel/callsign/internal/store"
	"github.com/darmiel/callsign/pkg/client"
)

const (
	AdminTokenEnv   = "CALLSIGN_TOKEN"
	SessionTokenEnv = "CALLSIGN_SESSION_TOKEN"
)

type Factory struct {
	// RemoteAddr is the address of the Callsign server to connect to.
	RemoteAddr string

	// ConfigPath is the server configuration (signing, issuers, admission).
	ConfigPath string
}

func NewFactory() *Factory {
	return &Factory{}
}

// GetClient returns an HTTP client for remote operations, authenticated with
// the saved or exported admin token.
func (f *Factory) GetClient() (*client.Client, error) {
	server, err := f.serverAddr()
	if err != nil {
		return nil, err
	}

	var token string
	if cred := f.savedCredential(server); cred != nil { // token prio 1: saved credential
		token = cred.AdminToken
	}
	if envToken := os.Getenv(AdminTokenEnv); envToken != "" { // token prio 2: env var
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}

// SessionToken resolves the identity provider session used to request
// credentials. An explicit value wins over the environment and saved sessions.
func (f *Factory) SessionToken(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(SessionTokenEnv); env != "" {
		return env, nil
	}
	if server, err := f.serverAddr(); err == nil {
		if cred := f.savedCredential(server); cred != nil && cred.SessionToken != "" {
			return cred.SessionToken, nil
		}
	}
	return "", fmt.Errorf("no session token (use --session, set %s or run 'callsign login --session')", SessionTokenEnv)
}

func (f *Factory) serverAddr() (string, error) {
	if f.RemoteAddr == "" {
		return "", fmt.Errorf("server address not configured (use --server or set CALLSIGN_ADDR)")
	}
	return f.RemoteAddr, nil
}

func (f *Factory) savedCredential(server string) *cliconfig.Credential {
	cfg, err := cliconfig.Load()
	if err != nil {
		log.Warn().Err(err).Msg("could not load saved credentials")
		return nil
	}
	cred, err := cfg.GetCredential(server)
	if err != nil {
		return nil
	}
	return cred
}

func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("configuration file not specified (use --config or set CALLSIGN_CONFIG)")
	}
	return config.Load(f.ConfigPath)
}

// Components are the wired parts of a running server.
type Components struct {
	Config      *config.Config
	Issuers     *issuers.Registry
	Auditor     core.Auditor
	Store       core.CredentialStore
	Credentials *service.CredentialService
}

// BuildComponents wires the credential service from cfg.
func (f *Factory) BuildComponents(ctx context.Context, cfg *config.Config) (*Components, error) {
	log.Info().Msg("Initializing issuers...")
	issReg, err := issuers.BuildRegistry(ctx, cfg.Issuers, cfg.Identity.DefaultIssuer)
	if err != nil {
		return nil, fmt.Errorf("building issuer registry: %w", err)
	}

	admission, err := policy.Compile(cfg.Admission)
	if err != nil {
		return nil, fmt.Errorf("compiling admission rules: %w", err)
	}
	if admission.Len() > 0 {
		log.Info().Int("rules", admission.Len()).Msg("Admission rules loaded")
	}

	auditor, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("creating auditor: %w", err)
	}

	credentialStore := store.NewInMemoryCredentialStore()

	svc := service.NewCredentialService(issReg, cfg.Signing, auditor, credentialStore, service.Options{
		Expire:            cfg.Signing.ExpireOrDefault(),
		StrictIdentifiers: cfg.Identity.StrictIdentifiers,
		VerifyTimeout:     cfg.Identity.Timeout,
		Encoder:           cfg.Signing.Encoder(),
		Admission:         admission,
	})

	return &Components{
		Config:      cfg,
		Issuers:     issReg,
		Auditor:     auditor,
		Store:       credentialStore,
		Credentials: svc,
	}, nil
}
