package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/policy"
	"github.com/darmiel/callsign/internal/usersig"
)

const (
	DefaultAppIDEnv     = "CALLSIGN_SDK_APP_ID"
	DefaultSecretKeyEnv = "CALLSIGN_SECRET_KEY"
	DefaultAdminKeyEnv  = "CALLSIGN_ADMIN_KEY"

	DefaultPruneInterval = 15 * time.Minute
)

type Config struct {
	Signing   SigningConfig  `yaml:"signing"`
	Identity  IdentityConfig `yaml:"identity"`
	Issuers   []IssuerConfig `yaml:"issuers"`
	Admission []policy.Rule  `yaml:"admission"`
	Audit     AuditConfig    `yaml:"audit"`
	Admin     AdminConfig    `yaml:"admin"`
	CORS      CORSConfig     `yaml:"cors"`
	Tasks     TasksConfig    `yaml:"tasks"`
}

// SigningConfig holds the call service application and its secret key.
// Secrets should be provided through the environment variables named here
// rather than inline.
type SigningConfig struct {
	// AppID is the call service application ID (SDKAppID).
	AppID int64 `yaml:"sdk_app_id"`

	// AppIDEnv names the environment variable holding the application ID.
	// It is only consulted if AppID is not set.
	AppIDEnv string `yaml:"sdk_app_id_env"`

	// SecretKey is the signing key. Prefer SecretKeyEnv.
	SecretKey string `yaml:"secret_key"`

	// SecretKeyEnv names the environment variable holding the signing key.
	SecretKeyEnv string `yaml:"secret_key_env"`

	// Expire is the credential validity in seconds.
	Expire int64 `yaml:"expire"`

	// Compression is the DEFLATE framing, "zlib" (default) or "raw".
	Compression usersig.Compression `yaml:"compression"`
}

var _ core.KeySource = SigningConfig{}

// SigningKey resolves the application ID and signing key. The environment is
// read on every call.
func (c SigningConfig) SigningKey(_ context.Context) (core.SigningKey, error) {
	var missing []string

	appID := c.AppID
	if appID == 0 {
		envName := c.AppIDEnv
		if envName == "" {
			envName = DefaultAppIDEnv
		}
		if raw := strings.TrimSpace(os.Getenv(envName)); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return core.SigningKey{}, fmt.Errorf("%w: %s is not an integer", core.ErrSigningKeyMissing, envName)
			}
			appID = v
		}
	}
	if appID <= 0 {
		missing = append(missing, "sdk_app_id")
	}

	secret := c.SecretKey
	if secret == "" {
		envName := c.SecretKeyEnv
		if envName == "" {
			envName = DefaultSecretKeyEnv
		}
		secret = os.Getenv(envName)
	}
	if secret == "" {
		missing = append(missing, "secret_key")
	}

	if len(missing) > 0 {
		return core.SigningKey{}, fmt.Errorf("%w: missing %s", core.ErrSigningKeyMissing, strings.Join(missing, ", "))
	}
	return core.SigningKey{AppID: appID, Secret: []byte(secret)}, nil
}

func (c SigningConfig) ExpireOrDefault() int64 {
	if c.Expire <= 0 {
		return usersig.DefaultExpire
	}
	return c.Expire
}

func (c SigningConfig) Encoder() usersig.Encoder {
	compression := c.Compression
	if compression == "" {
		compression = usersig.CompressionZlib
	}
	return usersig.NewEncoder(compression)
}

func (c SigningConfig) Validate() error {
	if c.Expire < 0 {
		return fmt.Errorf("expire must not be negative")
	}
	if c.Compression != "" && !c.Compression.IsValid() {
		return fmt.Errorf("unknown compression %q (expected zlib or raw)", c.Compression)
	}
	return nil
}

// IdentityConfig controls how callers are verified.
type IdentityConfig struct {
	// Timeout bounds a single verification with the identity provider.
	Timeout time.Duration `yaml:"timeout"`

	// DefaultIssuer is used when a token cannot be matched to an issuer by its
	// "iss" claim (e.g. opaque session tokens).
	DefaultIssuer string `yaml:"default_issuer"`

	// StrictIdentifiers rejects already converted identifiers and requires
	// clients to send their raw account identifier.
	StrictIdentifiers bool `yaml:"strict_identifiers"`
}

// IssuerConfig holds configuration for an identity provider.
// All keys besides name and type are kept in Config.
type IssuerConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"` // e.g., "remote", "jwt", "oidc", "static"
	Config map[string]any `yaml:"-"`
}

func (c *IssuerConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	name, _ := raw["name"].(string)
	typ, _ := raw["type"].(string)
	delete(raw, "name")
	delete(raw, "type")

	c.Name = name
	c.Type = typ
	c.Config = raw
	return nil
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

// AdminConfig configures access to the admin API.
type AdminConfig struct {
	// SigningKey verifies admin session JWTs (HS256). Prefer SigningKeyEnv.
	SigningKey string `yaml:"signing_key"`

	// SigningKeyEnv names the environment variable holding the admin key.
	SigningKeyEnv string `yaml:"signing_key_env"`
}

// Key resolves the admin signing key. An empty key disables the admin API.
func (c AdminConfig) Key() []byte {
	if c.SigningKey != "" {
		return []byte(c.SigningKey)
	}
	envName := c.SigningKeyEnv
	if envName == "" {
		envName = DefaultAdminKeyEnv
	}
	return []byte(os.Getenv(envName))
}

type CORSConfig struct {
	AllowOrigin  string `yaml:"allow_origin"`
	AllowHeaders string `yaml:"allow_headers"`
}

type TasksConfig struct {
	// PruneInterval controls how often expired credential records are removed.
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Signing.Validate(); err != nil {
		return fmt.Errorf("validating signing: %w", err)
	}
	if c.Identity.Timeout < 0 {
		return errors.New("identity.timeout must not be negative")
	}

	if len(c.Issuers) == 0 {
		return errors.New("at least one issuer is required")
	}
	validIssuers := make(map[string]struct{})
	for idx, i := range c.Issuers {
		if i.Name == "" {
			return fmt.Errorf("issuer at index %d has empty name", idx)
		}
		if i.Type == "" {
			return fmt.Errorf("issuer '%s' has empty type", i.Name)
		}
		if _, dup := validIssuers[i.Name]; dup {
			return fmt.Errorf("issuer name '%s' is not unique", i.Name)
		}
		validIssuers[i.Name] = struct{}{}
	}
	if c.Identity.DefaultIssuer != "" {
		if _, ok := validIssuers[c.Identity.DefaultIssuer]; !ok {
			return fmt.Errorf("identity.default_issuer references unknown issuer '%s'", c.Identity.DefaultIssuer)
		}
	}

	for _, rule := range c.Admission {
		if rule.Issuer == "" {
			continue
		}
		if _, ok := validIssuers[rule.Issuer]; !ok {
			return fmt.Errorf("admission rule '%s' references unknown issuer '%s'", rule.Name, rule.Issuer)
		}
	}
	// compile once here to report expression errors early
	if _, err := policy.Compile(c.Admission); err != nil {
		return fmt.Errorf("validating admission rules: %w", err)
	}

	switch c.Audit.Type {
	case "", "memory", "noop":
	case "file":
		if c.Audit.Enabled && c.Audit.Path == "" {
			return errors.New("audit.path is required for file auditing")
		}
	default:
		return fmt.Errorf("unknown audit type %q", c.Audit.Type)
	}

	return nil
}

// PruneInterval returns the configured interval or the default.
func (c TasksConfig) PruneIntervalOrDefault() time.Duration {
	if c.PruneInterval <= 0 {
		return DefaultPruneInterval
	}
	return c.PruneInterval
}
