package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/policy"
	"github.com/darmiel/callsign/internal/usersig"
)

const exampleConfig = `
signing:
  sdk_app_id: 20026685
  secret_key_env: TEST_CALLSIGN_SECRET
  compression: raw
identity:
  timeout: 3s
  default_issuer: supabase
issuers:
  - name: supabase
    type: remote
    user_url: https://x.supabase.co/auth/v1/user
    api_key_env: SUPABASE_ANON_KEY
  - name: dev
    type: static
    token_map:
      dev-token:
        id: aaaa-bbbb-cccc-dddd
admission:
  - name: verified-email
    issuer: supabase
    expr: 'principal.Attributes["email_confirmed_at"] != nil'
audit:
  enabled: true
  type: memory
cors:
  allow_origin: "*"
tasks:
  prune_interval: 1m
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(exampleConfig))
	require.NoError(t, err)

	assert.Equal(t, int64(20026685), cfg.Signing.AppID)
	assert.Equal(t, usersig.CompressionRaw, cfg.Signing.Compression)
	assert.Equal(t, usersig.DefaultExpire, cfg.Signing.ExpireOrDefault())
	assert.Equal(t, 3*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, time.Minute, cfg.Tasks.PruneIntervalOrDefault())

	require.Len(t, cfg.Issuers, 2)
	assert.Equal(t, "supabase", cfg.Issuers[0].Name)
	assert.Equal(t, "remote", cfg.Issuers[0].Type)
	assert.Equal(t, "https://x.supabase.co/auth/v1/user", cfg.Issuers[0].Config["user_url"])
	assert.NotContains(t, cfg.Issuers[0].Config, "name")
	assert.NotContains(t, cfg.Issuers[0].Config, "type")
	assert.Contains(t, cfg.Issuers[1].Config, "token_map")

	require.Len(t, cfg.Admission, 1)
	assert.Equal(t, "verified-email", cfg.Admission[0].Name)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callsign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Issuers, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Issuers: []IssuerConfig{{Name: "a", Type: "static"}},
		}
	}

	tests := map[string]func(c *Config){
		"No Issuers":             func(c *Config) { c.Issuers = nil },
		"Empty Issuer Name":      func(c *Config) { c.Issuers[0].Name = "" },
		"Empty Issuer Type":      func(c *Config) { c.Issuers[0].Type = "" },
		"Duplicate Issuer":       func(c *Config) { c.Issuers = append(c.Issuers, c.Issuers[0]) },
		"Unknown Default Issuer": func(c *Config) { c.Identity.DefaultIssuer = "b" },
		"Negative Expire":        func(c *Config) { c.Signing.Expire = -1 },
		"Unknown Compression":    func(c *Config) { c.Signing.Compression = "gzip" },
		"Negative Timeout":       func(c *Config) { c.Identity.Timeout = -time.Second },
		"Unknown Audit Type":     func(c *Config) { c.Audit.Type = "kafka" },
		"File Audit Without Path": func(c *Config) {
			c.Audit = AuditConfig{Enabled: true, Type: "file"}
		},
		"Rule With Unknown Issuer": func(c *Config) {
			c.Admission = append(c.Admission, admissionRule("r", "b", "true"))
		},
		"Rule With Broken Expr": func(c *Config) {
			c.Admission = append(c.Admission, admissionRule("r", "", "principal.("))
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("Valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})
}

func TestSigningConfig_SigningKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Inline", func(t *testing.T) {
		key, err := SigningConfig{AppID: 20026685, SecretKey: "test-secret"}.SigningKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(20026685), key.AppID)
		assert.Equal(t, []byte("test-secret"), key.Secret)
	})

	t.Run("Named Env", func(t *testing.T) {
		t.Setenv("TEST_APP_ID", "1400000000")
		t.Setenv("TEST_SECRET", "from-env")
		key, err := SigningConfig{AppIDEnv: "TEST_APP_ID", SecretKeyEnv: "TEST_SECRET"}.SigningKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1400000000), key.AppID)
		assert.Equal(t, []byte("from-env"), key.Secret)
	})

	t.Run("Default Env", func(t *testing.T) {
		t.Setenv(DefaultAppIDEnv, "42")
		t.Setenv(DefaultSecretKeyEnv, "default-env")
		key, err := SigningConfig{}.SigningKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), key.AppID)
	})

	t.Run("Missing Secret", func(t *testing.T) {
		t.Setenv(DefaultSecretKeyEnv, "")
		_, err := SigningConfig{AppID: 1}.SigningKey(ctx)
		assert.ErrorIs(t, err, core.ErrSigningKeyMissing)
	})

	t.Run("Missing App ID", func(t *testing.T) {
		t.Setenv(DefaultAppIDEnv, "")
		_, err := SigningConfig{SecretKey: "x"}.SigningKey(ctx)
		assert.ErrorIs(t, err, core.ErrSigningKeyMissing)
	})

	t.Run("Non Numeric App ID", func(t *testing.T) {
		t.Setenv("TEST_APP_ID", "twenty")
		_, err := SigningConfig{AppIDEnv: "TEST_APP_ID", SecretKey: "x"}.SigningKey(ctx)
		assert.ErrorIs(t, err, core.ErrSigningKeyMissing)
	})

	t.Run("Error Does Not Leak Secret", func(t *testing.T) {
		t.Setenv(DefaultAppIDEnv, "")
		_, err := SigningConfig{SecretKey: "very-secret-value"}.SigningKey(ctx)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "very-secret-value")
	})
}

func TestSigningConfig_Encoder(t *testing.T) {
	assert.Equal(t, usersig.CompressionZlib, SigningConfig{}.Encoder().Compression)
	assert.Equal(t, usersig.CompressionRaw, SigningConfig{Compression: usersig.CompressionRaw}.Encoder().Compression)
}

func TestAdminConfig_Key(t *testing.T) {
	assert.Equal(t, []byte("inline"), AdminConfig{SigningKey: "inline"}.Key())

	t.Setenv(DefaultAdminKeyEnv, "from-env")
	assert.Equal(t, []byte("from-env"), AdminConfig{}.Key())

	t.Setenv("OTHER_ADMIN_KEY", "other")
	assert.Equal(t, []byte("other"), AdminConfig{SigningKeyEnv: "OTHER_ADMIN_KEY"}.Key())
}

func admissionRule(name, issuer, expr string) policy.Rule {
	return policy.Rule{Name: name, Issuer: issuer, Expr: expr}
}
