// Package cliconfig stores per-server tokens for the command line client.
package cliconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

var ErrCredentialNotFound = errors.New("credential not found")

// Credential holds the tokens saved for a server.
type Credential struct {
	// AdminToken authenticates admin API requests.
	AdminToken string `json:"admin_token,omitempty"`

	// SessionToken is an identity provider session used by "request".
	SessionToken string `json:"session_token,omitempty"`
}

type CLIConfig struct {
	Credentials map[string]*Credential `json:"credentials"`
}

// PathEnv overrides the location of the CLI config file.
const PathEnv = "CALLSIGN_CLI_CONFIG"

func GetConfigPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(home, ".callsign", "config.json"), nil
}

// Load reads the CLI config. A missing file yields an empty config.
func Load() (*CLIConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &CLIConfig{Credentials: make(map[string]*Credential)}, nil
		}
		return nil, fmt.Errorf("opening config file '%s': %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var cfg CLIConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file '%s': %w", path, err)
	}
	if cfg.Credentials == nil {
		cfg.Credentials = make(map[string]*Credential)
	}
	return &cfg, nil
}

func Save(cfg *CLIConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory '%s': %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file '%s' for writing: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config to file '%s': %w", path, err)
	}
	return nil
}

func hostOf(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parsing server URL '%s': %w", server, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server URL '%s' has no host", server)
	}
	return u.Host, nil
}

func (c *CLIConfig) GetCredential(server string) (*Credential, error) {
	host, err := hostOf(server)
	if err != nil {
		return nil, err
	}
	cred, ok := c.Credentials[host]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return cred, nil
}

// Update applies fn to the credential of server, creating it if needed.
func (c *CLIConfig) Update(server string, fn func(cred *Credential)) error {
	host, err := hostOf(server)
	if err != nil {
		return err
	}
	cred, ok := c.Credentials[host]
	if !ok {
		cred = &Credential{}
		c.Credentials[host] = cred
	}
	fn(cred)
	return nil
}
