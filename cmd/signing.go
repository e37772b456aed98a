package cmd

import (
	"github.com/spf13/pflag"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/usersig"
)

// signingFlags resolve a signing configuration for local commands. Values of
// the configuration file are overridden by flags.
type signingFlags struct {
	appID       int64
	expire      int64
	compression string
}

func (s *signingFlags) bind(flags *pflag.FlagSet) {
	flags.Int64Var(&s.appID, "app-id", 0, "SDKAppID (default from config or $"+config.DefaultAppIDEnv+")")
	flags.Int64Var(&s.expire, "expire", 0, "validity in seconds (default from config or 604800)")
	flags.StringVar(&s.compression, "compression", "", "deflate framing: zlib or raw")
}

func (s *signingFlags) resolve() (config.SigningConfig, error) {
	var signing config.SigningConfig
	if f.ConfigPath != "" {
		cfg, err := f.LoadConfig()
		if err != nil {
			return signing, err
		}
		signing = cfg.Signing
	}
	if s.appID != 0 {
		signing.AppID = s.appID
	}
	if s.expire != 0 {
		signing.Expire = s.expire
	}
	if s.compression != "" {
		signing.Compression = usersig.Compression(s.compression)
	}
	return signing, signing.Validate()
}
