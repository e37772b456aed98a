package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/callsign/internal/buildinfo"
	"github.com/darmiel/callsign/internal/logging"
)

// global flags
var (
	userConfig string
	f          = NewFactory()
)

const (
	LogLevelKey   = logging.KeyLevel
	LogFormatKey  = logging.KeyFormat
	LogNoColorKey = logging.KeyNoColor

	ServerAddrKey = "addr"
	ConfigPathKey = "config"
)

var rootCmd = &cobra.Command{
	Use:   "callsign",
	Short: fmt.Sprintf("Callsign (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `Callsign issues signed call credentials (UserSig) for authenticated users.
	Callers prove their identity with a session token of a configured identity
	provider and receive a credential bound to their own call service identifier.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		if err := logging.Init(nil); err != nil {
			return fmt.Errorf("configuring logger: %w", err)
		}
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using user config file: %s", configPath)
		}
		f.RemoteAddr = viper.GetString(ServerAddrKey)
		f.ConfigPath = viper.GetString(ConfigPathKey)
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, BeQuietError) {
			log.Error().Err(err).Msg("execution failed")
		}
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&userConfig, "user-config", "",
		"User configuration file for default values (default is $HOME/.callsign.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().String("server", "", "Address of the remote Callsign server")
	_ = viper.BindPFlag(ServerAddrKey, rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Server configuration file (issuers, signing, admission)")
	_ = viper.BindPFlag(ConfigPathKey, rootCmd.PersistentFlags().Lookup("config"))

	viper.SetEnvPrefix("CALLSIGN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initConfig() (string, error) {
	// reads in config file and ENV variables if set.
	if userConfig != "" {
		viper.SetConfigFile(userConfig)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		if config, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(config + "/callsign")
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".callsign")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
		return "", nil
	}
	return viper.ConfigFileUsed(), nil
}
