package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	KeyLevel   = "log.level"
	KeyFormat  = "log.format"
	KeyNoColor = "log.no_color"
)

// Options configure the global logger.
type Options struct {
	Level   string
	Format  string // "console" or "json"
	NoColor bool
	Output  io.Writer
}

// OptionsFromViper reads the logging options from the given viper instance.
// A nil instance uses the global one.
func OptionsFromViper(v *viper.Viper) Options {
	if v == nil {
		v = viper.GetViper()
	}
	return Options{
		Level:   v.GetString(KeyLevel),
		Format:  v.GetString(KeyFormat),
		NoColor: v.GetBool(KeyNoColor),
	}
}

// Init configures the global zerolog logger from viper.
func Init(v *viper.Viper) error {
	return Configure(OptionsFromViper(v))
}

// InitDefault sets up a human readable logger at info level. Used before the
// configuration is available.
func InitDefault() {
	_ = Configure(Options{Level: "info", Format: "console"})
}

// Configure sets the global log level and output.
func Configure(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return err
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer = out
	if !strings.EqualFold(opts.Format, "json") {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: time.DateTime,
		}
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}
