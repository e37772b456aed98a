package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/config"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Parses the configuration file, compiles the admission rules and checks
whether a signing key can be resolved from the current environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return logError(err, "", "configuration is invalid")
		}

		printConfigSummary(cfg)

		if _, err := cfg.Signing.SigningKey(cmd.Context()); err != nil {
			// the server still starts without a key, so this is only a warning
			log.Warn().Err(err).Msg("Signing key cannot be resolved in this environment")
		}

		logSuccess("configuration %s is valid", bold(f.ConfigPath))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func printConfigSummary(cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Issuer", "Type", "Default", "Admission Rules"})

	for _, iss := range cfg.Issuers {
		var rules []string
		for _, rule := range cfg.Admission {
			if rule.Issuer == "" || rule.Issuer == iss.Name {
				rules = append(rules, rule.Name)
			}
		}
		ruleStr := faint("(none)")
		if len(rules) > 0 {
			ruleStr = strings.Join(rules, ", ")
		}
		def := ""
		if cfg.Identity.DefaultIssuer == iss.Name {
			def = greenCheck
		}
		t.AppendRow(table.Row{bold(iss.Name), iss.Type, def, ruleStr})
	}

	applyTableFormat(t)
	t.Render()

	fmt.Printf("  %s: %d seconds\n", faint("Expire"), cfg.Signing.ExpireOrDefault())
	fmt.Printf("  %s: %s\n", faint("Compression"), cfg.Signing.Encoder().Compression)
	fmt.Printf("  %s: %t\n", faint("Strict Identifiers"), cfg.Identity.StrictIdentifiers)
}
