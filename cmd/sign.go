package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/identifier"
	"github.com/darmiel/callsign/internal/usersig"
)

var signFlags signingFlags

var signCmd = &cobra.Command{
	Use:   "sign <identifier>",
	Short: "Sign a credential locally",
	Long: `Signs a credential for the given service identifier with the local
signing key, without authenticating anyone. Meant for operators and tests.

The key is read from the configuration file (--config) or from
$` + config.DefaultAppIDEnv + ` and $` + config.DefaultSecretKeyEnv + `.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if convert, _ := cmd.Flags().GetBool("convert"); convert {
			id = identifier.ToServiceID(id)
		}
		if !identifier.IsValidServiceID(id) {
			return fmt.Errorf("'%s' is not a valid service identifier", id)
		}

		signing, err := signFlags.resolve()
		if err != nil {
			return fmt.Errorf("resolving signing configuration: %w", err)
		}
		key, err := signing.SigningKey(cmd.Context())
		if err != nil {
			return err
		}

		credential, env, err := usersig.Generate(signing.Encoder(), id, key.AppID, key.Secret,
			time.Now(), signing.ExpireOrDefault())
		if err != nil {
			return fmt.Errorf("generating credential: %w", err)
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			fmt.Println(credential)
			return nil
		}
		printEnvelope(&env)
		fmt.Printf("\n%s\n", credential)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)

	signFlags.bind(signCmd.Flags())
	signCmd.Flags().Bool("convert", false, "convert an account identifier into a service identifier first")
	signCmd.Flags().BoolP("quiet", "q", false, "only print the credential")
}
