package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <userID>",
	Short: "Request a credential from a remote server",
	Long: `Requests a credential for userID from the server given by --server,
authenticating with an identity provider session token.

userID is either the account identifier of the session or the service
identifier derived from it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		explicit, _ := cmd.Flags().GetString("session")
		session, err := f.SessionToken(explicit)
		if err != nil {
			return err
		}
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Str("user_id", args[0]).Msg("Requesting credential...")
		cred, correlation, err := cli.GenerateUserSig(cmd.Context(), session, args[0])
		if err != nil {
			return logError(err, correlation, "failed to request credential")
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			fmt.Println(cred.Credential)
			return nil
		}

		fmt.Println(bold("\n── Issued Credential ──"))
		fmt.Printf("  %s:     %s\n", faint("User ID"), bold(cred.Identifier))
		fmt.Printf("  %s:    %d\n", faint("SDKAppID"), cred.AppID)
		fmt.Printf("  %s:     %s\n", faint("Account"), cred.CallerAccountID)
		fmt.Printf("  %s:   %s\n", faint("Generated"), cred.IssuedAt.Format(time.RFC3339))
		fmt.Printf("  %s:     %s\n", faint("Expires"), time.Unix(cred.ExpireTime, 0).Format(time.RFC3339))
		fmt.Printf("  %s: %s\n", faint("Correlation"), faint(correlation))
		fmt.Printf("\n%s\n", cred.Credential)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)

	requestCmd.Flags().String("session", "", "identity provider session token (default $"+SessionTokenEnv+" or saved session)")
	requestCmd.Flags().BoolP("quiet", "q", false, "only print the credential")
}
