package cmd

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/cliconfig"
	"github.com/darmiel/callsign/pkg/client"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save tokens for a Callsign server",
	Long: `Saves an admin token and/or an identity provider session token for the
server given by --server. Saved tokens are used by later remote commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		adminToken, _ := cmd.Flags().GetString("admin-token")
		session, _ := cmd.Flags().GetString("session")
		if adminToken == "" && session == "" {
			return fmt.Errorf("nothing to save (use --admin-token and/or --session)")
		}

		if adminToken != "" {
			server, err := f.serverAddr()
			if err != nil {
				return err
			}
			// make sure the token is accepted before saving it
			cli := client.New(server, client.WithAuthToken(adminToken))
			if _, _, err := cli.ListTasks(cmd.Context()); err != nil {
				return logError(err, "", "admin token was rejected")
			}
		}

		return saveCredential(func(cred *credentialUpdate) {
			cred.adminToken = adminToken
			cred.sessionToken = session
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().String("admin-token", "", "admin session token, see 'callsign admin token'")
	loginCmd.Flags().String("session", "", "identity provider session token used by 'callsign request'")
}

type credentialUpdate struct {
	adminToken   string
	sessionToken string
}

// saveCredential stores the non-empty tokens of the update for --server.
func saveCredential(fn func(cred *credentialUpdate)) error {
	server, err := f.serverAddr()
	if err != nil {
		return err
	}
	u, err := url.Parse(server)
	if err != nil {
		return fmt.Errorf("parsing server URL: %w", err)
	}

	var upd credentialUpdate
	fn(&upd)

	cfg, err := cliconfig.Load()
	if err != nil {
		return err
	}
	if err := cfg.Update(server, func(cred *cliconfig.Credential) {
		if upd.adminToken != "" {
			cred.AdminToken = upd.adminToken
		}
		if upd.sessionToken != "" {
			cred.SessionToken = upd.sessionToken
		}
	}); err != nil {
		return err
	}
	if err := cliconfig.Save(cfg); err != nil {
		return logError(err, "", "could not save credentials")
	}

	log.Debug().Str("host", u.Host).Msg("saved credentials")
	logSuccess("saved credentials for %s", bold(u.Host))
	return nil
}
