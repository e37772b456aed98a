package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/api/middleware"
	"github.com/darmiel/callsign/internal/config"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative helpers",
}

var adminTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin session token",
	Long: `Signs an admin session token with the admin key of the configuration
file (--config) or $` + config.DefaultAdminKeyEnv + `.

Use --save to store it for the server given by --server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		save, _ := cmd.Flags().GetBool("save")

		var adminCfg config.AdminConfig
		if f.ConfigPath != "" {
			cfg, err := f.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			adminCfg = cfg.Admin
		}

		token, err := middleware.NewAdminToken(adminCfg.Key(), subject, ttl)
		if err != nil {
			return err
		}

		if !save {
			fmt.Println(token)
			return nil
		}
		return saveCredential(func(cred *credentialUpdate) { cred.adminToken = token })
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminTokenCmd)

	adminTokenCmd.Flags().String("subject", "operator", "subject of the token, shows up in server logs")
	adminTokenCmd.Flags().Duration("ttl", time.Hour, "validity of the token")
	adminTokenCmd.Flags().Bool("save", false, "save the token for --server instead of printing it")
}
