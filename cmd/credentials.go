package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Inspect credentials issued by a remote server",
}

var credentialsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List credentials that have not expired yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier, _ := cmd.Flags().GetString("identifier")

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		records, correlation, err := cli.ListActiveCredentials(cmd.Context(), identifier)
		if err != nil {
			return logError(err, correlation, "failed to list credentials")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Issued At", "Expires", "Identifier", "Account", "Issuer", "Fingerprint"})

		for _, rec := range records {
			timeLeft := time.Until(rec.ExpiresAt).Round(time.Minute)
			t.AppendRow(table.Row{
				rec.IssuedAt.Format(time.RFC3339),
				fmt.Sprintf("%s (%s)", rec.ExpiresAt.Format(time.DateTime), faint(timeLeft.String())),
				bold(rec.Identifier),
				truncate(rec.PrincipalID, 36),
				rec.Issuer,
				faint(truncate(rec.Fingerprint, 20)),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsListCmd)

	credentialsListCmd.Flags().String("identifier", "", "Only show credentials for this service identifier")
}
