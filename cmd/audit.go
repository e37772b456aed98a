package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/pkg/client"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log of a remote server",
}

var auditOpts client.ListAuditsOpts

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	Long: `Lists authentication and issue events recorded by the server, newest
last. Requires an admin token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), auditOpts)
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log")
		}
		log.Debug().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "Principal", "Identifier", "OK", "Error", "Correlation",
		})

		for _, e := range audits {
			status := greenCheck
			if !e.Success {
				status = redCross + " " + e.Kind
			}

			sub := faint("(unknown principal)")
			if e.Principal != nil {
				sub = truncate(e.Principal.ID, 36)
			}

			id := e.Identifier
			if id == "" && e.RequestedIdentifier != "" {
				id = faint(e.RequestedIdentifier)
			}

			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				sub,
				bold(id),
				status,
				truncate(e.Error, 60),
				faint(e.ID),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().UintVarP(&auditOpts.Limit, "limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditOpts.CorrelationID, "correlation", "", "Only show entries of this request")
	auditLogCmd.Flags().StringVar(&auditOpts.PrincipalID, "principal", "", "Only show entries of this account")
	auditLogCmd.Flags().StringVar(&auditOpts.Identifier, "identifier", "", "Only show entries for this service identifier")
	auditLogCmd.Flags().StringVar(&auditOpts.Fingerprint, "fingerprint", "", "Only show entries of this credential fingerprint")
	auditLogCmd.Flags().BoolVar(&auditOpts.OnlyFailed, "failed", false, "Only show failed requests")
}
