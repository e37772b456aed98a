package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/buildinfo"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show build information of this binary or of the server given by --server",
	RunE: func(cmd *cobra.Command, args []string) error {
		local := buildinfo.GetBuildInfo()
		printInfo("Local", &local)

		if f.RemoteAddr == "" {
			return nil
		}
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		remote, correlation, err := cli.Info(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to get info from server")
		}
		printInfo(f.RemoteAddr, remote)

		if remote.Version != local.Version {
			fmt.Printf("\n%s client and server versions differ\n", faint("note:"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printInfo(source string, info *buildinfo.Info) {
	fmt.Println(bold("\n── " + source + " ──"))
	fmt.Printf("  %s: %s\n", faint("Service"), info.Service)
	fmt.Printf("  %s: %s\n", faint("Version"), info.Version)
	fmt.Printf("  %s:  %s\n", faint("Commit"), info.CommitHash)
	if info.About != "" {
		fmt.Printf("  %s:   %s\n", faint("About"), info.About)
	}
}
