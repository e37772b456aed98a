package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage background tasks of a remote server",
}

var tasksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all background tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving tasks...")
		statuses, correlation, err := cli.ListTasks(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to list tasks")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Task", "Every", "Runs", "Last Run", "Next Run", "Result"})

		for _, st := range statuses {
			name := bold(st.Name)
			if st.Running {
				name += " " + color.CyanString("(running)")
			}

			every := faint("manual")
			if st.Interval > 0 {
				every = st.Interval.String()
			}

			result := faint("(none)")
			switch {
			case st.LastResult == "success":
				result = greenCheck + " success"
			case st.LastResult != "":
				result = redCross + " " + truncate(st.LastResult, 60)
			}

			t.AppendRow(table.Row{
				name,
				every,
				st.Runs,
				relativeTime(st.LastRun),
				relativeTime(st.NextRun),
				result,
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

var tasksTriggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Run a background task now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		if correlation, err := cli.TriggerTask(cmd.Context(), args[0]); err != nil {
			return logError(err, correlation, "failed to trigger task")
		}
		logSuccess("triggered task %s", bold(args[0]))
		return nil
	},
}

var tasksLogsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "Show the output of recent task runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		logs, correlation, err := cli.GetTaskLogs(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "failed to get task logs")
		}
		if len(logs) == 0 {
			fmt.Println(faint("(none)"))
			return nil
		}
		for _, entry := range logs {
			level := entry.Level
			switch level {
			case "error":
				level = red(level)
			case "warn":
				level = color.YellowString(level)
			default:
				level = faint(level)
			}
			fmt.Printf("%s %-5s %s\n", faint(entry.Time.Format(time.DateTime)), level, entry.Message)
		}
		return nil
	},
}

// relativeTime renders ts relative to now, e.g. "3m0s ago" or "in 12m0s".
func relativeTime(ts time.Time) string {
	if ts.IsZero() {
		return faint("n/a")
	}
	d := time.Until(ts).Round(time.Second)
	if d < 0 {
		return (-d).String() + " ago"
	}
	return "in " + d.String()
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksTriggerCmd, tasksLogsCmd)
}
