package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// BeQuietError signals that the command already reported the failure.
var BeQuietError = errors.New("command failed")

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()

	greenCheck = green("✔")
	redCross   = red("✘")
)

func truncate(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// logError prints a failure including the server correlation ID, if any.
func logError(err error, correlation, msg string) error {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", redCross, bold(msg), err)
	if correlation != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  %s %s\n", faint("correlation:"), correlation)
	}
	return BeQuietError
}

func logSuccess(format string, args ...any) {
	fmt.Printf("%s %s\n", greenCheck, fmt.Sprintf(format, args...))
}

func applyTableFormat(t table.Writer) {
	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
}
