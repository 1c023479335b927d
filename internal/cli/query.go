package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/diligence/internal/render"
)

var (
	reportFormat string
	reportOut    string
)

var statusCmd = &cobra.Command{
	Use:   "status <application-id>",
	Short: "Show the DD status of an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		st, err := rt.dd.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render.NewRenderer().WriteJSON(cmd.OutOrStdout(), st)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <application-id>",
	Short: "Print the latest DD report of an application",
	Long: `Report prints the latest report with its claims, verifications,
omissions and assessments.

Example:
  diligence report 0190f3c2-...
  diligence report 0190f3c2-... --format json --out report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		view, err := rt.dd.View(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		renderer := render.NewRenderer()
		if reportOut != "" {
			switch reportFormat {
			case "json":
				err = renderer.RenderJSON(view, reportOut)
			case "markdown", "md":
				err = renderer.RenderMarkdown(view, reportOut)
			default:
				return fmt.Errorf("unknown format: %s (supported: markdown, json)", reportFormat)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", reportOut)
			return nil
		}

		switch reportFormat {
		case "json":
			return renderer.WriteJSON(cmd.OutOrStdout(), view)
		case "markdown", "md":
			return renderer.WriteMarkdown(cmd.OutOrStdout(), view)
		default:
			return fmt.Errorf("unknown format: %s (supported: markdown, json)", reportFormat)
		}
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs <application-id>",
	Short: "Show the stage audit log of an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		logs, err := rt.dd.Runs(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tRUN\tSTAGE\tSTATUS\tDURATION\tDETAIL")
		for _, l := range logs {
			detail := l.Summary
			if l.Error != "" {
				detail = l.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dms\t%s\n",
				l.StartedAt.Local().Format(time.DateTime), shortID(l.RunID), l.Stage, l.Status, l.DurationMS, detail)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runsCmd)

	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "output format (markdown, json)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write to this path instead of stdout")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
