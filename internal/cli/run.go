package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/diligence/internal/render"
)

var (
	force      bool
	outJSON    string
	outMD      string
	runTimeout time.Duration
)

// runCmd runs due diligence for one application
var runCmd = &cobra.Command{
	Use:   "run <application-id>",
	Short: "Run due diligence for an application",
	Long: `Run extracts claims, assesses team and market, verifies claims against
the application's documents and writes a scored recommendation.

A completed application is not re-run unless --force is given.

Example:
  diligence run 0190f3c2-...
  diligence run 0190f3c2-... --force --json report.json --md report.md
  diligence run 0190f3c2-... --mode llm --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&force, "force", false, "re-run even if DD already completed")
	runCmd.Flags().StringVar(&outJSON, "json", "", "write the full report as JSON to this path")
	runCmd.Flags().StringVar(&outMD, "md", "", "write the report as Markdown to this path")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 15*time.Minute, "timeout for the whole run")
}

func runRun(cmd *cobra.Command, args []string) error {
	id := args[0]
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithTimeout(signalContext(cmd), runTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Application: %s\n", id)
		fmt.Fprintf(os.Stderr, "Mode:        %s\n", rt.suite.Mode)
		fmt.Fprintf(os.Stderr, "Force:       %v\n", force)
		fmt.Fprintln(os.Stderr)
	}

	res, err := rt.dd.RunDD(ctx, id, force)
	if err != nil {
		return fmt.Errorf("dd run failed: %w", err)
	}

	renderer := render.NewRenderer()
	renderer.RenderSummary(os.Stderr, res)

	if outJSON == "" && outMD == "" {
		return nil
	}
	view, err := rt.dd.View(ctx, id)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	if outJSON != "" {
		if err := renderer.RenderJSON(view, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(view, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
	}
	return nil
}
