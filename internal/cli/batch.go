package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/diligence/internal/render"
	"github.com/ppiankov/diligence/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchForce   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run due diligence for many applications in parallel",
	Long: `Batch runs due diligence for every application ID listed in a file:
- One ID per line; blank lines and # comments are skipped
- Applications run in parallel with a configurable worker count
- One failing application does not stop the others
- A JSON and Markdown report is written per completed application

Example:
  diligence batch ids.txt
  diligence batch ids.txt --concurrency 8 --output-dir ./dd-reports
  diligence batch ids.txt --force --timeout 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent runs (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./diligence-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "re-run applications whose DD already completed")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	workers := concurrency
	if workers <= 0 {
		workers = rt.cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(signalContext(cmd), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Diligence Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", rt.suite.Mode)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	runner := worker.NewBatchRunner(rt.dd, workers, batchForce)
	results, err := runner.RunFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := render.NewRenderer()
	successCount, skippedCount, failureCount := 0, 0, 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.ApplicationID, result.Error)
			continue
		}
		if result.Result.Skipped {
			skippedCount++
		} else {
			successCount++
		}

		view, err := rt.dd.View(ctx, result.ApplicationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: load report: %v\n", result.ApplicationID, err)
			continue
		}
		slug := sanitizeFilename(view.Application.CompanyName + "-" + result.ApplicationID)
		if err := renderer.RenderJSON(view, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.ApplicationID, err)
			continue
		}
		if err := renderer.RenderMarkdown(view, filepath.Join(outputDir, slug+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.ApplicationID, err)
			continue
		}

		md := result.Result.Metadata
		fmt.Fprintf(os.Stderr, "✓ %s (score: %d/100, %s, %s)\n",
			view.Application.CompanyName, md.Score, md.RecommendationVerdict, result.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d applications\n", len(results))
	fmt.Fprintf(os.Stderr, "  Completed: %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", skippedCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d applications failed", failureCount, len(results))
	}
	return nil
}

// sanitizeFilename turns s into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
