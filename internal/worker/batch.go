package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

// Runner runs due diligence for one application
type Runner interface {
	RunDD(ctx context.Context, applicationID string, force bool) (*model.RunResult, error)
}

// BatchResult is the outcome of one application in a batch
type BatchResult struct {
	ApplicationID string
	Result        *model.RunResult
	Error         error
	Duration      time.Duration
}

// BatchRunner runs DD for many applications concurrently
type BatchRunner struct {
	runner      Runner
	concurrency int
	force       bool
}

// NewBatchRunner creates a batch runner
func NewBatchRunner(runner Runner, concurrency int, force bool) *BatchRunner {
	return &BatchRunner{
		runner:      runner,
		concurrency: concurrency,
		force:       force,
	}
}

// Run processes applicationIDs and returns their results in input order.
// One application failing does not stop the others; cancelling ctx skips those not yet started.
func (b *BatchRunner) Run(ctx context.Context, applicationIDs []string) []*BatchResult {
	return Map(ctx, b.concurrency, applicationIDs, func(ctx context.Context, id string) *BatchResult {
		start := time.Now()
		result, err := b.runner.RunDD(ctx, id, b.force)
		return &BatchResult{
			ApplicationID: id,
			Result:        result,
			Error:         err,
			Duration:      time.Since(start),
		}
	})
}

// RunFile reads application IDs from a file and processes them
func (b *BatchRunner) RunFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	ids, err := ReadIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read application IDs: %w", err)
	}
	return b.Run(ctx, ids), nil
}

// ReadIDsFromFile reads one ID per line, skipping blank lines and # comments
// and dropping duplicates
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return ids, nil
}
