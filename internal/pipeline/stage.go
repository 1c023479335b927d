package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

// Stage names recorded in the audit log
const (
	StageExtraction   = "claim_extraction"
	StageTeam         = "team_assessment"
	StageMarket       = "market_assessment"
	StageVerification = "claim_verification"
	StageDocuments    = "document_verification"
	StageResolution   = "status_resolution"
	StageSynthesis    = "report_synthesis"
)

// runStage calls fn with the stage timeout applied, converts a panic into an
// error and appends the outcome to the audit log. On failure the zero value
// is returned with the error.
func runStage[T any](ctx context.Context, r *run, stage string, fn func(context.Context) (T, error), summarize func(T) string) (result T, err error) {
	startedAt := r.o.now().UTC()
	began := time.Now()

	sctx := ctx
	if r.o.stageTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, r.o.stageTimeout)
		defer cancel()
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		result, err = fn(sctx)
	}()

	entry := model.AgentRunLog{
		ApplicationID: r.app.ID,
		RunID:         r.id,
		Stage:         stage,
		Status:        model.StageSucceeded,
		StartedAt:     startedAt,
		DurationMS:    time.Since(began).Milliseconds(),
	}
	if err != nil {
		var zero T
		result = zero
		entry.Status = model.StageFailed
		entry.Error = err.Error()
		r.logger.Warn("stage failed", "stage", stage, "error", err, "duration_ms", entry.DurationMS)
	} else {
		if summarize != nil {
			entry.Summary = summarize(result)
		}
		r.logger.Debug("stage done", "stage", stage, "summary", entry.Summary, "duration_ms", entry.DurationMS)
	}
	r.audit(ctx, entry)
	return result, err
}

// skipStage records a stage that did not apply to this run
func (r *run) skipStage(ctx context.Context, stage, reason string) {
	r.audit(ctx, model.AgentRunLog{
		ApplicationID: r.app.ID,
		RunID:         r.id,
		Stage:         stage,
		Status:        model.StageSkipped,
		StartedAt:     r.o.now().UTC(),
		Summary:       reason,
	})
}

// audit appends entry; a failed append is logged and never fails the run.
// The write is detached from ctx so cancelled runs still leave a trail.
func (r *run) audit(ctx context.Context, entry model.AgentRunLog) {
	entry.ID = r.o.ids()
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.o.store.AppendRunLog(actx, entry); err != nil {
		r.logger.Error("audit log append failed", "stage", entry.Stage, "error", err)
	}
}
