// Package pipeline runs due diligence for one application: extraction, side
// assessments, verification, status resolution and report synthesis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/diligence/internal/analysis"
	"github.com/ppiankov/diligence/internal/idgen"
	"github.com/ppiankov/diligence/internal/logging"
	"github.com/ppiankov/diligence/internal/model"
	"github.com/ppiankov/diligence/internal/resolve"
	"github.com/ppiankov/diligence/internal/store"
)

const (
	auditTimeout = 10 * time.Second
	failTimeout  = 10 * time.Second
)

// Orchestrator runs the DD pipeline against a store with one analysis suite
type Orchestrator struct {
	store        store.Store
	suite        *analysis.Suite
	ids          idgen.Generator
	now          func() time.Time
	stageTimeout time.Duration
	inflight     singleflight.Group
	mu           sync.Mutex
	flights      map[string]*flight
	logger       *slog.Logger
}

// flight is the context of one shared run. It is cancelled only once every
// caller waiting on the run has gone away.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithStageTimeout bounds every stage call; 0 disables the bound
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithIDGenerator replaces the UUIDv7 generator (tests)
func WithIDGenerator(g idgen.Generator) Option {
	return func(o *Orchestrator) { o.ids = g }
}

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator
func New(st store.Store, suite *analysis.Suite, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   st,
		suite:   suite,
		ids:     idgen.UUIDv7(),
		now:     time.Now,
		flights: make(map[string]*flight),
		logger:  logging.New("pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunDD runs the pipeline for applicationID. A completed application is left
// alone unless force is set. Concurrent calls for the same application join
// the run already in flight and share its result; a caller whose ctx ends
// stops waiting, and the run is aborted only when no caller is left.
func (o *Orchestrator) RunDD(ctx context.Context, applicationID string, force bool) (*model.RunResult, error) {
	f := o.join(ctx, applicationID)
	ch := o.inflight.DoChan(applicationID, func() (interface{}, error) {
		return o.run(f.ctx, applicationID, force)
	})

	select {
	case res := <-ch:
		o.leave(applicationID, f)
		if res.Shared {
			o.logger.Debug("joined in-flight run", "application_id", applicationID)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.RunResult), nil
	case <-ctx.Done():
		if o.leave(applicationID, f) {
			// Last caller gone: the run is cancelled; wait for it to record the failure.
			<-ch
		}
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) join(ctx context.Context, applicationID string) *flight {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.flights[applicationID]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		o.flights[applicationID] = f
	}
	f.waiters++
	return f
}

// leave drops one waiter and reports whether it was the last, in which case
// the flight's context is cancelled.
func (o *Orchestrator) leave(applicationID string, f *flight) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return false
	}
	if o.flights[applicationID] == f {
		delete(o.flights, applicationID)
	}
	f.cancel()
	return true
}

// Status returns the DD state and current report summary of an application
func (o *Orchestrator) Status(ctx context.Context, applicationID string) (*model.StatusSummary, error) {
	app, err := o.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	claims, err := o.store.ListClaims(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	report, err := o.currentReport(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return &model.StatusSummary{
		ApplicationID: app.ID,
		DDStatus:      app.DDStatus,
		ClaimsCount:   len(claims),
		StartedAt:     app.DDStartedAt,
		CompletedAt:   app.DDCompletedAt,
		ReportSummary: model.SummarizeReport(report),
	}, nil
}

// Runs returns the audit trail of an application, oldest first
func (o *Orchestrator) Runs(ctx context.Context, applicationID string) ([]model.AgentRunLog, error) {
	if _, err := o.store.GetApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	return o.store.ListRunLogs(ctx, applicationID)
}

func (o *Orchestrator) currentReport(ctx context.Context, applicationID string) (*model.Report, error) {
	report, err := o.store.GetReport(ctx, applicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, applicationID string, force bool) (*model.RunResult, error) {
	app, err := o.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.DDStatus == model.DDCompleted && !force {
		report, err := o.currentReport(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		o.logger.Info("already completed, skipping", "application_id", applicationID)
		res := &model.RunResult{
			ApplicationID: applicationID,
			Status:        model.DDCompleted,
			Skipped:       true,
			Report:        report,
		}
		if report != nil {
			res.Metadata = metadataFor(report, report.TotalClaims, 0, report.TotalOmissions, nil, nil)
		}
		return res, nil
	}

	r := &run{o: o, app: app, id: o.ids()}
	r.logger = o.logger.With("application_id", app.ID, "run_id", r.id)
	return r.execute(ctx)
}

// run is the state of one pipeline execution
type run struct {
	o      *Orchestrator
	app    *model.Application
	id     string
	logger *slog.Logger
}

func (r *run) execute(ctx context.Context) (*model.RunResult, error) {
	r.logger.Info("dd run started", "company", r.app.CompanyName, "mode", r.o.suite.Mode)

	// 1. Mark the run as started
	if err := r.transition(ctx, model.DDClaimsExtracted); err != nil {
		return nil, &StageError{Kind: KindPersistence, Stage: "start", Err: err}
	}

	// 2. Extraction, team and market concurrently; every outcome is captured
	snapshot := *r.app
	var (
		extraction *analysis.Extraction
		extractErr error
		team       *model.TeamAssessment
		market     *model.MarketAssessment
	)
	var g errgroup.Group
	g.Go(func() error {
		extraction, extractErr = runStage(ctx, r, StageExtraction, func(ctx context.Context) (*analysis.Extraction, error) {
			return r.o.suite.Extractor.ExtractClaims(ctx, snapshot)
		}, func(e *analysis.Extraction) string {
			return fmt.Sprintf("%d claims, %d omissions", len(e.Claims), len(e.Omissions))
		})
		return nil
	})
	g.Go(func() error {
		team, _ = runStage(ctx, r, StageTeam, func(ctx context.Context) (*model.TeamAssessment, error) {
			return r.o.suite.Team.AssessTeam(ctx, snapshot)
		}, func(a *model.TeamAssessment) string {
			return fmt.Sprintf("score %d (%s)", a.Score, a.Grade)
		})
		return nil
	})
	g.Go(func() error {
		market, _ = runStage(ctx, r, StageMarket, func(ctx context.Context) (*model.MarketAssessment, error) {
			return r.o.suite.Market.AssessMarket(ctx, snapshot)
		}, func(a *model.MarketAssessment) string {
			return fmt.Sprintf("score %d (%s)", a.Score, a.Grade)
		})
		return nil
	})
	_ = g.Wait()

	if extractErr == nil && extraction == nil {
		extractErr = errors.New("extractor returned no result")
	}
	if extractErr != nil {
		return r.fail(ctx, &StageError{Kind: KindBlocking, Stage: StageExtraction, Err: extractErr})
	}

	// 3. Persist claims and side-channel outputs
	claims := r.prepareClaims(extraction.Claims)
	omissions := r.prepareOmissions(extraction.Omissions)
	if err := r.persistExtraction(ctx, claims, omissions, team, market); err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageExtraction, Err: err})
	}
	persisted, err := r.o.store.ListClaims(ctx, r.app.ID)
	if err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageExtraction, Err: fmt.Errorf("reload claims: %w", err)})
	}

	// 4. Claim verification
	if err := r.transition(ctx, model.DDAIVerification); err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageVerification, Err: err})
	}
	verifications, _ := runStage(ctx, r, StageVerification, func(ctx context.Context) ([]model.Verification, error) {
		return r.o.suite.Verifier.VerifyClaims(ctx, persisted)
	}, countSummary[model.Verification]("verdicts"))

	// 5. Document verification, after claim verification
	if r.app.HasDocuments() {
		docVerifications, _ := runStage(ctx, r, StageDocuments, func(ctx context.Context) ([]model.Verification, error) {
			return r.o.suite.Documents.VerifyDocuments(ctx, persisted, r.app.Documents)
		}, countSummary[model.Verification]("verdicts"))
		verifications = append(verifications, docVerifications...)
	} else {
		r.skipStage(ctx, StageDocuments, "no documents")
	}

	// 6. Persist verifications and resolve claim statuses
	verifications = r.prepareVerifications(verifications, persisted)
	if err := r.o.store.ReplaceVerifications(ctx, r.app.ID, verifications); err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageVerification, Err: fmt.Errorf("save verifications: %w", err)})
	}
	if _, err := runStage(ctx, r, StageResolution, func(ctx context.Context) (int, error) {
		return r.resolveClaims(ctx, verifications)
	}, func(n int) string {
		return fmt.Sprintf("%d claims resolved", n)
	}); err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageResolution, Err: err})
	}

	// 7. Synthesize from the resolved state
	resolved, err := r.o.store.ListClaims(ctx, r.app.ID)
	if err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageSynthesis, Err: fmt.Errorf("reload claims: %w", err)})
	}
	stored, err := r.o.store.ListVerifications(ctx, r.app.ID)
	if err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageSynthesis, Err: fmt.Errorf("reload verifications: %w", err)})
	}
	report, err := runStage(ctx, r, StageSynthesis, func(ctx context.Context) (*model.Report, error) {
		return r.o.suite.Synthesizer.Synthesize(ctx, analysis.SynthesisInput{
			Application:   *r.app,
			Claims:        resolved,
			Verifications: stored,
			Omissions:     omissions,
			Team:          team,
			Market:        market,
		})
	}, func(rep *model.Report) string {
		return fmt.Sprintf("score %d (%s), %s", rep.OverallScore, rep.Grade, rep.Verdict)
	})
	if err == nil && report == nil {
		err = errors.New("synthesizer returned no report")
	}
	if err != nil {
		return r.fail(ctx, &StageError{Kind: KindBlocking, Stage: StageSynthesis, Err: err})
	}

	// 8. Persist the report and complete
	report.ID = r.o.ids()
	report.ApplicationID = r.app.ID
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = r.o.now().UTC()
	}
	if err := r.o.store.ReplaceReport(ctx, report); err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageSynthesis, Err: fmt.Errorf("save report: %w", err)})
	}
	if err := r.transition(ctx, model.DDCompleted); err != nil {
		return r.fail(ctx, &StageError{Kind: KindPersistence, Stage: StageSynthesis, Err: err})
	}

	r.logger.Info("dd run completed",
		"claims", len(resolved),
		"verifications", len(stored),
		"score", report.OverallScore,
		"grade", report.Grade,
		"verdict", report.Verdict)

	return &model.RunResult{
		ApplicationID: r.app.ID,
		RunID:         r.id,
		Status:        model.DDCompleted,
		Report:        report,
		Metadata:      metadataFor(report, len(resolved), len(stored), len(omissions), team, market),
	}, nil
}

// transition moves the application to next if the state machine allows it
func (r *run) transition(ctx context.Context, next model.DDStatus) error {
	if !r.app.DDStatus.CanTransition(next) {
		return fmt.Errorf("invalid transition %s -> %s", r.app.DDStatus, next)
	}
	if err := r.o.store.UpdateDDStatus(ctx, r.app.ID, next, r.o.now()); err != nil {
		return fmt.Errorf("update status to %s: %w", next, err)
	}
	r.app.DDStatus = next
	return nil
}

// fail marks the run failed and returns stageErr. The status write is
// detached from ctx so a cancelled run is still recorded as failed.
func (r *run) fail(ctx context.Context, stageErr *StageError) (*model.RunResult, error) {
	r.logger.Error("dd run failed", "stage", stageErr.Stage, "kind", stageErr.Kind, "error", stageErr.Err)
	if !r.app.DDStatus.CanTransition(model.DDFailed) {
		return nil, stageErr
	}
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
	defer cancel()
	if err := r.o.store.UpdateDDStatus(fctx, r.app.ID, model.DDFailed, r.o.now()); err != nil {
		r.logger.Error("could not mark run failed", "error", err)
	} else {
		r.app.DDStatus = model.DDFailed
	}
	return nil, stageErr
}

func (r *run) persistExtraction(ctx context.Context, claims []model.Claim, omissions []model.Omission, team *model.TeamAssessment, market *model.MarketAssessment) error {
	if err := r.o.store.ReplaceClaims(ctx, r.app.ID, claims); err != nil {
		return fmt.Errorf("save claims: %w", err)
	}
	if err := r.o.store.ReplaceOmissions(ctx, r.app.ID, omissions); err != nil {
		return fmt.Errorf("save omissions: %w", err)
	}
	if team != nil {
		team.ID = r.o.ids()
		team.ApplicationID = r.app.ID
		team.CreatedAt = r.o.now().UTC()
	}
	if err := r.o.store.ReplaceTeamAssessment(ctx, r.app.ID, team); err != nil {
		return fmt.Errorf("save team assessment: %w", err)
	}
	if market != nil {
		market.ID = r.o.ids()
		market.ApplicationID = r.app.ID
		market.CreatedAt = r.o.now().UTC()
	}
	if err := r.o.store.ReplaceMarketAssessment(ctx, r.app.ID, market); err != nil {
		return fmt.Errorf("save market assessment: %w", err)
	}
	return nil
}

// prepareClaims assigns stored IDs and rewrites related-claim keys to them.
// References to keys the extractor did not return are dropped.
func (r *run) prepareClaims(extracted []model.Claim) []model.Claim {
	now := r.o.now().UTC()
	keys := make(map[string]string, len(extracted))
	out := make([]model.Claim, len(extracted))
	for i, c := range extracted {
		id := r.o.ids()
		if c.ID != "" {
			keys[c.ID] = id
		}
		c.ID = id
		c.ApplicationID = r.app.ID
		c.Status = model.ClaimPending
		c.VerificationConfidence = nil
		if c.Priority == "" {
			c.Priority = model.PriorityMedium
		}
		if c.Category == "" {
			c.Category = model.CategoryOther
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		out[i] = c
	}
	for i := range out {
		out[i].Contradicts = mapKeys(out[i].Contradicts, keys)
		out[i].Corroborates = mapKeys(out[i].Corroborates, keys)
	}
	return out
}

func mapKeys(refs []string, keys map[string]string) []string {
	var out []string
	for _, ref := range refs {
		if id, ok := keys[ref]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (r *run) prepareOmissions(in []model.Omission) []model.Omission {
	now := r.o.now().UTC()
	out := make([]model.Omission, len(in))
	for i, o := range in {
		o.ID = r.o.ids()
		o.ApplicationID = r.app.ID
		o.CreatedAt = now
		out[i] = o
	}
	return out
}

// prepareVerifications drops verdicts for unknown claims or with unknown
// verdicts and assigns IDs
func (r *run) prepareVerifications(in []model.Verification, claims []model.Claim) []model.Verification {
	known := make(map[string]bool, len(claims))
	for _, c := range claims {
		known[c.ID] = true
	}
	now := r.o.now().UTC()
	out := make([]model.Verification, 0, len(in))
	for _, v := range in {
		if !known[v.ClaimID] {
			r.logger.Warn("dropping verification for unknown claim", "claim_id", v.ClaimID, "source", v.SourceName)
			continue
		}
		if !v.Verdict.Valid() {
			r.logger.Warn("dropping verification with unknown verdict", "claim_id", v.ClaimID, "verdict", v.Verdict)
			continue
		}
		v.ID = r.o.ids()
		v.CreatedAt = now
		out = append(out, v)
	}
	return out
}

// resolveClaims applies the resolver to every claim with at least one verification
func (r *run) resolveClaims(ctx context.Context, verifications []model.Verification) (int, error) {
	var rs []store.ClaimResolution
	for claimID, vs := range resolve.GroupByClaim(verifications) {
		res, ok := resolve.Resolve(vs)
		if !ok {
			continue
		}
		rs = append(rs, store.ClaimResolution{ClaimID: claimID, Status: res.Status, Confidence: res.Confidence})
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].ClaimID < rs[j].ClaimID })

	if err := r.o.store.ResolveClaims(ctx, r.app.ID, rs); err != nil {
		return 0, fmt.Errorf("resolve claims: %w", err)
	}
	return len(rs), nil
}

func countSummary[T any](noun string) func([]T) string {
	return func(items []T) string {
		return fmt.Sprintf("%d %s", len(items), noun)
	}
}

func metadataFor(report *model.Report, claims, verifications, omissions int, team *model.TeamAssessment, market *model.MarketAssessment) model.RunMetadata {
	md := model.RunMetadata{
		TotalClaims:           claims,
		TotalVerifications:    verifications,
		TotalOmissions:        omissions,
		Score:                 report.OverallScore,
		Grade:                 report.Grade,
		RecommendationVerdict: report.Verdict,
		TeamScore:             report.TeamScore,
		MarketScore:           report.MarketScore,
	}
	if team != nil {
		md.TeamGrade = team.Grade
	} else if report.TeamScore != nil {
		md.TeamGrade = model.GradeForScore(*report.TeamScore)
	}
	if market != nil {
		md.MarketGrade = market.Grade
	} else if report.MarketScore != nil {
		md.MarketGrade = model.GradeForScore(*report.MarketScore)
	}
	return md
}

// View loads the application with its latest report and every stored output
func (o *Orchestrator) View(ctx context.Context, applicationID string) (*model.ReportView, error) {
	app, err := o.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	view := &model.ReportView{Application: app}
	if view.Report, err = o.currentReport(ctx, applicationID); err != nil {
		return nil, err
	}
	if view.Claims, err = o.store.ListClaims(ctx, applicationID); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	if view.Verifications, err = o.store.ListVerifications(ctx, applicationID); err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	if view.Omissions, err = o.store.ListOmissions(ctx, applicationID); err != nil {
		return nil, fmt.Errorf("list omissions: %w", err)
	}
	if view.Team, err = o.store.GetTeamAssessment(ctx, applicationID); err != nil {
		return nil, fmt.Errorf("get team assessment: %w", err)
	}
	if view.Market, err = o.store.GetMarketAssessment(ctx, applicationID); err != nil {
		return nil, fmt.Errorf("get market assessment: %w", err)
	}
	return view, nil
}
