package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

// MemStore is an in-memory Store for tests and `--store memory`.
// Values are copied on the way in and out so callers never share state with it.
type MemStore struct {
	mu            sync.Mutex
	apps          map[string]*model.Application
	claims        map[string][]model.Claim        // by application
	verifications map[string][]model.Verification // by application
	omissions     map[string][]model.Omission
	teams         map[string]*model.TeamAssessment
	markets       map[string]*model.MarketAssessment
	reports       map[string]*model.Report
	runLogs       map[string][]model.AgentRunLog
}

// NewMemStore returns an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		apps:          make(map[string]*model.Application),
		claims:        make(map[string][]model.Claim),
		verifications: make(map[string][]model.Verification),
		omissions:     make(map[string][]model.Omission),
		teams:         make(map[string]*model.TeamAssessment),
		markets:       make(map[string]*model.MarketAssessment),
		reports:       make(map[string]*model.Report),
		runLogs:       make(map[string][]model.AgentRunLog),
	}
}

// Close is a no-op
func (s *MemStore) Close() error { return nil }

func (s *MemStore) SaveApplication(ctx context.Context, app *model.Application) error {
	if app == nil {
		return errors.New("application is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if app.ID == "" {
		app.ID = newID()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.DDStatus == "" {
		app.DDStatus = model.DDNotStarted
	}

	cp := cloneApplication(app)
	if existing, ok := s.apps[app.ID]; ok {
		// content only; DD state is owned by the pipeline
		cp.CreatedAt = existing.CreatedAt
		cp.DDStatus = existing.DDStatus
		cp.DDStartedAt = existing.DDStartedAt
		cp.DDCompletedAt = existing.DDCompletedAt
		cp.CurrentReportID = existing.CurrentReportID
	}
	s.apps[app.ID] = cp
	return nil
}

func (s *MemStore) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	return cloneApplication(app), nil
}

func (s *MemStore) ListApplications(ctx context.Context) ([]*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, cloneApplication(app))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) UpdateDDStatus(ctx context.Context, id string, status model.DDStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	applyStatus(app, status, at.UTC())
	return nil
}

func (s *MemStore) ReplaceClaims(ctx context.Context, applicationID string, claims []model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[applicationID]; !ok {
		return fmt.Errorf("application %s: %w", applicationID, ErrNotFound)
	}

	now := time.Now().UTC()
	out := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		c = cloneClaim(c)
		c.ApplicationID = applicationID
		if c.ID == "" {
			c.ID = newID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		out = append(out, c)
	}
	s.claims[applicationID] = out
	delete(s.verifications, applicationID)
	return nil
}

func (s *MemStore) ListClaims(ctx context.Context, applicationID string) ([]model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Claim
	for _, c := range s.claims[applicationID] {
		out = append(out, cloneClaim(c))
	}
	return out, nil
}

func (s *MemStore) ResolveClaims(ctx context.Context, applicationID string, rs []ClaimResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims := s.claims[applicationID]
	index := make(map[string]int, len(claims))
	for i, c := range claims {
		index[c.ID] = i
	}
	for _, r := range rs {
		if _, ok := index[r.ClaimID]; !ok {
			return fmt.Errorf("claim %s: %w", r.ClaimID, ErrNotFound)
		}
	}
	now := time.Now().UTC()
	for _, r := range rs {
		c := &claims[index[r.ClaimID]]
		conf := r.Confidence
		c.Status = r.Status
		c.VerificationConfidence = &conf
		c.UpdatedAt = now
	}
	return nil
}

func (s *MemStore) ReplaceVerifications(ctx context.Context, applicationID string, vs []model.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.claims[applicationID]))
	for _, c := range s.claims[applicationID] {
		known[c.ID] = true
	}
	now := time.Now().UTC()
	out := make([]model.Verification, 0, len(vs))
	for _, v := range vs {
		if !known[v.ClaimID] {
			return fmt.Errorf("insert verification: unknown claim %s", v.ClaimID)
		}
		v.EvidenceURLs = slices.Clone(v.EvidenceURLs)
		v.CredibilityScore = cloneFloat(v.CredibilityScore)
		if v.ID == "" {
			v.ID = newID()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		out = append(out, v)
	}
	s.verifications[applicationID] = out
	return nil
}

func (s *MemStore) ListVerifications(ctx context.Context, applicationID string) ([]model.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Verification
	for _, v := range s.verifications[applicationID] {
		v.EvidenceURLs = slices.Clone(v.EvidenceURLs)
		v.CredibilityScore = cloneFloat(v.CredibilityScore)
		out = append(out, v)
	}
	return out, nil
}

func (s *MemStore) ReplaceOmissions(ctx context.Context, applicationID string, omissions []model.Omission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	out := make([]model.Omission, 0, len(omissions))
	for _, o := range omissions {
		o.ApplicationID = applicationID
		if o.ID == "" {
			o.ID = newID()
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		out = append(out, o)
	}
	s.omissions[applicationID] = out
	return nil
}

func (s *MemStore) ListOmissions(ctx context.Context, applicationID string) ([]model.Omission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.omissions[applicationID]), nil
}

func (s *MemStore) ReplaceTeamAssessment(ctx context.Context, applicationID string, a *model.TeamAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		delete(s.teams, applicationID)
		return nil
	}
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.ApplicationID = applicationID
	cp := *a
	cp.Strengths, cp.Concerns, cp.Details = slices.Clone(a.Strengths), slices.Clone(a.Concerns), maps.Clone(a.Details)
	s.teams[applicationID] = &cp
	return nil
}

func (s *MemStore) GetTeamAssessment(ctx context.Context, applicationID string) (*model.TeamAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.teams[applicationID]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Strengths, cp.Concerns, cp.Details = slices.Clone(a.Strengths), slices.Clone(a.Concerns), maps.Clone(a.Details)
	return &cp, nil
}

func (s *MemStore) ReplaceMarketAssessment(ctx context.Context, applicationID string, a *model.MarketAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		delete(s.markets, applicationID)
		return nil
	}
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.ApplicationID = applicationID
	cp := *a
	cp.Strengths, cp.Concerns, cp.Details = slices.Clone(a.Strengths), slices.Clone(a.Concerns), maps.Clone(a.Details)
	s.markets[applicationID] = &cp
	return nil
}

func (s *MemStore) GetMarketAssessment(ctx context.Context, applicationID string) (*model.MarketAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.markets[applicationID]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Strengths, cp.Concerns, cp.Details = slices.Clone(a.Strengths), slices.Clone(a.Concerns), maps.Clone(a.Details)
	return &cp, nil
}

func (s *MemStore) ReplaceReport(ctx context.Context, r *model.Report) error {
	if r == nil {
		return errors.New("report is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[r.ApplicationID]
	if !ok {
		return fmt.Errorf("application %s: %w", r.ApplicationID, ErrNotFound)
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	s.reports[r.ApplicationID] = cloneReport(r)
	app.CurrentReportID = r.ID
	app.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemStore) GetReport(ctx context.Context, applicationID string) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[applicationID]
	if !ok {
		return nil, fmt.Errorf("report for %s: %w", applicationID, ErrNotFound)
	}
	return cloneReport(r), nil
}

func (s *MemStore) AppendRunLog(ctx context.Context, e model.AgentRunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	s.runLogs[e.ApplicationID] = append(s.runLogs[e.ApplicationID], e)
	return nil
}

func (s *MemStore) ListRunLogs(ctx context.Context, applicationID string) ([]model.AgentRunLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.runLogs[applicationID]), nil
}

func cloneApplication(a *model.Application) *model.Application {
	cp := *a
	cp.Founders = slices.Clone(a.Founders)
	cp.Metrics = maps.Clone(a.Metrics)
	cp.Documents = slices.Clone(a.Documents)
	cp.DDStartedAt = cloneTime(a.DDStartedAt)
	cp.DDCompletedAt = cloneTime(a.DDCompletedAt)
	return &cp
}

func cloneClaim(c model.Claim) model.Claim {
	c.Contradicts = slices.Clone(c.Contradicts)
	c.Corroborates = slices.Clone(c.Corroborates)
	c.VerificationConfidence = cloneFloat(c.VerificationConfidence)
	return c
}

func cloneReport(r *model.Report) *model.Report {
	cp := *r
	cp.Strengths = slices.Clone(r.Strengths)
	cp.RedFlags = slices.Clone(r.RedFlags)
	cp.ClaimsByStatus = maps.Clone(r.ClaimsByStatus)
	cp.Signals = slices.Clone(r.Signals)
	if r.TeamScore != nil {
		v := *r.TeamScore
		cp.TeamScore = &v
	}
	if r.MarketScore != nil {
		v := *r.MarketScore
		cp.MarketScore = &v
	}
	return &cp
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
