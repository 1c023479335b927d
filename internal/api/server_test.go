package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/diligence/internal/accuracy"
	"github.com/ppiankov/diligence/internal/insight"
	"github.com/ppiankov/diligence/internal/model"
	"github.com/ppiankov/diligence/internal/pipeline"
	"github.com/ppiankov/diligence/internal/store"
)

type fakeDD struct {
	runErr    error
	lastForce bool
	report    *model.Report
}

func (f *fakeDD) RunDD(ctx context.Context, id string, force bool) (*model.RunResult, error) {
	if id != "app-1" {
		return nil, store.ErrNotFound
	}
	if f.runErr != nil {
		return nil, f.runErr
	}
	f.lastForce = force
	return &model.RunResult{ApplicationID: id, RunID: "run-1", Status: model.DDCompleted}, nil
}

func (f *fakeDD) Status(ctx context.Context, id string) (*model.StatusSummary, error) {
	if id != "app-1" {
		return nil, store.ErrNotFound
	}
	return &model.StatusSummary{ApplicationID: id, DDStatus: model.DDNotStarted}, nil
}

func (f *fakeDD) Runs(ctx context.Context, id string) ([]model.AgentRunLog, error) {
	if id != "app-1" {
		return nil, store.ErrNotFound
	}
	return nil, nil
}

func (f *fakeDD) View(ctx context.Context, id string) (*model.ReportView, error) {
	if id != "app-1" {
		return nil, store.ErrNotFound
	}
	return &model.ReportView{Application: &model.Application{ID: id}, Report: f.report}, nil
}

type failingNarrator struct{}

func (failingNarrator) Narrate(ctx context.Context, m accuracy.Metrics) ([]string, error) {
	return nil, errors.New("provider down")
}

func newTestServer(dd *fakeDD) *Server {
	return NewServer(dd, store.NewMemStore(), insight.NewGenerator(failingNarrator{}), "test")
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeDD{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s", ct)
	}
}

func TestRoutes_StatusCodes(t *testing.T) {
	dd := &fakeDD{report: &model.Report{OverallScore: 70}}
	srv := newTestServer(dd)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/applications/app-1/dd", http.StatusOK},
		{http.MethodGet, "/api/applications/missing/dd", http.StatusNotFound},
		{http.MethodPost, "/api/applications/app-1/dd", http.StatusOK},
		{http.MethodPost, "/api/applications/missing/dd", http.StatusNotFound},
		{http.MethodPost, "/api/applications/app-1/dd?force=maybe", http.StatusBadRequest},
		{http.MethodGet, "/api/applications/app-1/dd/report", http.StatusOK},
		{http.MethodGet, "/api/applications/missing/dd/report", http.StatusNotFound},
		{http.MethodGet, "/api/applications/app-1/dd/runs", http.StatusOK},
		{http.MethodGet, "/api/applications/missing/dd/runs", http.StatusNotFound},
		{http.MethodDelete, "/api/applications/app-1/dd", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRun_ForceFlag(t *testing.T) {
	dd := &fakeDD{}
	rec := do(t, newTestServer(dd), http.MethodPost, "/api/applications/app-1/dd?force=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !dd.lastForce {
		t.Error("force flag not passed through")
	}
	var res model.RunResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RunID != "run-1" || res.Status != model.DDCompleted {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_StageErrorIsReported(t *testing.T) {
	dd := &fakeDD{runErr: &pipeline.StageError{Kind: pipeline.KindBlocking, Stage: pipeline.StageExtraction, Err: errors.New("model unavailable")}}
	rec := do(t, newTestServer(dd), http.MethodPost, "/api/applications/app-1/dd", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Error != "dd run failed" || !strings.Contains(body.Details, "model unavailable") {
		t.Errorf("error body = %+v", body)
	}
}

func TestReport_MissingReport(t *testing.T) {
	rec := do(t, newTestServer(&fakeDD{}), http.MethodGet, "/api/applications/app-1/dd/report", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "no report" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestRuns_EmptyListIsArray(t *testing.T) {
	rec := do(t, newTestServer(&fakeDD{}), http.MethodGet, "/api/applications/app-1/dd/runs", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestSaveAndListApplications(t *testing.T) {
	srv := newTestServer(&fakeDD{})

	rec := do(t, srv, http.MethodPost, "/api/applications", `{"id":"app-9","company_name":"Beta","dd_status":"completed"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var saved model.Application
	if err := json.NewDecoder(rec.Body).Decode(&saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.DDStatus != model.DDNotStarted {
		t.Errorf("client-supplied dd_status accepted: %s", saved.DDStatus)
	}

	rec = do(t, srv, http.MethodPost, "/api/applications", `{"id":"app-10"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing company_name: status = %d", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/applications", `{"company_name":"X","bogus":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/applications", "")
	var apps []model.Application
	if err := json.NewDecoder(rec.Body).Decode(&apps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(apps) != 1 || apps[0].CompanyName != "Beta" {
		t.Errorf("apps = %+v", apps)
	}
}

func TestAccuracy_FallsBackToRules(t *testing.T) {
	body, _ := json.Marshal(accuracy.Input{})
	rec := do(t, newTestServer(&fakeDD{}), http.MethodPost, "/api/accuracy", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp accuracyResponse
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Metrics.TotalDecisions != 0 {
		t.Errorf("total decisions = %d", resp.Metrics.TotalDecisions)
	}
	if diff := cmp.Diff(insight.Rules(accuracy.Compute(accuracy.Input{})), resp.Insights); diff != "" {
		t.Errorf("insights (-want +got):\n%s", diff)
	}
}

func TestAccuracy_RejectsMalformedInput(t *testing.T) {
	rec := do(t, newTestServer(&fakeDD{}), http.MethodPost, "/api/accuracy", `{"decisions": "nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "invalid accuracy input" {
		t.Errorf("error = %q", body.Error)
	}
}
