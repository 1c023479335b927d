package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/diligence/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store with SQLite
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite DB at path, applies pragmas and the schema.
// Creates the parent directory (e.g. .diligence) if it does not exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	// Connection-scoped pragmas go in the DSN so every pooled connection gets them
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing only if fn succeeds
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Applications ---

const applicationColumns = `id, company_name, one_liner, problem, solution, market, traction,
	founders, metrics, documents, dd_status, dd_started_at, dd_completed_at,
	current_report_id, created_at, updated_at`

// SaveApplication inserts or updates the application's content fields.
// DD state is only changed through UpdateDDStatus and ReplaceReport.
func (s *SQLiteStore) SaveApplication(ctx context.Context, app *model.Application) error {
	if app == nil {
		return errors.New("application is nil")
	}
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

	founders, err := marshalJSON(app.Founders, "[]")
	if err != nil {
		return err
	}
	metrics, err := marshalJSON(app.Metrics, "{}")
	if err != nil {
		return err
	}
	documents, err := marshalJSON(app.Documents, "[]")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_name = excluded.company_name,
			one_liner = excluded.one_liner,
			problem = excluded.problem,
			solution = excluded.solution,
			market = excluded.market,
			traction = excluded.traction,
			founders = excluded.founders,
			metrics = excluded.metrics,
			documents = excluded.documents,
			updated_at = excluded.updated_at`,
		app.ID, app.CompanyName, app.OneLiner, app.Problem, app.Solution, app.Market, app.Traction,
		founders, metrics, documents, string(app.DDStatus), fmtTimePtr(app.DDStartedAt), fmtTimePtr(app.DDCompletedAt),
		nullIfEmpty(app.CurrentReportID), fmtTime(app.CreatedAt), fmtTime(app.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save application: %w", err)
	}
	return nil
}

// GetApplication returns the application or ErrNotFound
func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// ListApplications returns all applications, oldest first
func (s *SQLiteStore) ListApplications(ctx context.Context) ([]*model.Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// UpdateDDStatus changes the DD state of an application
func (s *SQLiteStore) UpdateDDStatus(ctx context.Context, id string, status model.DDStatus, at time.Time) error {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	applyStatus(app, status, at.UTC())

	_, err = s.db.ExecContext(ctx, `UPDATE applications
		SET dd_status = ?, dd_started_at = ?, dd_completed_at = ?, updated_at = ?
		WHERE id = ?`,
		string(app.DDStatus), fmtTimePtr(app.DDStartedAt), fmtTimePtr(app.DDCompletedAt), fmtTime(app.UpdatedAt), id)
	if err != nil {
		return fmt.Errorf("update dd status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*model.Application, error) {
	var (
		app                           model.Application
		founders, metrics, documents  string
		status                        string
		startedAt, completedAt, curID sql.NullString
		createdAt, updatedAt          string
	)
	err := row.Scan(&app.ID, &app.CompanyName, &app.OneLiner, &app.Problem, &app.Solution, &app.Market, &app.Traction,
		&founders, &metrics, &documents, &status, &startedAt, &completedAt, &curID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(founders, &app.Founders); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metrics, &app.Metrics); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(documents, &app.Documents); err != nil {
		return nil, err
	}
	app.DDStatus = model.DDStatus(status)
	app.DDStartedAt = parseTimePtr(startedAt)
	app.DDCompletedAt = parseTimePtr(completedAt)
	app.CurrentReportID = nullStr(curID)
	app.CreatedAt = parseTime(createdAt)
	app.UpdatedAt = parseTime(updatedAt)
	return &app, nil
}

// --- Claims ---

const claimColumns = `id, application_id, category, claim_text, source_text, source_type, source_reference,
	status, priority, extraction_confidence, verification_confidence, contradicts, corroborates,
	benchmark, created_at, updated_at`

// ReplaceClaims deletes the application's claims (and, by cascade, their verifications)
// and inserts claims in one transaction
func (s *SQLiteStore) ReplaceClaims(ctx context.Context, applicationID string, claims []model.Claim) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE application_id = ?`, applicationID); err != nil {
			return fmt.Errorf("delete claims: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO claims (`+claimColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare claim insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, c := range claims {
			if c.ID == "" {
				c.ID = newID()
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			if c.UpdatedAt.IsZero() {
				c.UpdatedAt = c.CreatedAt
			}
			contradicts, err := marshalJSON(c.Contradicts, "[]")
			if err != nil {
				return err
			}
			corroborates, err := marshalJSON(c.Corroborates, "[]")
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx, c.ID, applicationID, string(c.Category), c.Text, c.SourceText,
				c.SourceType, c.SourceReference, string(c.Status), string(c.Priority), c.ExtractionConfidence,
				nullFloatPtr(c.VerificationConfidence), contradicts, corroborates, boolToInt(c.Benchmark),
				fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
			if err != nil {
				return fmt.Errorf("insert claim %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// ListClaims returns the application's claims in insertion order
func (s *SQLiteStore) ListClaims(ctx context.Context, applicationID string) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+claimColumns+` FROM claims
		WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []model.Claim
	for rows.Next() {
		var (
			c                         model.Claim
			category, status, prio    string
			verConf                   sql.NullFloat64
			contradicts, corroborates string
			benchmark                 int
			createdAt, updatedAt      string
		)
		err := rows.Scan(&c.ID, &c.ApplicationID, &category, &c.Text, &c.SourceText, &c.SourceType, &c.SourceReference,
			&status, &prio, &c.ExtractionConfidence, &verConf, &contradicts, &corroborates, &benchmark, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		if err := unmarshalJSON(contradicts, &c.Contradicts); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(corroborates, &c.Corroborates); err != nil {
			return nil, err
		}
		c.Category = model.ClaimCategory(category)
		c.Status = model.ClaimStatus(status)
		c.Priority = model.Priority(prio)
		c.VerificationConfidence = floatPtr(verConf)
		c.Benchmark = benchmark != 0
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ResolveClaims writes resolved statuses and confidences in one transaction.
// An unknown claim rolls back the whole set.
func (s *SQLiteStore) ResolveClaims(ctx context.Context, applicationID string, rs []ClaimResolution) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE claims SET status = ?, verification_confidence = ?, updated_at = ?
			WHERE id = ? AND application_id = ?`)
		if err != nil {
			return fmt.Errorf("prepare claim resolution: %w", err)
		}
		defer stmt.Close()

		now := nowUTC()
		for _, r := range rs {
			res, err := stmt.ExecContext(ctx, string(r.Status), r.Confidence, now, r.ClaimID, applicationID)
			if err != nil {
				return fmt.Errorf("resolve claim %s: %w", r.ClaimID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("claim %s: %w", r.ClaimID, ErrNotFound)
			}
		}
		return nil
	})
}

// --- Verifications ---

const verificationColumns = `id, application_id, claim_id, source_type, source_name, source_credentials,
	verdict, confidence, evidence, evidence_urls, credibility_score, created_at`

// ReplaceVerifications deletes the application's verifications and inserts vs in one transaction
func (s *SQLiteStore) ReplaceVerifications(ctx context.Context, applicationID string, vs []model.Verification) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM verifications WHERE application_id = ?`, applicationID); err != nil {
			return fmt.Errorf("delete verifications: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO verifications (`+verificationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare verification insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, v := range vs {
			if v.ID == "" {
				v.ID = newID()
			}
			if v.CreatedAt.IsZero() {
				v.CreatedAt = now
			}
			urls, err := marshalJSON(v.EvidenceURLs, "[]")
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx, v.ID, applicationID, v.ClaimID, v.SourceType, v.SourceName,
				v.SourceCredentials, string(v.Verdict), v.Confidence, v.Evidence, urls,
				nullFloatPtr(v.CredibilityScore), fmtTime(v.CreatedAt))
			if err != nil {
				return fmt.Errorf("insert verification %s: %w", v.ID, err)
			}
		}
		return nil
	})
}

// ListVerifications returns the application's verifications in insertion order
func (s *SQLiteStore) ListVerifications(ctx context.Context, applicationID string) ([]model.Verification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+verificationColumns+` FROM verifications
		WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []model.Verification
	for rows.Next() {
		var (
			v           model.Verification
			appID       string
			verdict     string
			urls        string
			credibility sql.NullFloat64
			createdAt   string
		)
		err := rows.Scan(&v.ID, &appID, &v.ClaimID, &v.SourceType, &v.SourceName, &v.SourceCredentials,
			&verdict, &v.Confidence, &v.Evidence, &urls, &credibility, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		if err := unmarshalJSON(urls, &v.EvidenceURLs); err != nil {
			return nil, err
		}
		v.Verdict = model.Verdict(verdict)
		v.CredibilityScore = floatPtr(credibility)
		v.CreatedAt = parseTime(createdAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- Omissions and assessments ---

// ReplaceOmissions deletes the application's omissions and inserts omissions
func (s *SQLiteStore) ReplaceOmissions(ctx context.Context, applicationID string, omissions []model.Omission) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM omissions WHERE application_id = ?`, applicationID); err != nil {
			return fmt.Errorf("delete omissions: %w", err)
		}
		now := time.Now().UTC()
		for _, o := range omissions {
			if o.ID == "" {
				o.ID = newID()
			}
			if o.CreatedAt.IsZero() {
				o.CreatedAt = now
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO omissions
				(id, application_id, category, description, severity, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				o.ID, applicationID, string(o.Category), o.Description, string(o.Severity), fmtTime(o.CreatedAt))
			if err != nil {
				return fmt.Errorf("insert omission: %w", err)
			}
		}
		return nil
	})
}

// ListOmissions returns the application's omissions
func (s *SQLiteStore) ListOmissions(ctx context.Context, applicationID string) ([]model.Omission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, application_id, category, description, severity, created_at
		FROM omissions WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list omissions: %w", err)
	}
	defer rows.Close()

	var out []model.Omission
	for rows.Next() {
		var (
			o                  model.Omission
			category, severity string
			createdAt          string
		)
		if err := rows.Scan(&o.ID, &o.ApplicationID, &category, &o.Description, &severity, &createdAt); err != nil {
			return nil, fmt.Errorf("scan omission: %w", err)
		}
		o.Category = model.ClaimCategory(category)
		o.Severity = model.SignalSeverity(severity)
		o.CreatedAt = parseTime(createdAt)
		out = append(out, o)
	}
	return out, rows.Err()
}

const (
	kindTeam   = "team"
	kindMarket = "market"
)

// assessmentRow is the shared storage shape of team and market assessments
type assessmentRow struct {
	ID        string
	Score     int
	Grade     string
	Summary   string
	Strengths []string
	Concerns  []string
	Details   map[string]interface{}
	CreatedAt time.Time
}

func (s *SQLiteStore) replaceAssessment(ctx context.Context, applicationID, kind string, a *assessmentRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE application_id = ? AND kind = ?`,
			applicationID, kind); err != nil {
			return fmt.Errorf("delete %s assessment: %w", kind, err)
		}
		if a == nil {
			return nil
		}
		if a.ID == "" {
			a.ID = newID()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		strengths, err := marshalJSON(a.Strengths, "[]")
		if err != nil {
			return err
		}
		concerns, err := marshalJSON(a.Concerns, "[]")
		if err != nil {
			return err
		}
		details, err := marshalJSON(a.Details, "{}")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO assessments
			(id, application_id, kind, score, grade, summary, strengths, concerns, details, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, applicationID, kind, a.Score, a.Grade, a.Summary, strengths, concerns, details, fmtTime(a.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert %s assessment: %w", kind, err)
		}
		return nil
	})
}

func (s *SQLiteStore) getAssessment(ctx context.Context, applicationID, kind string) (*assessmentRow, error) {
	var (
		a                            assessmentRow
		strengths, concerns, details string
		createdAt                    string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, score, grade, summary, strengths, concerns, details, created_at
		FROM assessments WHERE application_id = ? AND kind = ?`, applicationID, kind).
		Scan(&a.ID, &a.Score, &a.Grade, &a.Summary, &strengths, &concerns, &details, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s assessment: %w", kind, err)
	}
	if err := unmarshalJSON(strengths, &a.Strengths); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(concerns, &a.Concerns); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(details, &a.Details); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

// ReplaceTeamAssessment stores a as the live team assessment (nil removes it)
func (s *SQLiteStore) ReplaceTeamAssessment(ctx context.Context, applicationID string, a *model.TeamAssessment) error {
	var row *assessmentRow
	if a != nil {
		row = &assessmentRow{a.ID, a.Score, a.Grade, a.Summary, a.Strengths, a.Concerns, a.Details, a.CreatedAt}
	}
	if err := s.replaceAssessment(ctx, applicationID, kindTeam, row); err != nil {
		return err
	}
	if a != nil {
		a.ID, a.ApplicationID, a.CreatedAt = row.ID, applicationID, row.CreatedAt
	}
	return nil
}

// GetTeamAssessment returns the live team assessment, or nil if there is none
func (s *SQLiteStore) GetTeamAssessment(ctx context.Context, applicationID string) (*model.TeamAssessment, error) {
	row, err := s.getAssessment(ctx, applicationID, kindTeam)
	if err != nil || row == nil {
		return nil, err
	}
	return &model.TeamAssessment{
		ID: row.ID, ApplicationID: applicationID, Score: row.Score, Grade: row.Grade, Summary: row.Summary,
		Strengths: row.Strengths, Concerns: row.Concerns, Details: row.Details, CreatedAt: row.CreatedAt,
	}, nil
}

// ReplaceMarketAssessment stores a as the live market assessment (nil removes it)
func (s *SQLiteStore) ReplaceMarketAssessment(ctx context.Context, applicationID string, a *model.MarketAssessment) error {
	var row *assessmentRow
	if a != nil {
		row = &assessmentRow{a.ID, a.Score, a.Grade, a.Summary, a.Strengths, a.Concerns, a.Details, a.CreatedAt}
	}
	if err := s.replaceAssessment(ctx, applicationID, kindMarket, row); err != nil {
		return err
	}
	if a != nil {
		a.ID, a.ApplicationID, a.CreatedAt = row.ID, applicationID, row.CreatedAt
	}
	return nil
}

// GetMarketAssessment returns the live market assessment, or nil if there is none
func (s *SQLiteStore) GetMarketAssessment(ctx context.Context, applicationID string) (*model.MarketAssessment, error) {
	row, err := s.getAssessment(ctx, applicationID, kindMarket)
	if err != nil || row == nil {
		return nil, err
	}
	return &model.MarketAssessment{
		ID: row.ID, ApplicationID: applicationID, Score: row.Score, Grade: row.Grade, Summary: row.Summary,
		Strengths: row.Strengths, Concerns: row.Concerns, Details: row.Details, CreatedAt: row.CreatedAt,
	}, nil
}

// --- Reports ---

const reportColumns = `id, application_id, overall_score, grade, verdict, summary, strengths, red_flags,
	total_claims, verified_claims, refuted_claims, disputed_claims, claims_by_status,
	verification_coverage, total_omissions, team_score, market_score, signals, generated_at`

// ReplaceReport deletes the application's report, inserts r and points the application at it
func (s *SQLiteStore) ReplaceReport(ctx context.Context, r *model.Report) error {
	if r == nil {
		return errors.New("report is nil")
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	strengths, err := marshalJSON(r.Strengths, "[]")
	if err != nil {
		return err
	}
	redFlags, err := marshalJSON(r.RedFlags, "[]")
	if err != nil {
		return err
	}
	byStatus, err := marshalJSON(r.ClaimsByStatus, "{}")
	if err != nil {
		return err
	}
	signals, err := marshalJSON(r.Signals, "[]")
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE application_id = ?`, r.ApplicationID); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.ApplicationID, r.OverallScore, r.Grade, string(r.Verdict), r.Summary, strengths, redFlags,
			r.TotalClaims, r.VerifiedClaims, r.RefutedClaims, r.DisputedClaims, byStatus,
			r.VerificationCoverage, r.TotalOmissions, nullIntPtr(r.TeamScore), nullIntPtr(r.MarketScore),
			signals, fmtTime(r.GeneratedAt))
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE applications SET current_report_id = ?, updated_at = ? WHERE id = ?`,
			r.ID, nowUTC(), r.ApplicationID)
		if err != nil {
			return fmt.Errorf("link report: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("application %s: %w", r.ApplicationID, ErrNotFound)
		}
		return nil
	})
}

// GetReport returns the application's current report or ErrNotFound
func (s *SQLiteStore) GetReport(ctx context.Context, applicationID string) (*model.Report, error) {
	var (
		r                                   model.Report
		verdict                             string
		strengths, redFlags, byStatus, sigs string
		teamScore, marketScore              sql.NullInt64
		generatedAt                         string
	)
	err := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE application_id = ?`, applicationID).
		Scan(&r.ID, &r.ApplicationID, &r.OverallScore, &r.Grade, &verdict, &r.Summary, &strengths, &redFlags,
			&r.TotalClaims, &r.VerifiedClaims, &r.RefutedClaims, &r.DisputedClaims, &byStatus,
			&r.VerificationCoverage, &r.TotalOmissions, &teamScore, &marketScore, &sigs, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report for %s: %w", applicationID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst any
	}{{strengths, &r.Strengths}, {redFlags, &r.RedFlags}, {byStatus, &r.ClaimsByStatus}, {sigs, &r.Signals}} {
		if err := unmarshalJSON(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	r.Verdict = model.RecommendationVerdict(verdict)
	r.TeamScore = intPtr(teamScore)
	r.MarketScore = intPtr(marketScore)
	r.GeneratedAt = parseTime(generatedAt)
	return &r, nil
}

// --- Audit log ---

// AppendRunLog appends one stage entry to the audit log
func (s *SQLiteStore) AppendRunLog(ctx context.Context, e model.AgentRunLog) error {
	if e.ID == "" {
		e.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO agent_run_logs
		(id, application_id, run_id, stage, status, started_at, duration_ms, summary, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ApplicationID, e.RunID, e.Stage, string(e.Status), fmtTime(e.StartedAt), e.DurationMS, e.Summary, e.Error)
	if err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}

// ListRunLogs returns the application's audit entries in the order they were written
func (s *SQLiteStore) ListRunLogs(ctx context.Context, applicationID string) ([]model.AgentRunLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, application_id, run_id, stage, status, started_at, duration_ms, summary, error
		FROM agent_run_logs WHERE application_id = ? ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	defer rows.Close()

	var out []model.AgentRunLog
	for rows.Next() {
		var (
			e         model.AgentRunLog
			status    string
			startedAt string
		)
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.RunID, &e.Stage, &status, &startedAt,
			&e.DurationMS, &e.Summary, &e.Error); err != nil {
			return nil, fmt.Errorf("scan run log: %w", err)
		}
		e.Status = model.StageStatus(status)
		e.StartedAt = parseTime(startedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- helpers ---

func nowUTC() string { return fmtTime(time.Now().UTC()) }

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

// nullStr converts a sql.NullString to a plain string (empty if null)
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloatPtr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func nullIntPtr(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// marshalJSON encodes v for a JSON text column, using empty for nil values
func marshalJSON(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func unmarshalJSON(raw string, dst any) error {
	if raw == "" || raw == "[]" || raw == "{}" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
