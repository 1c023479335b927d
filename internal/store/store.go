// Package store persists applications and everything a DD run produces.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/diligence/internal/idgen"
	"github.com/ppiankov/diligence/internal/model"
)

// DefaultDBPath is the default relative path for the SQLite DB (per-workspace).
const DefaultDBPath = ".diligence/diligence.db"

// ErrNotFound is returned for unknown applications and missing reports
var ErrNotFound = errors.New("not found")

// newID fills in IDs the caller left empty
var newID = idgen.UUIDv7()

// ClaimResolution is the resolved status of one claim
type ClaimResolution struct {
	ClaimID    string
	Status     model.ClaimStatus
	Confidence float64
}

// Store is the persistence facade used by the pipeline, API and CLI.
// Replace* methods delete every existing row for the application and insert
// the given set as one unit.
type Store interface {
	// Applications
	SaveApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	ListApplications(ctx context.Context) ([]*model.Application, error)
	UpdateDDStatus(ctx context.Context, id string, status model.DDStatus, at time.Time) error

	// Claims and verifications. Replacing claims also drops their verifications.
	ReplaceClaims(ctx context.Context, applicationID string, claims []model.Claim) error
	ListClaims(ctx context.Context, applicationID string) ([]model.Claim, error)
	ResolveClaims(ctx context.Context, applicationID string, rs []ClaimResolution) error
	ReplaceVerifications(ctx context.Context, applicationID string, vs []model.Verification) error
	ListVerifications(ctx context.Context, applicationID string) ([]model.Verification, error)

	// Side-channel outputs. A nil assessment removes the live one.
	ReplaceOmissions(ctx context.Context, applicationID string, omissions []model.Omission) error
	ListOmissions(ctx context.Context, applicationID string) ([]model.Omission, error)
	ReplaceTeamAssessment(ctx context.Context, applicationID string, a *model.TeamAssessment) error
	GetTeamAssessment(ctx context.Context, applicationID string) (*model.TeamAssessment, error)
	ReplaceMarketAssessment(ctx context.Context, applicationID string, a *model.MarketAssessment) error
	GetMarketAssessment(ctx context.Context, applicationID string) (*model.MarketAssessment, error)

	// Reports. ReplaceReport also points the application at the new report.
	ReplaceReport(ctx context.Context, r *model.Report) error
	GetReport(ctx context.Context, applicationID string) (*model.Report, error)

	// Audit log
	AppendRunLog(ctx context.Context, entry model.AgentRunLog) error
	ListRunLogs(ctx context.Context, applicationID string) ([]model.AgentRunLog, error)

	Close() error
}

// Open returns the store selected by cfg.Driver
func Open(cfg model.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = DefaultDBPath
		}
		return OpenSQLite(path)
	case "memory":
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// applyStatus updates the DD fields of app for a status change at the given time.
// Entering claims_extracted marks a new run: start is stamped and completion cleared.
func applyStatus(app *model.Application, status model.DDStatus, at time.Time) {
	app.DDStatus = status
	app.UpdatedAt = at
	switch status {
	case model.DDClaimsExtracted:
		started := at
		app.DDStartedAt = &started
		app.DDCompletedAt = nil
	case model.DDCompleted:
		completed := at
		app.DDCompletedAt = &completed
	}
}
