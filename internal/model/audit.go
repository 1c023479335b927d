package model

import "time"

// StageStatus is the outcome of one pipeline stage
type StageStatus string

const (
	StageSucceeded StageStatus = "success"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// AgentRunLog is one audit entry describing a pipeline stage execution
type AgentRunLog struct {
	ID            string      `json:"id"`
	ApplicationID string      `json:"application_id"`
	RunID         string      `json:"run_id"`
	Stage         string      `json:"stage"`
	Status        StageStatus `json:"status"`
	StartedAt     time.Time   `json:"started_at"`
	DurationMS    int64       `json:"duration_ms"`
	Summary       string      `json:"summary,omitempty"`
	Error         string      `json:"error,omitempty"`
}
