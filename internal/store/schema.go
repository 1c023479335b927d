package store

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	id                TEXT PRIMARY KEY,
	company_name      TEXT NOT NULL,
	one_liner         TEXT NOT NULL DEFAULT '',
	problem           TEXT NOT NULL DEFAULT '',
	solution          TEXT NOT NULL DEFAULT '',
	market            TEXT NOT NULL DEFAULT '',
	traction          TEXT NOT NULL DEFAULT '',
	founders          TEXT NOT NULL DEFAULT '[]',
	metrics           TEXT NOT NULL DEFAULT '{}',
	documents         TEXT NOT NULL DEFAULT '[]',
	dd_status         TEXT NOT NULL DEFAULT 'not_started',
	dd_started_at     TEXT,
	dd_completed_at   TEXT,
	current_report_id TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS claims (
	id                      TEXT PRIMARY KEY,
	application_id          TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	category                TEXT NOT NULL,
	claim_text              TEXT NOT NULL,
	source_text             TEXT NOT NULL DEFAULT '',
	source_type             TEXT NOT NULL DEFAULT '',
	source_reference        TEXT NOT NULL DEFAULT '',
	status                  TEXT NOT NULL,
	priority                TEXT NOT NULL DEFAULT '',
	extraction_confidence   REAL NOT NULL DEFAULT 0,
	verification_confidence REAL,
	contradicts             TEXT NOT NULL DEFAULT '[]',
	corroborates            TEXT NOT NULL DEFAULT '[]',
	benchmark               INTEGER NOT NULL DEFAULT 0,
	created_at              TEXT NOT NULL,
	updated_at              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_claims_application ON claims(application_id);

CREATE TABLE IF NOT EXISTS verifications (
	id                 TEXT PRIMARY KEY,
	application_id     TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	claim_id           TEXT NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
	source_type        TEXT NOT NULL DEFAULT '',
	source_name        TEXT NOT NULL DEFAULT '',
	source_credentials TEXT NOT NULL DEFAULT '',
	verdict            TEXT NOT NULL,
	confidence         REAL NOT NULL DEFAULT 0,
	evidence           TEXT NOT NULL DEFAULT '',
	evidence_urls      TEXT NOT NULL DEFAULT '[]',
	credibility_score  REAL,
	created_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verifications_application ON verifications(application_id);
CREATE INDEX IF NOT EXISTS idx_verifications_claim ON verifications(claim_id);

CREATE TABLE IF NOT EXISTS omissions (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	category       TEXT NOT NULL,
	description    TEXT NOT NULL,
	severity       TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	kind           TEXT NOT NULL,
	score          INTEGER NOT NULL,
	grade          TEXT NOT NULL,
	summary        TEXT NOT NULL DEFAULT '',
	strengths      TEXT NOT NULL DEFAULT '[]',
	concerns       TEXT NOT NULL DEFAULT '[]',
	details        TEXT NOT NULL DEFAULT '{}',
	created_at     TEXT NOT NULL,
	UNIQUE(application_id, kind)
);

CREATE TABLE IF NOT EXISTS reports (
	id                    TEXT PRIMARY KEY,
	application_id        TEXT NOT NULL UNIQUE REFERENCES applications(id) ON DELETE CASCADE,
	overall_score         INTEGER NOT NULL,
	grade                 TEXT NOT NULL,
	verdict               TEXT NOT NULL,
	summary               TEXT NOT NULL DEFAULT '',
	strengths             TEXT NOT NULL DEFAULT '[]',
	red_flags             TEXT NOT NULL DEFAULT '[]',
	total_claims          INTEGER NOT NULL DEFAULT 0,
	verified_claims       INTEGER NOT NULL DEFAULT 0,
	refuted_claims        INTEGER NOT NULL DEFAULT 0,
	disputed_claims       INTEGER NOT NULL DEFAULT 0,
	claims_by_status      TEXT NOT NULL DEFAULT '{}',
	verification_coverage REAL NOT NULL DEFAULT 0,
	total_omissions       INTEGER NOT NULL DEFAULT 0,
	team_score            INTEGER,
	market_score          INTEGER,
	signals               TEXT NOT NULL DEFAULT '[]',
	generated_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_run_logs (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL,
	run_id         TEXT NOT NULL,
	stage          TEXT NOT NULL,
	status         TEXT NOT NULL,
	started_at     TEXT NOT NULL,
	duration_ms    INTEGER NOT NULL DEFAULT 0,
	summary        TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_logs_application ON agent_run_logs(application_id, started_at);
`
