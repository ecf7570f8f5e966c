package store

// schema is portable between SQLite and PostgreSQL. DOUBLE PRECISION keeps
// REAL affinity on SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		dataset      TEXT NOT NULL,
		source       TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_dataset_created ON runs (dataset, created_at)`,
	`CREATE TABLE IF NOT EXISTS tidy_records (
		run_id          TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
		seq             INTEGER NOT NULL,
		region          TEXT NOT NULL,
		geography       TEXT NOT NULL,
		region_type     TEXT NOT NULL,
		stratum         TEXT NOT NULL,
		very_safe_pct   DOUBLE PRECISION,
		safe_pct        DOUBLE PRECISION,
		neither_pct     DOUBLE PRECISION,
		unsafe_pct      DOUBLE PRECISION,
		very_unsafe_pct DOUBLE PRECISION,
		safety_positive DOUBLE PRECISION,
		years           TEXT NOT NULL,
		level_filter    TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS composite_index (
		run_id           TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
		region           TEXT NOT NULL,
		avg_safety_score DOUBLE PRECISION,
		high_conn_share  DOUBLE PRECISION NOT NULL,
		low_conn_share   DOUBLE PRECISION NOT NULL,
		conn_ratio       DOUBLE PRECISION NOT NULL,
		climate_index    DOUBLE PRECISION,
		PRIMARY KEY (run_id, region)
	)`,
}

const (
	insertRun = `INSERT INTO runs (id, dataset, source, record_count, created_at)
		VALUES (:id, :dataset, :source, :record_count, :created_at)`

	insertTidyRecord = `INSERT INTO tidy_records (
		run_id, seq, region, geography, region_type, stratum,
		very_safe_pct, safe_pct, neither_pct, unsafe_pct, very_unsafe_pct, safety_positive,
		years, level_filter
	) VALUES (
		:run_id, :seq, :region, :geography, :region_type, :stratum,
		:very_safe_pct, :safe_pct, :neither_pct, :unsafe_pct, :very_unsafe_pct, :safety_positive,
		:years, :level_filter
	)`

	insertComposite = `INSERT INTO composite_index (
		run_id, region, avg_safety_score, high_conn_share, low_conn_share, conn_ratio, climate_index
	) VALUES (
		:run_id, :region, :avg_safety_score, :high_conn_share, :low_conn_share, :conn_ratio, :climate_index
	)`

	deleteComposite = `DELETE FROM composite_index WHERE run_id = ?`

	selectRun = `SELECT id, dataset, source, record_count, created_at FROM runs WHERE id = ?`

	selectLatestRun = `SELECT id, dataset, source, record_count, created_at FROM runs
		WHERE dataset = ? ORDER BY created_at DESC, id DESC LIMIT 1`

	selectRuns = `SELECT id, dataset, source, record_count, created_at FROM runs
		ORDER BY created_at DESC, id DESC LIMIT ?`

	selectTidyRecords = `SELECT run_id, seq, region, geography, region_type, stratum,
		very_safe_pct, safe_pct, neither_pct, unsafe_pct, very_unsafe_pct, safety_positive,
		years, level_filter
		FROM tidy_records WHERE run_id = ? ORDER BY seq`

	selectComposite = `SELECT run_id, region, avg_safety_score, high_conn_share, low_conn_share, conn_ratio, climate_index
		FROM composite_index WHERE run_id = ? ORDER BY region`
)
