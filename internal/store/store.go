package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ewscli/internal/config"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/infrastructure"
	"ewscli/pkg/contracts/domain"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Run is one persisted pipeline execution
type Run struct {
	ID          string    `db:"id" json:"id"`
	Dataset     string    `db:"dataset" json:"dataset"`
	Source      string    `db:"source" json:"source"`
	RecordCount int       `db:"record_count" json:"record_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Store persists tidy records and composite index rows
type Store struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the configured database and verifies the connection.
// Call Migrate before first use.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "store")

	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, apierrors.NewConfigError("unsupported store driver", err)
	}

	db, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, apierrors.NewStorageError("open database", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// a single connection serializes writers on the file
		db.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, apierrors.NewStorageError("apply pragmas", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apierrors.NewStorageError("connect to database", err)
	}

	logger.InfoContext(ctx, "Store opened", slog.String("driver", cfg.Driver))
	return &Store{
		db:     db,
		driver: cfg.Driver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverSQLite:
		return "sqlite", nil
	case config.DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unknown driver %q", driver)
	}
}

func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apierrors.NewStorageError("ping", err)
	}
	return nil
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apierrors.NewStorageError(fmt.Sprintf("migration step %d", i+1), err)
		}
	}
	return nil
}

// SaveTidyRecords stores records under a new run and returns its ID
func (s *Store) SaveTidyRecords(ctx context.Context, dataset, source string, records []domain.TidyRecord) (string, error) {
	run := Run{
		ID:          uuid.NewString(),
		Dataset:     dataset,
		Source:      source,
		RecordCount: len(records),
		CreatedAt:   s.now(),
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertRun, run); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for i, r := range records {
			if _, err := tx.NamedExecContext(ctx, insertTidyRecord, tidyRowFrom(run.ID, i, r)); err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", apierrors.NewStorageError("save tidy records", err).WithContext("dataset", dataset)
	}

	s.logger.InfoContext(ctx, "Tidy records stored",
		slog.String("run_id", run.ID),
		slog.String("dataset", dataset),
		slog.Int("record_count", len(records)))
	return run.ID, nil
}

// SaveCompositeIndex stores the composite index computed for runID,
// replacing any previous rows for that run
func (s *Store) SaveCompositeIndex(ctx context.Context, runID string, rows []domain.CompositeIndexRow) error {
	if _, err := s.Run(ctx, runID); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteComposite), runID); err != nil {
			return fmt.Errorf("clear composite: %w", err)
		}
		for i, r := range rows {
			if _, err := tx.NamedExecContext(ctx, insertComposite, compositeRowFrom(runID, r)); err != nil {
				return fmt.Errorf("insert composite row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return apierrors.NewStorageError("save composite index", err).WithContext("run_id", runID)
	}
	return nil
}

// Run returns the run with the given ID
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(selectRun), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, apierrors.NewNotFoundError("run").WithContext("run_id", runID)
	}
	if err != nil {
		return Run{}, apierrors.NewStorageError("load run", err)
	}
	return run, nil
}

// LatestRun returns the most recent run for dataset
func (s *Store) LatestRun(ctx context.Context, dataset string) (Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(selectLatestRun), dataset)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, apierrors.NewNotFoundError("run").WithContext("dataset", dataset)
	}
	if err != nil {
		return Run{}, apierrors.NewStorageError("load latest run", err)
	}
	return run, nil
}

// Runs lists runs newest first
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []Run{}
	if err := s.db.SelectContext(ctx, &runs, s.db.Rebind(selectRuns), limit); err != nil {
		return nil, apierrors.NewStorageError("list runs", err)
	}
	return runs, nil
}

// TidyRecords returns the records of runID in stored order
func (s *Store) TidyRecords(ctx context.Context, runID string) ([]domain.TidyRecord, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	var rows []tidyRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectTidyRecords), runID); err != nil {
		return nil, apierrors.NewStorageError("load tidy records", err)
	}
	records := make([]domain.TidyRecord, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return records, nil
}

// CompositeIndex returns the composite rows of runID ordered by region
func (s *Store) CompositeIndex(ctx context.Context, runID string) ([]domain.CompositeIndexRow, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	var rows []compositeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectComposite), runID); err != nil {
		return nil, apierrors.NewStorageError("load composite index", err)
	}
	out := make([]domain.CompositeIndexRow, len(rows))
	for i, r := range rows {
		out[i] = r.row()
	}
	return out, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WarnContext(ctx, "rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
