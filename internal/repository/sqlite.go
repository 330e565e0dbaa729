package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/models"
)

// Repository is the badge ledger: which badges were written, by which run
type Repository struct {
	db    *sql.DB
	newID func() string
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db, newID: uuid.NewString}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			status TEXT NOT NULL DEFAULT 'running',
			rendered INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS badges (
			code TEXT PRIMARY KEY,
			order_code TEXT NOT NULL,
			position_id INTEGER NOT NULL,
			item INTEGER NOT NULL,
			category TEXT NOT NULL,
			pseudonym TEXT NOT NULL,
			svg_sha256 TEXT NOT NULL,
			svg_path TEXT NOT NULL,
			pdf_path TEXT,
			rendered_at DATETIME NOT NULL,
			run_id TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS badge_failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			code TEXT NOT NULL,
			position_id INTEGER NOT NULL,
			stage TEXT NOT NULL,
			error TEXT NOT NULL,
			failed_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_badges_order ON badges(order_code)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON badge_failures(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Run Methods ====================

// StartRun records a new run and returns its id
func (r *Repository) StartRun(ctx context.Context, mode string, startedAt time.Time) (string, error) {
	id := r.newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, started_at, status) VALUES (?, ?, ?, ?)
	`, id, mode, startedAt.UTC(), models.RunRunning)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun stores a run's outcome
func (r *Repository) FinishRun(ctx context.Context, id, status string, rendered, skipped, failed int, finishedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, rendered = ?, skipped = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, status, rendered, skipped, failed, finishedAt.UTC(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `id, mode, started_at, finished_at, status, rendered, skipped, failed`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (models.Run, error) {
	var run models.Run
	var finished sql.NullTime
	if err := s.Scan(&run.ID, &run.Mode, &run.StartedAt, &finished, &run.Status, &run.Rendered, &run.Skipped, &run.Failed); err != nil {
		return models.Run{}, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

// GetRun retrieves a run by id
func (r *Repository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ==================== Badge Methods ====================

// RecordBadge stores the latest artifact for badge.Code, replacing any
// earlier record for the same code
func (r *Repository) RecordBadge(ctx context.Context, badge models.BadgeRecord) error {
	if badge.Code == "" {
		return errors.InvalidInput("badge code is required")
	}
	var runID any
	if badge.RunID != "" {
		runID = badge.RunID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO badges (code, order_code, position_id, item, category, pseudonym, svg_sha256, svg_path, pdf_path, rendered_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			order_code = excluded.order_code,
			position_id = excluded.position_id,
			item = excluded.item,
			category = excluded.category,
			pseudonym = excluded.pseudonym,
			svg_sha256 = excluded.svg_sha256,
			svg_path = excluded.svg_path,
			pdf_path = excluded.pdf_path,
			rendered_at = excluded.rendered_at,
			run_id = excluded.run_id
	`, badge.Code, badge.OrderCode, badge.PositionID, badge.Item, badge.Category, badge.Pseudonym,
		badge.SVGSHA256, badge.SVGPath, badge.PDFPath, badge.RenderedAt.UTC(), runID)
	return err
}

const badgeColumns = `code, order_code, position_id, item, category, pseudonym, svg_sha256, svg_path, pdf_path, rendered_at, run_id`

func scanBadge(s scanner) (models.BadgeRecord, error) {
	var b models.BadgeRecord
	var pdfPath, runID sql.NullString
	if err := s.Scan(&b.Code, &b.OrderCode, &b.PositionID, &b.Item, &b.Category, &b.Pseudonym,
		&b.SVGSHA256, &b.SVGPath, &pdfPath, &b.RenderedAt, &runID); err != nil {
		return models.BadgeRecord{}, err
	}
	b.PDFPath = pdfPath.String
	b.RunID = runID.String
	return b, nil
}

// GetBadge retrieves the record for a badge code
func (r *Repository) GetBadge(ctx context.Context, code string) (*models.BadgeRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+badgeColumns+` FROM badges WHERE code = ?`, code)
	b, err := scanBadge(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBadges returns badges ordered by code. An empty orderCode lists all.
func (r *Repository) ListBadges(ctx context.Context, orderCode string) ([]models.BadgeRecord, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges`
	var args []any
	if orderCode != "" {
		query += ` WHERE order_code = ?`
		args = append(args, orderCode)
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	badges := []models.BadgeRecord{}
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// RecordFailure stores a position that failed during a run
func (r *Repository) RecordFailure(ctx context.Context, f models.BadgeFailure) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO badge_failures (run_id, code, position_id, stage, error, failed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.RunID, f.Code, f.PositionID, f.Stage, f.Error, f.FailedAt.UTC())
	return err
}

// ListFailures returns a run's failures in the order they were recorded
func (r *Repository) ListFailures(ctx context.Context, runID string) ([]models.BadgeFailure, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, code, position_id, stage, error, failed_at
		FROM badge_failures WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failures := []models.BadgeFailure{}
	for rows.Next() {
		var f models.BadgeFailure
		if err := rows.Scan(&f.RunID, &f.Code, &f.PositionID, &f.Stage, &f.Error, &f.FailedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// ==================== Stats Methods ====================

// Stats returns ledger totals and the most recent run
func (r *Repository) Stats(ctx context.Context) (*models.LedgerStats, error) {
	stats := &models.LedgerStats{}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT order_code) FROM badges`).Scan(&stats.Badges, &stats.Orders); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, err
	}

	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		stats.LastRun = &runs[0]
	}
	return stats, nil
}
