package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/internal/domain/model"
	"github.com/okian/interviewsched/pkg/logger"
)

var _ ledger.Persister = (*SQLiteStore)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS interviewers (
		position      INTEGER NOT NULL,
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		calendar_id   TEXT NOT NULL DEFAULT '',
		timezone      TEXT NOT NULL,
		specialty     TEXT NOT NULL DEFAULT '',
		max_per_week  INTEGER NOT NULL,
		active        INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS interviews (
		position         INTEGER NOT NULL,
		id               TEXT PRIMARY KEY,
		candidate_name   TEXT NOT NULL,
		candidate_email  TEXT NOT NULL,
		interview_type   TEXT NOT NULL,
		scheduled_at     TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		interviewer_id   TEXT NOT NULL,
		interviewer_name TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		notes            TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_interviews_interviewer ON interviews(interviewer_id)`,
}

// SQLiteStore keeps the ledger in a SQLite database. Save replaces the
// stored document in one transaction.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" in tests.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := apply(opts)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenStore, path, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrOpenStore, pragma, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: migrate: %v", ErrOpenStore, err)
		}
	}
	return &SQLiteStore{db: db, log: o.log}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the roster and history in their stored order.
func (s *SQLiteStore) Load(ctx context.Context) (ledger.Document, error) {
	var doc ledger.Document

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, calendar_id, timezone, specialty, max_per_week, active
		 FROM interviewers ORDER BY position`)
	if err != nil {
		return doc, fmt.Errorf("select interviewers: %w", err)
	}
	for rows.Next() {
		var iv model.Interviewer
		if err := rows.Scan(&iv.ID, &iv.Name, &iv.Email, &iv.CalendarID, &iv.Timezone,
			&iv.Specialty, &iv.MaxPerWeek, &iv.Active); err != nil {
			rows.Close()
			return doc, fmt.Errorf("scan interviewer: %w", err)
		}
		doc.Interviewers = append(doc.Interviewers, iv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return doc, fmt.Errorf("iterate interviewers: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, candidate_name, candidate_email, interview_type, scheduled_at, duration_minutes,
		        interviewer_id, interviewer_name, status, created_at, notes
		 FROM interviews ORDER BY position`)
	if err != nil {
		return doc, fmt.Errorf("select interviews: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec                  model.InterviewRecord
			scheduled, createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.CandidateName, &rec.CandidateEmail, &rec.InterviewType,
			&scheduled, &rec.DurationMinutes, &rec.InterviewerID, &rec.InterviewerName,
			&rec.Status, &createdAt, &rec.Notes); err != nil {
			return doc, fmt.Errorf("scan interview: %w", err)
		}
		if rec.ScheduledAt, err = time.Parse(time.RFC3339Nano, scheduled); err != nil {
			return doc, fmt.Errorf("%w: interview %s scheduled_at: %v", ErrCorruptDocument, rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return doc, fmt.Errorf("%w: interview %s created_at: %v", ErrCorruptDocument, rec.ID, err)
		}
		doc.Interviews = append(doc.Interviews, rec)
	}
	return doc, rows.Err()
}

// Save replaces both tables with doc.
func (s *SQLiteStore) Save(ctx context.Context, doc ledger.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"interviewers", "interviews"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, iv := range doc.Interviewers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interviewers (position, id, name, email, calendar_id, timezone, specialty, max_per_week, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, iv.ID, iv.Name, iv.Email, iv.CalendarID, iv.Timezone, iv.Specialty, iv.MaxPerWeek, iv.Active,
		); err != nil {
			return fmt.Errorf("insert interviewer %s: %w", iv.ID, err)
		}
	}
	for i, rec := range doc.Interviews {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interviews (position, id, candidate_name, candidate_email, interview_type, scheduled_at,
			                         duration_minutes, interviewer_id, interviewer_name, status, created_at, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, rec.ID, rec.CandidateName, rec.CandidateEmail, rec.InterviewType,
			rec.ScheduledAt.Format(time.RFC3339Nano), rec.DurationMinutes, rec.InterviewerID,
			rec.InterviewerName, string(rec.Status), rec.CreatedAt.Format(time.RFC3339Nano), rec.Notes,
		); err != nil {
			return fmt.Errorf("insert interview %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug(ctx, "ledger saved",
		logger.Int("interviewers", len(doc.Interviewers)),
		logger.Int("interviews", len(doc.Interviews)),
	)
	return nil
}
