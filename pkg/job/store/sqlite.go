package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vasic-labs/doctranslate/pkg/job"
)

// SQLite implements Store over a single sqlite3 database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) a sqlite-backed job store.
func NewSQLite(cfg Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		progress REAL DEFAULT 0,
		error_message TEXT,
		input_path TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		record_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_start_time ON jobs(start_time DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Create(ctx context.Context, r *job.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, progress, error_message, input_path, start_time, end_time, created_at, updated_at, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Status, r.Progress, r.Error, r.Config.InputPath, r.StartTime, r.EndTime, r.CreatedAt, r.UpdatedAt, string(data))
	return err
}

func (s *SQLite) Get(ctx context.Context, id string) (*job.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT record_json FROM jobs WHERE id = ?`, id)
	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", id)
		}
		return nil, err
	}
	var r job.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLite) Update(ctx context.Context, r *job.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = ?, error_message = ?, end_time = ?, updated_at = ?, record_json = ?
		WHERE id = ?`,
		r.Status, r.Progress, r.Error, r.EndTime, r.UpdatedAt, string(data), r.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %s", r.ID)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, limit, offset int) ([]*job.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_json FROM jobs ORDER BY start_time DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*job.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r job.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	return err
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLite) Close() error                   { return s.db.Close() }
