package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/vasic-labs/doctranslate/pkg/job"
)

// Postgres implements Store over a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a postgres-backed job store.
func NewPostgres(cfg Config) (*Postgres, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, sslModeOrDefault(cfg.SSLMode))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
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

	p := &Postgres{db: db}
	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return p, nil
}

func sslModeOrDefault(mode string) string {
	if mode == "" {
		return "disable"
	}
	return mode
}

func (p *Postgres) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		progress DOUBLE PRECISION DEFAULT 0,
		error_message TEXT,
		input_path TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		record_json JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_start_time ON jobs(start_time DESC);
	`
	_, err := p.db.Exec(schema)
	return err
}

func (p *Postgres) Create(ctx context.Context, r *job.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, progress, error_message, input_path, start_time, end_time, created_at, updated_at, record_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Status, r.Progress, r.Error, r.Config.InputPath, r.StartTime, r.EndTime, r.CreatedAt, r.UpdatedAt, string(data))
	return err
}

func (p *Postgres) Get(ctx context.Context, id string) (*job.Record, error) {
	row := p.db.QueryRowContext(ctx, `SELECT record_json FROM jobs WHERE id = $1`, id)
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

func (p *Postgres) Update(ctx context.Context, r *job.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `
		UPDATE jobs SET status = $1, progress = $2, error_message = $3, end_time = $4, updated_at = $5, record_json = $6
		WHERE id = $7`,
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

func (p *Postgres) List(ctx context.Context, limit, offset int) ([]*job.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT record_json FROM jobs ORDER BY start_time DESC LIMIT $1 OFFSET $2`, limit, offset)
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

func (p *Postgres) Delete(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
func (p *Postgres) Close() error                   { return p.db.Close() }
