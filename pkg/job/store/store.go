// Package store implements pluggable persistence for job.Record, with
// sqlite, postgres, redis, and in-memory backends, adapted from the
// teacher's generalized session-storage contract.
package store

import (
	"context"
	"time"

	"github.com/vasic-labs/doctranslate/pkg/job"
)

// Store persists job.Record values. Every method must be safe for
// concurrent use.
type Store interface {
	Create(ctx context.Context, r *job.Record) error
	Get(ctx context.Context, id string) (*job.Record, error)
	Update(ctx context.Context, r *job.Record) error
	List(ctx context.Context, limit, offset int) ([]*job.Record, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a Store backend.
type Config struct {
	Type     string // "memory", "sqlite", "postgres", "redis"
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// RedisTTL bounds how long a record survives in the redis backend;
	// zero means no expiry.
	RedisTTL time.Duration
}
