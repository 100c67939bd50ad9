package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vasic-labs/doctranslate/pkg/job"
)

// Redis implements Store over a Redis instance: one key per job plus a
// sorted set keyed by start time for ordered listing.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

const jobsIndexKey = "jobs:by_start_time"

// NewRedis connects to a Redis instance for job persistence.
func NewRedis(cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: cfg.RedisTTL}, nil
}

func jobKey(id string) string { return "job:" + id }

func (r *Redis) Create(ctx context.Context, rec *job.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, jobKey(rec.ID), data, r.ttl)
	pipe.ZAdd(ctx, jobsIndexKey, redis.Z{Score: float64(rec.StartTime.UnixNano()), Member: rec.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Get(ctx context.Context, id string) (*job.Record, error) {
	data, err := r.client.Get(ctx, jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	var rec job.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Redis) Update(ctx context.Context, rec *job.Record) error {
	return r.Create(ctx, rec)
}

func (r *Redis) List(ctx context.Context, limit, offset int) ([]*job.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := r.client.ZRevRange(ctx, jobsIndexKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*job.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, jobKey(id))
	pipe.ZRem(ctx, jobsIndexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.client.Close() }
