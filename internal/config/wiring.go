package config

import (
	"fmt"
	"time"

	"github.com/vasic-labs/doctranslate/pkg/job"
	"github.com/vasic-labs/doctranslate/pkg/job/store"
	"github.com/vasic-labs/doctranslate/pkg/llm"
)

// ProviderFactory builds a job.ProviderFactory resolving a job's
// Config.Provider against this configuration's Job.Providers map, falling
// back to Job.DefaultProvider when the job didn't name one.
func (c *Config) ProviderFactory() job.ProviderFactory {
	return func(jobCfg job.Config) (*llm.Provider, error) {
		name := jobCfg.Provider
		if name == "" {
			name = c.Job.DefaultProvider
		}

		entry, ok := c.Job.Providers[name]
		if !ok {
			return nil, fmt.Errorf("no provider configured: %q", name)
		}

		model := jobCfg.Model
		if model == "" {
			model = entry.Model
		}

		return llm.New(llm.Config{
			Variant:            llm.Variant(entry.Variant),
			APIEndpoint:        entry.APIEndpoint,
			APIKey:             entry.APIKey,
			Model:              model,
			Timeout:            time.Duration(c.Job.RequestTimeout) * time.Second,
			MaxAttempts:        c.Job.MaxAttempts,
			RetryDelay:         time.Duration(c.Job.RetryDelay) * time.Second,
			RateLimitPerSecond: entry.RateLimitPerSecond,
			RateLimitBurst:     entry.RateLimitBurst,
		}), nil
	}
}

// NewJobStore constructs the pkg/job/store backend named by Job.Store.Type.
func (c *Config) NewJobStore() (store.Store, error) {
	sc := c.Job.Store
	storeCfg := store.Config{
		Type:            sc.Type,
		Host:            sc.Host,
		Port:            sc.Port,
		Database:        sc.Database,
		Username:        sc.Username,
		Password:        sc.Password,
		SSLMode:         sc.SSLMode,
		MaxOpenConns:    sc.MaxOpenConns,
		MaxIdleConns:    sc.MaxIdleConns,
		ConnMaxLifetime: time.Duration(sc.ConnMaxLifetime) * time.Second,
		RedisTTL:        time.Duration(sc.RedisTTLSeconds) * time.Second,
	}

	switch sc.Type {
	case "", "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return store.NewSQLite(storeCfg)
	case "postgres":
		return store.NewPostgres(storeCfg)
	case "redis":
		return store.NewRedis(storeCfg)
	default:
		return nil, fmt.Errorf("unknown job store type: %q", sc.Type)
	}
}
