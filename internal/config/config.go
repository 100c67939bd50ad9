package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig         `json:"server"`
	Security    SecurityConfig       `json:"security"`
	Translation TranslationConfig    `json:"translation"`
	Job         TranslationJobConfig `json:"job"`
	Distributed DistributedConfig    `json:"distributed"`
	Logging     LoggingConfig        `json:"logging"`
}

// TranslationJobConfig configures the job orchestrator: provider
// construction (RequestTimeout, MaxAttempts, RetryDelay, DefaultProvider,
// Providers) and the job store (Store). ChunkSize, EnablePostProcess and
// PostProcessInstructions are loaded but not applied to jobs: text jobs
// chunk with chunker.DefaultMainLinesPerChunk, and post-processing is set
// per job through job.Config.
type TranslationJobConfig struct {
	ChunkSize               int                       `json:"chunk_size"`
	RequestTimeout          int                       `json:"request_timeout_seconds"`
	MaxAttempts             int                       `json:"max_attempts"`
	RetryDelay              int                       `json:"retry_delay_seconds"`
	DefaultProvider         string                    `json:"default_provider"`
	EnablePostProcess       bool                      `json:"enable_post_process"`
	PostProcessInstructions string                    `json:"post_process_instructions,omitempty"`
	Providers               ProvidersConfig           `json:"providers"`
	Store                   JobStoreConfig            `json:"store"`
}

// ProvidersConfig maps a provider name (as referenced by a job's
// Config.Provider) to its connection details, mirroring teacher
// TranslationConfig.Providers but scoped to what pkg/llm.Config needs.
type ProvidersConfig map[string]LLMProviderConfig

// LLMProviderConfig is one entry in ProvidersConfig.
type LLMProviderConfig struct {
	Variant            string  `json:"variant"`
	APIEndpoint        string  `json:"api_endpoint,omitempty"`
	APIKey             string  `json:"api_key,omitempty"`
	Model              string  `json:"model"`
	RateLimitPerSecond float64 `json:"rate_limit_per_second,omitempty"`
	RateLimitBurst     int     `json:"rate_limit_burst,omitempty"`
}

// JobStoreConfig selects and configures the pkg/job/store backend.
type JobStoreConfig struct {
	Type            string `json:"type"` // "memory", "sqlite", "postgres", "redis"
	Host            string `json:"host,omitempty"`
	Port            int    `json:"port,omitempty"`
	Database        string `json:"database,omitempty"`
	Username        string `json:"username,omitempty"`
	Password        string `json:"password,omitempty"`
	SSLMode         string `json:"ssl_mode,omitempty"`
	MaxOpenConns    int    `json:"max_open_conns,omitempty"`
	MaxIdleConns    int    `json:"max_idle_conns,omitempty"`
	ConnMaxLifetime int    `json:"conn_max_lifetime_seconds,omitempty"`
	RedisTTLSeconds int    `json:"redis_ttl_seconds,omitempty"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	EnableHTTP3   bool   `json:"enable_http3"`
	TLSCertFile   string `json:"tls_cert_file"`
	TLSKeyFile    string `json:"tls_key_file"`
	ReadTimeout   int    `json:"read_timeout"`
	WriteTimeout  int    `json:"write_timeout"`
	MaxUploadSize int64  `json:"max_upload_size"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	EnableAuth     bool     `json:"enable_auth"`
	JWTSecret      string   `json:"jwt_secret"`
	APIKeyHeader   string   `json:"api_key_header"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
	RateLimitBurst int      `json:"rate_limit_burst"`
	CORSOrigins    []string `json:"cors_origins"`
}

// TranslationConfig represents translation configuration
type TranslationConfig struct {
	DefaultProvider string                    `json:"default_provider"`
	DefaultModel    string                    `json:"default_model"`
	CacheEnabled    bool                      `json:"cache_enabled"`
	CacheTTL        int                       `json:"cache_ttl"`
	MaxConcurrent   int                       `json:"max_concurrent"`
	Providers       map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig represents LLM provider configuration
type ProviderConfig struct {
	APIKey  string                 `json:"api_key,omitempty"`
	BaseURL string                 `json:"base_url,omitempty"`
	Model   string                 `json:"model"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// DistributedConfig represents distributed work configuration
type DistributedConfig struct {
	Enabled             bool                    `json:"enabled"`
	Workers             map[string]WorkerConfig `json:"workers"`
	SSHTimeout          int                     `json:"ssh_timeout"`
	SSHMaxRetries       int                     `json:"ssh_max_retries"`
	HealthCheckInterval int                     `json:"health_check_interval"`
	MaxRemoteInstances  int                     `json:"max_remote_instances"`
}

// WorkerConfig represents a remote worker configuration
type WorkerConfig struct {
	Name        string   `json:"name"`
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	User        string   `json:"user"`
	KeyFile     string   `json:"key_file,omitempty"`
	Password    string   `json:"password,omitempty"`
	MaxCapacity int      `json:"max_capacity"`
	Tags        []string `json:"tags,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	OutputFile string `json:"output_file"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8443,
			EnableHTTP3:   true,
			TLSCertFile:   "certs/server.crt",
			TLSKeyFile:    "certs/server.key",
			ReadTimeout:   30,
			WriteTimeout:  30,
			MaxUploadSize: 100 * 1024 * 1024, // 100MB
		},
		Security: SecurityConfig{
			EnableAuth:     true,
			JWTSecret:      "",
			APIKeyHeader:   "X-API-Key",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			CORSOrigins:    []string{"*"},
		},
		Translation: TranslationConfig{
			DefaultProvider: "dictionary",
			DefaultModel:    "",
			CacheEnabled:    true,
			CacheTTL:        3600,
			MaxConcurrent:   5,
			Providers:       make(map[string]ProviderConfig),
		},
		Job: TranslationJobConfig{
			ChunkSize:       25,
			RequestTimeout:  60,
			MaxAttempts:     2,
			RetryDelay:      2,
			DefaultProvider: "local",
			Providers:       make(ProvidersConfig),
			Store:           JobStoreConfig{Type: "memory"},
		},
		Distributed: DistributedConfig{
			Enabled:             false,
			Workers:             make(map[string]WorkerConfig),
			SSHTimeout:          30,
			SSHMaxRetries:       3,
			HealthCheckInterval: 30,
			MaxRemoteInstances:  20,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputFile: "",
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Load API keys from environment variables
	config.loadAPIKeysFromEnv()

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(filename string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// loadAPIKeysFromEnv loads API keys from environment variables
func (c *Config) loadAPIKeysFromEnv() {
	envMappings := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"zhipu":     "ZHIPU_API_KEY",
		"deepseek":  "DEEPSEEK_API_KEY",
	}

	for provider, envVar := range envMappings {
		if key := os.Getenv(envVar); key != "" {
			if providerConfig, ok := c.Translation.Providers[provider]; ok {
				providerConfig.APIKey = key
				c.Translation.Providers[provider] = providerConfig
			} else {
				c.Translation.Providers[provider] = ProviderConfig{
					APIKey: key,
				}
			}
		}
	}

	// Load JWT secret
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.Security.JWTSecret = jwtSecret
	}

	if c.Job.Providers == nil {
		c.Job.Providers = make(ProvidersConfig)
	}
	for provider, envVar := range envMappings {
		if key := os.Getenv(envVar); key != "" {
			entry := c.Job.Providers[provider]
			entry.APIKey = key
			c.Job.Providers[provider] = entry
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		entry := c.Job.Providers["gemini"]
		entry.APIKey = key
		c.Job.Providers["gemini"] = entry
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.EnableHTTP3 {
		if c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required for HTTP/3")
		}
	}

	if c.Security.EnableAuth && c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required when authentication is enabled")
	}

	return nil
}
