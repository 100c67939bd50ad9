package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasic-labs/doctranslate/pkg/job"
	"github.com/vasic-labs/doctranslate/pkg/llm"
)

func TestProviderFactory_ResolvesNamedProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Job.Providers["local"] = LLMProviderConfig{Variant: "local", Model: "llama3"}

	factory := cfg.ProviderFactory()
	provider, err := factory(job.Config{Provider: "local"})
	require.NoError(t, err)
	require.NotNil(t, provider)
	defer provider.Close()
}

func TestProviderFactory_FallsBackToDefaultProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Job.DefaultProvider = "local"
	cfg.Job.Providers["local"] = LLMProviderConfig{Variant: string(llm.VariantLocal), Model: "llama3"}

	factory := cfg.ProviderFactory()
	provider, err := factory(job.Config{})
	require.NoError(t, err)
	defer provider.Close()
}

func TestProviderFactory_ErrorsOnUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()

	factory := cfg.ProviderFactory()
	_, err := factory(job.Config{Provider: "nonexistent"})
	assert.Error(t, err)
}

func TestNewJobStore_DefaultsToMemory(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.NewJobStore()
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close()
}

func TestNewJobStore_UnknownTypeErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Job.Store.Type = "carrier-pigeon"
	_, err := cfg.NewJobStore()
	assert.Error(t, err)
}
