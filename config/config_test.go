package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "test-embed-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-oss-120b", cfg.Model)
	assert.Equal(t, 3, cfg.SimilarityTopK)
	assert.Equal(t, 1024, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("SIMILARITY_TOP_K", "5")
	t.Setenv("LLM_TEMPERATURE", "0.7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Model)
	assert.Equal(t, 5, cfg.SimilarityTopK)
	assert.InDelta(t, 0.7, float64(cfg.Temperature), 0.0001)
}

func TestLoad_YAMLFileThenEnvWins(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "512")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: from-yaml\nchunk_size: 2048\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.Model)
	// Env takes precedence over the file.
	assert.Equal(t, 512, cfg.ChunkSize)
}

func TestValidate_MissingGroqKey(t *testing.T) {
	cfg := Default()
	cfg.GroqAPIKey = ""
	cfg.OpenAIAPIKey = "test-embed-key"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestValidate_MissingOpenAIKey(t *testing.T) {
	cfg := Default()
	cfg.GroqAPIKey = "test-key"
	cfg.OpenAIAPIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
