// Package config loads service settings from the environment, with an
// optional YAML file for non-secret overrides. A .env file in the working
// directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings. Secrets come only from the
// environment; everything else may also be set in a YAML file.
type Config struct {
	// GroqAPIKey authenticates against the Groq chat backend. Required.
	GroqAPIKey string `yaml:"-"`
	// OpenAIAPIKey authenticates the embedding client. Required for
	// ingestion and retrieval.
	OpenAIAPIKey string `yaml:"-"`

	Model       string  `yaml:"model"`
	EmbedModel  string  `yaml:"embed_model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	SimilarityTopK int `yaml:"similarity_top_k"`
	ChunkSize      int `yaml:"chunk_size"`
	ChunkOverlap   int `yaml:"chunk_overlap"`

	DataDir        string `yaml:"data_dir"`
	StorageDir     string `yaml:"storage_dir"`
	LogsDir        string `yaml:"logs_dir"`
	CollectionName string `yaml:"collection_name"`

	Addr string `yaml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model:          "openai/gpt-oss-120b",
		EmbedModel:     "text-embedding-3-small",
		Temperature:    0.1,
		MaxTokens:      4096,
		SimilarityTopK: 3,
		ChunkSize:      1024,
		ChunkOverlap:   200,
		DataDir:        "data",
		StorageDir:     "storage",
		LogsDir:        "logs",
		CollectionName: "copyright-law",
		Addr:           ":8000",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is empty, "config.yaml" is used when present), then environment
// variables. A .env file is loaded first when it exists.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.GroqAPIKey, "GROQ_API_KEY")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Model, "LLM_MODEL")
	setString(&c.EmbedModel, "EMBED_MODEL")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.StorageDir, "STORAGE_DIR")
	setString(&c.LogsDir, "LOGS_DIR")
	setString(&c.CollectionName, "COLLECTION_NAME")
	setString(&c.Addr, "ADDR")
	setInt(&c.MaxTokens, "MAX_TOKENS")
	setInt(&c.SimilarityTopK, "SIMILARITY_TOP_K")
	setInt(&c.ChunkSize, "CHUNK_SIZE")
	setInt(&c.ChunkOverlap, "CHUNK_OVERLAP")

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			c.Temperature = float32(f)
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate reports missing required credentials. Called at startup;
// failure is fatal.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is not set")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return nil
}
