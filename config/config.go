// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/chunker"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/ingestion"
	"github.com/poiesic/ragcore/query"
)

// DefaultFile is the config file name looked up by the CLI.
const DefaultFile = "ragcore.yaml"

type AIConfig struct {
	Backend         string  `yaml:"backend"`
	EmbeddingHost   string  `yaml:"embedding_host"`
	GenerationHost  string  `yaml:"generation_host"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	GenerationModel string  `yaml:"generation_model"`
	APIKey          string  `yaml:"api_key,omitempty"`
	Temperature     float64 `yaml:"temperature"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type IndexConfig struct {
	Path      string `yaml:"path"`
	Metric    string `yaml:"metric"`
	Normalize bool   `yaml:"normalize"`
}

type QueryConfig struct {
	K               int `yaml:"k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

type IngestConfig struct {
	BatchSize   int           `yaml:"batch_size"`
	Workers     int           `yaml:"workers"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Cache       bool          `yaml:"cache"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// Config is the on-disk configuration of a ragcore workspace.
type Config struct {
	AI       AIConfig       `yaml:"ai"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Index    IndexConfig    `yaml:"index"`
	Query    QueryConfig    `yaml:"query"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Store    StoreConfig    `yaml:"store"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiCfg := ai.DefaultConfig()
	return &Config{
		AI: AIConfig{
			Backend:         aiCfg.Backend,
			EmbeddingHost:   aiCfg.EmbeddingHost,
			GenerationHost:  aiCfg.GenerationHost,
			EmbeddingModel:  aiCfg.EmbeddingModel,
			GenerationModel: aiCfg.GenerationModel,
			Temperature:     aiCfg.Temperature,
		},
		Chunking: ChunkingConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultOverlap,
		},
		Index: IndexConfig{
			Path:   "ragcore.idx",
			Metric: core.MetricCosine.String(),
		},
		Query: QueryConfig{
			K:               query.DefaultK,
			MaxContextChars: query.DefaultMaxContextChars,
		},
		Ingest: IngestConfig{
			BatchSize:   ingestion.DefaultBatchSize,
			Workers:     4,
			MaxAttempts: ingestion.DefaultMaxAttempts,
			RetryDelay:  ingestion.DefaultRetryDelay,
			Cache:       true,
		},
		Store: StoreConfig{
			Path: ".ragcore",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvBackend         = "RAGCORE_BACKEND"
	EnvHost            = "RAGCORE_HOST"
	EnvEmbeddingModel  = "RAGCORE_EMBEDDING_MODEL"
	EnvGenerationModel = "RAGCORE_GENERATION_MODEL"
	EnvAPIKey          = "RAGCORE_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvTemperature     = "RAGCORE_TEMPERATURE"
)

// ApplyEnv overrides AI settings from the environment. lookup is usually
// os.LookupEnv. RAGCORE_API_KEY takes precedence over OPENAI_API_KEY.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.AI.Backend = v
	}
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.AI.EmbeddingHost = v
		c.AI.GenerationHost = v
	}
	if v, ok := lookup(EnvEmbeddingModel); ok && v != "" {
		c.AI.EmbeddingModel = v
	}
	if v, ok := lookup(EnvGenerationModel); ok && v != "" {
		c.AI.GenerationModel = v
	}
	if v, ok := lookup(EnvOpenAIAPIKey); ok && v != "" {
		c.AI.APIKey = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.AI.APIKey = v
	}
	if v, ok := lookup(EnvTemperature); ok && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", core.ErrInvalidConfig, EnvTemperature, err)
		}
		c.AI.Temperature = t
	}
	return nil
}

// AIConfig converts the ai section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(c.AI.Backend),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGenerationHost(c.AI.GenerationHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerationModel(c.AI.GenerationModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTemperature(c.AI.Temperature),
	)
}

// MetricValue parses the configured index metric.
func (c *Config) MetricValue() (core.Metric, error) {
	return core.ParseMetric(c.Index.Metric)
}

// Validate checks every section. Errors wrap core.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.AIConfig().Validate(); err != nil {
		return err
	}
	if err := chunker.ValidateParams(c.Chunking.Size, c.Chunking.Overlap); err != nil {
		return err
	}
	if _, err := c.MetricValue(); err != nil {
		return err
	}
	if c.Index.Path == "" {
		return invalid("index.path is required")
	}
	if c.Query.K < 1 {
		return invalid("query.k must be at least 1, got %d", c.Query.K)
	}
	if c.Query.MaxContextChars < 1 {
		return invalid("query.max_context_chars must be at least 1, got %d", c.Query.MaxContextChars)
	}
	if c.Ingest.BatchSize < 1 {
		return invalid("ingest.batch_size must be at least 1, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.Workers < 1 {
		return invalid("ingest.workers must be at least 1, got %d", c.Ingest.Workers)
	}
	if c.Ingest.MaxAttempts < 1 {
		return invalid("ingest.max_attempts must be at least 1, got %d", c.Ingest.MaxAttempts)
	}
	if c.Ingest.RetryDelay < 0 {
		return invalid("ingest.retry_delay must not be negative")
	}
	if c.Store.Path == "" {
		return invalid("store.path is required")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
