// Package config loads the pipeline configuration from a YAML file, falling
// back to defaults when no file exists. Command-line flags override whatever
// is loaded here.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// OllamaConfig configures the Ollama embedding backend.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	RatePerSec  int    `yaml:"rate_per_sec"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	// Type is "ollama" or "local".
	Type   string       `yaml:"type"`
	Ollama OllamaConfig `yaml:"ollama"`
}

// ClusteringConfig configures the k-means engine.
type ClusteringConfig struct {
	K    int   `yaml:"k"`
	Seed int64 `yaml:"seed"`
}

// SearchConfig holds the semantic lookup policy constants.
type SearchConfig struct {
	MinSimilarity float64 `yaml:"min_similarity"`
	MaxResults    int     `yaml:"max_results"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	InputDir   string           `yaml:"input_dir"`
	OutputDir  string           `yaml:"output_dir"`
	Workers    int              `yaml:"workers"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Search     SearchConfig     `yaml:"search"`
}

// Load reads the config at path. A missing file yields defaults, not an error.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "data/interviews"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "data/processed"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Ollama.BaseURL == "" {
		cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedder.Ollama.Model == "" {
		cfg.Embedder.Ollama.Model = "all-minilm:l6-v2"
	}
	if cfg.Embedder.Ollama.TimeoutSecs == 0 {
		cfg.Embedder.Ollama.TimeoutSecs = 30
	}
	if cfg.Embedder.Ollama.RatePerSec == 0 {
		cfg.Embedder.Ollama.RatePerSec = 20
	}
	if cfg.Clustering.K == 0 {
		cfg.Clustering.K = 3
	}
	if cfg.Search.MinSimilarity == 0 {
		cfg.Search.MinSimilarity = 0.3
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 50
	}
}
