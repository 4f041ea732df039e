package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the docrag tool.
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Search     SearchConfig     `yaml:"search"`
	Validation ValidationConfig `yaml:"validation"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatasetConfig holds dataset discovery configuration.
type DatasetConfig struct {
	Root      string   `yaml:"root"`      // directory holding one subdirectory per dataset
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
	Separator string   `yaml:"separator"` // section separator line inside a file
}

// ChunkingConfig holds document chunking configuration.
type ChunkingConfig struct {
	MaxTokens         int  `yaml:"max_tokens"`
	OverlapTokens     int  `yaml:"overlap_tokens"`
	PreserveSentences bool `yaml:"preserve_sentences"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"`    // "openai", "jina", "ollama", "compatible", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`    // For ollama and compatible providers
	Dimension int    `yaml:"dimension"`   // Only the mock provider needs this
}

// LLMConfig holds completion model configuration for the ask command.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai", "deepseek", "ollama", "compatible"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// SearchConfig holds ranking configuration.
type SearchConfig struct {
	TopK            int     `yaml:"top_k"`
	EnableHybrid    bool    `yaml:"enable_hybrid"`
	EmbeddingWeight float64 `yaml:"embedding_weight"` // keyword weight is the complement
}

// ValidationConfig holds answer validation configuration.
type ValidationConfig struct {
	Strict bool `yaml:"strict"` // reject flagged answers instead of showing them
}

// CacheConfig holds embedding and search cache configuration.
type CacheConfig struct {
	Backend       string `yaml:"backend"` // "files" or "bolt"
	Workers       int    `yaml:"workers"` // concurrent embedding requests
	SearchSize    int    `yaml:"search_size"`
	SearchTTLSecs int    `yaml:"search_ttl_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root:      "datasets",
			Includes:  []string{"**/*.md", "**/*.markdown", "**/*.txt"},
			Excludes:  []string{"**/node_modules/**", "**/.git/**", "**/.docrag/**"},
			Separator: "---",
		},
		Chunking: ChunkingConfig{
			MaxTokens:         500,
			OverlapTokens:     100,
			PreserveSentences: true,
		},
		Embedding: EmbeddingConfig{
			Enabled:   true,
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 256,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Search: SearchConfig{
			TopK:            5,
			EnableHybrid:    true,
			EmbeddingWeight: 0.7,
		},
		Validation: ValidationConfig{
			Strict: false,
		},
		Cache: CacheConfig{
			Backend:       "files",
			Workers:       1,
			SearchSize:    100,
			SearchTTLSecs: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try docrag.yaml in the directory
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .docrag/config.yaml
	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDir returns the embedding cache root for the files backend.
func CacheDir(dir string) string {
	return filepath.Join(dir, ".docrag", "cache")
}

// EmbeddingDBPath returns the bolt database path for the bolt backend.
func EmbeddingDBPath(dir string) string {
	return filepath.Join(dir, ".docrag", "embeddings.db")
}

// EnsureDataDir ensures the .docrag directory exists.
func EnsureDataDir(dir string) error {
	dataDir := filepath.Join(dir, ".docrag")
	return os.MkdirAll(dataDir, 0755)
}
