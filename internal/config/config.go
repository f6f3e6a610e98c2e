// Package config loads and validates letrado service configuration.
// Configuration is a yaml file with environment variable overrides for
// secrets and deployment paths.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all letrado configuration.
type Config struct {
	Name    string `yaml:"name"`
	DataDir string `yaml:"data_dir"`

	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the completion model client.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     string  `yaml:"timeout"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // genai or ollama
	GenAIAPIKey    string `yaml:"genai_api_key"`
	GenAIModel     string `yaml:"genai_model"`
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
}

// StoreConfig configures the sqlite store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	RequireVec   bool   `yaml:"require_vec"` // fail fast without sqlite-vec
}

// RetrievalConfig configures vector search behavior.
type RetrievalConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
	// Jurisprudence enrichment over-fetches to compensate for
	// post-retrieval source filtering.
	OverFetchFactor int `yaml:"over_fetch_factor"`
}

// PipelineConfig configures the generation orchestrator.
type PipelineConfig struct {
	// AllowEmptyContext controls whether a generation request with no
	// retrieved evidence (k=0 or empty corpus) proceeds with every
	// evidence-dependent section marked, or fails fast.
	AllowEmptyContext bool   `yaml:"allow_empty_context"`
	MaxConcurrent     int    `yaml:"max_concurrent"`
	TemplateFile      string `yaml:"template_file"`
}

// AnalysisConfig configures the contract-analysis stage timeouts.
type AnalysisConfig struct {
	TranslateTimeout string `yaml:"translate_timeout"`
	ClassifyTimeout  string `yaml:"classify_timeout"`
	ChecklistTimeout string `yaml:"checklist_timeout"`
	ReportTimeout    string `yaml:"report_timeout"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "letrado",
		DataDir: ".letrado",
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Timeout:     "90s",
			Temperature: 0.2,
		},
		Embedding: EmbeddingConfig{
			Provider:       "genai",
			GenAIModel:     "gemini-embedding-001",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
		},
		Store: StoreConfig{
			DatabasePath: ".letrado/letrado.db",
		},
		Retrieval: RetrievalConfig{
			DefaultTopK:     6,
			MaxTopK:         20,
			OverFetchFactor: 2,
		},
		Pipeline: PipelineConfig{
			AllowEmptyContext: true,
			MaxConcurrent:     3,
		},
		Analysis: AnalysisConfig{
			TranslateTimeout: "90s",
			ClassifyTimeout:  "30s",
			ChecklistTimeout: "60s",
			ReportTimeout:    "90s",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads config from path, falling back to defaults if the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.Embedding.GenAIAPIKey == "" {
			c.Embedding.GenAIAPIKey = key
		}
	}
	if key := os.Getenv("LETRADO_EMBEDDING_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
	}
	if path := os.Getenv("LETRADO_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("LETRADO_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// StageTimeout parses one of the analysis stage timeouts, with a
// fallback used when the string is empty or malformed.
func StageTimeout(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Retrieval.DefaultTopK <= 0 {
		return fmt.Errorf("retrieval.default_top_k must be positive")
	}
	if c.Retrieval.MaxTopK < c.Retrieval.DefaultTopK {
		return fmt.Errorf("retrieval.max_top_k must be >= default_top_k")
	}
	if c.Retrieval.OverFetchFactor < 1 {
		return fmt.Errorf("retrieval.over_fetch_factor must be >= 1")
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature out of range")
	}
	return nil
}
