package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the copilot system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains settings for the chat-completion model behind the
// pipeline stages.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key required")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model required")
	}
	return nil
}

// EmbeddingConfig contains settings for the embedding model. The API key
// falls back to llm.api_key when unset.
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

func (e EmbeddingConfig) Validate() error {
	if strings.TrimSpace(e.Model) == "" {
		return fmt.Errorf("embedding.model required")
	}
	if e.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be > 0")
	}
	if e.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be > 0")
	}
	return nil
}

// IndexConfig contains the Redis vector index connection settings
type IndexConfig struct {
	Addr       string `mapstructure:"addr"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	Collection string `mapstructure:"collection"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

func (i IndexConfig) Validate() error {
	if strings.TrimSpace(i.Addr) == "" {
		return fmt.Errorf("index.addr required")
	}
	if strings.TrimSpace(i.Collection) == "" {
		return fmt.Errorf("index.collection required")
	}
	return nil
}

// IngestConfig contains chunking settings for document ingestion
type IngestConfig struct {
	CorpusDir    string `mapstructure:"corpus_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	MinChunkSize int    `mapstructure:"min_chunk_size"`
}

func (g IngestConfig) Validate() error {
	if g.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be > 0")
	}
	if g.ChunkOverlap < 0 || g.ChunkOverlap >= g.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size)")
	}
	if g.MinChunkSize <= 0 {
		return fmt.Errorf("ingest.min_chunk_size must be > 0")
	}
	return nil
}

// RetrievalConfig contains similarity search settings. MinScore gates the
// default search path; ToolMinScore is the looser gate used by the research
// tools.
type RetrievalConfig struct {
	TopK         int     `mapstructure:"top_k"`
	TopKPerQuery int     `mapstructure:"top_k_per_query"`
	MinScore     float64 `mapstructure:"min_score"`
	ToolMinScore float64 `mapstructure:"tool_min_score"`
}

func (r RetrievalConfig) Validate() error {
	if r.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be > 0")
	}
	if r.TopKPerQuery <= 0 {
		return fmt.Errorf("retrieval.top_k_per_query must be > 0")
	}
	if r.MinScore < 0 || r.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be in [0, 1]")
	}
	if r.ToolMinScore < 0 || r.ToolMinScore > 1 {
		return fmt.Errorf("retrieval.tool_min_score must be in [0, 1]")
	}
	return nil
}

// PipelineConfig contains orchestration settings
type PipelineConfig struct {
	MaxToolRounds int `mapstructure:"max_tool_rounds"`
}

func (p PipelineConfig) Validate() error {
	if p.MaxToolRounds <= 0 {
		return fmt.Errorf("pipeline.max_tool_rounds must be > 0")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name

	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.max_processing_time", 10*time.Minute)
	viper.SetDefault("server.address", ":10001")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", 2*time.Minute)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.batch_size", 100)
	viper.SetDefault("index.addr", "localhost:6379")
	viper.SetDefault("index.collection", "retail_operations_docs")
	viper.SetDefault("index.key_prefix", "chunk:")
	viper.SetDefault("ingest.corpus_dir", "./data/documents")
	viper.SetDefault("ingest.chunk_size", 1000)
	viper.SetDefault("ingest.chunk_overlap", 200)
	viper.SetDefault("ingest.min_chunk_size", 100)
	viper.SetDefault("retrieval.top_k", 5)
	viper.SetDefault("retrieval.top_k_per_query", 3)
	viper.SetDefault("retrieval.min_score", 0.5)
	viper.SetDefault("retrieval.tool_min_score", 0.3)
	viper.SetDefault("pipeline.max_tool_rounds", 25)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config") // path to look for the config file in
		viper.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                                // bin/
		viper.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("COPILOT")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (COPILOT_*)

	if err := viper.ReadInConfig(); err != nil {
		// Env-only operation is fine when no config file is found.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	// unmarshal config
	var config Config

	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if strings.TrimSpace(config.Embedding.APIKey) == "" {
		config.Embedding.APIKey = config.LLM.APIKey
	}

	if err := config.Embedding.Validate(); err != nil {
		panic(err)
	}
	if err := config.Index.Validate(); err != nil {
		panic(err)
	}
	if err := config.Ingest.Validate(); err != nil {
		panic(err)
	}
	if err := config.Retrieval.Validate(); err != nil {
		panic(err)
	}
	if err := config.Pipeline.Validate(); err != nil {
		panic(err)
	}
	return &config
}
