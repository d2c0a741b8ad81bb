package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig describes one model endpoint (chat or embedding)
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" (default) or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// RAGConfig holds the retrieval pipeline knobs
type RAGConfig struct {
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
	TopK         int     `yaml:"top_k"`
	FetchK       int     `yaml:"fetch_k"`
	Lambda       float32 `yaml:"lambda"`
	SearchType   string  `yaml:"search_type"` // "mmr" (default) or "similarity"
}

type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key"`
	Debug bool   `yaml:"debug"`
}

type Config struct {
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Database DatabaseConfig `yaml:"database"`
	Store    string         `yaml:"store"` // "memory" (default) or "postgres"
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 40
	defaultTopK         = 7
	defaultFetchK       = 20
	defaultLambda       = 0.5
	defaultSearchType   = "mmr"
)

// LoadConfig reads a yaml config file. ${VAR} references in the file are
// expanded from the environment before unmarshalling so API keys can stay
// out of the file itself.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// DefaultConfig returns a config with all pipeline defaults filled in
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with the pipeline defaults
func (c *Config) ApplyDefaults() {
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.FetchK == 0 {
		c.RAG.FetchK = defaultFetchK
	}
	if c.RAG.Lambda == 0 {
		c.RAG.Lambda = defaultLambda
	}
	if c.RAG.SearchType == "" {
		c.RAG.SearchType = defaultSearchType
	}
	if c.Store == "" {
		c.Store = "memory"
	}
}
