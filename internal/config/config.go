package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	AI            AIConfig         `json:"ai"`
	Fetch         FetchConfig      `json:"fetch"`
	RAG           RAGConfig        `json:"rag"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	ChatModel      string      `json:"chat_model"`
	EmbedModel     string      `json:"embed_model"`
	ChatTimeoutSec int         `json:"chat_timeout_sec"`
	EmbedCacheSize int         `json:"embed_cache_size"`
}

type FetchConfig struct {
	UserAgent         string  `json:"user_agent"`
	TimeoutSec        int     `json:"timeout_sec"`
	RequestsPerSec    float64 `json:"requests_per_sec"`
	ExhibitMaxCount   int     `json:"exhibit_max_count"`
	ExhibitTimeoutSec int     `json:"exhibit_timeout_sec"`
	OpenRateLimitSec  int     `json:"open_rate_limit_sec"`
}

type RAGConfig struct {
	ChunkMaxTokens     int     `json:"chunk_max_tokens"`
	ChunkHardMaxTokens int     `json:"chunk_hard_max_tokens"`
	ChunkOverlapTokens int     `json:"chunk_overlap_tokens"`
	TopK               int     `json:"top_k"`
	SemanticWeight     float64 `json:"semantic_weight"`
	KeywordWeight      float64 `json:"keyword_weight"`
	MaxHistory         int     `json:"max_history"`
	MaxFilings         int     `json:"max_filings"`
	MinWordOverlap     int     `json:"min_word_overlap"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.ChatModel == "" || cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.chat_model and ai.embed_model are required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.ChatTimeoutSec == 0 {
		cfg.AI.ChatTimeoutSec = 30
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	applyFetchDefaults(&cfg.Fetch)
	applyRAGDefaults(&cfg.RAG)
	if cfg.RAG.ChunkOverlapTokens >= cfg.RAG.ChunkMaxTokens {
		return nil, fmt.Errorf("rag.chunk_overlap_tokens must be smaller than rag.chunk_max_tokens")
	}
	if cfg.RAG.ChunkMaxTokens > cfg.RAG.ChunkHardMaxTokens {
		return nil, fmt.Errorf("rag.chunk_max_tokens must not exceed rag.chunk_hard_max_tokens")
	}
	return &cfg, nil
}

func applyFetchDefaults(cfg *FetchConfig) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "filingchat (admin@filingchat.local)"
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = 30
	}
	if cfg.RequestsPerSec == 0 {
		// SEC EDGAR caps automated clients at 10 req/s, stay under it.
		cfg.RequestsPerSec = 8
	}
	if cfg.ExhibitMaxCount == 0 {
		cfg.ExhibitMaxCount = 10
	}
	if cfg.ExhibitTimeoutSec == 0 {
		cfg.ExhibitTimeoutSec = 15
	}
	if cfg.OpenRateLimitSec == 0 {
		cfg.OpenRateLimitSec = 6
	}
}

func applyRAGDefaults(cfg *RAGConfig) {
	if cfg.ChunkMaxTokens == 0 {
		cfg.ChunkMaxTokens = 1000
	}
	if cfg.ChunkHardMaxTokens == 0 {
		cfg.ChunkHardMaxTokens = 1500
	}
	if cfg.ChunkOverlapTokens == 0 {
		cfg.ChunkOverlapTokens = 200
	}
	if cfg.TopK == 0 {
		cfg.TopK = 10
	}
	if cfg.SemanticWeight == 0 && cfg.KeywordWeight == 0 {
		cfg.SemanticWeight = 0.6
		cfg.KeywordWeight = 0.4
	}
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = 8
	}
	if cfg.MaxFilings == 0 {
		cfg.MaxFilings = 50
	}
	if cfg.MinWordOverlap == 0 {
		cfg.MinWordOverlap = 2
	}
}
