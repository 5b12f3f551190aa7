// Package config loads pipeline settings from environment variables and an
// optional YAML file. Environment variables take precedence over file values,
// and every knob has a usable default so that tests and local runs need no
// configuration at all (beyond API keys for live providers).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "VERACITY_"

// Settings holds every tunable of the fact-checking pipeline.
type Settings struct {
	// Model provider selection: "openai" or "anthropic".
	Provider string `yaml:"provider"`
	// Model name passed to the selected provider.
	Model string `yaml:"model"`

	// Provider credentials. The matching provider SDK also honors its own
	// environment variables, so these may stay empty.
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// Gemini API key and model for query embeddings.
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	EmbeddingModel string `yaml:"embedding_model"`

	// Web search endpoint returning JSON results, plus its API key.
	SearchEndpoint string `yaml:"search_endpoint"`
	SearchAPIKey   string `yaml:"search_api_key"`

	// Scrape API (scrape.do compatible) endpoint, token and geo code.
	ScrapeEndpoint string `yaml:"scrape_endpoint"`
	ScrapeToken    string `yaml:"scrape_token"`
	ScrapeGeoCode  string `yaml:"scrape_geo_code"`

	// Research orchestration knobs.
	BatchSize      int     `yaml:"batch_size"`
	MaxQuestions   int     `yaml:"max_questions"`
	MaxSearchCalls int     `yaml:"max_search_calls"`
	MaxScrapeCalls int     `yaml:"max_scrape_calls"`
	DedupThreshold float64 `yaml:"dedup_threshold"`

	// Run-wide budget across all model calls. Zero means unlimited.
	MaxModelCalls int `yaml:"max_model_calls"`

	// Outbound HTTP timeout for search and scrape calls.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Logging.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns Settings populated with the documented defaults.
func Default() *Settings {
	return &Settings{
		Provider:       "openai",
		Model:          "gpt-4o",
		EmbeddingModel: "gemini-embedding-001",
		ScrapeEndpoint: "https://api.scrape.do",
		ScrapeGeoCode:  "US",
		BatchSize:      5,
		MaxQuestions:   12,
		MaxSearchCalls: 4,
		MaxScrapeCalls: 3,
		DedupThreshold: 0.85,
		MaxModelCalls:  100,
		HTTPTimeout:    60 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds Settings from defaults, an optional YAML file, and environment
// variables, in increasing order of precedence. An empty path skips the file.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	s.applyEnv()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) applyEnv() {
	envString(&s.Provider, "PROVIDER")
	envString(&s.Model, "MODEL")
	envString(&s.OpenAIAPIKey, "OPENAI_API_KEY")
	envString(&s.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envString(&s.GeminiAPIKey, "GEMINI_API_KEY")
	envString(&s.EmbeddingModel, "EMBEDDING_MODEL")
	envString(&s.SearchEndpoint, "SEARCH_ENDPOINT")
	envString(&s.SearchAPIKey, "SEARCH_API_KEY")
	envString(&s.ScrapeEndpoint, "SCRAPE_ENDPOINT")
	envString(&s.ScrapeToken, "SCRAPE_TOKEN")
	envString(&s.ScrapeGeoCode, "SCRAPE_GEO_CODE")
	envInt(&s.BatchSize, "BATCH_SIZE")
	envInt(&s.MaxQuestions, "MAX_QUESTIONS")
	envInt(&s.MaxSearchCalls, "MAX_SEARCH_CALLS")
	envInt(&s.MaxScrapeCalls, "MAX_SCRAPE_CALLS")
	envFloat(&s.DedupThreshold, "DEDUP_THRESHOLD")
	envInt(&s.MaxModelCalls, "MAX_MODEL_CALLS")
	envDuration(&s.HTTPTimeout, "HTTP_TIMEOUT")
	envString(&s.LogLevel, "LOG_LEVEL")
	envString(&s.LogFormat, "LOG_FORMAT")
}

// Validate checks value ranges. It does not require credentials because test
// and offline configurations replace the remote clients entirely.
func (s *Settings) Validate() error {
	switch s.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", s.Provider)
	}

	if s.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", s.BatchSize)
	}

	if s.MaxSearchCalls < 0 || s.MaxScrapeCalls < 0 {
		return fmt.Errorf("call budgets must not be negative")
	}

	if s.DedupThreshold < 0 || s.DedupThreshold > 1 {
		return fmt.Errorf("dedup_threshold must be within [0,1], got %v", s.DedupThreshold)
	}

	return nil
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
