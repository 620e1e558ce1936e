package ai

import (
	"errors"

	"github.com/hrygo/lexagent/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	Embedding EmbeddingConfig
	LLM       LLMConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Model      string // text-embedding-3-small
	Dimensions int    // 0 means provider default
	APIKey     string
	BaseURL    string
}

// LLMConfig represents LLM configuration.
// Any OpenAI-compatible endpoint works; OpenRouter is the default.
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.2
	MaxRetries  int     // default: 3
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	cfg.Embedding = EmbeddingConfig{
		Model:      p.EmbeddingModel,
		Dimensions: p.EmbeddingDimensions,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
	}

	cfg.LLM = LLMConfig{
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   2048,
		Temperature: 0.2,
		MaxRetries:  3,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	return nil
}
