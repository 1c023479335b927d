// Package llm talks to language model providers and decodes their output strictly.
package llm

import (
	"context"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is a single-turn completion request
type Request struct {
	System      string
	Prompt      string
	Model       string  // Overrides the configured model
	MaxTokens   int     // Overrides the configured limit
	Temperature float64 // 0 uses the provider default for analysis (0.2)
	JSON        bool    // Ask the provider for a JSON object response
}

// Response is the model output
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	Cached     bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// StrictEvidence rejects outputs citing URLs outside the allowlist
	StrictEvidence bool

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const defaultTemperature = 0.2

// ConfigFromModel converts the LLM and HTTP sections of the runtime config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:       llmCfg.Provider,
		Model:          llmCfg.Model,
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Timeout:        time.Duration(llmCfg.Timeout) * time.Second,
		MaxTokens:      llmCfg.MaxTokens,
		StrictEvidence: llmCfg.StrictEvidence,
		HTTPProxy:      httpCfg.HTTPProxy,
		HTTPSProxy:     httpCfg.HTTPSProxy,
		NoProxy:        httpCfg.NoProxy,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

// resolve fills request defaults from the provider configuration
func (c Config) resolve(req Request, defaultModel string) (modelName string, maxTokens int, temperature float64) {
	modelName = req.Model
	if modelName == "" {
		modelName = c.Model
	}
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}
	temperature = req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	return modelName, maxTokens, temperature
}
