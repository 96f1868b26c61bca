// Package provider adapts hosted language models to a single completion call:
// a system prompt plus an ordered history in, reply text out.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/petasbytes/mindbuddy/memory"
)

var (
	ErrUnknownProvider = errors.New("unknown model provider")
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrNoMessages      = errors.New("no messages to send")
	ErrEmptyCompletion = errors.New("model returned no choices")
)

// Completer produces the assistant's reply to history. The last turn of
// history is the user's newest message.
type Completer interface {
	Complete(ctx context.Context, system string, history []memory.Turn) (string, error)
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and configures a provider.
type Config struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// MaxRetries overrides the SDK retry count when set.
	MaxRetries *int `yaml:"max_retries"`

	HTTPClient *http.Client `yaml:"-"`
}

// New builds the completer named by cfg.Provider.
func New(cfg Config) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, cfg.Provider)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	if strings.EqualFold(strings.TrimSpace(provider), ProviderAnthropic) {
		return string(DefaultAnthropicModel)
	}
	return DefaultOpenAIModel
}

// nonEmpty drops turns without text; hosted APIs reject empty content blocks.
func nonEmpty(history []memory.Turn) []memory.Turn {
	out := make([]memory.Turn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Content) != "" {
			out = append(out, t)
		}
	}
	return out
}
