package chat

import (
	"github.com/sirupsen/logrus"

	"github.com/petasbytes/mindbuddy/internal/provider"
	"github.com/petasbytes/mindbuddy/internal/telemetry"
	"github.com/petasbytes/mindbuddy/memory"
	"github.com/petasbytes/mindbuddy/profile"
)

const (
	DefaultTokenBudget     = 3000
	DefaultConversationKey = "default"
)

// Option configures an Engine.
type Option func(*Engine)

// WithCompleter sets the model used to produce replies.
func WithCompleter(c provider.Completer) Option {
	return func(e *Engine) { e.completer = c }
}

// WithMemory sets the conversation memory.
func WithMemory(m *memory.Memory) Option {
	return func(e *Engine) { e.mem = m }
}

// WithProfile sets the user profile and the conversational style id. The
// system prompt is assembled from them when the engine is built. An unknown
// style id falls back to the default style.
func WithProfile(p profile.Profile, style string) Option {
	return func(e *Engine) {
		e.profile = p
		e.hasProfile = true
		e.style = style
	}
}

// WithSystemPrompt uses prompt verbatim instead of assembling one from a profile.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.system = prompt }
}

// WithTokenBudget sets the estimated token budget for the history sent per call.
func WithTokenBudget(n int) Option {
	return func(e *Engine) { e.budget = n }
}

// WithConversationKey sets the key used by Chat.
func WithConversationKey(key string) Option {
	return func(e *Engine) { e.key = key }
}

// WithModelName records the model name in log and telemetry fields.
func WithModelName(name string) Option {
	return func(e *Engine) { e.model = name }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTelemetry sets the event emitter. A nil emitter disables events.
func WithTelemetry(t *telemetry.Emitter) Option {
	return func(e *Engine) { e.events = t }
}
