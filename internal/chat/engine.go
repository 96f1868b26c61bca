package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petasbytes/mindbuddy/internal/metrics"
	"github.com/petasbytes/mindbuddy/internal/provider"
	"github.com/petasbytes/mindbuddy/internal/telemetry"
	"github.com/petasbytes/mindbuddy/memory"
	"github.com/petasbytes/mindbuddy/profile"
	"github.com/petasbytes/mindbuddy/prompt"
)

// Engine is safe for concurrent use. Turns for one conversation key are
// processed one at a time; different keys proceed in parallel.
type Engine struct {
	completer provider.Completer
	mem       *memory.Memory

	profile    profile.Profile
	hasProfile bool
	style      string
	system     string

	budget int
	key    string
	model  string

	logger logrus.FieldLogger
	events *telemetry.Emitter

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New builds an Engine. It needs a completer, a memory and either a profile
// or an explicit system prompt.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		budget: DefaultTokenBudget,
		key:    DefaultConversationKey,
		logger: logrus.StandardLogger(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.completer == nil {
		return nil, fmt.Errorf("%w: no model completer configured", ErrNotReady)
	}
	if e.mem == nil {
		return nil, fmt.Errorf("%w: no conversation memory configured", ErrNotReady)
	}
	if e.budget <= 0 {
		return nil, fmt.Errorf("%w: token budget must be positive, got %d", ErrNotReady, e.budget)
	}
	if err := CheckThreadID(e.key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	if e.system == "" {
		if !e.hasProfile {
			return nil, fmt.Errorf("%w: no profile or system prompt configured", ErrNotReady)
		}
		system, err := prompt.Assemble(e.profile, prompt.ResolveStyle(e.style))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		e.system = system
	}

	e.logger.WithFields(logrus.Fields{
		"style":  string(prompt.ParseStyle(e.style)),
		"budget": e.budget,
		"key":    e.key,
	}).Debug("chat engine ready")
	return e, nil
}

// Profile returns the profile the system prompt was built from. It is the
// zero Profile when the engine was given an explicit system prompt.
func (e *Engine) Profile() profile.Profile { return e.profile }

// SystemPrompt returns the system prompt sent with every call.
func (e *Engine) SystemPrompt() string { return e.system }

// ConversationKey returns the key used by Chat.
func (e *Engine) ConversationKey() string { return e.key }

// Memory returns the underlying conversation memory.
func (e *Engine) Memory() *memory.Memory { return e.mem }

// Chat runs one turn on the default conversation key.
func (e *Engine) Chat(ctx context.Context, msg string) (string, error) {
	return e.ChatKey(ctx, e.key, msg)
}

// ChatKey runs one turn on key and returns the model's reply verbatim.
//
// Errors:
//   - ErrEmptyMessage: msg is blank; memory is untouched.
//   - memory.ErrEmptyKey, ErrInvalidThread: key is not a usable thread id.
//   - *ModelInvocationError: the call failed or ctx ended; the user turn is kept.
//   - *PersistError: the reply is recorded in memory but not on disk.
func (e *Engine) ChatKey(ctx context.Context, key, msg string) (string, error) {
	if strings.TrimSpace(msg) == "" {
		return "", ErrEmptyMessage
	}
	if err := CheckThreadID(key); err != nil {
		return "", err
	}

	unlock := e.lockKey(key)
	defer unlock()

	ctx, turnID := telemetry.EnsureTurnID(ctx)
	log := e.logger.WithFields(logrus.Fields{"turn_id": turnID, "key": key})

	if err := e.mem.Append(key, memory.UserTurn(msg)); err != nil {
		return "", err
	}
	e.events.EmitLocalFeatures(ctx, msg)

	view, stats := e.mem.BoundedView(key, e.budget)
	e.events.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"key":                key,
		"model":              e.model,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_turns":     stats.Included,
		"skipped_turns":      stats.Skipped,
		"over_budget_newest": stats.OverBudgetNewest,
		"history":            historyFeatures(view),
	})
	log.WithFields(logrus.Fields{
		"budget":   stats.Budget,
		"total":    stats.Total,
		"included": stats.Included,
		"skipped":  stats.Skipped,
	}).Debug("history window prepared")
	if stats.OverBudgetNewest {
		log.Warn("newest message alone exceeds the token budget; sending it by itself")
	}

	start := time.Now()
	reply, err := e.completer.Complete(ctx, e.system, view)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.WithError(err).Warn("model call failed")
		e.events.Emit("chat_turn", map[string]any{
			"turn_id":    turnID,
			"key":        key,
			"ok":         false,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		return "", &ModelInvocationError{Key: key, Err: err}
	}

	if err := e.mem.Append(key, memory.AssistantTurn(reply)); err != nil {
		return "", err
	}

	crisis := prompt.IsCrisisHandoff(reply)
	if crisis {
		log.Warn("assistant handed off to crisis resources")
	}
	e.events.Emit("chat_turn", map[string]any{
		"turn_id":    turnID,
		"key":        key,
		"ok":         true,
		"crisis":     crisis,
		"latency_ms": time.Since(start).Milliseconds(),
	})

	if err := e.mem.Persist(); err != nil {
		log.WithError(err).Error("persist failed after reply")
		return reply, &PersistError{Key: key, Reply: reply, Err: err}
	}
	return reply, nil
}

// Close persists any unsaved turns.
func (e *Engine) Close() error {
	if !e.mem.Dirty() {
		return nil
	}
	if err := e.mem.Persist(); err != nil {
		return err
	}
	e.logger.Debug("conversation store flushed on close")
	return nil
}

func historyFeatures(turns []memory.Turn) metrics.Features {
	texts := make([]string, len(turns))
	for i, t := range turns {
		texts[i] = t.Content
	}
	return metrics.Summarize(texts...)
}

func (e *Engine) lockKey(key string) func() {
	e.locksMu.Lock()
	mu, ok := e.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[key] = mu
	}
	e.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// IsUserError reports whether err is caused by the caller's input rather than
// by the model or the store.
func IsUserError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) || errors.Is(err, memory.ErrEmptyKey) || errors.Is(err, ErrInvalidThread)
}
