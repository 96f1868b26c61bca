package memory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/petasbytes/mindbuddy/internal/windowing"
)

var (
	// ErrEmptyKey is returned when a conversation key is blank.
	ErrEmptyKey = errors.New("empty conversation key")

	// ErrStoreUnavailable is returned by Persist when the existing store could
	// neither be read nor moved aside. Writing would destroy it.
	ErrStoreUnavailable = errors.New("conversation store unavailable")
)

// Suffixes for store files moved aside at startup.
const (
	corruptSuffix    = ".corrupt"
	unreadableSuffix = ".unreadable"
)

// quarantiner is implemented by stores that can move unusable data aside.
type quarantiner interface {
	Quarantine(suffix string) (string, error)
}

// Memory holds the conversation logs for every key.
//
// Invariants:
//   - logs are append-only and kept in insertion order;
//   - turns under one key never appear under another;
//   - the in-memory state can always be rebuilt from the store alone.
//
// Memory is safe for concurrent use. Callers that need a consistent
// append/view/append sequence for a single key must serialise it themselves.
type Memory struct {
	mu    sync.Mutex
	logs  map[string][]Turn
	dirty bool

	// persistMu orders writes to the store so an older snapshot can never
	// overwrite a newer one.
	persistMu sync.Mutex

	store Store
	// blocked is set when the store must not be overwritten.
	blocked error

	estimate windowing.Estimator
	logger   logrus.FieldLogger
}

// Option configures a Memory.
type Option func(*Memory)

// WithEstimator sets the token estimator used by BoundedView.
func WithEstimator(e windowing.Estimator) Option {
	return func(m *Memory) {
		if e != nil {
			m.estimate = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Memory) {
		if l != nil {
			m.logger = l
		}
	}
}

// Open restores memory from store. A missing store starts empty. A store that
// cannot be read or decoded is logged, moved aside, and also starts empty; it
// never fails the caller. If it cannot be moved aside, Persist refuses to
// write until the file is fixed.
func Open(store Store, opts ...Option) (*Memory, error) {
	if store == nil {
		return nil, errors.New("memory: nil store")
	}

	m := &Memory{
		store:    store,
		estimate: windowing.CharEstimator,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logs = m.restore()
	return m, nil
}

func (m *Memory) restore() map[string][]Turn {
	logs, err := m.store.Load()
	if err == nil {
		if logs == nil {
			logs = map[string][]Turn{}
		}
		total := 0
		for _, turns := range logs {
			total += len(turns)
		}
		m.logger.WithFields(logrus.Fields{"keys": len(logs), "turns": total}).Debug("conversation store restored")
		return logs
	}

	suffix := unreadableSuffix
	if errors.Is(err, ErrCorruptStore) {
		suffix = corruptSuffix
	}

	entry := m.logger.WithError(err)
	moved := false
	if q, ok := m.store.(quarantiner); ok {
		if dst, qerr := q.Quarantine(suffix); qerr != nil {
			entry = entry.WithField("quarantine_error", qerr)
		} else {
			entry = entry.WithField("moved_to", dst)
			moved = true
		}
	}

	if !moved {
		m.blocked = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		entry.Error("conversation store unreadable and left in place; new turns will not be saved")
		return map[string][]Turn{}
	}
	entry.Warn("conversation store unreadable; starting with an empty log")
	return map[string][]Turn{}
}

// Append adds t to the end of the log for key.
func (m *Memory) Append(key string, t Turn) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if err := t.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[key] = append(m.logs[key], t)
	m.dirty = true
	return nil
}

// Turns returns a copy of the full log for key.
func (m *Memory) Turns(key string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTurns(m.logs[key])
}

// Len returns the number of turns stored under key.
func (m *Memory) Len(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs[key])
}

// Keys lists the conversation keys with at least one turn, sorted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.logs))
	for k, turns := range m.logs {
		if len(turns) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Dirty reports whether turns were appended since the last successful Persist.
func (m *Memory) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Cost returns the estimated token cost of turns.
func (m *Memory) Cost(turns []Turn) int {
	return windowing.Cost(turns, m.turnCost)
}

func (m *Memory) turnCost(t Turn) int {
	return m.estimate(t.Content)
}

// BoundedView returns the longest suffix of the log for key whose estimated
// cost fits within budget. If the newest turn alone exceeds budget it is
// returned by itself, so a non-empty log never yields an empty view.
func (m *Memory) BoundedView(key string, budget int) ([]Turn, windowing.Stats) {
	turns := m.Turns(key)
	return windowing.PrepareSendWindow(turns, budget, m.turnCost)
}

// Persist writes every log to the store. It fails with ErrStoreUnavailable,
// without writing, when the store found at startup could not be read or
// moved aside.
func (m *Memory) Persist() error {
	if m.blocked != nil {
		return fmt.Errorf("persist conversation store: %w", m.blocked)
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[string][]Turn, len(m.logs))
	for k, turns := range m.logs {
		snapshot[k] = cloneTurns(turns)
	}
	m.dirty = false
	m.mu.Unlock()

	if err := m.store.Save(snapshot); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return fmt.Errorf("persist conversation store: %w", err)
	}
	return nil
}

func cloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
