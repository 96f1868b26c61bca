// Package telemetry writes structured JSONL events describing each chat turn.
//
// Events are opt-in and local: one JSON object per line, appended to a file
// the user owns. Message text is never written, only sizes and counts.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPath is where events go when no path is configured.
const DefaultPath = ".mindbuddy/events.jsonl"

// Config controls event emission.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Emitter appends events to a JSONL file. A nil *Emitter is valid and drops
// every event.
type Emitter struct {
	cfg    Config
	logger logrus.FieldLogger

	mu sync.Mutex
}

// New returns an emitter for cfg.
func New(cfg Config, logger logrus.FieldLogger) *Emitter {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Emitter{cfg: cfg, logger: logger}
}

// Enabled reports whether events are written.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled
}

// Emit writes a single JSON line when enabled.
// It augments fields with RFC3339Nano time and the event name.
func (e *Emitter) Emit(name string, fields map[string]any) {
	if !e.Enabled() {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		e.logger.WithError(err).WithField("event", name).Warn("telemetry: marshal")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dir := filepath.Dir(e.cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.WithError(err).WithField("dir", dir).Warn("telemetry: mkdir")
		return
	}

	f, err := os.OpenFile(e.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		e.logger.WithError(err).WithField("path", e.cfg.Path).Warn("telemetry: open")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		e.logger.WithError(err).WithField("path", e.cfg.Path).Warn("telemetry: write")
	}
}
