package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/mindbuddy/memory"
)

const maxThreadIDLen = 64

// ErrInvalidThread is returned for thread ids outside [A-Za-z0-9._-]{1,64}.
var ErrInvalidThread = errors.New("invalid thread id")

// Thread summarises one conversation key.
type Thread struct {
	ID    string `json:"id"`
	Turns int    `json:"turns"`
}

// CheckThreadID validates a conversation key supplied by a caller.
func CheckThreadID(id string) error {
	if strings.TrimSpace(id) == "" {
		return memory.ErrEmptyKey
	}
	if len(id) > maxThreadIDLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidThread, maxThreadIDLen)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidThread, id)
		}
	}
	return nil
}

// Threads lists every conversation with at least one turn, sorted by id.
func (e *Engine) Threads() []Thread {
	keys := e.mem.Keys()
	out := make([]Thread, 0, len(keys))
	for _, k := range keys {
		out = append(out, Thread{ID: k, Turns: e.mem.Len(k)})
	}
	return out
}
