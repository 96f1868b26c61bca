package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/petasbytes/mindbuddy/internal/fsops"
)

// ErrCorruptStore is returned by Store.Load when the persisted data cannot be decoded.
var ErrCorruptStore = errors.New("conversation store corrupt")

// Store is the durable system of record for conversation logs.
type Store interface {
	// Load returns every persisted log keyed by conversation key. A store that
	// does not exist yet yields an empty map and no error.
	Load() (map[string][]Turn, error)
	// Save replaces the persisted state with logs.
	Save(logs map[string][]Turn) error
}

// storeFile is the on-disk layout: {"store": {"<key>": [turns...]}}.
type storeFile struct {
	Store map[string][]Turn `json:"store"`
}

// FileStore keeps all conversation logs in one JSON file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (map[string][]Turn, error) {
	b, err := fsops.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]Turn{}, nil
		}
		return nil, err
	}

	var f storeFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
	}
	if f.Store == nil {
		f.Store = map[string][]Turn{}
	}
	for key, turns := range f.Store {
		for i, t := range turns {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: %s[%d]: %v", ErrCorruptStore, s.path, key, i, err)
			}
		}
	}
	return f.Store, nil
}

func (s *FileStore) Save(logs map[string][]Turn) error {
	b, err := json.MarshalIndent(storeFile{Store: logs}, "", "  ")
	if err != nil {
		return err
	}
	return fsops.WriteFileAtomic(s.path, append(b, '\n'), 0o600)
}

// Quarantine renames the store file to path+suffix so the next Save does not
// overwrite it, and returns where it went.
func (s *FileStore) Quarantine(suffix string) (string, error) {
	return fsops.MoveAside(s.path, suffix)
}
