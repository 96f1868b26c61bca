package fsops

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotAFile is returned when a path names a directory.
var ErrNotAFile = errors.New("path is a directory")

// ReadFile reads a regular file. A missing file is reported with an error
// matching os.ErrNotExist so callers can treat it as a first run.
func ReadFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotAFile)
	}
	return os.ReadFile(path)
}

// MoveAside renames path to path+suffix, replacing any earlier file with that
// name, and returns the new location.
func MoveAside(path, suffix string) (string, error) {
	dst := path + suffix
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}
