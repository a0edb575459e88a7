package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/tailscale/hujson"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps all settings in one JSON document. The document may carry
// comments and trailing commas. Writes go through a temporary file and a
// rename, under an advisory lock shared with other processes.
type FileStore struct {
	path string
	lock *flock.Flock

	mu     sync.Mutex
	closed bool
}

// OpenFile opens (or prepares to create) the settings document at path
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the settings document location
func (f *FileStore) Path() string {
	return f.path
}

// Get implements Store
func (f *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}

	locked, err := f.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", false, fmt.Errorf("failed to lock settings file: %w", err)
	}
	if !locked {
		return "", false, fmt.Errorf("failed to lock settings file: %s", f.path)
	}
	defer func() {
		_ = f.lock.Unlock()
	}()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// PutAll implements Store
func (f *FileStore) PutAll(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock settings file: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock settings file: %s", f.path)
	}
	defer func() {
		_ = f.lock.Unlock()
	}()

	current, err := f.read()
	if err != nil {
		return err
	}
	maps.Copy(current, values)

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary settings file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename settings file: %w", err)
	}
	return nil
}

// Close implements Store
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.lock.Close()
}

// read loads the document; a missing file is an empty document
func (f *FileStore) read() (map[string]string, error) {
	// #nosec G304 -- path comes from configuration, not from remote input
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	values := make(map[string]string)
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}

	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if err := json.Unmarshal(standard, &values); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return values, nil
}
